package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/studiodesk/studio-desk/internal/domain"
)

// ReferenceRepository lists the lookup entities behind filter dropdowns.
type ReferenceRepository interface {
	Categories(ctx context.Context) ([]domain.Category, error)
	Subcategories(ctx context.Context) ([]domain.Subcategory, error)
	Studios(ctx context.Context) ([]domain.Studio, error)
}

type referenceRepository struct {
	pool *pgxpool.Pool
}

// NewReferenceRepository returns a Postgres-backed implementation.
func NewReferenceRepository(pool *pgxpool.Pool) ReferenceRepository {
	return &referenceRepository{pool: pool}
}

func (r *referenceRepository) Categories(ctx context.Context) ([]domain.Category, error) {
	const query = `
        SELECT id, name, code, icon, color, is_active
        FROM categories WHERE is_active ORDER BY name`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Code, &c.Icon, &c.Color, &c.IsActive); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

func (r *referenceRepository) Subcategories(ctx context.Context) ([]domain.Subcategory, error) {
	const query = `
        SELECT id, category_id, name, code, is_active
        FROM subcategories WHERE is_active ORDER BY category_id, name`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Subcategory
	for rows.Next() {
		var s domain.Subcategory
		if err := rows.Scan(&s.ID, &s.CategoryID, &s.Name, &s.Code, &s.IsActive); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

func (r *referenceRepository) Studios(ctx context.Context) ([]domain.Studio, error) {
	const query = `
        SELECT id, name, code, is_active
        FROM studios WHERE is_active ORDER BY name`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Studio
	for rows.Next() {
		var s domain.Studio
		if err := rows.Scan(&s.ID, &s.Name, &s.Code, &s.IsActive); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	return result, rows.Err()
}
