package dto

import "github.com/studiodesk/studio-desk/internal/domain"

// SubcategoryResponse describes a subcategory.
type SubcategoryResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
}

// CategoryResponse describes a category with its subcategories.
type CategoryResponse struct {
	ID            string                `json:"id"`
	Name          string                `json:"name"`
	Code          string                `json:"code"`
	Icon          string                `json:"icon"`
	Color         string                `json:"color"`
	Subcategories []SubcategoryResponse `json:"subcategories"`
}

// StudioResponse describes a studio.
type StudioResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
}

// NewCategoryResponses nests subcategories under their categories.
func NewCategoryResponses(categories []domain.Category, subcategories []domain.Subcategory) []CategoryResponse {
	out := make([]CategoryResponse, 0, len(categories))
	for _, c := range categories {
		resp := CategoryResponse{ID: c.ID, Name: c.Name, Code: c.Code, Icon: c.Icon, Color: c.Color, Subcategories: []SubcategoryResponse{}}
		for _, s := range subcategories {
			if s.CategoryID == c.ID {
				resp.Subcategories = append(resp.Subcategories, SubcategoryResponse{ID: s.ID, Name: s.Name, Code: s.Code})
			}
		}
		out = append(out, resp)
	}
	return out
}

// NewStudioResponses maps studios.
func NewStudioResponses(studios []domain.Studio) []StudioResponse {
	out := make([]StudioResponse, 0, len(studios))
	for _, s := range studios {
		out = append(out, StudioResponse{ID: s.ID, Name: s.Name, Code: s.Code})
	}
	return out
}
