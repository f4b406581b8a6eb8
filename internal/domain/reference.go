package domain

import "time"

// Category groups tickets by subject area.
type Category struct {
	ID       string
	Name     string
	Code     string
	Icon     string
	Color    string
	IsActive bool
}

// Subcategory refines a category.
type Subcategory struct {
	ID         string
	CategoryID string
	Name       string
	Code       string
	IsActive   bool
}

// Studio is a physical location a ticket is raised against.
type Studio struct {
	ID       string
	Name     string
	Code     string
	IsActive bool
}

// UserRole enumerates dashboard roles.
type UserRole string

const (
	UserRoleAgent UserRole = "agent"
	UserRoleLead  UserRole = "lead"
	UserRoleAdmin UserRole = "admin"
)

// User is a staff member who reports or handles tickets.
type User struct {
	ID           string
	Name         string
	Code         string
	Email        string
	Team         string
	Role         UserRole
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
}
