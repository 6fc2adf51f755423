package models

import "time"

// Model is embedded by every persisted entity.
type Model struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// IsValidRole reports whether r is one of the known roles.
func IsValidRole(r string) bool {
	return r == RoleUser || r == RoleAdmin
}
