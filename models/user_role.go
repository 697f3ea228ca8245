package models

import "time"

const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
)

// IsKnownRole reports whether role is one of the roles stored in user_roles.
func IsKnownRole(role string) bool {
	return role == RoleAdmin || role == RoleStaff
}

type UserRole struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index:idx_user_role,unique" json:"user_id"`
	Role      string    `gorm:"size:20;not null;index:idx_user_role,unique" json:"role"`
	CreatedAt time.Time `json:"created_at"`
}
