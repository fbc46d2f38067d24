package models

import "strings"

// Role is the single authority granted to an identity.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

// ParseRole normalizes a configured role name, accepting an optional "ROLE_" prefix.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(s)), "ROLE_"))
	switch r {
	case RoleAdmin, RoleUser:
		return r, true
	}
	return "", false
}

// User is a credential record of the identity store.
type User struct {
	ID           string `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Username     string `json:"username" gorm:"uniqueIndex;type:varchar(100)"`
	PasswordHash string `json:"-" gorm:"type:varchar(255)"` // bcrypt, never serialized
	Role         Role   `json:"role" gorm:"type:varchar(16)"`
}

// TableName pins the table name regardless of naming strategy.
func (User) TableName() string {
	return "users"
}

// Identity is the principal attached to an authenticated request.
type Identity struct {
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

// HasRole reports whether the identity holds any of the given roles.
func (i *Identity) HasRole(roles ...Role) bool {
	if i == nil {
		return false
	}
	for _, r := range roles {
		if i.Role == r {
			return true
		}
	}
	return false
}
