package models

import "time"

// UserRole is the access role assigned to a user account.
type UserRole string

const (
	RoleUser      UserRole = "user"
	RoleModerator UserRole = "moderator"
	RoleAdmin     UserRole = "admin"
)

// ValidRole reports whether s is one of the known role values.
func ValidRole(s string) bool {
	switch UserRole(s) {
	case RoleUser, RoleModerator, RoleAdmin:
		return true
	}
	return false
}

// User represents a registered account. ConfirmationCode holds the bcrypt
// hash of the most recently issued signup confirmation code.
type User struct {
	ID               string    `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Username         string    `json:"username" gorm:"uniqueIndex;type:varchar(150)" validate:"required,max=150,username"`
	Email            string    `json:"email" gorm:"uniqueIndex;type:varchar(254)" validate:"required,email,max=254"`
	FirstName        string    `json:"first_name" gorm:"type:varchar(150)" validate:"omitempty,max=150"`
	LastName         string    `json:"last_name" gorm:"type:varchar(150)" validate:"omitempty,max=150"`
	Bio              string    `json:"bio"`
	Role             UserRole  `json:"role" gorm:"type:varchar(9);default:user"`
	ConfirmationCode string    `json:"-" gorm:"type:varchar(60)"` // No json tag value for security
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// IsAdmin reports whether the user carries the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsModerator reports whether the user carries the moderator role.
func (u *User) IsModerator() bool {
	return u.Role == RoleModerator
}
