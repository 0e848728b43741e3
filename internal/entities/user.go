package entities

import "time"

// RoleLibrarian is the only role with elevated permissions.
const RoleLibrarian = "librarian"

type User struct {
	ID           uint      `gorm:"primaryKey" json:"user_id"`
	Email        string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Username     string    `gorm:"uniqueIndex;size:255;not null" json:"username"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	Active       bool      `gorm:"not null;default:true" json:"active"`
	FsUniquifier string    `gorm:"uniqueIndex;size:64;not null" json:"-"`
	NoOfBooks    int       `gorm:"not null;default:0" json:"no_of_books"` // mirrors the count of granted requests
	Roles        []Role    `gorm:"many2many:roles_users;" json:"roles,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// HasRole reports whether the preloaded role set contains name.
func (u *User) HasRole(name string) bool {
	for _, r := range u.Roles {
		if r.Name == name {
			return true
		}
	}
	return false
}

// RoleName is the single role label exposed by the API.
func (u *User) RoleName() string {
	if u.HasRole(RoleLibrarian) {
		return RoleLibrarian
	}
	return "user"
}

type Role struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"uniqueIndex;size:80;not null" json:"name"`
	Description string `gorm:"size:255" json:"description,omitempty"`
}
