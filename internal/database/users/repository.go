// Package users provides database operations for users and their roles.
//
// # Usage
//
//	repo := users.NewRepository(db)
//	isLibrarian, err := repo.HasRole(userID, entities.RoleLibrarian)
package users

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/pranshh/library-management-mad2/internal/entities"
)

// Repository handles all user database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new users repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateUser inserts a user together with any roles already attached.
func (r *Repository) CreateUser(user *entities.User) error {
	return r.db.Create(user).Error
}

// GetUserByID retrieves a user by ID with roles preloaded.
func (r *Repository) GetUserByID(id uint) (*entities.User, error) {
	var user entities.User
	err := r.db.Preload("Roles").First(&user, id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByEmail retrieves a user by email with roles preloaded.
func (r *Repository) GetUserByEmail(email string) (*entities.User, error) {
	var user entities.User
	err := r.db.Preload("Roles").Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByUsername retrieves a user by username.
func (r *Repository) GetUserByUsername(username string) (*entities.User, error) {
	var user entities.User
	err := r.db.Preload("Roles").Where("username = ?", username).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ListUsers returns all users ordered by ID.
func (r *Repository) ListUsers() ([]entities.User, error) {
	var users []entities.User
	err := r.db.Preload("Roles").Order("id").Find(&users).Error
	return users, err
}

// EmailTaken reports whether another user (not excludeID) owns email.
func (r *Repository) EmailTaken(email string, excludeID uint) (bool, error) {
	return r.exists("email = ?", email, excludeID)
}

// UsernameTaken reports whether another user (not excludeID) owns username.
func (r *Repository) UsernameTaken(username string, excludeID uint) (bool, error) {
	return r.exists("username = ?", username, excludeID)
}

func (r *Repository) exists(cond string, value string, excludeID uint) (bool, error) {
	var count int64
	query := r.db.Model(&entities.User{}).Where(cond, value)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// UpdateUser applies the given column updates to a user.
func (r *Repository) UpdateUser(id uint, updates map[string]any) error {
	result := r.db.Model(&entities.User{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// GetRoleByName retrieves a role by its name.
func (r *Repository) GetRoleByName(name string) (*entities.Role, error) {
	var role entities.Role
	err := r.db.Where("name = ?", name).First(&role).Error
	if err != nil {
		return nil, err
	}
	return &role, nil
}

// AssignRole links a user to the named role.
func (r *Repository) AssignRole(userID uint, roleName string) error {
	role, err := r.GetRoleByName(roleName)
	if err != nil {
		return fmt.Errorf("find role %s: %w", roleName, err)
	}
	user := entities.User{ID: userID}
	return r.db.Model(&user).Association("Roles").Append(role)
}

// HasRole checks role membership with an indexed join on roles_users.
func (r *Repository) HasRole(userID uint, roleName string) (bool, error) {
	var count int64
	err := r.db.Table("roles_users").
		Joins("JOIN roles ON roles.id = roles_users.role_id").
		Where("roles_users.user_id = ? AND roles.name = ?", userID, roleName).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// CountUsersWithRole returns how many users hold the named role.
func (r *Repository) CountUsersWithRole(roleName string) (int64, error) {
	var count int64
	err := r.db.Table("roles_users").
		Joins("JOIN roles ON roles.id = roles_users.role_id").
		Where("roles.name = ?", roleName).
		Count(&count).Error
	return count, err
}
