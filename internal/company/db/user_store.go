package db

import (
	"context"
	"errors"

	entities "github.com/gartstein/companyemployees/internal/company/db/models"
	e "github.com/gartstein/companyemployees/internal/company/errors"
	"gorm.io/gorm"
)

// UserStore persists users and their role assignments.
type UserStore struct {
	db *gorm.DB
}

func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) FindByUserName(ctx context.Context, userName string) (*entities.User, error) {
	var user entities.User
	result := s.db.WithContext(ctx).Preload("Roles").First(&user, "user_name = ?", userName)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, e.ErrNotFound
		}
		return nil, result.Error
	}
	return &user, nil
}

func (s *UserStore) ExistsByUserNameOrEmail(ctx context.Context, userName, email string) (bool, error) {
	var count int64
	query := s.db.WithContext(ctx).Model(&entities.User{}).Where("user_name = ?", userName)
	if email != "" {
		query = query.Or("email = ?", email)
	}
	err := query.Count(&count).Error
	return count > 0, err
}

func (s *UserStore) FindRoles(ctx context.Context, names []string) ([]entities.Role, error) {
	var roles []entities.Role
	if len(names) == 0 {
		return roles, nil
	}
	err := s.db.WithContext(ctx).Where("name IN ?", names).Find(&roles).Error
	return roles, err
}

// CreateUser inserts the user and its role assignments. Roles must already exist.
func (s *UserStore) CreateUser(ctx context.Context, user *entities.User) error {
	result := s.db.WithContext(ctx).Omit("Roles.*").Create(user)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return e.BadRequest("User name or email is already taken.")
		}
		return result.Error
	}
	return nil
}
