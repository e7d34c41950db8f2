package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is an identity record used to authenticate API callers.
type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	FirstName    string    `gorm:"size:100"`
	LastName     string    `gorm:"size:100"`
	UserName     string    `gorm:"size:256;uniqueIndex;not null"`
	Email        *string   `gorm:"size:256;uniqueIndex"`
	PhoneNumber  string    `gorm:"size:50"`
	PasswordHash string    `gorm:"not null"`
	Roles        []Role    `gorm:"many2many:user_roles;"`
	CreatedAt    time.Time
}

func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// RoleNames lists the names of the roles assigned to the user.
func (u *User) RoleNames() []string {
	names := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		names = append(names, r.Name)
	}
	return names
}

// Role is a named permission group. Rows are seeded by migration.
type Role struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name           string    `gorm:"size:256;uniqueIndex;not null"`
	NormalizedName string    `gorm:"size:256"`
}
