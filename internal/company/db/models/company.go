// Package models contains the persisted entities of the application,
// configured to work using GORM as the ORM.
package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Company represents a company entity in the database.
// It owns its employees; deleting a company deletes them as well.
type Company struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Name      string     `gorm:"size:30;not null"`
	Address   string     `gorm:"size:60;not null"`
	Country   string     `gorm:"size:20"`
	Employees []Employee `gorm:"foreignKey:CompanyID;constraint:OnDelete:CASCADE"`
}

// BeforeCreate assigns an identifier to companies that do not have one yet.
func (c *Company) BeforeCreate(_ *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// TrackedColumns returns the column values compared by the change tracker.
func (c *Company) TrackedColumns() map[string]interface{} {
	return map[string]interface{}{
		"name":    c.Name,
		"address": c.Address,
		"country": c.Country,
	}
}
