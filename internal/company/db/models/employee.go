package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Employee belongs to exactly one Company.
type Employee struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"size:30;not null"`
	Age       int       `gorm:"not null"`
	Position  string    `gorm:"size:20;not null"`
	CompanyID uuid.UUID `gorm:"type:uuid;not null;index"`
}

func (e *Employee) BeforeCreate(_ *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

func (e *Employee) TrackedColumns() map[string]interface{} {
	return map[string]interface{}{
		"name":     e.Name,
		"age":      e.Age,
		"position": e.Position,
	}
}
