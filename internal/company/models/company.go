// Package models defines the transfer objects exchanged with API clients.
// Validation rules live in the `validate` tags and are enforced by the handlers
// before a request reaches the service layer.
package models

import (
	"github.com/google/uuid"
)

// CompanyDto is the read representation of a company.
type CompanyDto struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	FullAddress string    `json:"fullAddress"`
}

// CompanyForCreation is the payload accepted when creating a company,
// optionally with its initial employees.
type CompanyForCreation struct {
	// Name is the company name.
	Name string `json:"name" validate:"required,max=30"`
	// Address is the street address.
	Address string `json:"address" validate:"required,max=60"`
	// Country completes the address.
	Country string `json:"country" validate:"required,max=20"`
	// Employees are created together with the company.
	Employees []EmployeeForCreation `json:"employees" validate:"omitempty,dive"`
}

// CompanyForUpdate replaces the company fields; listed employees are added to it.
type CompanyForUpdate struct {
	Name      string                `json:"name" validate:"required,max=30"`
	Address   string                `json:"address" validate:"required,max=60"`
	Country   string                `json:"country" validate:"required,max=20"`
	Employees []EmployeeForCreation `json:"employees" validate:"omitempty,dive"`
}

// CompanyCollection is the result of a batch creation.
type CompanyCollection struct {
	Companies []CompanyDto
	// IDs is the comma-separated id list used to address the collection.
	IDs string
}
