package models

import (
	"math"

	"github.com/google/uuid"
)

const maxPageSize = 50

type EmployeeDto struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Age      int       `json:"age"`
	Position string    `json:"position"`
}

type EmployeeForCreation struct {
	Name     string `json:"name" validate:"required,max=30"`
	Age      int    `json:"age" validate:"required,min=18"`
	Position string `json:"position" validate:"required,max=20"`
}

type EmployeeForUpdate struct {
	Name     string `json:"name" validate:"required,max=30"`
	Age      int    `json:"age" validate:"required,min=18"`
	Position string `json:"position" validate:"required,max=20"`
}

// EmployeeParameters controls paging, filtering, searching and ordering of employee lists.
type EmployeeParameters struct {
	PageNumber int
	PageSize   int
	MinAge     int
	MaxAge     int
	SearchTerm string
	OrderBy    string
}

// NewEmployeeParameters returns parameters with the default page and an unbounded age range.
func NewEmployeeParameters() EmployeeParameters {
	return EmployeeParameters{
		PageNumber: 1,
		PageSize:   10,
		MinAge:     0,
		MaxAge:     math.MaxInt32,
		OrderBy:    "name",
	}
}

// Normalize clamps the page size and number to valid values.
func (p *EmployeeParameters) Normalize() {
	if p.PageNumber < 1 {
		p.PageNumber = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 10
	}
	if p.PageSize > maxPageSize {
		p.PageSize = maxPageSize
	}
}

// ValidAgeRange reports whether MaxAge is not below MinAge.
func (p EmployeeParameters) ValidAgeRange() bool {
	return p.MaxAge >= p.MinAge
}

// MetaData describes one page of a paged list. It is sent in the X-Pagination header.
type MetaData struct {
	CurrentPage int   `json:"CurrentPage"`
	TotalPages  int   `json:"TotalPages"`
	PageSize    int   `json:"PageSize"`
	TotalCount  int64 `json:"TotalCount"`
	HasPrevious bool  `json:"HasPrevious"`
	HasNext     bool  `json:"HasNext"`
}

// NewMetaData computes paging metadata for count items.
func NewMetaData(count int64, pageNumber, pageSize int) MetaData {
	totalPages := int(math.Ceil(float64(count) / float64(pageSize)))
	return MetaData{
		CurrentPage: pageNumber,
		TotalPages:  totalPages,
		PageSize:    pageSize,
		TotalCount:  count,
		HasPrevious: pageNumber > 1,
		HasNext:     pageNumber < totalPages,
	}
}
