// Package contracts declares the data access interfaces implemented by package db
// and consumed by the service layer.
package contracts

import (
	"context"

	entities "github.com/gartstein/companyemployees/internal/company/db/models"
	"github.com/gartstein/companyemployees/internal/company/models"
	"github.com/google/uuid"
)

// CompanyRepository reads companies and stages company writes in the current unit of work.
// Reads with trackChanges set register the returned entities with the change tracker.
// Single-entity getters return errors.ErrNotFound when nothing matches.
type CompanyRepository interface {
	GetAllCompanies(ctx context.Context, trackChanges bool) ([]*entities.Company, error)
	GetCompany(ctx context.Context, id uuid.UUID, trackChanges bool) (*entities.Company, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID, trackChanges bool) ([]*entities.Company, error)
	CreateCompany(company *entities.Company)
	DeleteCompany(company *entities.Company)
}

// EmployeeRepository reads employees of a company and stages employee writes.
type EmployeeRepository interface {
	GetEmployees(ctx context.Context, companyID uuid.UUID, params models.EmployeeParameters, trackChanges bool) ([]*entities.Employee, models.MetaData, error)
	GetEmployee(ctx context.Context, companyID, id uuid.UUID, trackChanges bool) (*entities.Employee, error)
	CreateEmployeeForCompany(companyID uuid.UUID, employee *entities.Employee)
	DeleteEmployee(employee *entities.Employee)
}

// RepositoryManager aggregates the entity repositories sharing one unit of work.
type RepositoryManager interface {
	Company() CompanyRepository
	Employee() EmployeeRepository
	// Save commits every staged write and tracked change atomically.
	Save(ctx context.Context) error
}

// RepositoryFactory opens a new RepositoryManager, one per unit of work.
type RepositoryFactory func() RepositoryManager

// UserStore persists identity records.
type UserStore interface {
	FindByUserName(ctx context.Context, userName string) (*entities.User, error)
	ExistsByUserNameOrEmail(ctx context.Context, userName, email string) (bool, error)
	FindRoles(ctx context.Context, names []string) ([]entities.Role, error)
	CreateUser(ctx context.Context, user *entities.User) error
}
