package controller

import (
	"context"
	"errors"
	"fmt"

	"github.com/gartstein/companyemployees/internal/company/contracts"
	entities "github.com/gartstein/companyemployees/internal/company/db/models"
	e "github.com/gartstein/companyemployees/internal/company/errors"
	"github.com/gartstein/companyemployees/internal/company/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EmployeeService manages the employees of a company. Every operation first
// checks that the owning company exists.
type EmployeeService struct {
	repos  contracts.RepositoryFactory
	logger *zap.Logger
}

func NewEmployeeService(repos contracts.RepositoryFactory, logger *zap.Logger) *EmployeeService {
	return &EmployeeService{
		repos:  repos,
		logger: logger.Named("employee_service"),
	}
}

func (s *EmployeeService) GetEmployees(
	ctx context.Context,
	companyID uuid.UUID,
	params models.EmployeeParameters,
	trackChanges bool,
) ([]models.EmployeeDto, models.MetaData, error) {
	if !params.ValidAgeRange() {
		return nil, models.MetaData{}, e.ErrMaxAgeRange
	}

	repos := s.repos()
	if _, err := getCompanyAndCheckIfItExists(ctx, repos, companyID, false); err != nil {
		return nil, models.MetaData{}, err
	}

	employees, meta, err := repos.Employee().GetEmployees(ctx, companyID, params, trackChanges)
	if err != nil {
		return nil, models.MetaData{}, fmt.Errorf("failed to get employees: %w", err)
	}
	return toEmployeeDtos(employees), meta, nil
}

func (s *EmployeeService) GetEmployee(ctx context.Context, companyID, id uuid.UUID, trackChanges bool) (*models.EmployeeDto, error) {
	repos := s.repos()
	if _, err := getCompanyAndCheckIfItExists(ctx, repos, companyID, false); err != nil {
		return nil, err
	}
	employee, err := getEmployeeForCompanyAndCheckIfItExists(ctx, repos, companyID, id, trackChanges)
	if err != nil {
		return nil, err
	}
	dto := toEmployeeDto(employee)
	return &dto, nil
}

func (s *EmployeeService) CreateEmployeeForCompany(ctx context.Context, companyID uuid.UUID, in models.EmployeeForCreation, trackChanges bool) (*models.EmployeeDto, error) {
	repos := s.repos()
	if _, err := getCompanyAndCheckIfItExists(ctx, repos, companyID, trackChanges); err != nil {
		return nil, err
	}

	employee := employeeFromCreation(in)
	repos.Employee().CreateEmployeeForCompany(companyID, employee)
	if err := repos.Save(ctx); err != nil {
		return nil, fmt.Errorf("failed to create employee: %w", err)
	}

	dto := toEmployeeDto(employee)
	return &dto, nil
}

func (s *EmployeeService) UpdateEmployeeForCompany(
	ctx context.Context,
	companyID, id uuid.UUID,
	in models.EmployeeForUpdate,
	compTrackChanges, empTrackChanges bool,
) error {
	repos := s.repos()
	if _, err := getCompanyAndCheckIfItExists(ctx, repos, companyID, compTrackChanges); err != nil {
		return err
	}
	employee, err := getEmployeeForCompanyAndCheckIfItExists(ctx, repos, companyID, id, empTrackChanges)
	if err != nil {
		return err
	}

	employee.Name = in.Name
	employee.Age = in.Age
	employee.Position = in.Position
	if err := repos.Save(ctx); err != nil {
		return fmt.Errorf("failed to update employee: %w", err)
	}
	return nil
}

func (s *EmployeeService) DeleteEmployeeForCompany(ctx context.Context, companyID, id uuid.UUID, trackChanges bool) error {
	repos := s.repos()
	if _, err := getCompanyAndCheckIfItExists(ctx, repos, companyID, trackChanges); err != nil {
		return err
	}
	employee, err := getEmployeeForCompanyAndCheckIfItExists(ctx, repos, companyID, id, trackChanges)
	if err != nil {
		return err
	}

	repos.Employee().DeleteEmployee(employee)
	if err := repos.Save(ctx); err != nil {
		return fmt.Errorf("failed to delete employee: %w", err)
	}
	return nil
}

func getEmployeeForCompanyAndCheckIfItExists(ctx context.Context, repos contracts.RepositoryManager, companyID, id uuid.UUID, trackChanges bool) (*entities.Employee, error) {
	employee, err := repos.Employee().GetEmployee(ctx, companyID, id, trackChanges)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return nil, e.EmployeeNotFound(id)
		}
		return nil, fmt.Errorf("failed to get employee: %w", err)
	}
	return employee, nil
}
