package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gartstein/companyemployees/internal/company/contracts"
	entities "github.com/gartstein/companyemployees/internal/company/db/models"
	e "github.com/gartstein/companyemployees/internal/company/errors"
	"github.com/gartstein/companyemployees/internal/company/events"
	"github.com/gartstein/companyemployees/internal/company/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CompanyService provides methods to manage companies via repository
// operations and event production.
type CompanyService struct {
	repos    contracts.RepositoryFactory
	producer EventProducer
	logger   *zap.Logger
}

// NewCompanyService constructs a CompanyService with a repository factory,
// an event producer, and a logger.
func NewCompanyService(repos contracts.RepositoryFactory, producer EventProducer, logger *zap.Logger) *CompanyService {
	return &CompanyService{
		repos:    repos,
		producer: producer,
		logger:   logger.Named("company_service"),
	}
}

func (s *CompanyService) GetAllCompanies(ctx context.Context, trackChanges bool) ([]models.CompanyDto, error) {
	companies, err := s.repos().Company().GetAllCompanies(ctx, trackChanges)
	if err != nil {
		return nil, fmt.Errorf("failed to get companies: %w", err)
	}
	return toCompanyDtos(companies), nil
}

// GetCompany retrieves a Company by ID, returning a not-found error if missing.
func (s *CompanyService) GetCompany(ctx context.Context, id uuid.UUID, trackChanges bool) (*models.CompanyDto, error) {
	company, err := getCompanyAndCheckIfItExists(ctx, s.repos(), id, trackChanges)
	if err != nil {
		return nil, err
	}
	dto := toCompanyDto(company)
	return &dto, nil
}

// GetByIDs returns the companies matching ids. Every id must resolve.
func (s *CompanyService) GetByIDs(ctx context.Context, ids []uuid.UUID, trackChanges bool) ([]models.CompanyDto, error) {
	if ids == nil {
		return nil, e.ErrIDParametersNull
	}
	companies, err := s.repos().Company().GetByIDs(ctx, ids, trackChanges)
	if err != nil {
		return nil, fmt.Errorf("failed to get companies by ids: %w", err)
	}
	if len(companies) != len(ids) {
		return nil, e.ErrCollectionMismatch
	}
	return toCompanyDtos(companies), nil
}

// CreateCompany persists a new company with its initial employees and triggers an event.
func (s *CompanyService) CreateCompany(ctx context.Context, in models.CompanyForCreation) (*models.CompanyDto, error) {
	repos := s.repos()
	company := companyFromCreation(in)
	repos.Company().CreateCompany(company)
	if err := repos.Save(ctx); err != nil {
		return nil, fmt.Errorf("failed to create company: %w", err)
	}

	dto := toCompanyDto(company)
	s.publish(events.CompanyCreated, dto)
	return &dto, nil
}

// CreateCompanyCollection persists all companies in a single unit of work.
func (s *CompanyService) CreateCompanyCollection(ctx context.Context, in []models.CompanyForCreation) (*models.CompanyCollection, error) {
	if in == nil {
		return nil, e.ErrCompanyCollectionNil
	}

	repos := s.repos()
	created := make([]*entities.Company, 0, len(in))
	for _, c := range in {
		company := companyFromCreation(c)
		repos.Company().CreateCompany(company)
		created = append(created, company)
	}
	if err := repos.Save(ctx); err != nil {
		return nil, fmt.Errorf("failed to create company collection: %w", err)
	}

	dtos := toCompanyDtos(created)
	ids := make([]string, 0, len(dtos))
	for _, dto := range dtos {
		ids = append(ids, dto.ID.String())
		s.publish(events.CompanyCreated, dto)
	}
	return &models.CompanyCollection{Companies: dtos, IDs: strings.Join(ids, ",")}, nil
}

// UpdateCompany overwrites the company fields and adds the listed employees.
// Changes are only detected when trackChanges is set.
func (s *CompanyService) UpdateCompany(ctx context.Context, id uuid.UUID, in models.CompanyForUpdate, trackChanges bool) error {
	repos := s.repos()
	company, err := getCompanyAndCheckIfItExists(ctx, repos, id, trackChanges)
	if err != nil {
		return err
	}

	company.Name = in.Name
	company.Address = in.Address
	company.Country = in.Country
	for _, emp := range in.Employees {
		repos.Employee().CreateEmployeeForCompany(company.ID, employeeFromCreation(emp))
	}

	if err := repos.Save(ctx); err != nil {
		return fmt.Errorf("failed to update company: %w", err)
	}
	s.publish(events.CompanyUpdated, toCompanyDto(company))
	return nil
}

// DeleteCompany removes a Company and its employees, then fires a deletion event.
func (s *CompanyService) DeleteCompany(ctx context.Context, id uuid.UUID, trackChanges bool) error {
	repos := s.repos()
	company, err := getCompanyAndCheckIfItExists(ctx, repos, id, trackChanges)
	if err != nil {
		return err
	}

	repos.Company().DeleteCompany(company)
	if err := repos.Save(ctx); err != nil {
		return fmt.Errorf("failed to delete company: %w", err)
	}
	s.publish(events.CompanyDeleted, toCompanyDto(company))
	return nil
}

func (s *CompanyService) publish(eventType events.EventType, dto models.CompanyDto) {
	go func() {
		s.producer.Produce(eventType, &dto)
	}()
}

func getCompanyAndCheckIfItExists(ctx context.Context, repos contracts.RepositoryManager, id uuid.UUID, trackChanges bool) (*entities.Company, error) {
	company, err := repos.Company().GetCompany(ctx, id, trackChanges)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return nil, e.CompanyNotFound(id)
		}
		return nil, fmt.Errorf("failed to get company: %w", err)
	}
	return company, nil
}
