package db

import (
	"context"
	"errors"

	entities "github.com/gartstein/companyemployees/internal/company/db/models"
	e "github.com/gartstein/companyemployees/internal/company/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CompanyRepository struct {
	db  *gorm.DB
	uow *unitOfWork
}

func (r *CompanyRepository) GetAllCompanies(ctx context.Context, trackChanges bool) ([]*entities.Company, error) {
	var companies []*entities.Company
	if err := r.db.WithContext(ctx).Order("name").Find(&companies).Error; err != nil {
		return nil, err
	}
	trackAll(r.uow, trackChanges, companies)
	return companies, nil
}

func (r *CompanyRepository) GetCompany(ctx context.Context, id uuid.UUID, trackChanges bool) (*entities.Company, error) {
	var company entities.Company
	result := r.db.WithContext(ctx).First(&company, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, e.ErrNotFound
		}
		return nil, result.Error
	}
	if trackChanges {
		r.uow.track(&company)
	}
	return &company, nil
}

func (r *CompanyRepository) GetByIDs(ctx context.Context, ids []uuid.UUID, trackChanges bool) ([]*entities.Company, error) {
	var companies []*entities.Company
	if len(ids) == 0 {
		return companies, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("name").Find(&companies).Error; err != nil {
		return nil, err
	}
	trackAll(r.uow, trackChanges, companies)
	return companies, nil
}

// CreateCompany stages the insert of company and its employees. Identifiers are
// assigned immediately so callers can reference them before Save.
func (r *CompanyRepository) CreateCompany(company *entities.Company) {
	if company.ID == uuid.Nil {
		company.ID = uuid.New()
	}
	for i := range company.Employees {
		if company.Employees[i].ID == uuid.Nil {
			company.Employees[i].ID = uuid.New()
		}
		company.Employees[i].CompanyID = company.ID
	}
	r.uow.stage(func(tx *gorm.DB) error {
		return tx.Create(company).Error
	})
}

// DeleteCompany stages the removal of company together with its employees.
func (r *CompanyRepository) DeleteCompany(company *entities.Company) {
	r.uow.stage(func(tx *gorm.DB) error {
		return tx.Select("Employees").Delete(company).Error
	})
}
