package db

import (
	"context"
	"errors"
	"strings"

	entities "github.com/gartstein/companyemployees/internal/company/db/models"
	e "github.com/gartstein/companyemployees/internal/company/errors"
	"github.com/gartstein/companyemployees/internal/company/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var employeeOrderColumns = map[string]string{
	"name":     "name",
	"age":      "age",
	"position": "position",
}

type EmployeeRepository struct {
	db  *gorm.DB
	uow *unitOfWork
}

func (r *EmployeeRepository) GetEmployees(
	ctx context.Context,
	companyID uuid.UUID,
	params models.EmployeeParameters,
	trackChanges bool,
) ([]*entities.Employee, models.MetaData, error) {
	params.Normalize()
	filter := func(tx *gorm.DB) *gorm.DB {
		tx = tx.Where("company_id = ? AND age >= ? AND age <= ?", companyID, params.MinAge, params.MaxAge)
		if term := strings.ToLower(strings.TrimSpace(params.SearchTerm)); term != "" {
			tx = tx.Where("LOWER(name) LIKE ?", "%"+term+"%")
		}
		return tx
	}

	var count int64
	if err := r.db.WithContext(ctx).Model(&entities.Employee{}).Scopes(filter).Count(&count).Error; err != nil {
		return nil, models.MetaData{}, err
	}

	var employees []*entities.Employee
	err := r.db.WithContext(ctx).
		Scopes(filter).
		Order(employeeOrder(params.OrderBy)).
		Offset((params.PageNumber - 1) * params.PageSize).
		Limit(params.PageSize).
		Find(&employees).Error
	if err != nil {
		return nil, models.MetaData{}, err
	}

	trackAll(r.uow, trackChanges, employees)
	return employees, models.NewMetaData(count, params.PageNumber, params.PageSize), nil
}

func (r *EmployeeRepository) GetEmployee(ctx context.Context, companyID, id uuid.UUID, trackChanges bool) (*entities.Employee, error) {
	var employee entities.Employee
	result := r.db.WithContext(ctx).First(&employee, "company_id = ? AND id = ?", companyID, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, e.ErrNotFound
		}
		return nil, result.Error
	}
	if trackChanges {
		r.uow.track(&employee)
	}
	return &employee, nil
}

func (r *EmployeeRepository) CreateEmployeeForCompany(companyID uuid.UUID, employee *entities.Employee) {
	employee.CompanyID = companyID
	if employee.ID == uuid.Nil {
		employee.ID = uuid.New()
	}
	r.uow.stage(func(tx *gorm.DB) error {
		return tx.Create(employee).Error
	})
}

func (r *EmployeeRepository) DeleteEmployee(employee *entities.Employee) {
	r.uow.stage(func(tx *gorm.DB) error {
		return tx.Delete(employee).Error
	})
}

// employeeOrder turns a client order string such as "age desc, name" into an
// ORDER BY clause built only from known columns. Unknown fields are ignored.
func employeeOrder(orderBy string) string {
	var parts []string
	for _, field := range strings.Split(orderBy, ",") {
		tokens := strings.Fields(strings.ToLower(field))
		if len(tokens) == 0 {
			continue
		}
		column, ok := employeeOrderColumns[tokens[0]]
		if !ok {
			continue
		}
		direction := "asc"
		if len(tokens) > 1 && tokens[1] == "desc" {
			direction = "desc"
		}
		parts = append(parts, column+" "+direction)
	}
	if len(parts) == 0 {
		return "name asc"
	}
	return strings.Join(parts, ", ")
}
