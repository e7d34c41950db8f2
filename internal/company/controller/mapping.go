package controller

import (
	"strings"

	entities "github.com/gartstein/companyemployees/internal/company/db/models"
	"github.com/gartstein/companyemployees/internal/company/models"
)

func toCompanyDto(c *entities.Company) models.CompanyDto {
	return models.CompanyDto{
		ID:          c.ID,
		Name:        c.Name,
		FullAddress: strings.TrimSpace(c.Address + " " + c.Country),
	}
}

func toCompanyDtos(companies []*entities.Company) []models.CompanyDto {
	dtos := make([]models.CompanyDto, 0, len(companies))
	for _, c := range companies {
		dtos = append(dtos, toCompanyDto(c))
	}
	return dtos
}

func companyFromCreation(in models.CompanyForCreation) *entities.Company {
	company := &entities.Company{
		Name:    in.Name,
		Address: in.Address,
		Country: in.Country,
	}
	for _, e := range in.Employees {
		company.Employees = append(company.Employees, *employeeFromCreation(e))
	}
	return company
}

func toEmployeeDto(e *entities.Employee) models.EmployeeDto {
	return models.EmployeeDto{
		ID:       e.ID,
		Name:     e.Name,
		Age:      e.Age,
		Position: e.Position,
	}
}

func toEmployeeDtos(employees []*entities.Employee) []models.EmployeeDto {
	dtos := make([]models.EmployeeDto, 0, len(employees))
	for _, e := range employees {
		dtos = append(dtos, toEmployeeDto(e))
	}
	return dtos
}

func employeeFromCreation(in models.EmployeeForCreation) *entities.Employee {
	return &entities.Employee{
		Name:     in.Name,
		Age:      in.Age,
		Position: in.Position,
	}
}
