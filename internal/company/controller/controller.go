// Package controller implements the core business logic (service layer)
// for companies, their employees and API users, orchestrating repository
// operations and sending relevant events.
package controller

import (
	"sync"

	"github.com/gartstein/companyemployees/internal/company/contracts"
	"github.com/gartstein/companyemployees/internal/company/events"
	"github.com/gartstein/companyemployees/internal/company/models"
	"go.uber.org/zap"
)

type EventProducer interface {
	Produce(eventType events.EventType, company *models.CompanyDto)
}

// TokenIssuer signs access tokens for authenticated users.
type TokenIssuer interface {
	GenerateToken(subject string, roles []string) (string, error)
}

// ServiceManager is the façade handed to the HTTP layer. Each service is
// constructed on first use and shared afterwards.
type ServiceManager struct {
	repos    contracts.RepositoryFactory
	users    contracts.UserStore
	tokens   TokenIssuer
	producer EventProducer
	logger   *zap.Logger

	companyOnce  sync.Once
	company      *CompanyService
	employeeOnce sync.Once
	employee     *EmployeeService
	authOnce     sync.Once
	auth         *AuthenticationService
}

func NewServiceManager(
	repos contracts.RepositoryFactory,
	users contracts.UserStore,
	tokens TokenIssuer,
	producer EventProducer,
	logger *zap.Logger,
) *ServiceManager {
	return &ServiceManager{
		repos:    repos,
		users:    users,
		tokens:   tokens,
		producer: producer,
		logger:   logger,
	}
}

func (m *ServiceManager) CompanyService() *CompanyService {
	m.companyOnce.Do(func() {
		m.company = NewCompanyService(m.repos, m.producer, m.logger)
	})
	return m.company
}

func (m *ServiceManager) EmployeeService() *EmployeeService {
	m.employeeOnce.Do(func() {
		m.employee = NewEmployeeService(m.repos, m.logger)
	})
	return m.employee
}

func (m *ServiceManager) AuthenticationService() *AuthenticationService {
	m.authOnce.Do(func() {
		m.auth = NewAuthenticationService(m.users, m.tokens, m.logger)
	})
	return m.auth
}
