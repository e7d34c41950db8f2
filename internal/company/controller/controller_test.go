package controller

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/gartstein/companyemployees/internal/company/contracts"
	entities "github.com/gartstein/companyemployees/internal/company/db/models"
	e "github.com/gartstein/companyemployees/internal/company/errors"
	"github.com/gartstein/companyemployees/internal/company/events"
	"github.com/gartstein/companyemployees/internal/company/models"
	"github.com/google/uuid"
	"go.uber.org/zap/zaptest"
)

// MockCompanyRepository implements contracts.CompanyRepository for testing.
type MockCompanyRepository struct {
	getAllCompanies func(context.Context, bool) ([]*entities.Company, error)
	getCompany      func(context.Context, uuid.UUID, bool) (*entities.Company, error)
	getByIDs        func(context.Context, []uuid.UUID, bool) ([]*entities.Company, error)
	created         []*entities.Company
	deleted         []*entities.Company
}

func (m *MockCompanyRepository) GetAllCompanies(ctx context.Context, track bool) ([]*entities.Company, error) {
	return m.getAllCompanies(ctx, track)
}

func (m *MockCompanyRepository) GetCompany(ctx context.Context, id uuid.UUID, track bool) (*entities.Company, error) {
	return m.getCompany(ctx, id, track)
}

func (m *MockCompanyRepository) GetByIDs(ctx context.Context, ids []uuid.UUID, track bool) ([]*entities.Company, error) {
	return m.getByIDs(ctx, ids, track)
}

func (m *MockCompanyRepository) CreateCompany(c *entities.Company) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	m.created = append(m.created, c)
}

func (m *MockCompanyRepository) DeleteCompany(c *entities.Company) {
	m.deleted = append(m.deleted, c)
}

// MockEmployeeRepository implements contracts.EmployeeRepository for testing.
type MockEmployeeRepository struct {
	getEmployees func(context.Context, uuid.UUID, models.EmployeeParameters, bool) ([]*entities.Employee, models.MetaData, error)
	getEmployee  func(context.Context, uuid.UUID, uuid.UUID, bool) (*entities.Employee, error)
	created      []*entities.Employee
	deleted      []*entities.Employee
}

func (m *MockEmployeeRepository) GetEmployees(ctx context.Context, companyID uuid.UUID, p models.EmployeeParameters, track bool) ([]*entities.Employee, models.MetaData, error) {
	return m.getEmployees(ctx, companyID, p, track)
}

func (m *MockEmployeeRepository) GetEmployee(ctx context.Context, companyID, id uuid.UUID, track bool) (*entities.Employee, error) {
	return m.getEmployee(ctx, companyID, id, track)
}

func (m *MockEmployeeRepository) CreateEmployeeForCompany(companyID uuid.UUID, emp *entities.Employee) {
	emp.ID = uuid.New()
	emp.CompanyID = companyID
	m.created = append(m.created, emp)
}

func (m *MockEmployeeRepository) DeleteEmployee(emp *entities.Employee) {
	m.deleted = append(m.deleted, emp)
}

// MockRepositoryManager hands out the mock repositories and counts Save calls.
type MockRepositoryManager struct {
	company  *MockCompanyRepository
	employee *MockEmployeeRepository
	save     func(context.Context) error
	saves    int
}

func (m *MockRepositoryManager) Company() contracts.CompanyRepository   { return m.company }
func (m *MockRepositoryManager) Employee() contracts.EmployeeRepository { return m.employee }

func (m *MockRepositoryManager) Save(ctx context.Context) error {
	m.saves++
	if m.save == nil {
		return nil
	}
	return m.save(ctx)
}

func newMockManager() *MockRepositoryManager {
	return &MockRepositoryManager{company: &MockCompanyRepository{}, employee: &MockEmployeeRepository{}}
}

func (m *MockRepositoryManager) factory() contracts.RepositoryFactory {
	return func() contracts.RepositoryManager { return m }
}

// MockProducer is a test double for the Kafka producer.
type MockProducer struct {
	mu             sync.Mutex
	producedEvents []events.EventType
	wg             *sync.WaitGroup
}

// Produce records the event and signals the wait group.
func (m *MockProducer) Produce(eventType events.EventType, _ *models.CompanyDto) {
	m.mu.Lock()
	m.producedEvents = append(m.producedEvents, eventType)
	m.mu.Unlock()
	if m.wg != nil {
		m.wg.Done()
	}
}

func existingCompany(id uuid.UUID) *entities.Company {
	return &entities.Company{ID: id, Name: "Existing", Address: "1 Road", Country: "USA"}
}

func TestServiceManager_LazyServices(t *testing.T) {
	m := NewServiceManager(newMockManager().factory(), &MockUserStore{}, &mockTokens{}, &MockProducer{}, zaptest.NewLogger(t))

	if m.company != nil || m.employee != nil || m.auth != nil {
		t.Fatal("services should not be constructed before first access")
	}
	if m.CompanyService() != m.CompanyService() {
		t.Error("company service should be constructed once")
	}
	if m.employee != nil {
		t.Error("employee service should not be built by company access")
	}
	if m.EmployeeService() == nil || m.AuthenticationService() == nil {
		t.Error("expected services to be constructed")
	}
}

func TestCompanyService_CreateCompany(t *testing.T) {
	tests := []struct {
		name        string
		input       models.CompanyForCreation
		save        func(context.Context) error
		expectError bool
	}{
		{
			name: "successful creation",
			input: models.CompanyForCreation{
				Name:      "Valid Name",
				Address:   "Main Street 1",
				Country:   "Germany",
				Employees: []models.EmployeeForCreation{{Name: "Ann", Age: 30, Position: "CEO"}},
			},
		},
		{
			name:        "save error",
			input:       models.CompanyForCreation{Name: "Valid"},
			save:        func(context.Context) error { return errors.New("database error") },
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			manager := newMockManager()
			manager.save = tt.save
			mockProducer := &MockProducer{wg: new(sync.WaitGroup)}
			service := NewCompanyService(manager.factory(), mockProducer, zaptest.NewLogger(t))

			// For successful creation, add one waitgroup counter for the async event.
			if !tt.expectError {
				mockProducer.wg.Add(1)
			}

			result, err := service.CreateCompany(context.Background(), tt.input)

			if tt.expectError {
				if err == nil {
					t.Fatal("expected error but got none")
				}
				return
			}

			mockProducer.wg.Wait()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result.ID == uuid.Nil {
				t.Error("expected company ID to be set")
			}
			if result.FullAddress != "Main Street 1 Germany" {
				t.Errorf("unexpected full address %q", result.FullAddress)
			}
			if len(manager.company.created) != 1 || len(manager.company.created[0].Employees) != 1 {
				t.Error("expected company with one employee to be staged")
			}
			if manager.saves != 1 {
				t.Errorf("expected one save, got %d", manager.saves)
			}
			if len(mockProducer.producedEvents) != 1 || mockProducer.producedEvents[0] != events.CompanyCreated {
				t.Error("expected creation event to be produced")
			}
		})
	}
}

func TestCompanyService_GetCompany(t *testing.T) {
	testID := uuid.New()

	tests := []struct {
		name          string
		input         uuid.UUID
		getCompany    func(context.Context, uuid.UUID, bool) (*entities.Company, error)
		expectedError error
	}{
		{
			name:  "successful get",
			input: testID,
			getCompany: func(_ context.Context, id uuid.UUID, _ bool) (*entities.Company, error) {
				return existingCompany(id), nil
			},
		},
		{
			name:  "not found",
			input: uuid.New(),
			getCompany: func(context.Context, uuid.UUID, bool) (*entities.Company, error) {
				return nil, e.ErrNotFound
			},
			expectedError: e.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			manager := newMockManager()
			manager.company.getCompany = tt.getCompany
			service := NewCompanyService(manager.factory(), &MockProducer{}, zaptest.NewLogger(t))

			result, err := service.GetCompany(context.Background(), tt.input, false)

			if tt.expectedError != nil {
				if !errors.Is(err, tt.expectedError) {
					t.Fatalf("expected error %v, got %v", tt.expectedError, err)
				}
				want := "The company with id: " + tt.input.String() + " doesn't exist in the database."
				if err.Error() != want {
					t.Errorf("expected message %q, got %q", want, err.Error())
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result.ID != tt.input {
				t.Errorf("expected company ID %v, got %v", tt.input, result.ID)
			}
		})
	}
}

func TestCompanyService_GetByIDs(t *testing.T) {
	first, second := uuid.New(), uuid.New()
	manager := newMockManager()
	manager.company.getByIDs = func(_ context.Context, ids []uuid.UUID, _ bool) ([]*entities.Company, error) {
		return []*entities.Company{existingCompany(first)}, nil
	}
	service := NewCompanyService(manager.factory(), &MockProducer{}, zaptest.NewLogger(t))

	if _, err := service.GetByIDs(context.Background(), nil, false); !errors.Is(err, e.ErrIDParametersNull) {
		t.Errorf("expected %v, got %v", e.ErrIDParametersNull, err)
	}
	if _, err := service.GetByIDs(context.Background(), []uuid.UUID{first, second}, false); !errors.Is(err, e.ErrCollectionMismatch) {
		t.Errorf("expected %v, got %v", e.ErrCollectionMismatch, err)
	}

	companies, err := service.GetByIDs(context.Background(), []uuid.UUID{first}, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(companies) != 1 || companies[0].ID != first {
		t.Errorf("unexpected companies %+v", companies)
	}
}

func TestCompanyService_CreateCompanyCollection(t *testing.T) {
	manager := newMockManager()
	mockProducer := &MockProducer{wg: new(sync.WaitGroup)}
	service := NewCompanyService(manager.factory(), mockProducer, zaptest.NewLogger(t))

	if _, err := service.CreateCompanyCollection(context.Background(), nil); !errors.Is(err, e.ErrCompanyCollectionNil) {
		t.Fatalf("expected %v, got %v", e.ErrCompanyCollectionNil, err)
	}

	mockProducer.wg.Add(2)
	result, err := service.CreateCompanyCollection(context.Background(), []models.CompanyForCreation{
		{Name: "First", Address: "A", Country: "X"},
		{Name: "Second", Address: "B", Country: "Y"},
	})
	mockProducer.wg.Wait()

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if manager.saves != 1 {
		t.Errorf("expected a single save for the collection, got %d", manager.saves)
	}
	want := result.Companies[0].ID.String() + "," + result.Companies[1].ID.String()
	if result.IDs != want {
		t.Errorf("expected ids %q, got %q", want, result.IDs)
	}
}

func TestCompanyService_UpdateCompany(t *testing.T) {
	testID := uuid.New()

	tests := []struct {
		name          string
		getCompany    func(context.Context, uuid.UUID, bool) (*entities.Company, error)
		expectedError error
	}{
		{
			name: "successful update",
			getCompany: func(_ context.Context, id uuid.UUID, track bool) (*entities.Company, error) {
				if !track {
					return nil, errors.New("update must load a tracked company")
				}
				return existingCompany(id), nil
			},
		},
		{
			name: "not found",
			getCompany: func(context.Context, uuid.UUID, bool) (*entities.Company, error) {
				return nil, e.ErrNotFound
			},
			expectedError: e.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			manager := newMockManager()
			manager.company.getCompany = tt.getCompany
			// Initialize a new WaitGroup for this test.
			mockProducer := &MockProducer{wg: new(sync.WaitGroup)}
			service := NewCompanyService(manager.factory(), mockProducer, zaptest.NewLogger(t))

			if tt.expectedError == nil {
				mockProducer.wg.Add(1)
			}

			err := service.UpdateCompany(context.Background(), testID, models.CompanyForUpdate{
				Name:      "Updated",
				Address:   "New Address",
				Country:   "France",
				Employees: []models.EmployeeForCreation{{Name: "Bob", Age: 40, Position: "CTO"}},
			}, true)

			if tt.expectedError != nil {
				if !errors.Is(err, tt.expectedError) {
					t.Errorf("expected error %v, got %v", tt.expectedError, err)
				}
				if manager.saves != 0 {
					t.Error("nothing should be saved for a missing company")
				}
				return
			}

			mockProducer.wg.Wait()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(manager.employee.created) != 1 || manager.employee.created[0].CompanyID != testID {
				t.Error("expected new employee to be staged for the company")
			}
			if len(mockProducer.producedEvents) != 1 || mockProducer.producedEvents[0] != events.CompanyUpdated {
				t.Error("expected update event to be produced")
			}
		})
	}
}

func TestCompanyService_DeleteCompany(t *testing.T) {
	testID := uuid.New()
	manager := newMockManager()
	manager.company.getCompany = func(_ context.Context, id uuid.UUID, _ bool) (*entities.Company, error) {
		return existingCompany(id), nil
	}
	// Initialize the mock producer with a WaitGroup to wait for the async event.
	mockProducer := &MockProducer{wg: new(sync.WaitGroup)}
	mockProducer.wg.Add(1)
	service := NewCompanyService(manager.factory(), mockProducer, zaptest.NewLogger(t))

	if err := service.DeleteCompany(context.Background(), testID, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	mockProducer.wg.Wait()

	if len(manager.company.deleted) != 1 || manager.company.deleted[0].ID != testID {
		t.Error("expected company to be staged for deletion")
	}
	if len(mockProducer.producedEvents) != 1 || mockProducer.producedEvents[0] != events.CompanyDeleted {
		t.Error("expected deletion event to be produced")
	}
}
