package db

import (
	"context"
	"testing"
	"time"

	entities "github.com/gartstein/companyemployees/internal/company/db/models"
	e "github.com/gartstein/companyemployees/internal/company/errors"
	"github.com/gartstein/companyemployees/internal/company/models"
	"github.com/gartstein/companyemployees/internal/pkg/utils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

var (
	seededITSolutions    = uuid.MustParse("c9d4c053-49b6-410c-bc78-2d54a9991870")
	seededAdminSolutions = uuid.MustParse("3d490a70-94ce-4d15-9494-5248280c2ce3")
)

// SetupTestDB opens an in-memory SQLite database with all migrations applied.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := Open(context.Background(), &Config{Driver: DriverSQLite, Path: ":memory:"}, zaptest.NewLogger(t))
	require.NoError(t, err, "failed to open test database")
	require.NoError(t, Migrate(context.Background(), db, zaptest.NewLogger(t)), "failed to migrate test database")
	t.Cleanup(func() { _ = Close(db) })
	return db
}

func TestRepositoryManager_LazyRepositories(t *testing.T) {
	m := NewRepositoryManager(SetupTestDB(t))

	assert.Nil(t, m.company, "company repository should not exist before first access")
	assert.Nil(t, m.employee, "employee repository should not exist before first access")

	first := m.Company()
	assert.NotNil(t, m.company)
	assert.Same(t, first, m.Company(), "company repository should be constructed once")
	assert.Nil(t, m.employee, "accessing companies must not build the employee repository")

	assert.Same(t, m.Employee(), m.Employee())
}

func TestCreateCompany(t *testing.T) {
	ctx := context.Background()
	m := NewRepositoryManager(SetupTestDB(t))

	company := &entities.Company{
		Name:    "Test Company",
		Address: "1 Main St",
		Country: "UK",
		Employees: []entities.Employee{
			{Name: "Ann", Age: 30, Position: "CEO"},
		},
	}
	m.Company().CreateCompany(company)
	assert.NotEqual(t, uuid.Nil, company.ID, "ID should be assigned when staged")

	_, err := m.Company().GetCompany(ctx, company.ID, false)
	assert.ErrorIs(t, err, e.ErrNotFound, "staged company should not be visible before Save")

	require.NoError(t, m.Save(ctx))

	retrieved, err := m.Company().GetCompany(ctx, company.ID, false)
	require.NoError(t, err)
	assert.Equal(t, company.Name, retrieved.Name)

	employees, meta, err := m.Employee().GetEmployees(ctx, company.ID, models.NewEmployeeParameters(), false)
	require.NoError(t, err)
	assert.Len(t, employees, 1)
	assert.Equal(t, int64(1), meta.TotalCount)
}

func TestGetAllCompanies(t *testing.T) {
	m := NewRepositoryManager(SetupTestDB(t))

	companies, err := m.Company().GetAllCompanies(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, companies, 2)
	assert.Equal(t, "Admin_Solutions Ltd", companies[0].Name, "companies should be ordered by name")
}

func TestGetCompanyNotFound(t *testing.T) {
	m := NewRepositoryManager(SetupTestDB(t))

	_, err := m.Company().GetCompany(context.Background(), uuid.New(), false)
	assert.ErrorIs(t, err, e.ErrNotFound)
}

func TestGetByIDs(t *testing.T) {
	m := NewRepositoryManager(SetupTestDB(t))

	companies, err := m.Company().GetByIDs(context.Background(), []uuid.UUID{seededITSolutions, seededAdminSolutions, uuid.New()}, false)
	require.NoError(t, err)
	assert.Len(t, companies, 2)
}

func TestTrackedUpdate(t *testing.T) {
	ctx := context.Background()
	db := SetupTestDB(t)
	m := NewRepositoryManager(db)

	company, err := m.Company().GetCompany(ctx, seededITSolutions, true)
	require.NoError(t, err)
	company.Name = "Renamed Ltd"
	require.NoError(t, m.Save(ctx))

	fresh, err := NewRepositoryManager(db).Company().GetCompany(ctx, seededITSolutions, false)
	require.NoError(t, err)
	assert.Equal(t, "Renamed Ltd", fresh.Name)
	assert.Equal(t, "583 Wall Dr. Gwynn Oak, MD 21207", fresh.Address, "untouched columns keep their value")
}

func TestUntrackedChangesAreNotSaved(t *testing.T) {
	ctx := context.Background()
	db := SetupTestDB(t)
	m := NewRepositoryManager(db)

	company, err := m.Company().GetCompany(ctx, seededITSolutions, false)
	require.NoError(t, err)
	company.Name = "Ignored"
	require.NoError(t, m.Save(ctx))

	fresh, err := NewRepositoryManager(db).Company().GetCompany(ctx, seededITSolutions, false)
	require.NoError(t, err)
	assert.Equal(t, "IT_Solutions Ltd", fresh.Name)
}

func TestDeleteCompanyRemovesEmployees(t *testing.T) {
	ctx := context.Background()
	m := NewRepositoryManager(SetupTestDB(t))

	company, err := m.Company().GetCompany(ctx, seededITSolutions, false)
	require.NoError(t, err)
	m.Company().DeleteCompany(company)
	require.NoError(t, m.Save(ctx))

	_, err = m.Company().GetCompany(ctx, seededITSolutions, false)
	assert.ErrorIs(t, err, e.ErrNotFound)

	_, err = m.Employee().GetEmployee(ctx, seededITSolutions, uuid.MustParse("80abbca8-664d-4b20-b5de-024705497d4a"), false)
	assert.ErrorIs(t, err, e.ErrNotFound, "employees should be deleted with their company")
}

func TestSaveIsAtomic(t *testing.T) {
	ctx := context.Background()
	db := SetupTestDB(t)
	m := NewRepositoryManager(db)

	good := &entities.Company{Name: "Good", Address: "Somewhere", Country: "NL"}
	m.Company().CreateCompany(good)
	m.Company().CreateCompany(&entities.Company{ID: seededITSolutions, Name: "Duplicate", Address: "x"})

	assert.Error(t, m.Save(ctx), "duplicate primary key should fail the unit of work")

	_, err := NewRepositoryManager(db).Company().GetCompany(ctx, good.ID, false)
	assert.ErrorIs(t, err, e.ErrNotFound, "no write of a failed unit of work may persist")
}

func TestGetEmployeesPagingAndFiltering(t *testing.T) {
	ctx := context.Background()
	m := NewRepositoryManager(SetupTestDB(t))

	params := models.NewEmployeeParameters()
	params.PageSize = 1
	params.OrderBy = "age desc"
	employees, meta, err := m.Employee().GetEmployees(ctx, seededITSolutions, params, false)
	require.NoError(t, err)
	require.Len(t, employees, 1)
	assert.Equal(t, "Jana McLeary", employees[0].Name)
	assert.Equal(t, 2, meta.TotalPages)
	assert.True(t, meta.HasNext)
	assert.False(t, meta.HasPrevious)

	params = models.NewEmployeeParameters()
	params.MaxAge = 28
	employees, _, err = m.Employee().GetEmployees(ctx, seededITSolutions, params, false)
	require.NoError(t, err)
	require.Len(t, employees, 1)
	assert.Equal(t, "Sam Raiden", employees[0].Name)

	params = models.NewEmployeeParameters()
	params.SearchTerm = "JANA"
	employees, _, err = m.Employee().GetEmployees(ctx, seededITSolutions, params, false)
	require.NoError(t, err)
	require.Len(t, employees, 1)
	assert.Equal(t, "Jana McLeary", employees[0].Name)
}

func TestEmployeeTrackedUpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	db := SetupTestDB(t)
	id := uuid.MustParse("021ca3c1-0deb-4afd-ae94-2159a8479811")

	m := NewRepositoryManager(db)
	employee, err := m.Employee().GetEmployee(ctx, seededAdminSolutions, id, true)
	require.NoError(t, err)
	employee.Age = 36
	require.NoError(t, m.Save(ctx))

	m = NewRepositoryManager(db)
	employee, err = m.Employee().GetEmployee(ctx, seededAdminSolutions, id, false)
	require.NoError(t, err)
	assert.Equal(t, 36, employee.Age)

	m.Employee().DeleteEmployee(employee)
	require.NoError(t, m.Save(ctx))
	_, err = m.Employee().GetEmployee(ctx, seededAdminSolutions, id, false)
	assert.ErrorIs(t, err, e.ErrNotFound)
}

func TestEmployeeOrder(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", "name asc"},
		{"age desc", "age desc"},
		{"age desc, name", "age desc, name asc"},
		{"salary; drop table employees", "name asc"},
		{"Position DESC", "position desc"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, employeeOrder(tt.input))
		})
	}
}

func TestUserStore(t *testing.T) {
	ctx := context.Background()
	store := NewUserStore(SetupTestDB(t))

	roles, err := store.FindRoles(ctx, []string{"Manager"})
	require.NoError(t, err)
	require.Len(t, roles, 1)

	user := &entities.User{UserName: "jdoe", Email: utils.Ptr("jdoe@example.com"), PasswordHash: "hash", Roles: roles}
	require.NoError(t, store.CreateUser(ctx, user))

	exists, err := store.ExistsByUserNameOrEmail(ctx, "other", "jdoe@example.com")
	require.NoError(t, err)
	assert.True(t, exists)

	found, err := store.FindByUserName(ctx, "jdoe")
	require.NoError(t, err)
	assert.Equal(t, []string{"Manager"}, found.RoleNames())

	_, err = store.FindByUserName(ctx, "nobody")
	assert.ErrorIs(t, err, e.ErrNotFound)
}

func TestMigrateAndRollback(t *testing.T) {
	ctx := context.Background()
	logger := zaptest.NewLogger(t)
	db := SetupTestDB(t)

	// applying twice is a no-op
	require.NoError(t, Migrate(ctx, db, logger))

	var roles int64
	require.NoError(t, db.Model(&entities.Role{}).Count(&roles).Error)
	assert.Equal(t, int64(2), roles)

	require.NoError(t, Rollback(ctx, db, 1, logger))
	require.NoError(t, db.Model(&entities.Role{}).Count(&roles).Error)
	assert.Equal(t, int64(0), roles, "rolling back the roles migration removes the seeded roles")
	assert.True(t, db.Migrator().HasTable(&entities.Company{}))

	require.NoError(t, Rollback(ctx, db, 1, logger))
	assert.False(t, db.Migrator().HasTable(&entities.Company{}))

	require.NoError(t, Migrate(ctx, db, logger))
	assert.True(t, db.Migrator().HasTable(&entities.Company{}))
}

func TestRollbackIgnoresNonPositiveSteps(t *testing.T) {
	ctx := context.Background()
	logger := zaptest.NewLogger(t)
	db := SetupTestDB(t)

	for _, steps := range []int{0, -1} {
		require.NoError(t, Rollback(ctx, db, steps, logger))
	}
	assert.True(t, db.Migrator().HasTable(&entities.Company{}), "nothing is reverted")
}

func TestOpenFailsWhenPingFails(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Open(ctx, &Config{Driver: DriverSQLite, Path: ":memory:", ConnectTimeout: time.Second}, zaptest.NewLogger(t))
	assert.Error(t, err)
}
