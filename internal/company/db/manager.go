package db

import (
	"context"
	"sync"

	"github.com/gartstein/companyemployees/internal/company/contracts"
	"gorm.io/gorm"
)

// RepositoryManager owns one unit of work and hands out the entity repositories
// that stage writes into it. Repositories are built on first access.
type RepositoryManager struct {
	db  *gorm.DB
	uow *unitOfWork

	companyOnce  sync.Once
	company      *CompanyRepository
	employeeOnce sync.Once
	employee     *EmployeeRepository
}

func NewRepositoryManager(db *gorm.DB) *RepositoryManager {
	return &RepositoryManager{
		db:  db,
		uow: &unitOfWork{},
	}
}

// NewRepositoryFactory returns a factory opening a fresh manager per unit of work.
func NewRepositoryFactory(db *gorm.DB) contracts.RepositoryFactory {
	return func() contracts.RepositoryManager {
		return NewRepositoryManager(db)
	}
}

func (m *RepositoryManager) Company() contracts.CompanyRepository {
	m.companyOnce.Do(func() {
		m.company = &CompanyRepository{db: m.db, uow: m.uow}
	})
	return m.company
}

func (m *RepositoryManager) Employee() contracts.EmployeeRepository {
	m.employeeOnce.Do(func() {
		m.employee = &EmployeeRepository{db: m.db, uow: m.uow}
	})
	return m.employee
}

// Save flushes all pending changes of the unit of work in a single transaction.
func (m *RepositoryManager) Save(ctx context.Context) error {
	return m.uow.commit(ctx, m.db)
}

type trackable interface {
	TrackedColumns() map[string]interface{}
}

type trackedEntry struct {
	entity   trackable
	snapshot map[string]interface{}
}

func (t *trackedEntry) changes() map[string]interface{} {
	changed := make(map[string]interface{})
	for column, value := range t.entity.TrackedColumns() {
		if t.snapshot[column] != value {
			changed[column] = value
		}
	}
	return changed
}

type unitOfWork struct {
	mu      sync.Mutex
	pending []func(tx *gorm.DB) error
	tracked []*trackedEntry
}

func (u *unitOfWork) stage(op func(tx *gorm.DB) error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.pending = append(u.pending, op)
}

func (u *unitOfWork) track(entity trackable) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.tracked = append(u.tracked, &trackedEntry{entity: entity, snapshot: entity.TrackedColumns()})
}

func trackAll[T trackable](u *unitOfWork, enabled bool, entities []T) {
	if !enabled {
		return
	}
	for _, e := range entities {
		u.track(e)
	}
}

// commit runs staged writes in order, then updates the changed columns of tracked
// entities. Nothing is cleared when the transaction fails.
func (u *unitOfWork) commit(ctx context.Context, db *gorm.DB) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, op := range u.pending {
			if err := op(tx); err != nil {
				return err
			}
		}
		for _, t := range u.tracked {
			changed := t.changes()
			if len(changed) == 0 {
				continue
			}
			if err := tx.Model(t.entity).Updates(changed).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	u.pending = nil
	for _, t := range u.tracked {
		t.snapshot = t.entity.TrackedColumns()
	}
	return nil
}
