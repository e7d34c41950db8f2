package db

import (
	"context"
	"fmt"
	"sort"
	"time"

	entities "github.com/gartstein/companyemployees/internal/company/db/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Migration is a forward/backward schema change identified by a sortable ID.
type Migration struct {
	ID   string
	Up   func(tx *gorm.DB) error
	Down func(tx *gorm.DB) error
}

type schemaMigration struct {
	ID        string `gorm:"primaryKey;size:255"`
	AppliedAt time.Time
}

func (schemaMigration) TableName() string {
	return "schema_migrations"
}

var (
	AdministratorRoleID = uuid.MustParse("67461436-809d-40dd-aeac-b3a1b714f092")
	ManagerRoleID       = uuid.MustParse("b15b8c85-b254-4fd0-b2ec-63a776369982")
)

// Migrations lists every schema change in application order.
var Migrations = []Migration{
	{
		ID:   "20240101000000_InitialCreate",
		Up:   initialCreateUp,
		Down: initialCreateDown,
	},
	{
		ID:   "20240207101311_AddedRolesToDb",
		Up:   addedRolesUp,
		Down: addedRolesDown,
	},
}

func initialCreateUp(tx *gorm.DB) error {
	if err := tx.Migrator().AutoMigrate(&entities.Company{}, &entities.Employee{}, &entities.Role{}, &entities.User{}); err != nil {
		return err
	}
	return tx.Create(seedCompanies()).Error
}

func initialCreateDown(tx *gorm.DB) error {
	return tx.Migrator().DropTable("user_roles", &entities.User{}, &entities.Role{}, &entities.Employee{}, &entities.Company{})
}

func seedCompanies() []*entities.Company {
	itSolutions := uuid.MustParse("c9d4c053-49b6-410c-bc78-2d54a9991870")
	adminSolutions := uuid.MustParse("3d490a70-94ce-4d15-9494-5248280c2ce3")
	return []*entities.Company{
		{
			ID:      itSolutions,
			Name:    "IT_Solutions Ltd",
			Address: "583 Wall Dr. Gwynn Oak, MD 21207",
			Country: "USA",
			Employees: []entities.Employee{
				{ID: uuid.MustParse("80abbca8-664d-4b20-b5de-024705497d4a"), Name: "Sam Raiden", Age: 26, Position: "Software developer", CompanyID: itSolutions},
				{ID: uuid.MustParse("86dba8c0-d178-41e7-938c-ed49778fb52a"), Name: "Jana McLeary", Age: 30, Position: "Software developer", CompanyID: itSolutions},
			},
		},
		{
			ID:      adminSolutions,
			Name:    "Admin_Solutions Ltd",
			Address: "312 Forest Avenue, BF 923",
			Country: "USA",
			Employees: []entities.Employee{
				{ID: uuid.MustParse("021ca3c1-0deb-4afd-ae94-2159a8479811"), Name: "Kane Miller", Age: 35, Position: "Administrator", CompanyID: adminSolutions},
			},
		},
	}
}

func addedRolesUp(tx *gorm.DB) error {
	roles := []entities.Role{
		{ID: AdministratorRoleID, Name: "Administrator", NormalizedName: "ADMINISTRATOR"},
		{ID: ManagerRoleID, Name: "Manager", NormalizedName: "MANAGER"},
	}
	return tx.Create(&roles).Error
}

func addedRolesDown(tx *gorm.DB) error {
	return tx.Where("id IN ?", []uuid.UUID{AdministratorRoleID, ManagerRoleID}).Delete(&entities.Role{}).Error
}

// Migrate applies every pending migration, each in its own transaction.
func Migrate(ctx context.Context, db *gorm.DB, logger *zap.Logger) error {
	applied, err := appliedMigrations(ctx, db)
	if err != nil {
		return err
	}
	for _, m := range Migrations {
		if applied[m.ID] {
			continue
		}
		err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := m.Up(tx); err != nil {
				return err
			}
			return tx.Create(&schemaMigration{ID: m.ID, AppliedAt: time.Now().UTC()}).Error
		})
		if err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", m.ID, err)
		}
		logger.Info("migration applied", zap.String("migration", m.ID))
	}
	return nil
}

// Rollback reverts the last steps applied migrations, newest first.
func Rollback(ctx context.Context, db *gorm.DB, steps int, logger *zap.Logger) error {
	if steps <= 0 {
		return nil
	}
	applied, err := appliedMigrations(ctx, db)
	if err != nil {
		return err
	}
	byID := make(map[string]Migration, len(Migrations))
	var ids []string
	for _, m := range Migrations {
		byID[m.ID] = m
		if applied[m.ID] {
			ids = append(ids, m.ID)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(ids)))
	if steps < len(ids) {
		ids = ids[:steps]
	}

	for _, id := range ids {
		m := byID[id]
		err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := m.Down(tx); err != nil {
				return err
			}
			return tx.Delete(&schemaMigration{ID: m.ID}).Error
		})
		if err != nil {
			return fmt.Errorf("failed to revert migration %s: %w", m.ID, err)
		}
		logger.Info("migration reverted", zap.String("migration", m.ID))
	}
	return nil
}

func appliedMigrations(ctx context.Context, db *gorm.DB) (map[string]bool, error) {
	if err := db.WithContext(ctx).AutoMigrate(&schemaMigration{}); err != nil {
		return nil, fmt.Errorf("failed to prepare migration table: %w", err)
	}
	var rows []schemaMigration
	if err := db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}
	applied := make(map[string]bool, len(rows))
	for _, r := range rows {
		applied[r.ID] = true
	}
	return applied, nil
}
