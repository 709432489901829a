// Package sqlstore implements the backing store on gorm, over SQLite or PostgreSQL.
package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/spigell/hr-assistant/internal/hr"
	"github.com/spigell/hr-assistant/internal/store"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Store wraps a gorm database holding candidates, employees and users.
type Store struct {
	db *gorm.DB
}

var _ store.Store = (*Store)(nil)

// Open connects to the database and migrates the schema. For SQLite the dsn
// is a file path whose directory is created when missing.
func Open(driver, dsn string, debug bool) (*Store, error) {
	var dialector gorm.Dialector
	switch driver {
	case DriverSQLite:
		if dir := filepath.Dir(dsn); dsn != ":memory:" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create db dir: %w", err)
			}
		}
		dialector = sqlite.Open(dsn)
	case DriverPostgres:
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", driver)
	}

	logLevel := gormlogger.Silent
	if debug {
		logLevel = gormlogger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormlogger.Default.LogMode(logLevel)})
	if err != nil {
		return nil, hr.Unavailable(fmt.Errorf("open %s: %w", driver, err))
	}

	if err := db.AutoMigrate(&candidateRow{}, &employeeRow{}, &userRow{}); err != nil {
		return nil, fmt.Errorf("auto migrate models: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("get sql DB: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("close db: %w", err)
	}
	return nil
}

func (s *Store) ActiveCandidates(ctx context.Context) ([]hr.Candidate, error) {
	var rows []candidateRow
	if err := s.db.WithContext(ctx).Where("active = ?", true).Order("created_at").Order("id").Find(&rows).Error; err != nil {
		return nil, hr.Unavailable(fmt.Errorf("list candidates: %w", err))
	}

	out := make([]hr.Candidate, len(rows))
	for i, r := range rows {
		out[i] = r.candidate()
	}
	return out, nil
}

func (s *Store) UpsertCandidate(ctx context.Context, c hr.Candidate) (hr.Candidate, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	row := toCandidateRow(c)

	tx := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name",
			"position",
			"resume_text",
			"skills",
			"experience_years",
			"education",
			"email",
			"phone",
			"summary",
			"source_file",
			"active",
			"updated_at",
		}),
	}).Create(&row)
	if tx.Error != nil {
		return hr.Candidate{}, hr.Unavailable(fmt.Errorf("upsert candidate: %w", tx.Error))
	}

	var stored candidateRow
	if err := s.db.WithContext(ctx).Where("id = ?", c.ID).First(&stored).Error; err != nil {
		return hr.Candidate{}, hr.Unavailable(fmt.Errorf("reload candidate: %w", err))
	}
	return stored.candidate(), nil
}

func (s *Store) MarkCandidateInactive(ctx context.Context, id hr.CandidateIdentity) error {
	tx := s.db.WithContext(ctx).Model(&candidateRow{}).
		Where("name = ? AND position = ? AND active = ?", id.Name, id.Position, true).
		Update("active", false)
	if tx.Error != nil {
		return hr.Unavailable(fmt.Errorf("deactivate candidate: %w", tx.Error))
	}
	if tx.RowsAffected == 0 {
		return hr.NotFound("candidate", id.String())
	}
	return nil
}

func (s *Store) CandidateByIdentity(ctx context.Context, id hr.CandidateIdentity) (hr.Candidate, error) {
	var row candidateRow
	err := s.db.WithContext(ctx).
		Where("name = ? AND position = ? AND active = ?", id.Name, id.Position, true).
		Order("created_at").Order("id").
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return hr.Candidate{}, hr.NotFound("candidate", id.String())
	}
	if err != nil {
		return hr.Candidate{}, hr.Unavailable(fmt.Errorf("find candidate: %w", err))
	}
	return row.candidate(), nil
}

func (s *Store) EmployeeByID(ctx context.Context, employeeID string) (hr.Employee, error) {
	var row employeeRow
	err := s.db.WithContext(ctx).Where("employee_id = ?", employeeID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return hr.Employee{}, hr.NotFound("employee", employeeID)
	}
	if err != nil {
		return hr.Employee{}, hr.Unavailable(fmt.Errorf("find employee: %w", err))
	}
	return row.employee(), nil
}

func (s *Store) ActiveEmployees(ctx context.Context) ([]hr.Employee, error) {
	var rows []employeeRow
	if err := s.db.WithContext(ctx).Where("active = ?", true).Order("employee_id").Find(&rows).Error; err != nil {
		return nil, hr.Unavailable(fmt.Errorf("list employees: %w", err))
	}

	out := make([]hr.Employee, len(rows))
	for i, r := range rows {
		out[i] = r.employee()
	}
	return out, nil
}

func (s *Store) UpdateEmployeeFields(ctx context.Context, employeeID string, update hr.CompensationUpdate) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&employeeRow{}).Where("employee_id = ?", employeeID).Count(&count).Error; err != nil {
		return false, hr.Unavailable(fmt.Errorf("find employee: %w", err))
	}
	if count == 0 {
		return false, nil
	}

	fields := compensationColumns(update)
	if len(fields) == 0 {
		return true, nil
	}

	if err := s.db.WithContext(ctx).Model(&employeeRow{}).Where("employee_id = ?", employeeID).Updates(fields).Error; err != nil {
		return false, hr.Unavailable(fmt.Errorf("update employee: %w", err))
	}
	return true, nil
}

func (s *Store) UpsertEmployee(ctx context.Context, e hr.Employee) error {
	row := toEmployeeRow(e)
	tx := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "employee_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "department", "position", "salary", "bonus", "tax_rate", "deductions", "email", "active", "updated_at",
		}),
	}).Create(&row)
	if tx.Error != nil {
		return hr.Unavailable(fmt.Errorf("upsert employee: %w", tx.Error))
	}
	return nil
}

func (s *Store) UserByUsername(ctx context.Context, username string) (hr.User, error) {
	var row userRow
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return hr.User{}, hr.NotFound("user", username)
	}
	if err != nil {
		return hr.User{}, hr.Unavailable(fmt.Errorf("find user: %w", err))
	}
	return row.user(), nil
}

func (s *Store) UpsertUser(ctx context.Context, u hr.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	row := toUserRow(u)
	tx := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "username"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"password_hash", "role", "name", "employee_id", "email", "department", "phone", "updated_at",
		}),
	}).Create(&row)
	if tx.Error != nil {
		return hr.Unavailable(fmt.Errorf("upsert user: %w", tx.Error))
	}
	return nil
}

func compensationColumns(update hr.CompensationUpdate) map[string]any {
	fields := make(map[string]any, 4)
	if update.Salary != nil {
		fields["salary"] = *update.Salary
	}
	if update.Bonus != nil {
		fields["bonus"] = *update.Bonus
	}
	if update.TaxRate != nil {
		fields["tax_rate"] = *update.TaxRate
	}
	if update.Deductions != nil {
		fields["deductions"] = *update.Deductions
	}
	return fields
}
