// Package payroll computes salary breakdowns and reports from employee records.
package payroll

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/spigell/hr-assistant/internal/hr"
	"github.com/spigell/hr-assistant/internal/logger"
	"github.com/spigell/hr-assistant/internal/store"
)

// Breakdown is the salary calculation of one employee.
type Breakdown struct {
	EmployeeID      string    `json:"employee_id"`
	Name            string    `json:"name"`
	Department      string    `json:"department"`
	Position        string    `json:"position"`
	BaseSalary      float64   `json:"base_salary"`
	Bonus           float64   `json:"bonus"`
	GrossSalary     float64   `json:"gross_salary"`
	TaxRate         float64   `json:"tax_rate"`
	TaxAmount       float64   `json:"tax_amount"`
	Deductions      float64   `json:"deductions"`
	NetSalary       float64   `json:"net_salary"`
	CalculationDate time.Time `json:"calculation_date"`
}

type Calculator struct {
	store    store.EmployeeStore
	validate *validator.Validate
	now      func() time.Time
	logger   *zap.Logger
}

type Option func(*Calculator)

// WithClock overrides the time source used for calculation timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Calculator) { c.now = now }
}

func NewCalculator(st store.EmployeeStore, log *zap.Logger, opts ...Option) *Calculator {
	c := &Calculator{
		store:    st,
		validate: hr.NewValidator(),
		now:      func() time.Time { return time.Now().UTC() },
		logger:   logger.OrNop(log).Named("payroll"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compute derives the breakdown of e. Absent optional fields use their defaults.
func Compute(e hr.Employee, at time.Time) Breakdown {
	base := e.SalaryOrDefault()
	bonus := e.BonusOrDefault()
	rate := e.TaxRateOrDefault()
	deductions := e.DeductionsOrDefault()

	gross := base + bonus
	tax := gross * rate

	return Breakdown{
		EmployeeID:      e.EmployeeID,
		Name:            e.Name,
		Department:      e.Department,
		Position:        e.Position,
		BaseSalary:      base,
		Bonus:           bonus,
		GrossSalary:     gross,
		TaxRate:         rate,
		TaxAmount:       tax,
		Deductions:      deductions,
		NetSalary:       gross - tax - deductions,
		CalculationDate: at,
	}
}

// Calculate returns the breakdown of an active employee.
func (c *Calculator) Calculate(ctx context.Context, employeeID string) (*Breakdown, error) {
	id := strings.ToUpper(strings.TrimSpace(employeeID))

	e, err := c.store.EmployeeByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !e.Active {
		return nil, hr.NotFound("employee", id)
	}

	b := Compute(e, c.now())
	c.logger.Debug("salary calculated",
		zap.String(logger.FieldEmployee, b.EmployeeID),
		zap.Float64("net_salary", b.NetSalary),
	)
	return &b, nil
}

// ListEmployees returns every active employee ordered by ID.
func (c *Calculator) ListEmployees(ctx context.Context) ([]hr.Employee, error) {
	return c.store.ActiveEmployees(ctx)
}

// FindEmployee resolves an employee by structured ID or by name. Names match
// exactly, then as a substring, then by a shared word, all case-insensitively.
func (c *Calculator) FindEmployee(ctx context.Context, identifier string) (hr.Employee, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return hr.Employee{}, hr.NotFound("employee", identifier)
	}

	if id := strings.ToUpper(identifier); hr.ValidEmployeeID(id) {
		e, err := c.store.EmployeeByID(ctx, id)
		if err == nil && e.Active {
			return e, nil
		}
		if err != nil && !errors.Is(err, hr.ErrNotFound) {
			return hr.Employee{}, err
		}
	}

	employees, err := c.store.ActiveEmployees(ctx)
	if err != nil {
		return hr.Employee{}, err
	}
	if e, ok := matchName(employees, identifier); ok {
		return e, nil
	}
	return hr.Employee{}, hr.NotFound("employee", identifier)
}

func matchName(employees []hr.Employee, name string) (hr.Employee, bool) {
	needle := strings.ToLower(name)

	for _, e := range employees {
		if strings.ToLower(e.Name) == needle {
			return e, true
		}
	}
	for _, e := range employees {
		if strings.Contains(strings.ToLower(e.Name), needle) {
			return e, true
		}
	}

	searchParts := strings.Fields(needle)
	for _, e := range employees {
		for _, part := range strings.Fields(strings.ToLower(e.Name)) {
			for _, s := range searchParts {
				if part == s {
					return e, true
				}
			}
		}
	}
	return hr.Employee{}, false
}

// SearchEmployees returns active employees whose name, ID, department or
// position contains term.
func (c *Calculator) SearchEmployees(ctx context.Context, term string) ([]hr.Employee, error) {
	employees, err := c.store.ActiveEmployees(ctx)
	if err != nil {
		return nil, err
	}

	term = strings.ToLower(strings.TrimSpace(term))
	out := make([]hr.Employee, 0)
	for _, e := range employees {
		for _, field := range []string{e.Name, e.EmployeeID, e.Department, e.Position} {
			if strings.Contains(strings.ToLower(field), term) {
				out = append(out, e)
				break
			}
		}
	}
	return out, nil
}

// UpdateCompensation validates and applies a compensation change.
func (c *Calculator) UpdateCompensation(ctx context.Context, employeeID string, update hr.CompensationUpdate) error {
	if update.IsEmpty() {
		return fmt.Errorf("%w: no compensation fields to update", hr.ErrValidation)
	}
	if err := hr.Validate(c.validate, update); err != nil {
		return err
	}

	id := strings.ToUpper(strings.TrimSpace(employeeID))
	ok, err := c.store.UpdateEmployeeFields(ctx, id, update)
	if err != nil {
		return err
	}
	if !ok {
		return hr.NotFound("employee", id)
	}

	c.logger.Info("compensation updated", zap.String(logger.FieldEmployee, id))
	return nil
}
