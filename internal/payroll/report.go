package payroll

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/hr-assistant/internal/hr"
)

const allDepartments = "All Departments"

// Report aggregates the breakdowns of a department, or of everybody.
type Report struct {
	Department       string      `json:"department"`
	TotalEmployees   int         `json:"total_employees"`
	TotalBaseSalary  float64     `json:"total_base_salary"`
	TotalBonus       float64     `json:"total_bonus"`
	TotalGrossSalary float64     `json:"total_gross_salary"`
	TotalTax         float64     `json:"total_tax"`
	TotalDeductions  float64     `json:"total_deductions"`
	TotalNetSalary   float64     `json:"total_net_salary"`
	Employees        []Breakdown `json:"employees"`
	GeneratedAt      time.Time   `json:"generated_at"`
}

// Report sums every breakdown of the active employees of department. An empty
// department or "all" selects everybody. An empty selection returns
// *hr.EmptyResultError.
func (c *Calculator) Report(ctx context.Context, department string) (*Report, error) {
	employees, err := c.store.ActiveEmployees(ctx)
	if err != nil {
		return nil, err
	}

	department = strings.TrimSpace(department)
	title := allDepartments
	filter := department != "" && !strings.EqualFold(department, "all")
	if filter {
		title = department + " Department"
	}

	now := c.now()
	r := &Report{Department: title, GeneratedAt: now, Employees: []Breakdown{}}
	for _, e := range employees {
		if filter && !strings.EqualFold(e.Department, department) {
			continue
		}
		b := Compute(e, now)
		r.Employees = append(r.Employees, b)
		r.TotalBaseSalary += b.BaseSalary
		r.TotalBonus += b.Bonus
		r.TotalGrossSalary += b.GrossSalary
		r.TotalTax += b.TaxAmount
		r.TotalDeductions += b.Deductions
		r.TotalNetSalary += b.NetSalary
	}
	r.TotalEmployees = len(r.Employees)

	if r.TotalEmployees == 0 {
		return nil, &hr.EmptyResultError{Scope: title}
	}

	c.logger.Info("payroll report generated",
		zap.String("department", title),
		zap.Int("employees", r.TotalEmployees),
		zap.Float64("total_net_salary", r.TotalNetSalary),
	)
	return r, nil
}
