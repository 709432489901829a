package payroll

import (
	"context"
	"time"
)

type SalaryStatistics struct {
	Average float64 `json:"avg_salary"`
	Min     float64 `json:"min_salary"`
	Max     float64 `json:"max_salary"`
	Total   float64 `json:"total_salary"`
}

// Analytics summarises the active workforce.
type Analytics struct {
	TotalEmployees         int               `json:"total_employees"`
	DepartmentDistribution map[string]int    `json:"department_distribution"`
	PositionDistribution   map[string]int    `json:"position_distribution"`
	Salary                 *SalaryStatistics `json:"salary_statistics,omitempty"`
	GeneratedAt            time.Time         `json:"generated_at"`
}

func (c *Calculator) Analytics(ctx context.Context) (Analytics, error) {
	employees, err := c.store.ActiveEmployees(ctx)
	if err != nil {
		return Analytics{}, err
	}

	a := Analytics{
		TotalEmployees:         len(employees),
		DepartmentDistribution: make(map[string]int),
		PositionDistribution:   make(map[string]int),
		GeneratedAt:            c.now(),
	}
	if len(employees) == 0 {
		return a, nil
	}

	stats := &SalaryStatistics{Min: employees[0].SalaryOrDefault(), Max: employees[0].SalaryOrDefault()}
	for _, e := range employees {
		a.DepartmentDistribution[e.Department]++
		a.PositionDistribution[e.Position]++

		salary := e.SalaryOrDefault()
		stats.Total += salary
		stats.Min = min(stats.Min, salary)
		stats.Max = max(stats.Max, salary)
	}
	stats.Average = stats.Total / float64(len(employees))
	a.Salary = stats
	return a, nil
}
