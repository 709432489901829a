package sqlstore

import (
	"time"

	"gorm.io/datatypes"

	"github.com/spigell/hr-assistant/internal/hr"
)

type candidateRow struct {
	ID              string `gorm:"primaryKey"`
	Name            string `gorm:"index:idx_candidate_identity"`
	Position        string `gorm:"index:idx_candidate_identity"`
	ResumeText      string
	Skills          datatypes.JSONSlice[string]
	ExperienceYears int
	Education       datatypes.JSONSlice[string]
	Email           string
	Phone           string
	Summary         string
	SourceFile      string
	Active          bool `gorm:"index"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (candidateRow) TableName() string { return "candidates" }

type employeeRow struct {
	EmployeeID string `gorm:"primaryKey"`
	Name       string
	Department string `gorm:"index"`
	Position   string
	Salary     *float64
	Bonus      *float64
	TaxRate    *float64
	Deductions *float64
	Email      string
	Active     bool `gorm:"index"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (employeeRow) TableName() string { return "employees" }

type userRow struct {
	ID           string `gorm:"primaryKey"`
	Username     string `gorm:"uniqueIndex"`
	PasswordHash string
	Role         string
	Name         string
	EmployeeID   string
	Email        string
	Department   string
	Phone        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (userRow) TableName() string { return "users" }

func toCandidateRow(c hr.Candidate) candidateRow {
	return candidateRow{
		ID:              c.ID,
		Name:            c.Identity.Name,
		Position:        c.Identity.Position,
		ResumeText:      c.ResumeText,
		Skills:          datatypes.NewJSONSlice(nonNil(c.Skills)),
		ExperienceYears: c.ExperienceYears,
		Education:       datatypes.NewJSONSlice(nonNil(c.Education)),
		Email:           c.Email,
		Phone:           c.Phone,
		Summary:         c.Summary,
		SourceFile:      c.SourceFile,
		Active:          c.Active,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}

func (r candidateRow) candidate() hr.Candidate {
	return hr.Candidate{
		ID:              r.ID,
		Identity:        hr.CandidateIdentity{Name: r.Name, Position: r.Position},
		ResumeText:      r.ResumeText,
		Skills:          []string(r.Skills),
		ExperienceYears: r.ExperienceYears,
		Education:       []string(r.Education),
		Email:           r.Email,
		Phone:           r.Phone,
		Summary:         r.Summary,
		SourceFile:      r.SourceFile,
		Active:          r.Active,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

func toEmployeeRow(e hr.Employee) employeeRow {
	return employeeRow{
		EmployeeID: e.EmployeeID,
		Name:       e.Name,
		Department: e.Department,
		Position:   e.Position,
		Salary:     e.Salary,
		Bonus:      e.Bonus,
		TaxRate:    e.TaxRate,
		Deductions: e.Deductions,
		Email:      e.Email,
		Active:     e.Active,
	}
}

func (r employeeRow) employee() hr.Employee {
	return hr.Employee{
		EmployeeID: r.EmployeeID,
		Name:       r.Name,
		Department: r.Department,
		Position:   r.Position,
		Salary:     r.Salary,
		Bonus:      r.Bonus,
		TaxRate:    r.TaxRate,
		Deductions: r.Deductions,
		Email:      r.Email,
		Active:     r.Active,
	}
}

func toUserRow(u hr.User) userRow {
	return userRow{
		ID:           u.ID,
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		Role:         string(u.Role),
		Name:         u.Name,
		EmployeeID:   u.EmployeeID,
		Email:        u.Email,
		Department:   u.Department,
		Phone:        u.Phone,
	}
}

func (r userRow) user() hr.User {
	return hr.User{
		ID:           r.ID,
		Username:     r.Username,
		PasswordHash: r.PasswordHash,
		Role:         hr.Role(r.Role),
		Name:         r.Name,
		EmployeeID:   r.EmployeeID,
		Email:        r.Email,
		Department:   r.Department,
		Phone:        r.Phone,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
