package mongostore

import (
	"time"

	"github.com/spigell/hr-assistant/internal/hr"
)

type candidateDoc struct {
	ID              string    `bson:"_id"`
	CandidateName   string    `bson:"candidate_name"`
	Position        string    `bson:"position"`
	CVText          string    `bson:"cv_text"`
	Skills          []string  `bson:"skills"`
	ExperienceYears int       `bson:"experience_years"`
	Education       []string  `bson:"education"`
	Email           string    `bson:"email,omitempty"`
	Phone           string    `bson:"phone,omitempty"`
	Summary         string    `bson:"summary"`
	SourceFile      string    `bson:"source_file,omitempty"`
	Status          string    `bson:"status"`
	CreatedAt       time.Time `bson:"created_at"`
	UpdatedAt       time.Time `bson:"updated_at"`
}

type employeeDoc struct {
	EmployeeID string   `bson:"employee_id"`
	Name       string   `bson:"name"`
	Department string   `bson:"department"`
	Position   string   `bson:"position"`
	Salary     *float64 `bson:"salary,omitempty"`
	Bonus      *float64 `bson:"bonus,omitempty"`
	TaxRate    *float64 `bson:"tax_rate,omitempty"`
	Deductions *float64 `bson:"deductions,omitempty"`
	Email      string   `bson:"email,omitempty"`
	Status     string   `bson:"status"`
}

type userDoc struct {
	ID           string `bson:"_id"`
	Username     string `bson:"username"`
	PasswordHash string `bson:"password_hash"`
	Role         string `bson:"role"`
	Name         string `bson:"name"`
	EmployeeID   string `bson:"employee_id,omitempty"`
	Email        string `bson:"email,omitempty"`
	Department   string `bson:"department,omitempty"`
	Phone        string `bson:"phone,omitempty"`
}

const (
	statusActive   = "active"
	statusInactive = "inactive"
)

func status(active bool) string {
	if active {
		return statusActive
	}
	return statusInactive
}

func toCandidateDoc(c hr.Candidate) candidateDoc {
	return candidateDoc{
		ID:              c.ID,
		CandidateName:   c.Identity.Name,
		Position:        c.Identity.Position,
		CVText:          c.ResumeText,
		Skills:          c.Skills,
		ExperienceYears: c.ExperienceYears,
		Education:       c.Education,
		Email:           c.Email,
		Phone:           c.Phone,
		Summary:         c.Summary,
		SourceFile:      c.SourceFile,
		Status:          status(c.Active),
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}

func (d candidateDoc) candidate() hr.Candidate {
	return hr.Candidate{
		ID:              d.ID,
		Identity:        hr.CandidateIdentity{Name: d.CandidateName, Position: d.Position},
		ResumeText:      d.CVText,
		Skills:          d.Skills,
		ExperienceYears: d.ExperienceYears,
		Education:       d.Education,
		Email:           d.Email,
		Phone:           d.Phone,
		Summary:         d.Summary,
		SourceFile:      d.SourceFile,
		Active:          d.Status == statusActive,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}

func toEmployeeDoc(e hr.Employee) employeeDoc {
	return employeeDoc{
		EmployeeID: e.EmployeeID,
		Name:       e.Name,
		Department: e.Department,
		Position:   e.Position,
		Salary:     e.Salary,
		Bonus:      e.Bonus,
		TaxRate:    e.TaxRate,
		Deductions: e.Deductions,
		Email:      e.Email,
		Status:     status(e.Active),
	}
}

func (d employeeDoc) employee() hr.Employee {
	return hr.Employee{
		EmployeeID: d.EmployeeID,
		Name:       d.Name,
		Department: d.Department,
		Position:   d.Position,
		Salary:     d.Salary,
		Bonus:      d.Bonus,
		TaxRate:    d.TaxRate,
		Deductions: d.Deductions,
		Email:      d.Email,
		Active:     d.Status == statusActive,
	}
}

func toUserDoc(u hr.User) userDoc {
	return userDoc{
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

func (d userDoc) user() hr.User {
	return hr.User{
		ID:           d.ID,
		Username:     d.Username,
		PasswordHash: d.PasswordHash,
		Role:         hr.Role(d.Role),
		Name:         d.Name,
		EmployeeID:   d.EmployeeID,
		Email:        d.Email,
		Department:   d.Department,
		Phone:        d.Phone,
	}
}
