// Package hr holds the records shared by every subsystem of the assistant.
package hr

import (
	"fmt"
	"strings"
	"time"
)

// Role is the access level of a caller.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// ParseRole maps free-form role strings onto a Role. Unknown values fall back to the
// standard role so that a typo never elevates a caller.
func ParseRole(s string) Role {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "admin", "hr_admin", "hr-admin":
		return RoleAdmin
	default:
		return RoleUser
	}
}

// Caller is the identity attached to a request.
type Caller struct {
	Username   string `json:"username"`
	Name       string `json:"name"`
	Role       Role   `json:"role"`
	EmployeeID string `json:"employee_id,omitempty"`
}

func (c Caller) IsElevated() bool {
	return c.Role == RoleAdmin
}

// DisplayName returns the caller's name or a neutral placeholder.
func (c Caller) DisplayName() string {
	if name := strings.TrimSpace(c.Name); name != "" {
		return name
	}
	if c.Username != "" {
		return c.Username
	}
	return "User"
}

// CandidateIdentity is the (name, position) pair used as the candidate dedup key.
type CandidateIdentity struct {
	Name     string `json:"name" bson:"name" mapstructure:"name" validate:"required"`
	Position string `json:"position" bson:"position" mapstructure:"position" validate:"required"`
}

// Key is the exact-match key of the identity.
func (id CandidateIdentity) Key() string {
	return id.Name + "\x00" + id.Position
}

func (id CandidateIdentity) String() string {
	return fmt.Sprintf("%s (%s)", id.Name, id.Position)
}

// Candidate is an ingested resume together with the fields extracted from it.
type Candidate struct {
	ID              string            `json:"id"`
	Identity        CandidateIdentity `json:"identity"`
	ResumeText      string            `json:"resume_text"`
	Skills          []string          `json:"skills"`
	ExperienceYears int               `json:"experience_years"`
	Education       []string          `json:"education"`
	Email           string            `json:"email,omitempty"`
	Phone           string            `json:"phone,omitempty"`
	Summary         string            `json:"summary"`
	SourceFile      string            `json:"source_file,omitempty"`
	Active          bool              `json:"active"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

const (
	DefaultTaxRate = 0.1
)

// Employee is a payroll record. Optional compensation fields stay nil when absent
// from the stored record and are defaulted at calculation time.
type Employee struct {
	EmployeeID string   `json:"employee_id" yaml:"employee_id" validate:"required,employee_id"`
	Name       string   `json:"name" yaml:"name" validate:"required"`
	Department string   `json:"department" yaml:"department" validate:"required"`
	Position   string   `json:"position" yaml:"position" validate:"required"`
	Salary     *float64 `json:"salary,omitempty" yaml:"salary" validate:"required,gte=0"`
	Bonus      *float64 `json:"bonus,omitempty" yaml:"bonus" validate:"omitempty,gte=0"`
	TaxRate    *float64 `json:"tax_rate,omitempty" yaml:"tax_rate" validate:"omitempty,gte=0,lte=1"`
	Deductions *float64 `json:"deductions,omitempty" yaml:"deductions" validate:"omitempty,gte=0"`
	Email      string   `json:"email,omitempty" yaml:"email" validate:"omitempty,email"`
	Active     bool     `json:"active" yaml:"-"`
}

func (e Employee) SalaryOrDefault() float64     { return valueOr(e.Salary, 0) }
func (e Employee) BonusOrDefault() float64      { return valueOr(e.Bonus, 0) }
func (e Employee) TaxRateOrDefault() float64    { return valueOr(e.TaxRate, DefaultTaxRate) }
func (e Employee) DeductionsOrDefault() float64 { return valueOr(e.Deductions, 0) }

func valueOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}

// CompensationUpdate lists the only employee fields that may change after creation.
type CompensationUpdate struct {
	Salary     *float64 `json:"salary,omitempty" mapstructure:"salary" validate:"omitempty,gte=0"`
	Bonus      *float64 `json:"bonus,omitempty" mapstructure:"bonus" validate:"omitempty,gte=0"`
	TaxRate    *float64 `json:"tax_rate,omitempty" mapstructure:"tax_rate" validate:"omitempty,gte=0,lte=1"`
	Deductions *float64 `json:"deductions,omitempty" mapstructure:"deductions" validate:"omitempty,gte=0"`
}

func (u CompensationUpdate) IsEmpty() bool {
	return u.Salary == nil && u.Bonus == nil && u.TaxRate == nil && u.Deductions == nil
}

// Apply copies the set fields of u onto e.
func (u CompensationUpdate) Apply(e *Employee) {
	if u.Salary != nil {
		e.Salary = Float(*u.Salary)
	}
	if u.Bonus != nil {
		e.Bonus = Float(*u.Bonus)
	}
	if u.TaxRate != nil {
		e.TaxRate = Float(*u.TaxRate)
	}
	if u.Deductions != nil {
		e.Deductions = Float(*u.Deductions)
	}
}

// User is an account able to log in.
type User struct {
	ID           string `json:"id" yaml:"-"`
	Username     string `json:"username" yaml:"username" validate:"required"`
	Password     string `json:"-" yaml:"password" validate:"required_without=PasswordHash"`
	PasswordHash string `json:"-" yaml:"password_hash"`
	Role         Role   `json:"role" yaml:"role" validate:"required,oneof=admin user"`
	Name         string `json:"name" yaml:"name" validate:"required"`
	EmployeeID   string `json:"employee_id,omitempty" yaml:"employee_id" validate:"omitempty,employee_id"`
	Email        string `json:"email,omitempty" yaml:"email" validate:"omitempty,email"`
	Department   string `json:"department,omitempty" yaml:"department"`
	Phone        string `json:"phone,omitempty" yaml:"phone"`
}

// Caller converts the account into a request identity.
func (u User) Caller() Caller {
	return Caller{
		Username:   u.Username,
		Name:       u.Name,
		Role:       u.Role,
		EmployeeID: u.EmployeeID,
	}
}
