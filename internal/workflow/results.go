package workflow

import (
	"github.com/spigell/hr-assistant/internal/ats"
	"github.com/spigell/hr-assistant/internal/hr"
	"github.com/spigell/hr-assistant/internal/payroll"
)

// ToolResult is what a handler hands over to the response stage.
type ToolResult interface {
	toolResult()
}

type CandidateMatches struct {
	Results []ats.Result
}

type CandidateList struct {
	Candidates []hr.Candidate
}

type SalaryCalculation struct {
	Breakdown payroll.Breakdown
}

type PayrollReport struct {
	Report payroll.Report
}

// EmployeeList is a listing, narrowed to Filter when it is set.
type EmployeeList struct {
	Employees []hr.Employee
	Filter    string
}

// Help is a usage hint for a query the handler could not map onto an action.
type Help struct {
	Message string
}

// Failure is a business outcome shown to the caller, such as an unknown employee.
type Failure struct {
	Message string
	// Calculation marks failures of a salary or report computation.
	Calculation bool
}

// Unavailable replaces infrastructure errors; details stay in the logs.
type Unavailable struct{}

func (CandidateMatches) toolResult()  {}
func (CandidateList) toolResult()     {}
func (SalaryCalculation) toolResult() {}
func (PayrollReport) toolResult()     {}
func (EmployeeList) toolResult()      {}
func (Help) toolResult()              {}
func (Failure) toolResult()           {}
func (Unavailable) toolResult()       {}
