package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/spigell/hr-assistant/internal/intent"
	"github.com/spigell/hr-assistant/internal/resolver"
)

const (
	searchHelp       = "I can help you with: searching candidates, viewing all candidates, or managing CV applications."
	missingEmployee  = "Please specify employee ID"
	reportAdminOnly  = "Payroll reports are available to HR Admin only"
	listingAdminOnly = "Employee list is available to HR Admin only"
)

var (
	searchPhrases        = []string{"search", "find"}
	listCandidatePhrases = []string{"all candidates", "list candidates", "show candidates"}
	salaryPhrases        = []string{"calculate salary", "salary for", "salary of", "my salary", "'s salary", "payroll details", "payslip"}
	reportPhrases        = []string{"payroll report", "report"}
	listEmployeePhrases  = []string{"all employees", "list employees"}
)

func (e *Engine) handleSearch(ctx context.Context, rec *Record) (ToolResult, error) {
	q := strings.ToLower(rec.Query)

	switch {
	case intent.ContainsAny(q, searchPhrases):
		terms := resolver.ExtractSearchTerms(rec.Query)
		if terms == "" {
			return e.listCandidates(ctx)
		}
		results, err := e.candidates.Search(ctx, terms, e.topK)
		if err != nil {
			return nil, err
		}
		return CandidateMatches{Results: results}, nil
	case intent.ContainsAny(q, listCandidatePhrases):
		return e.listCandidates(ctx)
	default:
		return Help{Message: searchHelp}, nil
	}
}

func (e *Engine) listCandidates(ctx context.Context) (ToolResult, error) {
	candidates, err := e.candidates.ListCandidates(ctx)
	if err != nil {
		return nil, err
	}
	return CandidateList{Candidates: candidates}, nil
}

func (e *Engine) handlePayroll(ctx context.Context, rec *Record) (ToolResult, error) {
	q := strings.ToLower(rec.Query)
	elevated := rec.Caller.IsElevated()

	switch {
	case intent.ContainsAny(q, salaryPhrases):
		return e.calculateSalary(ctx, rec)
	case intent.ContainsAny(q, reportPhrases):
		if !elevated {
			return Failure{Message: reportAdminOnly}, nil
		}
		department, _ := resolver.ExtractDepartment(rec.Query)
		report, err := e.payroll.Report(ctx, department)
		if err != nil {
			return nil, err
		}
		return PayrollReport{Report: *report}, nil
	case intent.ContainsAny(q, listEmployeePhrases):
		if !elevated {
			return Failure{Message: listingAdminOnly}, nil
		}
		if department, ok := resolver.ExtractDepartment(rec.Query); ok {
			employees, err := e.payroll.SearchEmployees(ctx, department)
			if err != nil {
				return nil, err
			}
			return EmployeeList{Employees: employees, Filter: department}, nil
		}
		employees, err := e.payroll.ListEmployees(ctx)
		if err != nil {
			return nil, err
		}
		return EmployeeList{Employees: employees}, nil
	default:
		return Help{Message: payrollHelp(rec)}, nil
	}
}

// calculateSalary resolves whose salary is asked for. A standard caller always
// gets their own record: the permission check already rejected any other
// identifier.
func (e *Engine) calculateSalary(ctx context.Context, rec *Record) (ToolResult, error) {
	var employeeID string

	if rec.Caller.IsElevated() {
		resolved := resolver.Resolve(rec.Query)
		switch resolved.Kind {
		case resolver.KindID:
			employeeID = resolved.Value
		case resolver.KindName:
			employee, err := e.payroll.FindEmployee(ctx, resolved.Value)
			if err != nil {
				return nil, err
			}
			employeeID = employee.EmployeeID
		}
	} else {
		employeeID = rec.Caller.EmployeeID
	}

	if employeeID == "" {
		return Failure{Message: missingEmployee}, nil
	}

	breakdown, err := e.payroll.Calculate(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	return SalaryCalculation{Breakdown: *breakdown}, nil
}

func payrollHelp(rec *Record) string {
	id := rec.Caller.EmployeeID
	if id == "" {
		id = "your employee ID"
	}
	return fmt.Sprintf("I can help you check your salary. Try: 'Calculate salary for %s'", id)
}
