// Package permission decides whether a caller may run a query.
//
// Name matching for payroll queries is deliberately loose: any substring or
// shared token between the resolved name and the caller's own name passes. It
// filters casual cross-employee lookups and is not a security boundary.
package permission

import (
	"fmt"
	"strings"

	"github.com/spigell/hr-assistant/internal/hr"
	"github.com/spigell/hr-assistant/internal/intent"
	"github.com/spigell/hr-assistant/internal/resolver"
)

const (
	ReasonSearchRestricted = "ATS access is restricted to HR Admin users only."
	ReasonAdminOnly        = "This action is available to HR Admin users only."
)

var (
	// payrollKeywords trigger the ownership check.
	payrollKeywords = []string{"salary", "payroll", "calculate"}
	// adminOnlyKeywords cover listings and aggregate reports.
	adminOnlyKeywords = []string{"list", "report", "all employees", "all candidates"}
)

// Verdict is the outcome of a check. Reason is set only for denials.
type Verdict struct {
	Granted  bool
	Reason   string
	Resolved resolver.Result
}

// Check applies the role rules in order. It never fails: an unresolvable
// identifier in a payroll query is treated as a question about the caller.
func Check(caller hr.Caller, query string) Verdict {
	if caller.IsElevated() {
		return Verdict{Granted: true}
	}

	q := strings.ToLower(query)

	if intent.ContainsAny(q, intent.SearchKeywords) {
		return Verdict{Reason: ReasonSearchRestricted}
	}

	if intent.ContainsAny(q, payrollKeywords) {
		resolved := resolver.Resolve(query)
		if !resolved.Found() || ownsIdentifier(caller, resolved.Value) {
			return Verdict{Granted: true, Resolved: resolved}
		}
		return Verdict{Reason: ownDataReason(caller), Resolved: resolved}
	}

	if intent.ContainsAny(q, adminOnlyKeywords) {
		return Verdict{Reason: ReasonAdminOnly}
	}

	return Verdict{Granted: true}
}

// ownsIdentifier reports whether value refers to the caller by ID or by name.
func ownsIdentifier(caller hr.Caller, value string) bool {
	if caller.EmployeeID != "" && strings.EqualFold(value, caller.EmployeeID) {
		return true
	}
	return NamesMatch(value, caller.Name)
}

// NamesMatch is a case-insensitive substring match in either direction, or any
// shared whitespace-separated token.
func NamesMatch(a, b string) bool {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return false
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return true
	}
	for _, ta := range strings.Fields(a) {
		for _, tb := range strings.Fields(b) {
			if ta == tb {
				return true
			}
		}
	}
	return false
}

func ownDataReason(caller hr.Caller) string {
	id := caller.EmployeeID
	if id == "" {
		id = "your employee ID"
	}
	return fmt.Sprintf("You can only access your own payroll information. Use your own ID %s or name %s.", id, caller.DisplayName())
}
