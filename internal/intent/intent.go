// Package intent maps queries onto the subsystem that should answer them.
package intent

import "strings"

type Intent string

const (
	Search  Intent = "ats"
	Payroll Intent = "payroll"
	General Intent = "general"
)

var (
	// SearchKeywords route a query to candidate search.
	SearchKeywords = []string{"search", "candidate", "cv", "applicant", "hire", "recruit"}
	// PayrollKeywords route a query to payroll.
	PayrollKeywords = []string{"salary", "payroll", "calculate", "employee", "report"}
)

// Classify checks search keywords first, then payroll keywords. First match wins.
func Classify(query string) Intent {
	q := strings.ToLower(query)
	switch {
	case ContainsAny(q, SearchKeywords):
		return Search
	case ContainsAny(q, PayrollKeywords):
		return Payroll
	default:
		return General
	}
}

// ContainsAny reports whether the lowercased query contains any keyword as a substring.
func ContainsAny(lowerQuery string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(lowerQuery, k) {
			return true
		}
	}
	return false
}
