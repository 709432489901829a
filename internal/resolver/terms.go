package resolver

import (
	"regexp"
	"strings"
)

var searchStopWords = toSet("search", "for", "find", "candidates", "candidate", "who", "with", "have", "are")

// ExtractSearchTerms drops search filler words from query, keeping the rest in order.
func ExtractSearchTerms(query string) string {
	words := strings.Fields(strings.ToLower(query))
	terms := words[:0]
	for _, w := range words {
		if _, ok := searchStopWords[w]; ok {
			continue
		}
		terms = append(terms, w)
	}
	return strings.Join(terms, " ")
}

// Departments recognised in report queries.
var Departments = []string{"IT", "HR", "Finance", "Marketing", "Engineering", "Sales"}

var departmentPatterns = func() []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, len(Departments))
	for i, d := range Departments {
		patterns[i] = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(d) + `\b`)
	}
	return patterns
}()

// ExtractDepartment returns the first known department named in query.
func ExtractDepartment(query string) (string, bool) {
	for i, re := range departmentPatterns {
		if re.MatchString(query) {
			return Departments[i], true
		}
	}
	return "", false
}
