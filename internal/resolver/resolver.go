// Package resolver extracts employee identifiers and search terms from free-text queries.
//
// Heuristics are tried from most to least precise: a structured ID always wins,
// then names anchored on "for"/"of", then capitalized word sequences, then a
// raw capitalized-token scan.
package resolver

import (
	"regexp"
	"strings"
	"unicode"
)

// Kind tells what Resolve found.
type Kind int

const (
	KindNone Kind = iota
	KindID
	KindName
)

func (k Kind) String() string {
	switch k {
	case KindID:
		return "id"
	case KindName:
		return "name"
	default:
		return "none"
	}
}

// Result is a resolved identifier. Value is empty for KindNone.
type Result struct {
	Kind  Kind
	Value string
}

func (r Result) Found() bool { return r.Kind != KindNone }

var (
	idPattern = regexp.MustCompile(`(?i)\b(EMP|ADM)\d{3}\b`)

	phrasePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:for|of)\s+([a-z][a-z'\-]*(?:\s+[a-z][a-z'\-]*){0,3})`),
		regexp.MustCompile(`(?i)\b([a-z][a-z\-]*)'s\s+(?:salary|payroll|pay|payslip)\b`),
	}

	capitalizedPattern = regexp.MustCompile(`\b([A-Z][a-z]+(?:\s+[A-Z][a-z]+)+)\b`)
)

var stopWords = toSet(
	// query keywords
	"calculate", "calculation", "compute", "salary", "salaries", "payroll", "pay", "payslip",
	"employee", "employees", "report", "net", "gross", "bonus", "tax", "deductions", "details",
	"detail", "info", "information", "breakdown", "monthly", "annual", "month", "year",
	"show", "get", "check", "tell", "give", "find", "list", "display", "view", "see",
	"department", "dept", "all",
	// filler
	"for", "of", "the", "a", "an", "me", "my", "mine", "myself", "i", "is", "are", "was",
	"what", "whats", "how", "much", "does", "do", "can", "could", "would", "you", "please",
	"about", "and", "to", "in", "on", "with", "this", "that", "it", "his", "her", "their",
	"hello", "hi", "hey", "thanks", "thank", "help", "now", "current", "latest",
	// departments
	"hr", "finance", "marketing", "engineering", "sales",
	// calendar
	"january", "february", "march", "april", "may", "june", "july", "august",
	"september", "october", "november", "december",
	"jan", "feb", "mar", "apr", "jun", "jul", "aug", "sep", "sept", "oct", "nov", "dec",
	"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday",
	"today", "yesterday", "week", "quarter", "last", "next", "previous",
)

// Resolve returns the employee identifier mentioned in query, if any.
func Resolve(query string) Result {
	if id, ok := ExtractEmployeeID(query); ok {
		return Result{Kind: KindID, Value: id}
	}

	for _, re := range phrasePatterns {
		for _, m := range re.FindAllStringSubmatch(query, -1) {
			if name, ok := cleanName(m[1]); ok {
				return Result{Kind: KindName, Value: name}
			}
		}
	}

	for _, m := range capitalizedPattern.FindAllStringSubmatch(query, -1) {
		if name, ok := cleanName(m[1]); ok {
			return Result{Kind: KindName, Value: name}
		}
	}

	if name, ok := capitalizedTokens(query); ok {
		return Result{Kind: KindName, Value: name}
	}

	return Result{}
}

// ExtractEmployeeID returns the first structured employee ID in query, uppercased.
func ExtractEmployeeID(query string) (string, bool) {
	m := idPattern.FindString(query)
	if m == "" {
		return "", false
	}
	return strings.ToUpper(m), true
}

// IsStopWord reports whether word is ignored during name extraction.
func IsStopWord(word string) bool {
	_, ok := stopWords[strings.ToLower(word)]
	return ok
}

func cleanName(raw string) (string, bool) {
	kept := make([]string, 0, 4)
	significant := false
	for _, token := range strings.Fields(raw) {
		token = strings.Trim(token, ".,;:!?\"'()")
		if token == "" || IsStopWord(token) {
			continue
		}
		if len([]rune(token)) > 2 {
			significant = true
		}
		kept = append(kept, titleCase(token))
	}
	if !significant {
		return "", false
	}
	return strings.Join(kept, " "), true
}

func capitalizedTokens(query string) (string, bool) {
	found := make([]string, 0, 3)
	for _, token := range strings.Fields(query) {
		token = strings.Trim(token, ".,;:!?\"'()")
		if token == "" || IsStopWord(token) {
			continue
		}
		first := []rune(token)[0]
		if !unicode.IsUpper(first) {
			continue
		}
		found = append(found, titleCase(token))
		if len(found) == 3 {
			break
		}
	}
	if len(found) < 2 {
		return "", false
	}
	return strings.Join(found, " "), true
}

func titleCase(word string) string {
	runes := []rune(strings.ToLower(word))
	if len(runes) == 0 {
		return ""
	}
	runes[0] = unicode.ToUpper(runes[0])
	for i := 1; i < len(runes); i++ {
		if runes[i-1] == '-' || runes[i-1] == '\'' {
			runes[i] = unicode.ToUpper(runes[i])
		}
	}
	return string(runes)
}

func toSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
