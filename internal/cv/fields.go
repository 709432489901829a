package cv

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

const summaryLength = 500

var (
	skillPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:Java|Python|JavaScript|React|Angular|Vue|Node\.js|Spring|Django|Flask)\b`),
		regexp.MustCompile(`(?i)\b(?:AWS|Azure|Docker|Kubernetes|Git|Jenkins|MySQL|PostgreSQL|MongoDB)\b`),
		regexp.MustCompile(`(?i)\b(?:HTML|CSS|TypeScript|jQuery|Bootstrap)\b`),
	}

	experiencePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(\d+)\+?\s*years?\s*(?:of\s*)?experience`),
		regexp.MustCompile(`(?i)experience[:\s]*(\d+)\+?\s*years?`),
	}

	educationPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:Bachelor|Master|PhD|BSc|MSc)[^.]*`),
		regexp.MustCompile(`(?i)University[^.]*`),
	}

	emailPattern = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	phonePattern = regexp.MustCompile(`\+?[\d\s\-()]{10,}`)
)

// Fields are the structured values derived from resume text.
type Fields struct {
	Skills          []string
	ExperienceYears int
	Education       []string
	Email           string
	Phone           string
	Summary         string
}

// ParseFields extracts skills, experience, education, contact details and a summary.
func ParseFields(text string) Fields {
	return Fields{
		Skills:          extractSkills(text),
		ExperienceYears: extractExperience(text),
		Education:       extractEducation(text),
		Email:           emailPattern.FindString(text),
		Phone:           extractPhone(text),
		Summary:         Summary(text),
	}
}

// Summary is the first 500 characters of text.
func Summary(text string) string {
	if utf8.RuneCountInString(text) <= summaryLength {
		return text
	}
	return string([]rune(text)[:summaryLength])
}

func extractSkills(text string) []string {
	seen := make(map[string]struct{})
	skills := make([]string, 0)
	for _, re := range skillPatterns {
		for _, m := range re.FindAllString(text, -1) {
			skill := strings.ToLower(m)
			if _, ok := seen[skill]; ok {
				continue
			}
			seen[skill] = struct{}{}
			skills = append(skills, skill)
		}
	}
	return skills
}

func extractExperience(text string) int {
	best := 0
	for _, re := range experiencePatterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			years, err := strconv.Atoi(m[1])
			if err == nil && years > best {
				best = years
			}
		}
	}
	return best
}

func extractEducation(text string) []string {
	education := make([]string, 0)
	for _, re := range educationPatterns {
		for _, m := range re.FindAllString(text, -1) {
			if fragment := strings.TrimSpace(m); fragment != "" {
				education = append(education, fragment)
			}
		}
	}
	return education
}

func extractPhone(text string) string {
	for _, m := range phonePattern.FindAllString(text, -1) {
		phone := strings.TrimSpace(m)
		if countDigits(phone) >= 7 {
			return phone
		}
	}
	return ""
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}
