package cv

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spigell/hr-assistant/internal/hr"
)

const unknownPosition = "Unknown Position"

// IdentityFromFilename derives a candidate identity from names such as
// "John_Doe_Java-Developer_1718000000.pdf".
func IdentityFromFilename(path string) hr.CandidateIdentity {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))

	parts := make([]string, 0)
	for _, p := range strings.Split(base, "_") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) > 1 && isDigits(parts[len(parts)-1]) {
		parts = parts[:len(parts)-1]
	}

	switch len(parts) {
	case 0:
		return hr.CandidateIdentity{Name: base, Position: unknownPosition}
	case 1:
		return hr.CandidateIdentity{Name: parts[0], Position: unknownPosition}
	default:
		return hr.CandidateIdentity{
			Name:     strings.Join(parts[:len(parts)-1], " "),
			Position: strings.ReplaceAll(parts[len(parts)-1], "-", " "),
		}
	}
}

// UploadFilename is the stored name of an uploaded resume. IdentityFromFilename
// recovers id from it.
func UploadFilename(id hr.CandidateIdentity, ext string, at time.Time) string {
	name := strings.Join(strings.Fields(sanitize(id.Name)), "_")
	position := strings.Join(strings.Fields(sanitize(id.Position)), "-")
	return fmt.Sprintf("%s_%s_%d%s", name, position, at.Unix(), strings.ToLower(ext))
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '_', '-', '/', '\\', '.', ':':
			return ' '
		}
		return r
	}, s)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
