package cv

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/spigell/hr-assistant/internal/hr"
)

const sampleResume = `Priya Sharma
Email: priya.sharma@example.com  Phone: +91 98765 43210
Senior Java developer with 7+ years of experience building Spring and React applications.
Worked with Docker, Kubernetes and AWS. Experience: 5 years leading teams.
Bachelor of Technology in Computer Science. University of Pune, 2015.
Also familiar with javascript and JAVA tooling.`

func TestParseFields(t *testing.T) {
	t.Parallel()

	f := ParseFields(sampleResume)

	expectSkills := []string{"java", "spring", "react", "javascript", "docker", "kubernetes", "aws"}
	if !reflect.DeepEqual(f.Skills, expectSkills) {
		t.Fatalf("unexpected skills: %v", f.Skills)
	}
	if f.ExperienceYears != 7 {
		t.Fatalf("expected 7 years, got %d", f.ExperienceYears)
	}
	if f.Email != "priya.sharma@example.com" {
		t.Fatalf("unexpected email %q", f.Email)
	}
	if f.Phone != "+91 98765 43210" {
		t.Fatalf("unexpected phone %q", f.Phone)
	}
	if len(f.Education) != 2 || !strings.HasPrefix(f.Education[0], "Bachelor of Technology") || !strings.HasPrefix(f.Education[1], "University of Pune") {
		t.Fatalf("unexpected education: %q", f.Education)
	}
	if f.Summary != sampleResume {
		t.Fatalf("short resume should be its own summary")
	}
}

func TestParseFieldsEmpty(t *testing.T) {
	t.Parallel()

	f := ParseFields("no structured content here")
	if len(f.Skills) != 0 || f.ExperienceYears != 0 || f.Email != "" || f.Phone != "" {
		t.Fatalf("expected empty fields, got %+v", f)
	}
}

func TestSummaryTruncates(t *testing.T) {
	t.Parallel()

	text := strings.Repeat("é", 600)
	if got := []rune(Summary(text)); len(got) != 500 {
		t.Fatalf("expected 500 runes, got %d", len(got))
	}
}

func TestExtractTextPlain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resume.TXT")
	if err := os.WriteFile(path, []byte("  hello resume \n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	text, err := NewExtractor().ExtractText(path)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if text != "hello resume" {
		t.Fatalf("unexpected text %q", text)
	}
}

func TestExtractTextUnsupported(t *testing.T) {
	_, err := NewExtractor().ExtractText("resume.pdf")
	if !errors.Is(err, ErrUnsupportedFormat) || !errors.Is(err, hr.ErrExtraction) {
		t.Fatalf("expected unsupported extraction error, got %v", err)
	}
}

func TestExtractTextAdapter(t *testing.T) {
	e := NewExtractor(WithAdapter(func(string) (string, error) { return "from adapter", nil }, ".PDF"))

	if !e.IsSupported("cv.pdf") {
		t.Fatal("expected pdf to be supported")
	}
	text, err := e.ExtractText("cv.pdf")
	if err != nil || text != "from adapter" {
		t.Fatalf("unexpected result %q, %v", text, err)
	}
	if got := e.Supported(); !reflect.DeepEqual(got, []string{".pdf", ".txt"}) {
		t.Fatalf("unexpected supported list %v", got)
	}
}

func TestExtractTextEmptyDocument(t *testing.T) {
	e := NewExtractor(WithAdapter(func(string) (string, error) { return "   ", nil }, ".doc"))
	if _, err := e.ExtractText("cv.doc"); !errors.Is(err, hr.ErrExtraction) {
		t.Fatalf("expected extraction error, got %v", err)
	}
}

func TestIdentityFromFilename(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path   string
		expect hr.CandidateIdentity
	}{
		{path: "/cvs/John_Doe_Java-Developer_1718000000.pdf", expect: hr.CandidateIdentity{Name: "John Doe", Position: "Java Developer"}},
		{path: "Anita_Verma_Designer.docx", expect: hr.CandidateIdentity{Name: "Anita Verma", Position: "Designer"}},
		{path: "Rahul.txt", expect: hr.CandidateIdentity{Name: "Rahul", Position: "Unknown Position"}},
	}

	for _, tt := range tests {
		if got := IdentityFromFilename(tt.path); got != tt.expect {
			t.Fatalf("IdentityFromFilename(%q) = %+v, want %+v", tt.path, got, tt.expect)
		}
	}
}

func TestUploadFilenameRoundTrip(t *testing.T) {
	t.Parallel()

	id := hr.CandidateIdentity{Name: "Mary Jane Watson", Position: "Senior QA Engineer"}
	name := UploadFilename(id, ".PDF", time.Unix(1700000000, 0))

	if name != "Mary_Jane_Watson_Senior-QA-Engineer_1700000000.pdf" {
		t.Fatalf("unexpected filename %q", name)
	}
	if got := IdentityFromFilename(name); got != id {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}
