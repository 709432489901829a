package workflow

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/hr-assistant/internal/ats"
	"github.com/spigell/hr-assistant/internal/hr"
	"github.com/spigell/hr-assistant/internal/intent"
	"github.com/spigell/hr-assistant/internal/payroll"
	"github.com/spigell/hr-assistant/internal/permission"
	"github.com/spigell/hr-assistant/internal/store"
)

var fixedNow = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

var (
	admin = hr.Caller{Username: "anjali", Name: "Anjali Rao", Role: hr.RoleAdmin, EmployeeID: "ADM001"}
	priya = hr.Caller{Username: "priya", Name: "Priya Sharma", Role: hr.RoleUser, EmployeeID: "EMP001"}
)

type fakeSearcher struct {
	results    []ats.Result
	candidates []hr.Candidate
	err        error
	queries    []string
}

func (f *fakeSearcher) Search(_ context.Context, query string, _ int) ([]ats.Result, error) {
	f.queries = append(f.queries, query)
	return f.results, f.err
}

func (f *fakeSearcher) ListCandidates(context.Context) ([]hr.Candidate, error) {
	return f.candidates, f.err
}

type fakeResponder struct {
	answer string
	err    error
}

func (f fakeResponder) Respond(context.Context, string) (string, error) {
	return f.answer, f.err
}

func newCalculator(t *testing.T) *payroll.Calculator {
	t.Helper()

	st := store.NewMemory()
	employees := []hr.Employee{
		{EmployeeID: "EMP001", Name: "Priya Sharma", Department: "Engineering", Position: "Developer",
			Salary: hr.Float(100000), Bonus: hr.Float(10000), TaxRate: hr.Float(0.1), Deductions: hr.Float(2000), Active: true},
		{EmployeeID: "EMP002", Name: "Rahul Mehta", Department: "Finance", Position: "Analyst",
			Salary: hr.Float(50000), Active: true},
		{EmployeeID: "ADM001", Name: "Anjali Rao", Department: "HR", Position: "HR Manager",
			Salary: hr.Float(80000), Bonus: hr.Float(5000), TaxRate: hr.Float(0.2), Active: true},
	}
	for _, e := range employees {
		if err := st.UpsertEmployee(context.Background(), e); err != nil {
			t.Fatalf("UpsertEmployee: %v", err)
		}
	}
	return payroll.NewCalculator(st, zap.NewNop(), payroll.WithClock(func() time.Time { return fixedNow }))
}

func newEngine(t *testing.T, searcher *fakeSearcher, opts ...Option) *Engine {
	t.Helper()
	if searcher == nil {
		searcher = &fakeSearcher{}
	}
	return New(searcher, newCalculator(t), zap.NewNop(), opts...)
}

func assertContains(t *testing.T, got string, want ...string) {
	t.Helper()
	for _, w := range want {
		if !strings.Contains(got, w) {
			t.Fatalf("expected response to contain %q, got:\n%s", w, got)
		}
	}
}

func TestNext(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		state State
		rec   Record
		want  State
	}{
		{"granted", StateCheckPermissions, Record{Verdict: permission.Verdict{Granted: true}}, StateClassifyIntent},
		{"denied", StateCheckPermissions, Record{}, StateDenied},
		{"search", StateClassifyIntent, Record{Intent: intent.Search}, StateHandleSearch},
		{"payroll", StateClassifyIntent, Record{Intent: intent.Payroll}, StateHandlePayroll},
		{"general", StateClassifyIntent, Record{Intent: intent.General}, StateRespond},
		{"after search", StateHandleSearch, Record{}, StateRespond},
		{"after payroll", StateHandlePayroll, Record{}, StateRespond},
		{"respond is terminal", StateRespond, Record{}, StateDone},
		{"denied is terminal", StateDenied, Record{}, StateDone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := tt.rec
			if got := Next(tt.state, &rec); got != tt.want {
				t.Fatalf("Next(%s) = %s, want %s", tt.state, got, tt.want)
			}
		})
	}
}

func TestAdminCalculatesSalaryByID(t *testing.T) {
	t.Parallel()

	rec := newEngine(t, nil).Run(context.Background(), "Calculate salary for EMP001", admin)

	want := []State{StateCheckPermissions, StateClassifyIntent, StateHandlePayroll, StateRespond}
	if !reflect.DeepEqual(rec.Path, want) {
		t.Fatalf("unexpected path %v", rec.Path)
	}
	assertContains(t, rec.Response,
		"💰 **Salary Calculation for Priya Sharma**",
		"• Base Salary: Rs. 100,000.00",
		"• Tax Rate: 10%",
		"💳 **Net Salary: Rs. 97,000.00**",
		"📅 Calculated on: 2025-03-01 09:00:00 UTC",
	)
}

func TestAdminCalculatesSalaryByName(t *testing.T) {
	t.Parallel()

	got := newEngine(t, nil).Process(context.Background(), "Calculate salary for Rahul", admin)
	assertContains(t, got, "Salary Calculation for Rahul Mehta", "• Employee ID: EMP002")
}

func TestAdminUnknownEmployee(t *testing.T) {
	t.Parallel()

	got := newEngine(t, nil).Process(context.Background(), "Calculate salary for EMP999", admin)
	if !strings.HasPrefix(got, "❌ Error: ") {
		t.Fatalf("unexpected response %q", got)
	}
}

func TestAdminSalaryWithoutIdentifier(t *testing.T) {
	t.Parallel()

	got := newEngine(t, nil).Process(context.Background(), "calculate salary", admin)
	if got != "❌ **Error:** Please specify employee ID" {
		t.Fatalf("unexpected response %q", got)
	}
}

func TestUserGetsOwnSalary(t *testing.T) {
	t.Parallel()

	engine := newEngine(t, nil)
	for _, q := range []string{"Calculate salary for Priya", "Calculate salary for EMP001", "Show my payroll details"} {
		got := engine.Process(context.Background(), q, priya)
		assertContains(t, got, "Salary Calculation for Priya Sharma")
	}
}

func TestUserDeniedOtherEmployee(t *testing.T) {
	t.Parallel()

	rec := newEngine(t, nil).Run(context.Background(), "Calculate salary for EMP002", priya)

	if !reflect.DeepEqual(rec.Path, []State{StateCheckPermissions, StateDenied}) {
		t.Fatalf("unexpected path %v", rec.Path)
	}
	assertContains(t, rec.Response,
		"🚫 Access Denied",
		"Hello Priya Sharma, You can only access your own payroll information.",
		`"Calculate salary for EMP001"`,
	)
}

func TestUserDeniedCandidateSearch(t *testing.T) {
	t.Parallel()

	searcher := &fakeSearcher{}
	got := newEngine(t, searcher).Process(context.Background(), "Search for Java developers", priya)

	assertContains(t, got, "🚫 Access Denied", permission.ReasonSearchRestricted)
	if len(searcher.queries) != 0 {
		t.Fatalf("search must not run for a denied caller")
	}
}

func TestUserPayrollReportIsAdminOnly(t *testing.T) {
	t.Parallel()

	got := newEngine(t, nil).Process(context.Background(), "payroll report", priya)
	if got != "❌ **Error:** Payroll reports are available to HR Admin only" {
		t.Fatalf("unexpected response %q", got)
	}
}

func TestUserWithoutEmployeeID(t *testing.T) {
	t.Parallel()

	caller := hr.Caller{Username: "guest", Name: "Guest", Role: hr.RoleUser}
	got := newEngine(t, nil).Process(context.Background(), "calculate my salary", caller)
	if got != "❌ **Error:** Please specify employee ID" {
		t.Fatalf("unexpected response %q", got)
	}
}

func TestAdminPayrollReport(t *testing.T) {
	t.Parallel()

	engine := newEngine(t, nil)

	got := engine.Process(context.Background(), "Generate payroll report for Engineering department", admin)
	assertContains(t, got,
		"📊 **Payroll Report - Engineering Department**",
		"• Total Employees: 1",
		"• Priya Sharma (EMP001): Rs. 97,000.00",
	)

	got = engine.Process(context.Background(), "Generate payroll report for IT department", admin)
	if got != "❌ Error: no employees found for IT Department" {
		t.Fatalf("unexpected response %q", got)
	}
}

func TestAdminListsEmployees(t *testing.T) {
	t.Parallel()

	got := newEngine(t, nil).Process(context.Background(), "Show all employees", admin)
	assertContains(t, got,
		"👥 **All Employees (3 total):**",
		"• **Priya Sharma** (EMP001) - Engineering",
		"  💰 Salary: Rs. 100,000.00",
	)
}

func TestAdminListsEmployeesOfDepartment(t *testing.T) {
	t.Parallel()

	got := newEngine(t, nil).Process(context.Background(), "List employees in Finance", admin)
	assertContains(t, got,
		"👥 **Employees matching Finance (1 total):**",
		"• **Rahul Mehta** (EMP002) - Finance",
	)
	if strings.Contains(got, "Priya Sharma") {
		t.Fatalf("listing must be narrowed to the department, got:\n%s", got)
	}
}

func TestAdminSearchesCandidates(t *testing.T) {
	t.Parallel()

	searcher := &fakeSearcher{results: []ats.Result{{
		Candidate: hr.Candidate{
			Identity:        hr.CandidateIdentity{Name: "John Doe", Position: "Java Developer"},
			Skills:          []string{"java", "spring", "docker", "aws", "git", "jenkins", "mysql"},
			ExperienceYears: 6,
			Summary:         "Java developer",
		},
		Distance: 0.5,
		Semantic: true,
	}}}

	got := newEngine(t, searcher).Process(context.Background(), "Search for Java developers", admin)

	if !reflect.DeepEqual(searcher.queries, []string{"java developers"}) {
		t.Fatalf("unexpected search terms %v", searcher.queries)
	}
	assertContains(t, got,
		"🎯 Found 1 candidates:",
		"**1. John Doe** - Java Developer",
		"📧 Email: N/A",
		"🛠️ Skills: java, spring, docker, aws, git (+2 more)",
		"📊 Match Score: 2.00",
		"📝 Summary: Java developer...",
	)
}

func TestAdminListsCandidates(t *testing.T) {
	t.Parallel()

	got := newEngine(t, &fakeSearcher{}).Process(context.Background(), "Show me all candidates", admin)
	if got != "❌ No candidates in the database." {
		t.Fatalf("unexpected response %q", got)
	}
}

func TestInfrastructureErrorIsHidden(t *testing.T) {
	t.Parallel()

	searcher := &fakeSearcher{err: hr.Unavailable(errors.New("connection refused"))}
	got := newEngine(t, searcher).Process(context.Background(), "Find candidates with Python experience", admin)
	if got != UnavailableMessage {
		t.Fatalf("unexpected response %q", got)
	}
}

func TestGeneralResponse(t *testing.T) {
	t.Parallel()

	rec := newEngine(t, nil).Run(context.Background(), "hello", priya)

	if !reflect.DeepEqual(rec.Path, []State{StateCheckPermissions, StateClassifyIntent, StateRespond}) {
		t.Fatalf("unexpected path %v", rec.Path)
	}
	assertContains(t, rec.Response, "👋 Hello Priya Sharma!", `"Calculate salary for Priya"`, "How can I help you today?")

	got := newEngine(t, nil).Process(context.Background(), "hello", admin)
	assertContains(t, got, "Generate payroll report for IT department")
}

func TestGeneralResponseWithResponder(t *testing.T) {
	t.Parallel()

	engine := newEngine(t, nil, WithResponder(fakeResponder{answer: "Annual leave is 20 days."}))
	got := engine.Process(context.Background(), "how many leave days do I have?", priya)
	if !strings.HasPrefix(got, "Annual leave is 20 days.\n\n👋 Hello") {
		t.Fatalf("unexpected response %q", got)
	}

	engine = newEngine(t, nil, WithResponder(fakeResponder{err: errors.New("quota")}))
	got = engine.Process(context.Background(), "how many leave days do I have?", priya)
	if !strings.HasPrefix(got, "👋 Hello Priya Sharma!") {
		t.Fatalf("expected capability message fallback, got %q", got)
	}
}

func TestMoney(t *testing.T) {
	t.Parallel()

	if got := Money(1234567.891); got != "Rs. 1,234,567.89" {
		t.Fatalf("Money = %q", got)
	}
	if got := Money(0); got != "Rs. 0.00" {
		t.Fatalf("Money = %q", got)
	}
}
