package workflow

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/spigell/hr-assistant/internal/hr"
)

const (
	UnavailableMessage = "⚠️ Something went wrong while processing your request. Please try again later."

	summaryPreview  = 100
	searchSkills    = 5
	listSkills      = 3
	timestampLayout = "2006-01-02 15:04:05 MST"
)

var printer = message.NewPrinter(language.English)

// Format renders a handler result for the caller.
func Format(res ToolResult) string {
	switch r := res.(type) {
	case CandidateMatches:
		return formatMatches(r)
	case CandidateList:
		return formatCandidates(r)
	case SalaryCalculation:
		return formatSalary(r)
	case PayrollReport:
		return formatReport(r)
	case EmployeeList:
		return formatEmployees(r)
	case Help:
		return r.Message
	case Failure:
		if r.Calculation {
			return "❌ Error: " + r.Message
		}
		return "❌ **Error:** " + r.Message
	case Unavailable:
		return UnavailableMessage
	default:
		return "✅ Task completed successfully."
	}
}

func formatMatches(r CandidateMatches) string {
	if len(r.Results) == 0 {
		return "❌ No candidates found matching your search criteria."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🎯 Found %d candidates:\n\n", len(r.Results))
	for i, res := range r.Results {
		c := res.Candidate
		fmt.Fprintf(&b, "**%d. %s** - %s\n", i+1, c.Identity.Name, c.Identity.Position)
		fmt.Fprintf(&b, "   📧 Email: %s\n", orDefault(c.Email, "N/A"))
		fmt.Fprintf(&b, "   💼 Experience: %d years\n", c.ExperienceYears)
		if len(c.Skills) > 0 {
			fmt.Fprintf(&b, "   🛠️ Skills: %s\n", skillList(c.Skills, searchSkills, true))
		}
		if res.Semantic && res.Distance > 0 {
			fmt.Fprintf(&b, "   📊 Match Score: %.2f\n", 1/res.Distance)
		}
		fmt.Fprintf(&b, "   📝 Summary: %s...\n\n", preview(orDefault(c.Summary, "No summary available"), summaryPreview))
	}
	return b.String()
}

func formatCandidates(r CandidateList) string {
	if len(r.Candidates) == 0 {
		return "❌ No candidates in the database."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📋 **All Candidates (%d total):**\n\n", len(r.Candidates))
	for i, c := range r.Candidates {
		fmt.Fprintf(&b, "%d. **%s** - %s\n", i+1, c.Identity.Name, c.Identity.Position)
		fmt.Fprintf(&b, "   💼 Experience: %d years\n", c.ExperienceYears)
		if len(c.Skills) > 0 {
			fmt.Fprintf(&b, "   🛠️ Skills: %s\n", skillList(c.Skills, listSkills, false))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func formatSalary(r SalaryCalculation) string {
	s := r.Breakdown

	var b strings.Builder
	fmt.Fprintf(&b, "💰 **Salary Calculation for %s**\n\n", s.Name)
	b.WriteString("👤 **Employee Details:**\n")
	fmt.Fprintf(&b, "• Employee ID: %s\n", s.EmployeeID)
	fmt.Fprintf(&b, "• Department: %s\n", s.Department)
	fmt.Fprintf(&b, "• Position: %s\n\n", s.Position)
	b.WriteString("💵 **Salary Breakdown:**\n")
	fmt.Fprintf(&b, "• Base Salary: %s\n", Money(s.BaseSalary))
	fmt.Fprintf(&b, "• Bonus: %s\n", Money(s.Bonus))
	fmt.Fprintf(&b, "• **Gross Salary: %s**\n\n", Money(s.GrossSalary))
	b.WriteString("📊 **Deductions:**\n")
	fmt.Fprintf(&b, "• Tax Rate: %s%%\n", percent(s.TaxRate))
	fmt.Fprintf(&b, "• Tax Amount: %s\n", Money(s.TaxAmount))
	fmt.Fprintf(&b, "• Other Deductions: %s\n\n", Money(s.Deductions))
	fmt.Fprintf(&b, "💳 **Net Salary: %s**\n\n", Money(s.NetSalary))
	fmt.Fprintf(&b, "📅 Calculated on: %s", timestamp(s.CalculationDate))
	return b.String()
}

func formatReport(r PayrollReport) string {
	rep := r.Report

	var b strings.Builder
	fmt.Fprintf(&b, "📊 **Payroll Report - %s**\n\n", rep.Department)
	b.WriteString("📈 **Summary Statistics:**\n")
	fmt.Fprintf(&b, "• Total Employees: %d\n", rep.TotalEmployees)
	fmt.Fprintf(&b, "• Total Base Salary: %s\n", Money(rep.TotalBaseSalary))
	fmt.Fprintf(&b, "• Total Bonus: %s\n", Money(rep.TotalBonus))
	fmt.Fprintf(&b, "• Total Gross Salary: %s\n", Money(rep.TotalGrossSalary))
	fmt.Fprintf(&b, "• Total Tax: %s\n", Money(rep.TotalTax))
	fmt.Fprintf(&b, "• Total Deductions: %s\n", Money(rep.TotalDeductions))
	fmt.Fprintf(&b, "• **Total Net Salary: %s**\n\n", Money(rep.TotalNetSalary))
	b.WriteString("👥 **Employee Details:**\n")
	for _, e := range rep.Employees {
		fmt.Fprintf(&b, "• %s (%s): %s\n", e.Name, e.EmployeeID, Money(e.NetSalary))
	}
	fmt.Fprintf(&b, "\n📅 Generated on: %s", timestamp(rep.GeneratedAt))
	return b.String()
}

func formatEmployees(r EmployeeList) string {
	if len(r.Employees) == 0 {
		return "❌ No employees found."
	}

	var b strings.Builder
	if r.Filter != "" {
		fmt.Fprintf(&b, "👥 **Employees matching %s (%d total):**\n\n", r.Filter, len(r.Employees))
	} else {
		fmt.Fprintf(&b, "👥 **All Employees (%d total):**\n\n", len(r.Employees))
	}
	for _, e := range r.Employees {
		fmt.Fprintf(&b, "• **%s** (%s) - %s\n", e.Name, e.EmployeeID, e.Department)
		fmt.Fprintf(&b, "  📍 Position: %s\n", e.Position)
		fmt.Fprintf(&b, "  💰 Salary: %s\n\n", Money(e.SalaryOrDefault()))
	}
	return b.String()
}

// AccessDenied renders a denial together with what a standard caller may do.
func AccessDenied(caller hr.Caller, reason string) string {
	id := caller.EmployeeID
	if id == "" {
		id = "your employee ID"
	}
	return fmt.Sprintf(`🚫 Access Denied

Hello %s, %s

As a regular user, you can:
• Check your own salary: "Calculate salary for %s"
• Ask general questions about HR policies
• Get help with the system

For candidate management and ATS functions, please contact your HR Admin.`, caller.DisplayName(), reason, id)
}

// GeneralResponse greets the caller and lists what their role can ask for.
func GeneralResponse(caller hr.Caller) string {
	var capabilities string
	if caller.IsElevated() {
		capabilities = `As an HR Admin, you can:

🔍 **ATS (Candidate Management):**
• "Search for Java developers"
• "Show me all candidates"
• "Find candidates with Python experience"

💰 **Payroll:**
• "Calculate salary for EMP001"
• "Calculate salary for EMP014"
• "Generate payroll report for IT department"
• "Show all employees"

⚙️ **System Administration:**
• Upload CVs and manage candidate applications
• Manage employee data`
	} else {
		first := firstName(caller.DisplayName())
		capabilities = fmt.Sprintf(`As an employee, you can:

💰 **Your Payroll:**
• "Calculate salary for %s"
• "Show my payroll details"

❓ **General:**
• Ask general HR questions

For candidate management and other employees' information, please contact HR Admin.`, first)
	}

	return fmt.Sprintf("👋 Hello %s!\n\n%s\n\nHow can I help you today?", caller.DisplayName(), capabilities)
}

// Money formats an amount in rupees with thousands separators.
func Money(v float64) string {
	return printer.Sprintf("Rs. %.2f", v)
}

func percent(rate float64) string {
	return strconv.FormatFloat(math.Round(rate*10000)/100, 'f', -1, 64)
}

func skillList(skills []string, limit int, withRest bool) string {
	if len(skills) <= limit {
		return strings.Join(skills, ", ")
	}
	out := strings.Join(skills[:limit], ", ")
	if withRest {
		out += fmt.Sprintf(" (+%d more)", len(skills)-limit)
	}
	return out
}

func preview(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

func firstName(name string) string {
	if fields := strings.Fields(name); len(fields) > 0 {
		return fields[0]
	}
	return name
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

func timestamp(t time.Time) string {
	if t.IsZero() {
		return "Unknown"
	}
	return t.Format(timestampLayout)
}
