package utils

import "testing"

func TestTruncateForLog(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		limit  int
		expect string
	}{
		{name: "zero limit hides the value", input: "salary for EMP001", limit: 0, expect: ""},
		{name: "short prompt kept", input: "Who is a Java developer?", limit: 40, expect: "Who is a Java developer?"},
		{name: "long resume cut", input: "Rahul Sharma Senior Backend Engineer", limit: 12, expect: "Rahul Sharma..."},
		{name: "whitespace trimmed before cutting", input: "\n  Python developer  \n", limit: 6, expect: "Python..."},
		{name: "multibyte names cut on runes", input: "Анна Иванова", limit: 4, expect: "Анна..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := TruncateForLog(tt.input, tt.limit); got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}
