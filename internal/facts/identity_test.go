package facts

import (
	"errors"
	"testing"
)

// TestResolve tests the identity fallback chain
func TestResolve(t *testing.T) {
	fail := func() (string, error) { return "", errors.New("lookup failed") }
	empty := func() (string, error) { return "  ", nil }
	value := func(v string) Lookup {
		return func() (string, error) { return v, nil }
	}

	tests := []struct {
		name     string
		lookups  []Lookup
		expected string
	}{
		{
			name:     "primary succeeds",
			lookups:  []Lookup{value("web-01"), value("fallback")},
			expected: "web-01",
		},
		{
			name:     "primary fails",
			lookups:  []Lookup{fail, value("fallback")},
			expected: "fallback",
		},
		{
			name:     "empty result falls through",
			lookups:  []Lookup{empty, value("fallback")},
			expected: "fallback",
		},
		{
			name:     "value is trimmed",
			lookups:  []Lookup{value(" alice\n")},
			expected: "alice",
		},
		{
			name:     "nil lookup skipped",
			lookups:  []Lookup{nil, value("bob")},
			expected: "bob",
		},
		{
			name:     "chain exhausted",
			lookups:  []Lookup{fail, empty},
			expected: Unresolved,
		},
		{
			name:     "no lookups",
			expected: Unresolved,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Resolve(tt.lookups...); got != tt.expected {
				t.Errorf("Resolve = %q, expected %q", got, tt.expected)
			}
		})
	}
}

// TestEnvUsername tests the environment username lookup
func TestEnvUsername(t *testing.T) {
	t.Setenv("USER", "")
	t.Setenv("LOGNAME", "")
	t.Setenv("USERNAME", "")

	if _, err := envUsername(); err == nil {
		t.Error("Expected error with no username variables set")
	}

	t.Setenv("LOGNAME", "carol")
	name, err := envUsername()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if name != "carol" {
		t.Errorf("envUsername = %q, expected carol", name)
	}
}
