package ws

import (
	"net/http/httptest"
	"testing"
)

// TestOriginChecker verifies allow-list matching, normalisation and wildcard handling.
func TestOriginChecker(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    bool
	}{
		{"no origin header", []string{"http://localhost:3000"}, "", true},
		{"exact match", []string{"http://localhost:3000"}, "http://localhost:3000", true},
		{"case insensitive", []string{"http://LocalHost:3000"}, "HTTP://localhost:3000", true},
		{"path ignored", []string{"https://comictalk.app/"}, "https://comictalk.app", true},
		{"not listed", []string{"http://localhost:3000"}, "http://evil.example", false},
		{"malformed", []string{"http://localhost:3000"}, "not a url", false},
		{"wildcard", []string{"*"}, "http://anything.example", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oc := NewOriginChecker(tt.allowed)
			r := httptest.NewRequest("GET", "/ws", nil)
			if tt.origin != "" {
				r.Header.Set("Origin", tt.origin)
			}
			if got := oc.Check(r); got != tt.want {
				t.Errorf("Check(%q) = %v, want %v", tt.origin, got, tt.want)
			}
		})
	}
}
