package redact_test

import (
	"strings"
	"testing"

	"github.com/shpitdev/profile-finder/pkg/pipeline/redact"
)

func TestURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "https://hooks.example.test", want: "https://hooks.example.test"},
		{in: "https://hooks.example.test/webhook", want: "https://hooks.example.test/webhook"},
		{in: "https://hooks.example.test/webhook/3f0c-secret-id", want: "https://hooks.example.test/webhook/<redacted>"},
		{in: "http://127.0.0.1:8080/webhook?key=abc", want: "http://127.0.0.1:8080/webhook?<redacted>"},
		{in: "not a url", want: "<redacted_url>"},
	}
	for _, tt := range tests {
		if got := redact.URL(tt.in); got != tt.want {
			t.Fatalf("URL(%q)=%q want=%q", tt.in, got, tt.want)
		}
	}
}

func TestSecrets(t *testing.T) {
	in := `post https://hooks.example.test/webhook/abc123: Authorization: Bearer eyJhbGciOi api_key=XYZ token: t0k`
	got := redact.Secrets(in)
	for _, leaked := range []string{"abc123", "eyJhbGciOi", "XYZ", "t0k"} {
		if strings.Contains(got, leaked) {
			t.Fatalf("secret %q leaked in %q", leaked, got)
		}
	}
	if !strings.Contains(got, "https://hooks.example.test/webhook/<redacted>") {
		t.Fatalf("expected redacted url in %q", got)
	}
	if redact.Secrets("") != "" {
		t.Fatalf("expected empty output for empty input")
	}
}
