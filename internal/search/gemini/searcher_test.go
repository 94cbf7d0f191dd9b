package gemini

import (
	"errors"
	"strings"
	"testing"

	"google.golang.org/genai"

	"github.com/shpitdev/profile-finder/pkg/pipeline/core"
	"github.com/shpitdev/profile-finder/pkg/profiles"
)

type tempNetErr struct{}

func (tempNetErr) Error() string   { return "temp net err" }
func (tempNetErr) Timeout() bool   { return false }
func (tempNetErr) Temporary() bool { return true }

func TestClassifyErr(t *testing.T) {
	tests := []struct {
		name          string
		in            error
		wantTransient bool
	}{
		{name: "nil", in: nil, wantTransient: false},
		{name: "api_429", in: genai.APIError{Code: 429}, wantTransient: true},
		{name: "api_503", in: genai.APIError{Code: 503}, wantTransient: true},
		{name: "api_403", in: genai.APIError{Code: 403}, wantTransient: false},
		{name: "net_temporary", in: tempNetErr{}, wantTransient: true},
		{name: "plain", in: errors.New("bad request"), wantTransient: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyErr(tt.in)
			var te *core.TransientError
			isTransient := errors.As(got, &te)
			if isTransient != tt.wantTransient {
				t.Fatalf("transient=%v want=%v (err=%T %v)", isTransient, tt.wantTransient, got, got)
			}
		})
	}
}

func TestParseProfiles(t *testing.T) {
	rec := profiles.UploadRecord{CompanyName: "Acme", Region: "US", MaxResults: 2}
	text := `{"profiles":[
		{"name":" Alice ","title":"CTO","url":"https://linkedin.com/in/alice"},
		{"name":"No URL","title":"Ghost","url":""},
		{"name":"Alice again","title":"CTO","url":"https://linkedin.com/in/alice"},
		{"name":"Bob","title":"CFO","url":"https://linkedin.com/in/bob","start_date":"2021","duration":"3 yrs"},
		{"name":"Carol","title":"COO","url":"https://linkedin.com/in/carol"}
	]}`

	got, err := parseProfiles(text, rec)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 profiles (capped, deduped), got %d: %#v", len(got), got)
	}
	if got[0].Name != "Alice" || got[1].Name != "Bob" || got[1].Duration != "3 yrs" {
		t.Fatalf("unexpected profiles: %#v", got)
	}
	for _, p := range got {
		if p.SearchCompany != "Acme" || p.SearchRegion != "US" {
			t.Fatalf("search keys not stamped: %#v", p)
		}
	}
}

func TestParseProfiles_InvalidJSON(t *testing.T) {
	_, err := parseProfiles("not json", profiles.UploadRecord{CompanyName: "Acme", Region: "US"})
	if err == nil || !strings.Contains(err.Error(), "parse structured json") {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestBuildPrompt_UsesDefaultMax(t *testing.T) {
	p := buildPrompt(profiles.UploadRecord{CompanyName: "Acme", Region: "EU"})
	if !strings.Contains(p, "at most 20 profiles") || !strings.Contains(p, "Company: Acme") || !strings.Contains(p, "Region: EU") {
		t.Fatalf("unexpected prompt:\n%s", p)
	}
}
