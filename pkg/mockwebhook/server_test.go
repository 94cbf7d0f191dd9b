package mockwebhook_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/shpitdev/profile-finder/pkg/mockwebhook"
	"github.com/shpitdev/profile-finder/pkg/pipeline/worker"
	"github.com/shpitdev/profile-finder/pkg/profiles"
)

type searchFunc func(ctx context.Context, rec profiles.UploadRecord) ([]profiles.ProfileResult, error)

func (f searchFunc) Search(ctx context.Context, rec profiles.UploadRecord) ([]profiles.ProfileResult, error) {
	return f(ctx, rec)
}

func post(t *testing.T, h http.Handler, body string) (int, profiles.ProcessingResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhook/abc", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var resp profiles.ProcessingResponse
	if rec.Code == http.StatusOK {
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode response: %v\n%s", err, rec.Body.String())
		}
	}
	return rec.Code, resp
}

func TestFixtureSearcher_DeterministicAndCapped(t *testing.T) {
	t.Parallel()

	f := mockwebhook.FixtureSearcher{PerCompany: 5}
	rec := profiles.UploadRecord{CompanyName: "Acme Corp", Region: "US", MaxResults: 2}

	a, err := f.Search(context.Background(), rec)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	b, _ := f.Search(context.Background(), rec)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Fatalf("fixture not deterministic (-a +b):\n%s", diff)
	}
	if len(a) != 2 {
		t.Fatalf("expected MaxResults cap of 2, got %d", len(a))
	}
	for _, p := range a {
		if !strings.HasSuffix(p.Email, "@acmecorp.example") || !strings.HasPrefix(p.URL, "https://www.linkedin.com/in/") {
			t.Fatalf("unexpected fixture profile: %#v", p)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := f.Search(ctx, rec); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestServer_AnswersContract(t *testing.T) {
	t.Parallel()

	srv := mockwebhook.New(mockwebhook.FixtureSearcher{}, worker.Options{Workers: 2}, nil)
	srv.SetClock(func() time.Time { return time.Date(2026, 10, 17, 8, 0, 0, 0, time.FixedZone("X", 3600)) })

	code, resp := post(t, srv.Handler(), `{"body":[{"Company Name":"Acme","Region":"US","Max Results":2},{"Company Name":"Globex","Region":"EU","Max Results":20}]}`)
	if code != http.StatusOK {
		t.Fatalf("status=%d", code)
	}
	if !resp.Succeeded() {
		t.Fatalf("expected success, got %#v", resp)
	}
	if *resp.TotalCompanies != 2 || *resp.TotalProfiles != 5 || len(resp.Profiles) != 5 {
		t.Fatalf("unexpected totals: companies=%d profiles=%d", *resp.TotalCompanies, *resp.TotalProfiles)
	}
	if diff := cmp.Diff([]string{"Acme", "Globex"}, resp.ProcessedCompanies); diff != "" {
		t.Fatalf("processedCompanies mismatch (-want +got):\n%s", diff)
	}
	if resp.Timestamp != "2026-10-17T07:00:00Z" {
		t.Fatalf("unexpected timestamp %q", resp.Timestamp)
	}
	for i, p := range resp.Profiles {
		wantCompany := "Acme"
		if i >= 2 {
			wantCompany = "Globex"
		}
		if p.SearchCompany != wantCompany {
			t.Fatalf("profile %d search_company=%q want %q", i, p.SearchCompany, wantCompany)
		}
	}

	calls := srv.Calls()
	if len(calls) != 1 || calls[0].Path != "/webhook/abc" || len(calls[0].Request.Body) != 2 {
		t.Fatalf("unexpected calls: %#v", calls)
	}
}

func TestServer_RejectsBadRequests(t *testing.T) {
	t.Parallel()

	srv := mockwebhook.New(mockwebhook.FixtureSearcher{}, worker.Options{}, nil)
	h := srv.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET status=%d", rec.Code)
	}

	if code, _ := post(t, h, "{"); code != http.StatusBadRequest {
		t.Fatalf("invalid json status=%d", code)
	}

	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "empty batch", body: `{"body":[]}`, want: "at least one company"},
		{name: "blank region", body: `{"body":[{"Company Name":"Acme","Region":" ","Max Results":20}]}`, want: "Region"},
	}
	for _, tt := range tests {
		code, resp := post(t, h, tt.body)
		if code != http.StatusOK || resp.Status != "error" || !strings.Contains(resp.Message, tt.want) {
			t.Fatalf("%s: code=%d resp=%#v", tt.name, code, resp)
		}
	}
}

func TestServer_SearchFailureFailsBatch(t *testing.T) {
	t.Parallel()

	s := searchFunc(func(_ context.Context, rec profiles.UploadRecord) ([]profiles.ProfileResult, error) {
		if rec.CompanyName == "Globex" {
			return nil, errors.New("blocked")
		}
		return []profiles.ProfileResult{{Name: "ok"}}, nil
	})
	srv := mockwebhook.New(s, worker.Options{}, nil)

	code, resp := post(t, srv.Handler(), `{"body":[{"Company Name":"Acme","Region":"US","Max Results":1},{"Company Name":"Globex","Region":"EU","Max Results":1}]}`)
	if code != http.StatusOK {
		t.Fatalf("status=%d", code)
	}
	if resp.Status != "error" || resp.Profiles != nil || !strings.Contains(resp.Message, "blocked") {
		t.Fatalf("expected whole batch to fail, got %#v", resp)
	}
}

func TestServer_Faults(t *testing.T) {
	t.Parallel()

	srv := mockwebhook.New(mockwebhook.FixtureSearcher{}, worker.Options{}, nil)
	h := srv.Handler()
	body := `{"body":[{"Company Name":"Acme","Region":"US","Max Results":1}]}`

	srv.FailWithStatus(http.StatusTooManyRequests, "slow down")
	if code, _ := post(t, h, body); code != http.StatusTooManyRequests {
		t.Fatalf("fault status=%d", code)
	}

	srv.FailWithStatus(0, "")
	canned := &profiles.ProcessingResponse{Status: "success", Profiles: []profiles.ProfileResult{{Name: "canned"}}}
	srv.RespondWith(canned)
	_, resp := post(t, h, body)
	if len(resp.Profiles) != 1 || resp.Profiles[0].Name != "canned" {
		t.Fatalf("expected canned response, got %#v", resp)
	}

	srv.RespondWith(nil)
	_, resp = post(t, h, body)
	if !resp.Succeeded() || len(resp.Profiles) != 1 || resp.Profiles[0].Name == "canned" {
		t.Fatalf("expected fixture response, got %#v", resp)
	}

	if got := len(srv.Calls()); got != 3 {
		t.Fatalf("expected 3 recorded calls, got %d", got)
	}
}
