package commands

import (
	"bytes"
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shpitdev/profile-finder/internal/config"
	"github.com/shpitdev/profile-finder/pkg/mockwebhook"
	"github.com/shpitdev/profile-finder/pkg/pipeline/worker"
)

func isolateConfig(t *testing.T) string {
	t.Helper()
	for _, k := range []string{
		config.EnvWebhookURL,
		config.EnvAddr,
		config.EnvLayout,
		config.EnvRequestTimeout,
		config.EnvMaxUploadBytes,
	} {
		t.Setenv(k, "")
	}
	return filepath.Join(t.TempDir(), "profilefinder.yml")
}

func run(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := Execute(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func writeInput(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "companies.csv")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	return path
}

func TestVersion(t *testing.T) {
	code, stdout, _ := run(t, "version")
	if code != exitOK || strings.TrimSpace(stdout) != "0.1.0" {
		t.Fatalf("code=%d stdout=%q", code, stdout)
	}
}

func TestUsageErrors(t *testing.T) {
	cfgPath := isolateConfig(t)
	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "unknown command", args: []string{"frobnicate"}, want: "unknown command"},
		{name: "unknown flag", args: []string{"submit", "--nope"}, want: "unknown flag"},
		{name: "missing input", args: []string{"submit", "--config", cfgPath}, want: "requires --input"},
		{name: "missing webhook url", args: []string{"submit", "--config", cfgPath, "--input", "x.csv"}, want: "webhook.url is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := run(t, tt.args...)
			if code != exitUsage {
				t.Fatalf("code=%d want=%d stderr=%s", code, exitUsage, stderr)
			}
			if !strings.Contains(stderr, tt.want) {
				t.Fatalf("stderr %q does not contain %q", stderr, tt.want)
			}
		})
	}
}

func TestSubmit_PrintsTableAndWritesCSV(t *testing.T) {
	cfgPath := isolateConfig(t)
	stub := mockwebhook.New(mockwebhook.FixtureSearcher{PerCompany: 2}, worker.Options{}, nil)
	ts := httptest.NewServer(stub.Handler())
	defer ts.Close()
	t.Setenv(config.EnvWebhookURL, ts.URL+"/webhook")

	input := writeInput(t, "Company Name,Region\nAcme,US\nGlobex,EU\n")
	output := filepath.Join(t.TempDir(), "out.csv")

	code, stdout, stderr := run(t, "submit", "--config", cfgPath, "--input", input, "--output", output, "--layout", "grouped")
	if code != exitOK {
		t.Fatalf("code=%d stderr=%s", code, stderr)
	}
	for _, want := range []string{"Companies: 2  Profiles: 4", "Acme (2)", "Globex (2)"} {
		if !strings.Contains(stdout, want) {
			t.Fatalf("stdout missing %q:\n%s", want, stdout)
		}
	}

	b, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	if len(lines) != 5 || !strings.HasPrefix(lines[0], "name,title,snippet,url") {
		t.Fatalf("unexpected output csv:\n%s", b)
	}
}

func TestSubmit_WebhookFailureExitsOne(t *testing.T) {
	cfgPath := isolateConfig(t)
	stub := mockwebhook.New(mockwebhook.FixtureSearcher{}, worker.Options{}, nil)
	stub.FailWithStatus(http.StatusInternalServerError, "boom")
	ts := httptest.NewServer(stub.Handler())
	defer ts.Close()
	t.Setenv(config.EnvWebhookURL, ts.URL)

	code, _, stderr := run(t, "submit", "--config", cfgPath, "--input", writeInput(t, "Company Name,Region\nAcme,US\n"))
	if code != exitFailure {
		t.Fatalf("code=%d want=%d", code, exitFailure)
	}
	if !strings.Contains(stderr, "HTTP 500") {
		t.Fatalf("stderr should mention the status: %s", stderr)
	}
}

func TestSubmit_NoValidRowsExitsOne(t *testing.T) {
	cfgPath := isolateConfig(t)
	stub := mockwebhook.New(mockwebhook.FixtureSearcher{}, worker.Options{}, nil)
	ts := httptest.NewServer(stub.Handler())
	defer ts.Close()
	t.Setenv(config.EnvWebhookURL, ts.URL)

	code, _, stderr := run(t, "submit", "--config", cfgPath, "--input", writeInput(t, "Company Name,Region\n,US\n"))
	if code != exitFailure || !strings.Contains(stderr, "No valid rows found") {
		t.Fatalf("code=%d stderr=%s", code, stderr)
	}
	if len(stub.Calls()) != 0 {
		t.Fatalf("webhook must not be called for an invalid upload")
	}
}

func TestServe_HealthAndShutdown(t *testing.T) {
	cfg := config.Default()
	cfg.Webhook.URL = "http://127.0.0.1:1/webhook"

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	var stderr bytes.Buffer
	done := make(chan error, 1)
	go func() {
		done <- serve(ctx, ln, cfg, &rootOptions{stdout: &bytes.Buffer{}, stderr: &stderr})
	}()

	client := &http.Client{Timeout: 2 * time.Second}
	var resp *http.Response
	for i := 0; i < 50; i++ {
		resp, err = client.Get("http://" + ln.Addr().String() + "/health")
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health status=%d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("serve did not stop after cancel")
	}
}
