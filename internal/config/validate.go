package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/shpitdev/profile-finder/pkg/pipeline/redact"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}

func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}

func (v Validation) OK() bool { return len(v.Errors) == 0 }

// Err folds the errors into one error, or nil.
func (v Validation) Err() error {
	if v.OK() {
		return nil
	}
	return fmt.Errorf("invalid config: %s", strings.Join(v.Errors, "; "))
}

// Validate checks cfg. Serve and submit both need a usable webhook URL.
func Validate(cfg Config) Validation {
	var res Validation

	raw := strings.TrimSpace(cfg.Webhook.URL)
	if raw == "" {
		res.addErr("webhook.url is required (or set %s)", EnvWebhookURL)
	} else if u, err := url.Parse(raw); err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		res.addErr("webhook.url must be an absolute http(s) URL (got %q)", redact.URL(raw))
	} else if u.Scheme == "http" && !isLoopback(u.Hostname()) {
		res.addWarn("webhook.url uses plain http to a non-local host; uploaded company lists travel unencrypted")
	}

	if cfg.Webhook.Timeout < 0 {
		res.addErr("webhook.timeout must be >= 0")
	} else if cfg.Webhook.Timeout == 0 {
		res.addWarn("webhook.timeout is 0; a webhook that never answers keeps the session busy until restart")
	}

	if strings.TrimSpace(cfg.Server.Addr) == "" {
		res.addErr("server.addr must not be empty")
	}
	if cfg.Server.MaxUploadBytes <= 0 {
		res.addErr("server.max_upload_bytes must be > 0")
	}
	if cfg.Server.ShutdownTimeout < 0 {
		res.addErr("server.shutdown_timeout must be >= 0")
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Display.Layout)) {
	case "", "flat", "grouped", "group", "by-company", "by_company":
	default:
		res.addWarn("display.layout %q is not flat or grouped; tables will be flat", cfg.Display.Layout)
	}

	return res
}

func isLoopback(host string) bool {
	switch strings.ToLower(host) {
	case "localhost", "127.0.0.1", "::1":
		return true
	}
	return false
}
