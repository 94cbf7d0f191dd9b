// Package config loads profile-finder settings.
//
// Precedence, lowest first: built-in defaults, profilefinder.yml,
// profilefinder.local.yml, PROFILEFINDER_* environment variables.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const DefaultPath = "profilefinder.yml"

const (
	EnvWebhookURL     = "PROFILEFINDER_WEBHOOK_URL"
	EnvAddr           = "PROFILEFINDER_ADDR"
	EnvLayout         = "PROFILEFINDER_LAYOUT"
	EnvRequestTimeout = "PROFILEFINDER_REQUEST_TIMEOUT"
	EnvMaxUploadBytes = "PROFILEFINDER_MAX_UPLOAD_BYTES"
)

type Config struct {
	Webhook WebhookConfig `yaml:"webhook"`
	Server  ServerConfig  `yaml:"server"`
	Display DisplayConfig `yaml:"display"`
}

type WebhookConfig struct {
	URL string `yaml:"url"`

	// Timeout bounds one dispatch. Zero means wait for the webhook indefinitely.
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	MaxUploadBytes  int64         `yaml:"max_upload_bytes"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type DisplayConfig struct {
	// Layout is "flat" or "grouped".
	Layout string `yaml:"layout"`
}

func Default() Config {
	return Config{
		Webhook: WebhookConfig{
			UserAgent: "profile-finder",
		},
		Server: ServerConfig{
			Addr:            "127.0.0.1:8080",
			MaxUploadBytes:  10 << 20,
			ShutdownTimeout: 10 * time.Second,
		},
		Display: DisplayConfig{
			Layout: "flat",
		},
	}
}

// Load builds the effective config. A missing file at path (or its .local
// sibling) is not an error; a malformed one is. logger may be nil.
func Load(path string, logger *log.Logger) (Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) == "" {
		path = DefaultPath
	}

	if _, err := readFile(path, &cfg); err != nil {
		return cfg, err
	}

	localPath := LocalPath(path)
	found, err := readFile(localPath, &cfg)
	if err != nil {
		return cfg, err
	}
	if found && logger != nil {
		logger.Printf("level=info msg=\"applied local config overrides\" path=%s", localPath)
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LocalPath returns the override file for path: a.yml -> a.local.yml.
//
// The local file is decoded over the merged config, so only the keys it names
// change and an explicit zero (timeout: 0s) replaces a non-zero base value.
func LocalPath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + ".local" + ext
}

func readFile(path string, out *Config) (bool, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read config %s: %w", path, err)
	}
	if len(strings.TrimSpace(string(b))) == 0 {
		return false, nil
	}
	if err := yaml.Unmarshal(b, out); err != nil {
		return false, fmt.Errorf("parse config %s: %w", path, err)
	}
	return true, nil
}

func applyEnv(cfg *Config) error {
	if v := strings.TrimSpace(os.Getenv(EnvWebhookURL)); v != "" {
		cfg.Webhook.URL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvAddr)); v != "" {
		cfg.Server.Addr = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLayout)); v != "" {
		cfg.Display.Layout = v
	}

	timeout, err := envDuration(EnvRequestTimeout, cfg.Webhook.Timeout)
	if err != nil {
		return err
	}
	cfg.Webhook.Timeout = timeout

	maxUpload, err := envInt64(EnvMaxUploadBytes, cfg.Server.MaxUploadBytes)
	if err != nil {
		return err
	}
	cfg.Server.MaxUploadBytes = maxUpload
	return nil
}

func envInt64(varName string, fallback int64) (int64, error) {
	v := strings.TrimSpace(os.Getenv(varName))
	if v == "" {
		return fallback, nil
	}
	out, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s=%q: %w", varName, v, err)
	}
	return out, nil
}

func envDuration(varName string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(varName))
	if v == "" {
		return fallback, nil
	}
	out, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s=%q: %w", varName, v, err)
	}
	return out, nil
}
