package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shpitdev/profile-finder/internal/search/gemini"
	"github.com/shpitdev/profile-finder/pkg/mockwebhook"
	"github.com/shpitdev/profile-finder/pkg/pipeline/core"
	"github.com/shpitdev/profile-finder/pkg/pipeline/redact"
	"github.com/shpitdev/profile-finder/pkg/pipeline/worker"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:]))
}

func run(ctx context.Context, args []string) int {
	workers, err := envInt("WORKERS", 4)
	if err != nil {
		return configError(err)
	}
	maxRetries, err := envInt("MAX_RETRIES", 2)
	if err != nil {
		return configError(err)
	}
	perCompany, err := envInt("FIXTURE_PER_COMPANY", 3)
	if err != nil {
		return configError(err)
	}
	rateLimitRPS, err := envFloat("RATE_LIMIT_RPS", 0)
	if err != nil {
		return configError(err)
	}
	requestTimeout, err := envDuration("REQUEST_TIMEOUT", 60*time.Second)
	if err != nil {
		return configError(err)
	}

	addr := defaultString("WEBHOOK_STUB_ADDR", "127.0.0.1:8081")
	searcherName := defaultString("WEBHOOK_STUB_SEARCHER", "fixture")
	geminiModel := defaultString("GEMINI_MODEL", "gemini-2.5-flash")
	geminiBaseURL := strings.TrimSpace(os.Getenv("GEMINI_BASE_URL"))

	fs := flag.NewFlagSet("webhook-stub", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.StringVar(&addr, "addr", addr, "Listen address (env: WEBHOOK_STUB_ADDR)")
	fs.StringVar(&searcherName, "searcher", searcherName, "Profile source: fixture or gemini (env: WEBHOOK_STUB_SEARCHER)")
	fs.IntVar(&perCompany, "per-company", perCompany, "Profiles per company for the fixture searcher (env: FIXTURE_PER_COMPANY)")
	fs.IntVar(&workers, "workers", workers, "Companies searched concurrently (env: WORKERS)")
	fs.IntVar(&maxRetries, "max-retries", maxRetries, "Retries per company for transient failures (env: MAX_RETRIES)")
	fs.Float64Var(&rateLimitRPS, "rate-limit-rps", rateLimitRPS, "Global search rate limit (RPS), 0 disables (env: RATE_LIMIT_RPS)")
	fs.DurationVar(&requestTimeout, "request-timeout", requestTimeout, "Per-company search timeout (env: REQUEST_TIMEOUT)")
	fs.StringVar(&geminiModel, "gemini-model", geminiModel, "Gemini model name (env: GEMINI_MODEL)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	var searcher core.Searcher
	switch searcherName {
	case "fixture":
		searcher = mockwebhook.FixtureSearcher{PerCompany: perCompany}
	case "gemini":
		g, err := gemini.New(ctx, gemini.Config{
			APIKey:  os.Getenv("GEMINI_API_KEY"),
			Model:   geminiModel,
			BaseURL: geminiBaseURL,
		})
		if err != nil {
			return configError(fmt.Errorf("gemini: %w", err))
		}
		searcher = g
	default:
		return configError(fmt.Errorf("unknown searcher %q (want fixture or gemini)", searcherName))
	}

	logger := log.New(os.Stdout, "", log.LstdFlags)
	srv := mockwebhook.New(searcher, worker.Options{
		Workers:        workers,
		MaxRetries:     maxRetries,
		RequestTimeout: requestTimeout,
		RateLimitRPS:   rateLimitRPS,
	}, logger)

	logger.Printf("level=info msg=\"webhook-stub listening\" addr=%s searcher=%s workers=%d", addr, searcherName, workers)
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	if err := httpSrv.ListenAndServe(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		return 1
	}
	return 0
}

func configError(err error) int {
	_, _ = fmt.Fprintf(os.Stderr, "config error: %s\n", redact.Secrets(err.Error()))
	return 2
}

func defaultString(envVar string, fallback string) string {
	v := strings.TrimSpace(os.Getenv(envVar))
	if v == "" {
		return fallback
	}
	return v
}

func envInt(varName string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(varName))
	if v == "" {
		return fallback, nil
	}
	out, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s=%q: %w", varName, v, err)
	}
	return out, nil
}

func envFloat(varName string, fallback float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(varName))
	if v == "" {
		return fallback, nil
	}
	out, err := strconv.ParseFloat(v, 64)
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
