package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shpitdev/profile-finder/internal/config"
	"github.com/shpitdev/profile-finder/pkg/pipeline/redact"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

// usageError marks bad flags or config; it exits with code 2.
type usageError struct {
	err error
}

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

type rootOptions struct {
	configPath string
	stdout     io.Writer
	stderr     io.Writer
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &rootOptions{stdout: stdout, stderr: stderr}
	cmd := &cobra.Command{
		Use:           "profilefinder",
		Short:         "Upload a CSV of companies and find LinkedIn profiles through a webhook.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", config.DefaultPath, "Config file; <name>.local.yml next to it overrides it")
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err: err}
	})

	cmd.AddCommand(
		newServeCmd(opts),
		newSubmitCmd(opts),
		newVersionCmd(opts),
	)
	return cmd
}

// Execute runs the CLI and returns the process exit code.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd(stdout, stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return exitOK
	}

	_, _ = fmt.Fprintf(stderr, "%s\n", redact.Secrets(err.Error()))
	var ue usageError
	if errors.As(err, &ue) || strings.HasPrefix(err.Error(), "unknown command") {
		return exitUsage
	}
	return exitFailure
}

// loadConfig reads and validates config, printing warnings to stderr.
func (o *rootOptions) loadConfig() (config.Config, error) {
	cfg, err := config.Load(o.configPath, o.logger())
	if err != nil {
		return cfg, usageError{err: fmt.Errorf("config error: %w", err)}
	}
	res := config.Validate(cfg)
	for _, w := range res.Warnings {
		_, _ = fmt.Fprintf(o.stderr, "config warning: %s\n", w)
	}
	if err := res.Err(); err != nil {
		return cfg, usageError{err: fmt.Errorf("config error: %w", err)}
	}
	return cfg, nil
}

func (o *rootOptions) logger() *log.Logger {
	return log.New(o.stderr, "", log.LstdFlags)
}
