package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shpitdev/profile-finder/internal/app"
	"github.com/shpitdev/profile-finder/internal/pipeline"
	"github.com/shpitdev/profile-finder/internal/present"
	"github.com/shpitdev/profile-finder/pkg/pipeline/schema"
	"github.com/shpitdev/profile-finder/pkg/profiles"
)

type submitOptions struct {
	input  string
	output string
	layout string
}

func newSubmitCmd(opts *rootOptions) *cobra.Command {
	var so submitOptions
	cmd := &cobra.Command{
		Use:   "submit --input companies.csv [--output profiles.csv] [--layout flat|grouped]",
		Short: "Send one CSV to the webhook and print the profiles it returns.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if so.input == "" {
				return usageError{err: errors.New("submit requires --input")}
			}
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if so.layout == "" {
				so.layout = cfg.Display.Layout
			}
			client, err := newDispatcher(cfg)
			if err != nil {
				return usageError{err: err}
			}

			in, err := os.Open(so.input)
			if err != nil {
				return err
			}
			defer func() {
				_ = in.Close()
			}()

			out, err := app.Submit(cmd.Context(), in, client, app.Options{Logger: opts.logger()})
			if err != nil {
				return fmt.Errorf("submit failed: %s", app.UserMessage(err))
			}

			view := present.NewView(schema.NormalizeLayout(so.layout), out.Response, out.Elapsed)
			if err := present.RenderText(opts.stdout, view); err != nil {
				return err
			}
			if so.output == "" {
				return nil
			}
			return writeExport(so.output, out.Response.Profiles, opts)
		},
	}
	cmd.Flags().StringVar(&so.input, "input", "", "CSV with Company Name and Region columns")
	cmd.Flags().StringVar(&so.output, "output", "", "Write the returned profiles to this CSV file")
	cmd.Flags().StringVar(&so.layout, "layout", "", "Table layout: flat or grouped (default from config)")
	return cmd
}

func writeExport(path string, rows []profiles.ProfileResult, opts *rootOptions) error {
	if len(rows) == 0 {
		_, _ = fmt.Fprintln(opts.stderr, "no profiles returned; skipping --output")
		return nil
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		_ = f.Close()
	}()

	if err := pipeline.WriteCSV(f, rows); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(opts.stderr, "wrote %d profiles to %s\n", len(rows), path)
	return nil
}
