package commands

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/shpitdev/profile-finder/internal/config"
	"github.com/shpitdev/profile-finder/internal/httpapi"
	"github.com/shpitdev/profile-finder/internal/ui"
	"github.com/shpitdev/profile-finder/internal/version"
	"github.com/shpitdev/profile-finder/pkg/pipeline/redact"
	"github.com/shpitdev/profile-finder/pkg/pipeline/schema"
	"github.com/shpitdev/profile-finder/pkg/webhook"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve [--addr host:port]",
		Short: "Serve the upload page.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			ln, err := net.Listen("tcp", cfg.Server.Addr)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), ln, cfg, opts)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides server.addr and "+config.EnvAddr+")")
	return cmd
}

func newDispatcher(cfg config.Config) (*webhook.Client, error) {
	return webhook.NewClient(webhook.Config{
		URL:       cfg.Webhook.URL,
		Timeout:   cfg.Webhook.Timeout,
		UserAgent: cfg.Webhook.UserAgent + "/" + version.Current,
	})
}

// serve runs the HTTP server on ln until ctx is canceled, then drains it.
func serve(ctx context.Context, ln net.Listener, cfg config.Config, opts *rootOptions) error {
	logger := opts.logger()
	client, err := newDispatcher(cfg)
	if err != nil {
		return usageError{err: err}
	}

	srv := &http.Server{
		Handler: httpapi.NewHandler(httpapi.Deps{
			Dispatcher:     client,
			Store:          ui.NewStore(schema.NormalizeLayout(cfg.Display.Layout)),
			MaxUploadBytes: cfg.Server.MaxUploadBytes,
			Logger:         logger,
			Version:        version.Current,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	shutdownTimeout := cfg.Server.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Printf("level=info msg=\"listening\" addr=%s webhook=%s version=%s", ln.Addr(), redact.URL(client.URL()), version.Current)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Printf("level=info msg=\"shutting down\" timeout=%s", shutdownTimeout)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
