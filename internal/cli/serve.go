package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"nllbd/internal/httpapi"
	"nllbd/internal/manager"
)

func newServeCmd(o *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "serve",
		Short:   "Load the model and serve jobs over HTTP",
		Example: "  nllbd serve --addr :8080",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return o.serve(ctx)
		},
	}
	cmd.Flags().String("addr", "", "HTTP listen address (defaults NLLBD_ADDR or :8080)")
	cmd.Flags().Bool("strict", false, "Reject unknown language tags instead of falling back to eng_Latn")
	return cmd
}

func (o *rootOptions) serve(ctx context.Context) error {
	mgr, err := o.buildManager(ctx)
	if err != nil {
		return err
	}
	defer mgr.Close()

	srv := &http.Server{
		Addr:              o.cfg.Addr,
		Handler:           o.httpHandler(ctx, mgr),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		o.log.Info().Str("addr", o.cfg.Addr).Str("device", string(mgr.Device())).Msg("nllbd listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Graceful shutdown (Ctrl+C / SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		o.log.Warn().Err(err).Msg("graceful shutdown error")
	}
	return nil
}

// httpHandler applies the HTTP settings from config and builds the mux.
// Canceling ctx cancels in-flight jobs.
func (o *rootOptions) httpHandler(ctx context.Context, mgr *manager.Manager) http.Handler {
	httpapi.SetLogger(o.log.With().Str("component", "httpapi").Logger())
	httpapi.SetRequestLogLevel(o.cfg.LogLevel)
	httpapi.SetMaxBodyBytes(o.cfg.MaxBodyBytes)
	httpapi.SetJobTimeout(o.cfg.JobTimeout())
	httpapi.SetCORSOptions(o.cfg.CORSEnabled, o.cfg.CORSOrigins, nil, nil)
	httpapi.SetBaseContext(ctx)
	return httpapi.NewMux(worker{o.buildHandler(mgr), mgr})
}
