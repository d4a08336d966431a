package cli

import (
	"context"

	"nllbd/internal/backend"
	"nllbd/internal/handler"
	"nllbd/internal/hfhub"
	"nllbd/internal/httpapi"
	"nllbd/internal/manager"
)

// buildManager connects to the runtime and loads the model. Failures are
// startup-fatal.
func (o *rootOptions) buildManager(ctx context.Context) (*manager.Manager, error) {
	cfg := o.cfg
	o.log.Info().
		Str("model_id", cfg.ModelID).
		Bool("cpu_only", cfg.CPUOnly).
		Bool("hf_token_set", cfg.HFToken != "").
		Str("runtime_url", cfg.RuntimeURL).
		Msg("starting")

	rt := backend.New(cfg.RuntimeURL,
		backend.WithAPIKey(cfg.RuntimeAPIKey),
		backend.WithTimeout(cfg.RuntimeTimeout()),
		backend.WithObserver(httpapi.ObserveRuntime),
		backend.WithLogger(o.log.With().Str("component", "backend").Logger()),
	)
	var auth manager.Authenticator
	if cfg.HFToken != "" {
		auth = hfhub.New(cfg.HFEndpoint, nil)
	}
	events := o.log.With().Str("component", "events").Logger()
	return manager.New(ctx, manager.ManagerConfig{
		ModelID:         cfg.ModelID,
		HFToken:         cfg.HFToken,
		CPUOnly:         cfg.CPUOnly,
		LangMapPath:     cfg.LangMapPath,
		StrictLanguages: cfg.StrictLanguages,
		MaxNewTokens:    cfg.MaxNewTokens,
		NumBeams:        cfg.NumBeams,
		Runtime:         rt,
		Authenticator:   auth,
		Publisher: manager.PublisherFunc(func(e manager.Event) {
			events.Debug().Str("event", e.Name).Str("model_id", e.ModelID).Fields(e.Fields).Msg("manager event")
		}),
		Logger: &o.log,
	})
}

func (o *rootOptions) buildHandler(m *manager.Manager) *handler.Handler {
	return handler.New(m,
		handler.WithLogger(o.log.With().Str("component", "handler").Logger()),
		handler.WithObserver(httpapi.ObserveJob),
	)
}

// worker joins the handler and the manager into an httpapi.Service.
type worker struct {
	*handler.Handler
	*manager.Manager
}
