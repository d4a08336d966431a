package httpapi

import (
	"context"
	"net/http"
)

// serverBaseCtx is canceled on shutdown; in-flight jobs observe it.
var serverBaseCtx = context.Background()

// SetBaseContext sets the process-level base context used by handlers.
// A nil ctx resets it to Background.
func SetBaseContext(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	serverBaseCtx = ctx
}

// jobContext is the context a /runsync job runs under. It ends when the
// client goes away, when the base context is canceled, or after jobTimeout.
func jobContext(r *http.Request) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(r.Context())
	stop := context.AfterFunc(serverBaseCtx, cancel)
	release := func() {
		stop()
		cancel()
	}
	if jobTimeout <= 0 {
		return ctx, release
	}
	tctx, tcancel := context.WithTimeout(ctx, jobTimeout)
	return tctx, func() {
		tcancel()
		release()
	}
}
