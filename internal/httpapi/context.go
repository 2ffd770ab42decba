package httpapi

import (
	"context"
)

// serverBaseCtx is the daemon-level context handlers join with their
// request context, so an in-flight start or transcription is canceled
// on shutdown too. Defaults to Background until SetBaseContext is
// called.
var serverBaseCtx = context.Background()

// SetBaseContext installs the daemon-level base context. A nil ctx
// resets to Background.
func SetBaseContext(ctx context.Context) {
	if ctx == nil {
		serverBaseCtx = context.Background()
		return
	}
	serverBaseCtx = ctx
}

// joinContexts derives a context from a that is additionally canceled
// when b is done. The returned cancel must be called when the handler
// returns.
func joinContexts(a, b context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(a)
	stop := context.AfterFunc(b, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}
