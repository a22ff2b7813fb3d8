package notify

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

var errNoSender = errors.New("no notification sender configured")

// Guard fires a notification at most once for its lifetime.
//
// In dry-run mode the transport is never called, but the guard still marks
// itself sent so that later triggers stay silent.
type Guard struct {
	sender Sender
	dryRun bool
	logger *slog.Logger

	// mu is held across the send so concurrent callers queue behind the
	// first one and then observe sent == true.
	mu   sync.Mutex
	sent bool
}

// NewGuard creates a Guard around sender. A nil logger uses slog.Default().
func NewGuard(sender Sender, dryRun bool, logger *slog.Logger) *Guard {
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{
		sender: sender,
		dryRun: dryRun,
		logger: logger,
	}
}

// NotifyOnce sends msg if nothing has been sent yet.
//
// The guard is marked sent whether or not the delivery succeeds. Errors are
// logged and swallowed. Calls after the first are no-ops.
func (g *Guard) NotifyOnce(ctx context.Context, msg Message) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.sent {
		g.logger.DebugContext(ctx, "notification already sent, skipping")
		return
	}
	defer func() { g.sent = true }()

	if g.dryRun {
		g.logger.InfoContext(ctx, "dry run: notification suppressed, standing by",
			"to", msg.To,
			"subject", msg.Subject,
		)
		return
	}

	if g.sender == nil {
		g.logger.ErrorContext(ctx, "notification failed", "error", errNoSender)
		return
	}

	receipt, err := g.sender.Send(ctx, msg)
	if err != nil {
		g.logger.ErrorContext(ctx, "notification failed",
			"to", msg.To,
			"error", err,
		)
		return
	}

	g.logger.InfoContext(ctx, "notification sent, standing by",
		"to", msg.To,
		"status_code", receipt.StatusCode,
		"message_id", receipt.MessageID,
	)
}

// Sent reports whether the guard has fired.
func (g *Guard) Sent() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.sent
}
