package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/cutdesk/cutdesk/internal/ports"
)

// DemoMessage is shown when a mutation is skipped in demo mode.
const DemoMessage = "Demo mode is on: changes are not saved."

// Dispatcher fans notices out to sinks. It implements ports.SessionNotifier
// and ports.DemoSignal. Sink failures are logged and never returned.
type Dispatcher struct {
	sinks  []Sink
	logger *slog.Logger
	now    func() time.Time
}

var (
	_ ports.SessionNotifier = (*Dispatcher)(nil)
	_ ports.DemoSignal      = (*Dispatcher)(nil)
)

// NewDispatcher builds a dispatcher over the given sinks; nil sinks are skipped.
func NewDispatcher(logger *slog.Logger, sinks ...Sink) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Dispatcher{logger: logger.With("component", "notify"), now: time.Now}
	for _, s := range sinks {
		if s != nil {
			d.sinks = append(d.sinks, s)
		}
	}
	return d
}

// SessionExpired implements ports.SessionNotifier.
func (d *Dispatcher) SessionExpired(ctx context.Context, notice string) {
	d.send(ctx, Notice{Kind: KindSessionExpired, Message: notice})
}

// RedirectToLogin implements ports.SessionNotifier.
func (d *Dispatcher) RedirectToLogin(ctx context.Context, returnURL string) {
	d.send(ctx, Notice{Kind: KindRedirectToLogin, ReturnURL: returnURL})
}

// OpenDemoModal implements ports.DemoSignal.
func (d *Dispatcher) OpenDemoModal(ctx context.Context, operation string) {
	d.send(ctx, Notice{Kind: KindDemoIntercepted, Message: DemoMessage, Operation: operation})
}

func (d *Dispatcher) send(ctx context.Context, n Notice) {
	n.OccurredAt = d.now()
	for _, s := range d.sinks {
		if err := s.Notify(ctx, n); err != nil {
			d.logger.WarnContext(ctx, "notice delivery failed", "kind", n.Kind, "error", err)
		}
	}
}
