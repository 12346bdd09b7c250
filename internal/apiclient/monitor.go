package apiclient

import (
	"context"
	"log/slog"
	"time"

	"github.com/cutdesk/cutdesk/internal/observability/metrics"
)

// DefaultPingInterval matches the web client's connectivity poll.
const DefaultPingInterval = 30 * time.Second

// Pinger checks backend reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// MonitorOptions configures a Monitor.
type MonitorOptions struct {
	Pinger   Pinger
	Interval time.Duration
	// OnChange is called on the first probe and on every online/offline
	// transition after it.
	OnChange func(online bool, err error)
	Metrics  *metrics.ClientMetrics
	Logger   *slog.Logger
}

// Monitor polls the backend and reports connectivity transitions.
type Monitor struct {
	pinger   Pinger
	interval time.Duration
	onChange func(bool, error)
	metrics  *metrics.ClientMetrics
	logger   *slog.Logger
}

// NewMonitor constructs a Monitor.
func NewMonitor(opts MonitorOptions) *Monitor {
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultPingInterval
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{
		pinger:   opts.Pinger,
		interval: interval,
		onChange: opts.OnChange,
		metrics:  opts.Metrics,
		logger:   logger.With("component", "monitor"),
	}
}

// Run probes immediately and then on every tick until ctx is done. It
// returns ctx.Err().
func (m *Monitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	var (
		known  bool
		online bool
	)
	probe := func() {
		err := m.pinger.Ping(ctx)
		if ctx.Err() != nil {
			return
		}
		now := err == nil
		m.metrics.Connectivity(now)
		if known && now == online {
			return
		}
		known, online = true, now
		m.logger.InfoContext(ctx, "connectivity changed", "online", now, "error", err)
		if m.onChange != nil {
			m.onChange(now, err)
		}
	}

	probe()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			probe()
		}
	}
}
