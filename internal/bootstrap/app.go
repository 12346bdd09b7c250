package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/cutdesk/cutdesk/config"
	"github.com/cutdesk/cutdesk/internal/apiclient"
	"github.com/cutdesk/cutdesk/internal/observability/metrics"
	"github.com/cutdesk/cutdesk/internal/observability/notify"
	"github.com/cutdesk/cutdesk/internal/observability/statsd"
	"github.com/cutdesk/cutdesk/internal/ports"
	"github.com/cutdesk/cutdesk/internal/service"
)

// AppOptions controls BuildApp.
type AppOptions struct {
	Config config.AppConfig
	Logger *slog.Logger
	// Notices receives user-facing session notices; nil discards them.
	Notices io.Writer
	// Provider overrides the configured identity provider (tests).
	Provider ports.IdentityProvider
	// Store overrides the configured state backend (tests).
	Store      ports.StateStore
	HTTPClient *http.Client
	// OnConnectivity is passed to the connectivity monitor.
	OnConnectivity func(online bool, err error)
}

// App is the fully wired client.
type App struct {
	Config  config.AppConfig
	Logger  *slog.Logger
	Store   ports.StateStore
	Session *service.SessionService
	Client  *apiclient.Client
	Monitor *apiclient.Monitor
	Metrics *metrics.ClientMetrics

	Orders        *service.OrderService
	Conversations *service.ConversationService
	Catalog       *service.CatalogService
	Users         *service.UserAdminService
	Dashboard     *service.DashboardService

	closers []func() error
}

// BuildApp validates cfg and wires the session service, API client,
// metrics and domain consumers. Call Close when done.
func BuildApp(ctx context.Context, opts AppOptions) (*App, error) {
	cfg := opts.Config
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	app := &App{Config: cfg, Logger: logger}
	ok := false
	defer func() {
		if !ok {
			_ = app.Close()
		}
	}()

	sink, err := statsd.NewClient(ctx, statsd.Config{
		Enabled:    cfg.Observability.Metrics.IsEnabled(),
		Address:    cfg.Observability.Metrics.StatsdAddress,
		Prefix:     cfg.Observability.Metrics.Prefix,
		Logger:     logger,
		GlobalTags: map[string]string{"env": cfg.Environment, "auth_mode": string(cfg.Auth.Mode)},
	})
	if err != nil {
		return nil, fmt.Errorf("create statsd client: %w", err)
	}
	app.closers = append(app.closers, sink.Close)
	app.Metrics = metrics.New(sink)

	app.Store = opts.Store
	if app.Store == nil {
		st, stErr := BuildStateStore(ctx, cfg.State, logger)
		if stErr != nil {
			return nil, stErr
		}
		app.Store = st.StateStore
		app.closers = append(app.closers, st.Close)
	}

	provider := opts.Provider
	if provider == nil {
		provider, err = BuildIdentityProvider(ctx, cfg.Auth, app.Store, logger)
		if err != nil {
			return nil, err
		}
	}

	app.Session, err = service.NewSessionService(service.SessionServiceOptions{
		Provider:       provider,
		Store:          app.Store,
		Roles:          BuildRoleMapper(cfg.Auth),
		GroupsClaim:    cfg.Auth.GroupsClaim,
		SignInTimeout:  cfg.Auth.SignInTimeout,
		RefreshTimeout: cfg.API.Timeout,
		Metrics:        app.Metrics,
		Logger:         logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create session service: %w", err)
	}

	notices := opts.Notices
	if notices == nil {
		notices = io.Discard
	}
	dispatcher := notify.NewDispatcher(logger, notify.NewConsole(notices))

	app.Client, err = apiclient.New(apiclient.Options{
		BaseURL:    cfg.API.BaseURL,
		Timeout:    cfg.API.Timeout,
		UserAgent:  cfg.API.UserAgent,
		Session:    app.Session,
		Notifier:   dispatcher,
		Demo:       dispatcher,
		DemoMode:   cfg.DemoMode,
		HTTPClient: opts.HTTPClient,
		Metrics:    app.Metrics,
		Logger:     logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create api client: %w", err)
	}
	app.closers = append(app.closers, func() error { app.Client.Close(); return nil })

	app.Monitor = apiclient.NewMonitor(apiclient.MonitorOptions{
		Pinger:   app.Client,
		Interval: cfg.API.PingInterval,
		OnChange: opts.OnConnectivity,
		Metrics:  app.Metrics,
		Logger:   logger,
	})

	if err := app.buildConsumers(logger); err != nil {
		return nil, err
	}

	ok = true
	return app, nil
}

func (a *App) buildConsumers(logger *slog.Logger) error {
	var err error
	if a.Orders, err = service.NewOrderService(service.OrderServiceOptions{Client: a.Client, Logger: logger}); err != nil {
		return fmt.Errorf("create order service: %w", err)
	}
	if a.Conversations, err = service.NewConversationService(service.ConversationServiceOptions{Client: a.Client, Logger: logger}); err != nil {
		return fmt.Errorf("create conversation service: %w", err)
	}
	if a.Catalog, err = service.NewCatalogService(a.Client); err != nil {
		return fmt.Errorf("create catalog service: %w", err)
	}
	a.Users, err = service.NewUserAdminService(service.UserAdminServiceOptions{
		Client:  a.Client,
		Session: a.Session,
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("create user admin service: %w", err)
	}
	if a.Dashboard, err = service.NewDashboardService(a.Client, a.Orders, a.Conversations); err != nil {
		return fmt.Errorf("create dashboard service: %w", err)
	}
	return nil
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
