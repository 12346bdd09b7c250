package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cutdesk/cutdesk/config"
	"github.com/cutdesk/cutdesk/internal/apiclient"
	"github.com/cutdesk/cutdesk/internal/bootstrap"
	domainauth "github.com/cutdesk/cutdesk/internal/domain/auth"
)

// cli carries per-invocation state shared by every command.
type cli struct {
	in     *bufio.Reader
	out    io.Writer
	errOut io.Writer

	envFile  string
	logLevel string
	printer  printer

	logger *slog.Logger
	cfg    config.AppConfig
	// build creates the wired app; tests replace it.
	build func(ctx context.Context, opts bootstrap.AppOptions) (*bootstrap.App, error)
	// onConnectivity is installed by the watch command before the app is built.
	onConnectivity func(online bool, err error)
	app            *bootstrap.App
}

func run(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) int {
	c := &cli{
		in:     bufio.NewReader(in),
		out:    out,
		errOut: errOut,
		build:  bootstrap.BuildApp,
	}
	return c.execute(ctx, args)
}

func (c *cli) execute(ctx context.Context, args []string) int {
	root := c.newRootCmd()
	root.SetArgs(args)
	root.SetIn(c.in)
	root.SetOut(c.out)
	root.SetErr(c.errOut)

	err := root.ExecuteContext(ctx)
	if c.app != nil {
		if cerr := c.app.Close(); cerr != nil && c.logger != nil {
			c.logger.Warn("close app", "error", cerr)
		}
		c.app = nil
	}
	switch {
	case err == nil:
		return 0
	case errors.Is(err, apiclient.ErrSessionExpired):
		// the expiry notice was already shown
		return 1
	default:
		fmt.Fprintln(c.errOut, "Error:", describeError(err))
		return 1
	}
}

func (c *cli) newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "cutdesk",
		Short: "cutdesk - wedding video editing orders from the command line",
		Long: `cutdesk talks to the cutdesk backend on behalf of a signed-in customer or
administrator.

Configuration is read from the environment (and a .env file when present):
  API_BASE_URL      backend base URL (required)
  AUTH_MODE         cognito, oidc or mock
  STATE_BACKEND     file, memory or redis

Quick start:
  cutdesk login --email you@example.com
  cutdesk orders list
  cutdesk dashboard`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.init(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&c.envFile, "env-file", "", "dotenv file to load (default: ./.env)")
	pf.StringVar(&c.logLevel, "log-level", "", "log level: debug, info, warn, error (default: LOG_LEVEL)")
	pf.StringVarP(&c.printer.query, "query", "q", "", "JMESPath expression applied to the output")
	pf.StringVarP(&c.printer.format, "output", "o", formatTable, "output format: json or table")

	root.AddCommand(
		c.loginCmd(),
		c.logoutCmd(),
		c.whoamiCmd(),
		c.signupCmd(),
		c.confirmSignupCmd(),
		c.forgotPasswordCmd(),
		c.resetPasswordCmd(),
		c.pingCmd(),
		c.watchCmd(),
		c.demoCmd(),
		c.stateCmd(),
		c.envCmd(),
		c.ordersCmd(),
		c.conversationsCmd(),
		c.servicesCmd(),
		c.adminCmd(),
		c.dashboardCmd(),
	)
	return root
}

// init loads configuration and the logger. The app itself is built lazily
// so that commands such as env work without a complete configuration.
func (c *cli) init(_ *cobra.Command) error {
	if err := c.printer.validate(); err != nil {
		return err
	}
	c.printer.w = c.out

	var files []string
	if c.envFile != "" {
		files = append(files, c.envFile)
	}
	cfg, err := bootstrap.LoadConfig(files...)
	if err != nil {
		return err
	}
	c.cfg = cfg

	level := c.logLevel
	if level == "" {
		level = cfg.LogLevel
	}
	c.logger = bootstrap.InitLogger(c.errOut, level, bootstrap.LogFormatText)
	return nil
}

func (c *cli) appFor(ctx context.Context) (*bootstrap.App, error) {
	if c.app != nil {
		return c.app, nil
	}
	app, err := c.build(ctx, bootstrap.AppOptions{
		Config:         c.cfg,
		Logger:         c.logger,
		Notices:        c.errOut,
		OnConnectivity: c.onConnectivity,
	})
	if err != nil {
		return nil, err
	}
	c.app = app
	return app, nil
}

// guarded builds the app and applies the route guard for role.
func (c *cli) guarded(ctx context.Context, role domainauth.Role) (*bootstrap.App, error) {
	app, err := c.appFor(ctx)
	if err != nil {
		return nil, err
	}
	d, err := app.Session.Authorize(ctx, role)
	if err != nil {
		return nil, err
	}
	if !d.Allowed {
		if d.Redirect == domainauth.LoginRoute {
			return nil, errors.New("not signed in: run `cutdesk login`")
		}
		return nil, fmt.Errorf("this command requires the %s role (your landing page is %s)", role, d.Redirect)
	}
	return app, nil
}

// prompt reads one line, printing label first when the value is missing.
func (c *cli) prompt(label, value string) (string, error) {
	if value != "" {
		return value, nil
	}
	fmt.Fprintf(c.errOut, "%s: ", label)
	line, err := c.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read %s: %w", strings.ToLower(label), err)
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", fmt.Errorf("%s is required", strings.ToLower(label))
	}
	return line, nil
}

// describeError turns well-known failures into a short hint.
func describeError(err error) string {
	switch {
	case errors.Is(err, domainauth.ErrAuthTimeout):
		return "the identity provider did not answer in time"
	case errors.Is(err, domainauth.ErrNoRole):
		return "your account has no cutdesk role; contact an administrator"
	case errors.Is(err, apiclient.ErrNetwork):
		return "backend unreachable: " + err.Error()
	default:
		return err.Error()
	}
}
