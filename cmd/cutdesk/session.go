package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func (c *cli) pingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the backend answers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := c.appFor(cmd.Context())
			if err != nil {
				return err
			}
			start := time.Now()
			if err := app.Client.Ping(cmd.Context()); err != nil {
				return fmt.Errorf("backend offline: %w", err)
			}
			return c.printer.print(map[string]any{
				"online":    true,
				"latencyMs": time.Since(start).Milliseconds(),
			})
		},
	}
}

func (c *cli) watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Poll the backend and report when it goes offline or comes back",
		Long: `Poll the backend every API_PING_INTERVAL (30s by default) and print a line
on the first probe and on every online/offline change. Stop with Ctrl-C.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c.onConnectivity = func(online bool, err error) {
				stamp := time.Now().Format(time.RFC3339)
				if online {
					fmt.Fprintf(c.out, "%s online\n", stamp)
					return
				}
				fmt.Fprintf(c.out, "%s offline: %v\n", stamp, err)
			}
			app, err := c.appFor(cmd.Context())
			if err != nil {
				return err
			}
			err = app.Monitor.Run(cmd.Context())
			if errors.Is(err, cmd.Context().Err()) {
				return nil
			}
			return err
		},
	}
}

func (c *cli) demoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Show or switch demo mode",
		Long: `In demo mode changes are never sent to the backend and personal data in
responses is replaced with placeholders. DEMO_MODE=true forces it on.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := c.appFor(cmd.Context())
			if err != nil {
				return err
			}
			on, err := app.Client.DemoActive(cmd.Context())
			if err != nil {
				return err
			}
			return c.printer.print(map[string]any{"demoMode": on, "forced": c.cfg.DemoMode})
		},
	}
	for _, v := range []struct {
		use string
		on  bool
	}{{"on", true}, {"off", false}} {
		cmd.AddCommand(&cobra.Command{
			Use:   v.use,
			Short: "Turn demo mode " + v.use,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				app, err := c.appFor(cmd.Context())
				if err != nil {
					return err
				}
				if err := app.Session.SetDemoMode(cmd.Context(), v.on); err != nil {
					return err
				}
				if !v.on && c.cfg.DemoMode {
					fmt.Fprintln(c.errOut, "note: DEMO_MODE=true keeps demo mode on")
				}
				fmt.Fprintf(c.out, "Demo mode %s.\n", v.use)
				return nil
			},
		})
	}
	return cmd
}

func (c *cli) stateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "state",
		Short: "Show the stored session record with tokens redacted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := c.appFor(cmd.Context())
			if err != nil {
				return err
			}
			st, err := app.Session.State(cmd.Context())
			if err != nil {
				return err
			}
			return c.printer.print(map[string]any{
				"email":           st.Email,
				"role":            roleName(st.Role),
				"idToken":         present(st.IDToken),
				"accessToken":     present(st.AccessToken),
				"refreshToken":    present(st.Identity.RefreshToken),
				"demoMode":        st.DemoMode,
				"sidebarExpanded": st.SidebarExpanded,
				"returnUrl":       st.ReturnURL,
				"backend":         string(c.cfg.State.Backend),
			})
		},
	}
}

func (c *cli) envCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "env",
		Short: "Show the effective configuration with secrets redacted",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			out := map[string]string{
				"ENVIRONMENT":      c.cfg.Environment,
				"API_BASE_URL":     c.cfg.API.BaseURL,
				"AUTH_MODE":        string(c.cfg.Auth.Mode),
				"AUTH_ROLE_POLICY": string(c.cfg.Auth.RolePolicy),
				"STATE_BACKEND":    string(c.cfg.State.Backend),
				"DEMO_MODE":        fmt.Sprint(c.cfg.DemoMode),
			}
			for k, v := range c.cfg.Infra.Redacted() {
				out[k] = v
			}
			return c.printer.print(out)
		},
	}
}

func present(token string) string {
	if token == "" {
		return ""
	}
	return "set"
}
