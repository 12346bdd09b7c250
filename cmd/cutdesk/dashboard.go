package main

import (
	"github.com/spf13/cobra"

	domainauth "github.com/cutdesk/cutdesk/internal/domain/auth"
)

func (c *cli) dashboardCmd() *cobra.Command {
	var full bool
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Order counts per tab and unread messages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := c.guarded(cmd.Context(), domainauth.RoleUser)
			if err != nil {
				return err
			}
			d, err := app.Dashboard.Load(cmd.Context())
			if err != nil {
				return err
			}
			if full {
				return c.printer.print(d)
			}
			return c.printer.print(map[string]any{
				"tabs":   d.Tabs,
				"unread": d.Unread,
			})
		},
	}
	cmd.Flags().BoolVar(&full, "full", false, "include orders, conversations and the backend summary")
	return cmd
}
