package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cutdesk/cutdesk/internal/apiclient"
	domainauth "github.com/cutdesk/cutdesk/internal/domain/auth"
	"github.com/cutdesk/cutdesk/internal/domain/model"
)

func (c *cli) servicesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "services",
		Short: "The editing services catalogue",
	}

	var (
		name, orientation, order string
		page                     apiclient.Page
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "List services",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := c.appFor(cmd.Context())
			if err != nil {
				return err
			}
			filters := apiclient.Filters{"name": name, "orientation": orientation}
			services, err := app.Catalog.List(cmd.Context(), filters, page, order)
			if err != nil {
				return err
			}
			return c.printer.print(services)
		},
	}
	lf := list.Flags()
	lf.StringVar(&name, "name", "", "case-insensitive name match")
	lf.StringVar(&orientation, "orientation", "", "vertical, horizontal or both")
	lf.StringVar(&order, "order", "", `sort, e.g. "name ASC"`)
	lf.IntVar(&page.Limit, "limit", 0, "maximum rows")
	lf.IntVar(&page.Skip, "skip", 0, "rows to skip")
	cmd.AddCommand(list)

	cmd.AddCommand(&cobra.Command{
		Use:   "count",
		Short: "Count services",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := c.appFor(cmd.Context())
			if err != nil {
				return err
			}
			n, err := app.Catalog.Count(cmd.Context())
			if err != nil {
				return err
			}
			return c.printer.print(map[string]int{"count": n})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "get <id>",
		Short: "Show one service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseServiceID(args[0])
			if err != nil {
				return err
			}
			app, err := c.appFor(cmd.Context())
			if err != nil {
				return err
			}
			s, err := app.Catalog.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			return c.printer.print(s)
		},
	})

	cmd.AddCommand(c.serviceWriteCmd("create", "Create a service (admin)"))
	cmd.AddCommand(c.serviceWriteCmd("update", "Replace a service (admin)"))

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a service (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseServiceID(args[0])
			if err != nil {
				return err
			}
			app, err := c.guarded(cmd.Context(), domainauth.RoleAdmin)
			if err != nil {
				return err
			}
			if err := app.Catalog.Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(c.out, "Service %d deleted.\n", id)
			return nil
		},
	})
	return cmd
}

func (c *cli) serviceWriteCmd(verb, short string) *cobra.Command {
	var file string
	use, args := verb, cobra.NoArgs
	if verb == "update" {
		use, args = "update <id>", cobra.ExactArgs(1)
	}
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Long: short + `. The file holds the service as JSON, for example:

  {"name": "Teaser", "description": "60 second teaser",
   "orientation": "both", "priceBoth": 195}`,
		Args: args,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := c.guarded(cmd.Context(), domainauth.RoleAdmin)
			if err != nil {
				return err
			}
			var in model.ServiceInput
			if err := c.readJSON(file, &in); err != nil {
				return err
			}
			var s *model.Service
			if verb == "update" {
				id, perr := parseServiceID(args[0])
				if perr != nil {
					return perr
				}
				s, err = app.Catalog.Update(cmd.Context(), id, in)
			} else {
				s, err = app.Catalog.Create(cmd.Context(), in)
			}
			if err != nil {
				return err
			}
			return c.printer.print(s)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "service JSON file, - for stdin")
	return cmd
}
