package main

import (
	"github.com/spf13/cobra"

	"github.com/cutdesk/cutdesk/internal/apiclient"
	domainauth "github.com/cutdesk/cutdesk/internal/domain/auth"
	"github.com/cutdesk/cutdesk/internal/domain/model"
)

func (c *cli) ordersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "Your editing orders",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List your orders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := c.guarded(cmd.Context(), domainauth.RoleUser)
			if err != nil {
				return err
			}
			orders, err := app.Orders.List(cmd.Context())
			if err != nil {
				return err
			}
			return c.printer.print(orderRows(orders))
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "get <order-id>",
		Short: "Show one order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := c.guarded(cmd.Context(), domainauth.RoleUser)
			if err != nil {
				return err
			}
			o, err := app.Orders.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return c.printer.print(o)
		},
	})

	var file string
	create := &cobra.Command{
		Use:   "create",
		Short: "Place a new order from a JSON file",
		Long: `Place a new order. The file holds the order as JSON, for example:

  {"coupleName": "Emma e Pietro", "weddingDate": "2027-06-12",
   "materialSizeGb": 120, "cameraCount": 2,
   "selectedServices": [{"publicId": "svc-1", "orientation": "vertical"}]}`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := c.guarded(cmd.Context(), domainauth.RoleUser)
			if err != nil {
				return err
			}
			var req model.CreateOrderRequest
			if err := c.readJSON(file, &req); err != nil {
				return err
			}
			o, err := app.Orders.Create(cmd.Context(), req)
			if err != nil {
				return err
			}
			return c.printer.print(o)
		},
	}
	create.Flags().StringVarP(&file, "file", "f", "", "order JSON file, - for stdin")
	cmd.AddCommand(create)

	cmd.AddCommand(
		c.transferCmd("upload-url", "Get a presigned URL to upload raw material", apiclient.Upload),
		c.transferCmd("download-url", "Get a presigned URL to download a delivered file", apiclient.Download),
	)
	return cmd
}

func (c *cli) transferCmd(use, short string, dir apiclient.TransferDirection) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <order-id> <file-name>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := c.guarded(cmd.Context(), domainauth.RoleUser)
			if err != nil {
				return err
			}
			u, err := app.Orders.MaterialTransferURL(cmd.Context(), args[0], dir, args[1])
			if err != nil {
				return err
			}
			return c.printer.print(u)
		},
	}
}

// orderRows is the list projection shown by default.
func orderRows(orders []model.Order) []map[string]any {
	rows := make([]map[string]any, 0, len(orders))
	for _, o := range orders {
		rows = append(rows, map[string]any{
			"publicId":    o.PublicID,
			"coupleName":  o.CoupleName,
			"weddingDate": o.WeddingDate,
			"status":      o.Status,
			"userEmail":   o.UserEmail,
		})
	}
	return rows
}
