package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	domainauth "github.com/cutdesk/cutdesk/internal/domain/auth"
	"github.com/cutdesk/cutdesk/internal/domain/model"
	apperrors "github.com/cutdesk/cutdesk/internal/errors"
	"github.com/cutdesk/cutdesk/internal/service"
)

func (c *cli) adminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Administration (requires the Admin role)",
	}
	cmd.AddCommand(c.adminOrdersCmd(), c.adminUsersCmd(), c.adminConversationsCmd())
	return cmd
}

func (c *cli) adminOrdersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "Manage all customer orders",
	}

	var q model.OrderQuery
	list := &cobra.Command{
		Use:   "list",
		Short: "List orders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := c.guarded(cmd.Context(), domainauth.RoleAdmin)
			if err != nil {
				return err
			}
			orders, err := app.Orders.AdminList(cmd.Context(), q)
			if err != nil {
				return err
			}
			return c.printer.print(orderRows(orders))
		},
	}
	list.Flags().StringVar((*string)(&q.Status), "status", "", "pending, in_progress, completed or cancelled")
	list.Flags().StringVar(&q.UserEmail, "user", "", "customer email")
	cmd.AddCommand(list)

	cmd.AddCommand(&cobra.Command{
		Use:   "get <order-id>",
		Short: "Show one order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := c.guarded(cmd.Context(), domainauth.RoleAdmin)
			if err != nil {
				return err
			}
			o, err := app.Orders.AdminGet(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return c.printer.print(o)
		},
	})

	var status, notes, link string
	update := &cobra.Command{
		Use:   "update <order-id>",
		Short: "Change status, notes or delivery link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := c.guarded(cmd.Context(), domainauth.RoleAdmin)
			if err != nil {
				return err
			}
			upd := model.NewAdminOrderUpdate(model.OrderStatus(status), notes, link)
			if err := app.Orders.AdminUpdate(cmd.Context(), args[0], upd); err != nil {
				return err
			}
			fmt.Fprintf(c.out, "Order %s updated.\n", args[0])
			return nil
		},
	}
	uf := update.Flags()
	uf.StringVar(&status, "status", "", "new status (required)")
	uf.StringVar(&notes, "notes", "", "admin notes; empty clears them")
	uf.StringVar(&link, "delivery-link", "", "delivery link; empty clears it")
	cmd.AddCommand(update)

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <order-id>",
		Short: "Delete an order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := c.guarded(cmd.Context(), domainauth.RoleAdmin)
			if err != nil {
				return err
			}
			if err := app.Orders.AdminDelete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(c.out, "Order %s deleted.\n", args[0])
			return nil
		},
	})
	return cmd
}

func (c *cli) adminUsersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage user pool accounts",
	}

	var q model.UserQuery
	list := &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := c.guarded(cmd.Context(), domainauth.RoleAdmin)
			if err != nil {
				return err
			}
			users, err := app.Users.List(cmd.Context(), q)
			if err != nil {
				return err
			}
			rows := make([]map[string]any, 0, len(users))
			for _, u := range users {
				rows = append(rows, map[string]any{
					"username": u.Username,
					"email":    u.Email,
					"enabled":  u.Enabled,
					"status":   u.StatusLabel(),
					"admin":    u.IsAdmin,
				})
			}
			return c.printer.print(rows)
		},
	}
	list.Flags().StringVar(&q.Email, "email", "", "email filter")
	cmd.AddCommand(list)

	for _, v := range []struct {
		use    string
		enable bool
	}{{"enable", true}, {"disable", false}} {
		cmd.AddCommand(&cobra.Command{
			Use:   v.use + " <username>",
			Short: strings.ToUpper(v.use[:1]) + v.use[1:] + " an account",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				app, err := c.guarded(cmd.Context(), domainauth.RoleAdmin)
				if err != nil {
					return err
				}
				users, err := app.Users.List(cmd.Context(), model.UserQuery{})
				if err != nil {
					return err
				}
				for _, u := range users {
					if u.Username != args[0] {
						continue
					}
					if u.Enabled == v.enable {
						fmt.Fprintf(c.out, "%s is already %sd.\n", u.Username, v.use)
						return nil
					}
					if _, err := app.Users.Toggle(cmd.Context(), u); err != nil {
						return err
					}
					fmt.Fprintf(c.out, "%s %sd.\n", u.Username, v.use)
					return nil
				}
				return apperrors.NotFoundf("user %s not found", args[0])
			},
		})
	}
	return cmd
}

func (c *cli) adminConversationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "conversations",
		Aliases: []string{"conv"},
		Short:   "Answer customer conversations",
	}
	cmd.AddCommand(c.conversationCmds(service.ScopeAdmin, domainauth.RoleAdmin)...)

	for _, v := range []struct {
		use    string
		status model.ConversationStatus
	}{{"close", model.ConversationClosed}, {"reopen", model.ConversationOpen}} {
		cmd.AddCommand(&cobra.Command{
			Use:   v.use + " <conversation-id>",
			Short: strings.ToUpper(v.use[:1]) + v.use[1:] + " a conversation",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				app, err := c.guarded(cmd.Context(), domainauth.RoleAdmin)
				if err != nil {
					return err
				}
				if err := app.Conversations.SetStatus(cmd.Context(), args[0], v.status); err != nil {
					return err
				}
				fmt.Fprintf(c.out, "Conversation %s is now %s.\n", args[0], v.status)
				return nil
			},
		})
	}
	return cmd
}
