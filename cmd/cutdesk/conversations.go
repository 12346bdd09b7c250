package main

import (
	"strings"

	"github.com/spf13/cobra"

	domainauth "github.com/cutdesk/cutdesk/internal/domain/auth"
	"github.com/cutdesk/cutdesk/internal/domain/model"
	"github.com/cutdesk/cutdesk/internal/service"
)

func (c *cli) conversationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "conversations",
		Aliases: []string{"conv"},
		Short:   "Your conversations with the editors",
	}
	cmd.AddCommand(c.conversationCmds(service.ScopeUser, domainauth.RoleUser)...)

	var req model.OpenConversationRequest
	open := &cobra.Command{
		Use:   "open",
		Short: "Start a new conversation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := c.guarded(cmd.Context(), domainauth.RoleUser)
			if err != nil {
				return err
			}
			conv, err := app.Conversations.Open(cmd.Context(), req)
			if err != nil {
				return err
			}
			return c.printer.print(conv)
		},
	}
	open.Flags().StringVar(&req.Subject, "subject", "", "conversation subject")
	open.Flags().StringVar(&req.OrderID, "order", "", "related order id")
	cmd.AddCommand(open)
	return cmd
}

// conversationCmds builds list, messages and send for scope.
func (c *cli) conversationCmds(scope service.Scope, role domainauth.Role) []*cobra.Command {
	var q model.ConversationQuery
	list := &cobra.Command{
		Use:   "list",
		Short: "List conversations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := c.guarded(cmd.Context(), role)
			if err != nil {
				return err
			}
			convs, err := app.Conversations.List(cmd.Context(), scope, q)
			if err != nil {
				return err
			}
			return c.printer.print(convs)
		},
	}
	if scope == service.ScopeAdmin {
		list.Flags().StringVar((*string)(&q.Status), "status", "", "open or closed")
		list.Flags().StringVar(&q.UserEmail, "user", "", "customer email")
	}

	messages := &cobra.Command{
		Use:   "messages <conversation-id>",
		Short: "Show the messages of a conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := c.guarded(cmd.Context(), role)
			if err != nil {
				return err
			}
			msgs, err := app.Conversations.Messages(cmd.Context(), scope, args[0])
			if err != nil {
				return err
			}
			return c.printer.print(msgs)
		},
	}

	send := &cobra.Command{
		Use:   "send <conversation-id> <text>...",
		Short: "Send a message",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := c.guarded(cmd.Context(), role)
			if err != nil {
				return err
			}
			msg, err := app.Conversations.Send(cmd.Context(), scope, args[0], strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			return c.printer.print(msg)
		},
	}
	return []*cobra.Command{list, messages, send}
}
