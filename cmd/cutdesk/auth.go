package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	domainauth "github.com/cutdesk/cutdesk/internal/domain/auth"
	"github.com/cutdesk/cutdesk/internal/service"
)

func (c *cli) loginCmd() *cobra.Command {
	var email, password, newPassword string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password",
		Long: `Sign in and store the session for later commands.

Accounts created with a temporary password must choose a new one; pass it
with --new-password or answer the prompt.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			app, err := c.appFor(ctx)
			if err != nil {
				return err
			}
			if email, err = c.prompt("Email", email); err != nil {
				return err
			}
			if password, err = c.prompt("Password", password); err != nil {
				return err
			}

			out, err := app.Session.SignIn(ctx, email, password)
			if err != nil {
				return fmt.Errorf("sign in: %w", err)
			}
			if out.Challenge != nil {
				fmt.Fprintln(c.errOut, "A new password is required for this account.")
				if newPassword, err = c.prompt("New password", newPassword); err != nil {
					return err
				}
				out, err = app.Session.CompleteNewPasswordChallenge(ctx, *out.Challenge, newPassword)
				if err != nil {
					return fmt.Errorf("set new password: %w", err)
				}
			}
			return c.printer.print(map[string]any{
				"email":    out.Email,
				"role":     roleName(out.Role),
				"redirect": out.Redirect,
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&email, "email", "", "account email")
	f.StringVar(&password, "password", "", "account password (prompted when empty)")
	f.StringVar(&newPassword, "new-password", "", "new password for a temporary-password challenge")
	return cmd
}

func (c *cli) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and clear the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := c.appFor(cmd.Context())
			if err != nil {
				return err
			}
			if err := app.Session.SignOut(cmd.Context()); err != nil {
				return fmt.Errorf("sign out: %w", err)
			}
			fmt.Fprintln(c.out, "Signed out.")
			return nil
		},
	}
}

func (c *cli) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Check the stored session and show who is signed in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			app, err := c.appFor(ctx)
			if err != nil {
				return err
			}
			out, err := app.Session.RestoreSession(ctx, "")
			if err != nil {
				return err
			}
			st, err := app.Session.State(ctx)
			if err != nil {
				return err
			}
			return c.printer.print(map[string]any{
				"authenticated": out.Authenticated,
				"email":         st.Email,
				"role":          roleName(out.Role),
				"redirect":      out.Redirect,
			})
		},
	}
}

func (c *cli) signupCmd() *cobra.Command {
	var in service.SignUpInput
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Register a new customer account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := c.appFor(cmd.Context())
			if err != nil {
				return err
			}
			if in.Password, err = c.prompt("Password", in.Password); err != nil {
				return err
			}
			res, err := app.Session.SignUp(cmd.Context(), in)
			if err != nil {
				return fmt.Errorf("sign up: %w", err)
			}
			return c.printer.print(map[string]any{
				"userSub":      res.UserSub,
				"confirmed":    res.Confirmed,
				"codeSentTo":   res.CodeDeliveryAddress,
				"codeSentWith": res.CodeDeliveryMedium,
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&in.Email, "email", "", "account email")
	f.StringVar(&in.Password, "password", "", "password (prompted when empty)")
	f.StringVar(&in.FullName, "name", "", "full name")
	f.StringVar(&in.Phone, "phone", "", "phone number in E.164 form, e.g. +393331234567")
	return cmd
}

func (c *cli) confirmSignupCmd() *cobra.Command {
	var email, code string
	cmd := &cobra.Command{
		Use:   "confirm-signup",
		Short: "Confirm a new account with the emailed code",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := c.appFor(cmd.Context())
			if err != nil {
				return err
			}
			if err := app.Session.ConfirmSignUp(cmd.Context(), email, code); err != nil {
				return fmt.Errorf("confirm sign up: %w", err)
			}
			fmt.Fprintln(c.out, "Account confirmed. You can now run `cutdesk login`.")
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&code, "code", "", "confirmation code")
	return cmd
}

func (c *cli) forgotPasswordCmd() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "forgot-password",
		Short: "Send a password reset code",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := c.appFor(cmd.Context())
			if err != nil {
				return err
			}
			if err := app.Session.ForgotPassword(cmd.Context(), email); err != nil {
				if errors.Is(err, errors.ErrUnsupported) {
					return errors.New("password reset is not supported by this identity provider")
				}
				return fmt.Errorf("forgot password: %w", err)
			}
			fmt.Fprintln(c.out, "Reset code sent. Continue with `cutdesk reset-password`.")
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	return cmd
}

func (c *cli) resetPasswordCmd() *cobra.Command {
	var email, code, password string
	cmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Choose a new password using the reset code",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := c.appFor(cmd.Context())
			if err != nil {
				return err
			}
			if password, err = c.prompt("New password", password); err != nil {
				return err
			}
			if err := app.Session.ConfirmForgotPassword(cmd.Context(), email, code, password); err != nil {
				return fmt.Errorf("reset password: %w", err)
			}
			fmt.Fprintln(c.out, "Password updated.")
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&email, "email", "", "account email")
	f.StringVar(&code, "code", "", "reset code")
	f.StringVar(&password, "password", "", "new password (prompted when empty)")
	return cmd
}

// roleName is the printable role; RoleNone prints as "none".
func roleName(r domainauth.Role) string {
	if r == domainauth.RoleNone {
		return "none"
	}
	return string(r)
}
