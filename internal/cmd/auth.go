package cmd

import (
	"context"

	"github.com/aditya-makadiya/sociofeed/pkg/api"
	"github.com/aditya-makadiya/sociofeed/pkg/output"
	"github.com/aditya-makadiya/sociofeed/pkg/prompter"
	"github.com/spf13/cobra"
)

var (
	authUsername   string
	authEmail      string
	authIdentifier string
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authentication commands",
	Long:  "Register, log in and manage your Sociofeed session",
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a new Sociofeed account",
	RunE: withApp(false, func(ctx context.Context, a *app, args []string) error {
		req := api.RegisterRequest{Username: authUsername, Email: authEmail}
		var err error
		if req.Username == "" {
			if req.Username, err = prompter.PromptRequired("Username: "); err != nil {
				return err
			}
		}
		if req.Email == "" {
			if req.Email, err = prompter.PromptRequired("Email: "); err != nil {
				return err
			}
		}
		if req.Password, err = prompter.PromptPassword("Password: "); err != nil {
			return err
		}
		if req.ConfirmPassword, err = prompter.PromptPassword("Confirm password: "); err != nil {
			return err
		}

		u, err := settle(a.auth.Register(ctx, req))
		if err != nil {
			return err
		}
		output.PrintInfo("Account @%s created. Activate it with 'sociofeed auth activate <token>'.", u.Username)
		return nil
	}),
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in with your username or email",
	RunE: withApp(false, func(ctx context.Context, a *app, args []string) error {
		identifier, err := identifierOrPrompt()
		if err != nil {
			return err
		}
		password, err := prompter.PromptPassword("Password: ")
		if err != nil {
			return err
		}

		u, err := settle(a.auth.Login(ctx, api.LoginRequest{Identifier: identifier, Password: password}))
		if err != nil {
			return err
		}
		return output.PrintUser(u)
	}),
}

var activateCmd = &cobra.Command{
	Use:   "activate <token>",
	Short: "Activate an account with the emailed token",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(false, func(ctx context.Context, a *app, args []string) error {
		_, err := settle(a.auth.Activate(ctx, args[0]))
		return err
	}),
}

var forgotPasswordCmd = &cobra.Command{
	Use:   "forgot-password",
	Short: "Email a password reset link",
	RunE: withApp(false, func(ctx context.Context, a *app, args []string) error {
		identifier, err := identifierOrPrompt()
		if err != nil {
			return err
		}
		_, err = settle(a.auth.ForgotPassword(ctx, api.ForgotPasswordRequest{Identifier: identifier}))
		return err
	}),
}

var resetPasswordCmd = &cobra.Command{
	Use:   "reset-password <token>",
	Short: "Choose a new password using a reset token",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(false, func(ctx context.Context, a *app, args []string) error {
		var req api.ResetPasswordRequest
		var err error
		if req.Password, err = prompter.PromptPassword("New password: "); err != nil {
			return err
		}
		if req.ConfirmPassword, err = prompter.PromptPassword("Confirm password: "); err != nil {
			return err
		}
		_, err = settle(a.auth.ResetPassword(ctx, args[0], req))
		return err
	}),
}

var resendActivationCmd = &cobra.Command{
	Use:   "resend-activation",
	Short: "Send the activation email again",
	RunE: withApp(false, func(ctx context.Context, a *app, args []string) error {
		identifier, err := identifierOrPrompt()
		if err != nil {
			return err
		}
		_, err = settle(a.auth.ResendActivation(ctx, api.ResendActivationRequest{Identifier: identifier}))
		return err
	}),
}

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Refresh the session tokens",
	RunE: withApp(true, func(ctx context.Context, a *app, args []string) error {
		if _, err := settle(a.auth.RefreshToken(ctx)); err != nil {
			return err
		}
		output.PrintSuccess("Session refreshed")
		return nil
	}),
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log out and forget the saved session",
	RunE: withApp(true, func(ctx context.Context, a *app, args []string) error {
		_, err := settle(a.auth.Logout(ctx))
		return err
	}),
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Display the signed-in user",
	RunE: withApp(true, func(ctx context.Context, a *app, args []string) error {
		u, err := settle(a.auth.CurrentSession(ctx))
		if err != nil {
			return err
		}
		return output.PrintUser(u)
	}),
}

func identifierOrPrompt() (string, error) {
	if authIdentifier != "" {
		return authIdentifier, nil
	}
	return prompter.PromptRequired("Username or email: ")
}

func init() {
	authCmd.AddCommand(registerCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(activateCmd)
	authCmd.AddCommand(forgotPasswordCmd)
	authCmd.AddCommand(resetPasswordCmd)
	authCmd.AddCommand(resendActivationCmd)
	authCmd.AddCommand(refreshCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(whoamiCmd)

	registerCmd.Flags().StringVar(&authUsername, "username", "", "Username (prompted when empty)")
	registerCmd.Flags().StringVar(&authEmail, "email", "", "Email address (prompted when empty)")
	for _, c := range []*cobra.Command{loginCmd, forgotPasswordCmd, resendActivationCmd} {
		c.Flags().StringVarP(&authIdentifier, "user", "u", "", "Username or email (prompted when empty)")
	}
}
