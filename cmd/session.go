package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/bnema/opq/internal/adapters/render/listing"
	"github.com/bnema/opq/internal/application"
	"github.com/bnema/opq/internal/domain"
	"github.com/spf13/cobra"
)

func newSigninCmd(app *app) *cobra.Command {
	var signinDomain string
	var email string
	var secretKey string

	cmd := &cobra.Command{
		Use:   "signin",
		Short: "Sign in and keep the session for later commands",
		Long:  "Sign in through op. The secret key and master password come from the secret store when present, otherwise they are prompted for (or read line by line from stdin).",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			creds := domain.Credentials{
				Domain:    firstNonEmpty(signinDomain, app.cfg.Account.Domain),
				Email:     firstNonEmpty(email, app.cfg.Account.Email),
				SecretKey: secretKey,
			}
			if creds.Domain == "" || creds.Email == "" {
				return fmt.Errorf("sign in needs --domain and --email (or account.domain and account.email in config): %w", domain.ErrIncompleteCredentials)
			}

			prompt := func(_ context.Context, field application.CredentialField) (string, error) {
				return readSecret(cmd, app, promptLabel(field))
			}

			// No spinner here: prompts share stderr with it.
			session, err := app.sessions.SignIn(cmd.Context(), creds, prompt)
			if err != nil {
				return err
			}

			rendered, renderErr := listing.Session(session, renderOptions(app))
			return writeRendered(cmd, rendered, renderErr)
		},
	}

	cmd.Flags().StringVar(&signinDomain, "domain", "", "Sign-in address, e.g. my.1password.com")
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&secretKey, "secret-key", "", "Secret key (default: secret store, then prompt)")

	return cmd
}

func newSignoutCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "signout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.sessions.SignOut(cmd.Context()); err != nil {
				return err
			}

			_, err := fmt.Fprintln(cmd.OutOrStdout(), "signed out")
			return err
		},
	}
}

func newSessionCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "session",
		Short: "Show the stored session and its remaining lease",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			session, err := currentSession(cmd, app)
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd, struct {
					ExpiresAt string `json:"expires_at"`
					Remaining string `json:"remaining"`
				}{
					ExpiresAt: session.ExpiresAt.Format(time.RFC3339),
					Remaining: session.Remaining(app.now()).Round(time.Second).String(),
				})
			}

			rendered, renderErr := listing.Session(session, renderOptions(app))
			return writeRendered(cmd, rendered, renderErr)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")

	return cmd
}

func promptLabel(field application.CredentialField) string {
	switch field {
	case application.FieldSecretKey:
		return "Secret key"
	case application.FieldMasterPassword:
		return "Master password"
	default:
		return string(field)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
