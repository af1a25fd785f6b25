package cmd

import (
	"fmt"

	"github.com/bnema/opq/internal/application"
	"github.com/spf13/cobra"
)

func newCredentialsCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credentials",
		Short: "Manage the secret key and master password kept for signin",
		Long:  "Credentials go to pass when it is installed, otherwise to files under credentials.file_root.",
	}

	cmd.AddCommand(newCredentialsSetCmd(app), newCredentialsRemoveCmd(app))

	return cmd
}

func newCredentialsSetCmd(app *app) *cobra.Command {
	var signinDomain string

	cmd := &cobra.Command{
		Use:       "set <secret_key|master_password>",
		Short:     "Store a credential, read from a prompt or stdin",
		Args:      cobra.ExactArgs(1),
		ValidArgs: credentialFields(),
		RunE: func(cmd *cobra.Command, args []string) error {
			field, err := parseCredentialField(args[0])
			if err != nil {
				return err
			}
			target := firstNonEmpty(signinDomain, app.cfg.Account.Domain)
			if target == "" {
				return fmt.Errorf("credentials set needs --domain or account.domain in config")
			}

			value, err := readSecret(cmd, app, promptLabel(field))
			if err != nil {
				return err
			}

			return app.sessions.SetCredential(cmd.Context(), target, field, value)
		},
	}

	cmd.Flags().StringVar(&signinDomain, "domain", "", "Sign-in address the credential belongs to")

	return cmd
}

func newCredentialsRemoveCmd(app *app) *cobra.Command {
	var signinDomain string

	cmd := &cobra.Command{
		Use:       "remove <secret_key|master_password>",
		Short:     "Remove a stored credential",
		Args:      cobra.ExactArgs(1),
		ValidArgs: credentialFields(),
		RunE: func(cmd *cobra.Command, args []string) error {
			field, err := parseCredentialField(args[0])
			if err != nil {
				return err
			}
			target := firstNonEmpty(signinDomain, app.cfg.Account.Domain)
			if target == "" {
				return fmt.Errorf("credentials remove needs --domain or account.domain in config")
			}

			return app.sessions.RemoveCredential(cmd.Context(), target, field)
		},
	}

	cmd.Flags().StringVar(&signinDomain, "domain", "", "Sign-in address the credential belongs to")

	return cmd
}

func credentialFields() []string {
	return []string{string(application.FieldSecretKey), string(application.FieldMasterPassword)}
}

func parseCredentialField(raw string) (application.CredentialField, error) {
	field := application.CredentialField(raw)
	switch field {
	case application.FieldSecretKey, application.FieldMasterPassword:
		return field, nil
	default:
		return "", fmt.Errorf("unsupported credential %q (want secret_key or master_password)", raw)
	}
}
