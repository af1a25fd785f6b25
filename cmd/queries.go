package cmd

import (
	"context"

	"github.com/bnema/opq/internal/adapters/render/listing"
	"github.com/bnema/opq/internal/domain"
	"github.com/spf13/cobra"
)

func newAccountCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "account",
		Short: "Show the signed-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			session, err := currentSession(cmd, app)
			if err != nil {
				return err
			}

			var account domain.Account
			err = fetch(cmd, app, "Fetching account...", asJSON, func(ctx context.Context) error {
				var err error
				account, err = app.client.GetAccount(ctx, session)
				return err
			})
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd, account)
			}
			rendered, renderErr := listing.Account(account, renderOptions(app))
			return writeRendered(cmd, rendered, renderErr)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")

	return cmd
}

func newUsersCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "users",
		Short: "List users of the account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			session, err := currentSession(cmd, app)
			if err != nil {
				return err
			}

			var users []domain.User
			err = fetch(cmd, app, "Fetching users...", asJSON, func(ctx context.Context) error {
				var err error
				users, err = app.client.GetUsers(ctx, session)
				return err
			})
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd, users)
			}
			rendered, renderErr := listing.Users(users, renderOptions(app))
			return writeRendered(cmd, rendered, renderErr)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")

	return cmd
}

func newUserCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "user <id>",
		Short: "Show one user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := currentSession(cmd, app)
			if err != nil {
				return err
			}

			var user domain.UserDetails
			err = fetch(cmd, app, "Fetching user...", asJSON, func(ctx context.Context) error {
				var err error
				user, err = app.client.GetUser(ctx, session, domain.UserID(args[0]))
				return err
			})
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd, user)
			}
			rendered, renderErr := listing.User(user, renderOptions(app))
			return writeRendered(cmd, rendered, renderErr)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")

	return cmd
}

func newTemplatesCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "templates",
		Short: "List item templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			session, err := currentSession(cmd, app)
			if err != nil {
				return err
			}

			var templates []domain.Template
			err = fetch(cmd, app, "Fetching templates...", asJSON, func(ctx context.Context) error {
				var err error
				templates, err = app.client.GetTemplates(ctx, session)
				return err
			})
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd, templates)
			}
			rendered, renderErr := listing.Templates(templates, renderOptions(app))
			return writeRendered(cmd, rendered, renderErr)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")

	return cmd
}

func newVaultsCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "vaults",
		Short: "List vaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			session, err := currentSession(cmd, app)
			if err != nil {
				return err
			}

			var vaults []domain.Vault
			err = fetch(cmd, app, "Fetching vaults...", asJSON, func(ctx context.Context) error {
				var err error
				vaults, err = app.client.GetVaults(ctx, session)
				return err
			})
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd, vaults)
			}
			rendered, renderErr := listing.Vaults(vaults, renderOptions(app))
			return writeRendered(cmd, rendered, renderErr)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")

	return cmd
}

func newVaultCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "vault <id>",
		Short: "Show one vault",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := currentSession(cmd, app)
			if err != nil {
				return err
			}

			var vault domain.VaultDetails
			err = fetch(cmd, app, "Fetching vault...", asJSON, func(ctx context.Context) error {
				var err error
				vault, err = app.client.GetVault(ctx, session, domain.VaultID(args[0]))
				return err
			})
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd, vault)
			}
			rendered, renderErr := listing.Vault(vault, renderOptions(app))
			return writeRendered(cmd, rendered, renderErr)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")

	return cmd
}
