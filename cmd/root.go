package cmd

import (
	"errors"
	"fmt"

	"github.com/bnema/opq/internal/domain"
	"github.com/bnema/opq/internal/ports"
	"github.com/spf13/cobra"
)

func Execute() error {
	return withSessionHint(newRootCmd(nil).Execute())
}

// newRootCmd builds the command tree. A non-nil runner replaces the op
// executable; tests use it to script the tool's output.
func newRootCmd(runner ports.CommandRunner) *cobra.Command {
	var configFile string
	var logLevel string

	app := &app{}

	rootCmd := &cobra.Command{
		Use:           "opq",
		Short:         "Query a 1Password account from the terminal",
		Long:          "opq signs in once through the op CLI, keeps the session for its lease, and lists accounts, users, vaults, templates and items with optional fuzzy search.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return app.wire(wireOptions{
				configFile: configFile,
				logLevel:   logLevel,
				runner:     runner,
				stderr:     cmd.ErrOrStderr(),
			})
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default ~/.config/opq/config.toml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides log.level)")

	rootCmd.AddCommand(
		newVersionCmd(),
		newSigninCmd(app),
		newSignoutCmd(app),
		newSessionCmd(app),
		newAccountCmd(app),
		newUsersCmd(app),
		newUserCmd(app),
		newTemplatesCmd(app),
		newVaultsCmd(app),
		newVaultCmd(app),
		newItemsCmd(app),
		newItemCmd(app),
		newCredentialsCmd(app),
	)

	return rootCmd
}

func withSessionHint(err error) error {
	if err == nil || !errors.Is(err, domain.ErrSession) {
		return err
	}

	return fmt.Errorf("%w (run `opq signin` to start a new session)", err)
}
