package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/bnema/opq/internal/adapters/render/listing"
	"github.com/bnema/opq/internal/domain"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// fetch runs query behind a progress line when a human is watching stderr.
func fetch(cmd *cobra.Command, app *app, label string, asJSON bool, query func(context.Context) error) error {
	if asJSON || !app.interactive {
		return query(cmd.Context())
	}

	return app.progress.run(cmd.Context(), cmd.ErrOrStderr(), label, app.now, query)
}

// currentSession loads the stored session; every query command starts here.
func currentSession(cmd *cobra.Command, app *app) (domain.Session, error) {
	return app.sessions.Current(cmd.Context())
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeRendered(cmd *cobra.Command, rendered string, err error) error {
	if err != nil {
		return fmt.Errorf("render output: %w", err)
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
	return err
}

func renderOptions(app *app) listing.RenderOptions {
	return listing.RenderOptions{Now: app.now()}
}

// readSecret prompts on stderr. On a terminal the input is not echoed;
// otherwise one line is read from stdin so secrets can be piped in.
func readSecret(cmd *cobra.Command, app *app, label string) (string, error) {
	if app.stdinIsTTY && cmd.InOrStdin() == os.Stdin {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "%s: ", label)
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		_, _ = fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("read %s: %w", label, err)
		}
		return string(raw), nil
	}

	if app.stdin == nil {
		app.stdin = bufio.NewReader(cmd.InOrStdin())
	}
	line, err := app.stdin.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read %s from stdin: %w", label, err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
