package application

import (
	"fmt"
	"strings"
	"time"

	"github.com/bnema/opq/internal/domain"
)

// request is one logical query against the external tool.
type request struct {
	command string
	args    []string
	session *domain.Session
	vault   string
	// input is written to the tool's stdin; only sign-in uses it.
	input string
}

// buildArgs tokenizes the command, appends positional args, then the session
// flag (after passing the gate) and the vault scope. No other flags are added.
func buildArgs(req request, now time.Time) ([]string, error) {
	argv := strings.Fields(req.command)
	argv = append(argv, req.args...)

	if req.session != nil {
		if !req.session.IsValid(now) {
			return nil, &domain.SessionError{Message: fmt.Sprintf("session expired at %s", req.session.ExpiresAt.Format(time.RFC3339))}
		}
		argv = append(argv, "--session="+req.session.Token)
	}

	if req.vault != "" {
		argv = append(argv, "--vault="+req.vault)
	}

	return argv, nil
}
