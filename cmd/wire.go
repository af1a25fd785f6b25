package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/bnema/opq/internal/adapters/process"
	tomlrepo "github.com/bnema/opq/internal/adapters/repo/toml"
	chainstore "github.com/bnema/opq/internal/adapters/secrets/chain"
	"github.com/bnema/opq/internal/application"
	"github.com/bnema/opq/internal/config"
	"github.com/bnema/opq/internal/logging"
	"github.com/bnema/opq/internal/ports"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

type app struct {
	cfg      config.Config
	client   *application.Client
	sessions *application.SessionService
	now      func() time.Time
	// interactive is true when stderr is a terminal; spinners and prompts
	// only draw there.
	interactive bool
	stdinIsTTY  bool
	// stdin is shared so consecutive prompts read consecutive lines.
	stdin    *bufio.Reader
	progress progressReporter
}

type wireOptions struct {
	configFile string
	logLevel   string
	runner     ports.CommandRunner
	stderr     io.Writer
}

func (a *app) wire(opts wireOptions) error {
	cfg, err := config.Load(viper.New(), opts.configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	level := cfg.Log.Level
	if opts.logLevel != "" {
		level = opts.logLevel
	}
	log, err := logging.New(opts.stderr, level)
	if err != nil {
		return fmt.Errorf("wire logger: %w", err)
	}

	runner := opts.runner
	if runner == nil {
		runner = newOPRunner(cfg.OP)
	}

	repo, err := tomlrepo.NewSessionRepository(cfg.Session.Path)
	if err != nil {
		return fmt.Errorf("wire session repository: %w", err)
	}

	secretStore, err := chainstore.NewPassFirstWithFileFallback(cfg.Credentials.FileRoot)
	if err != nil {
		return fmt.Errorf("wire secret store chain: %w", err)
	}

	client := application.NewClient(runner, ports.SystemClock{}, log, application.Options{
		Lease:            cfg.Session.Lease,
		DefaultAvatarURL: cfg.Avatar.DefaultURL,
		Fuzzy:            cfg.Search,
		OnSpawn:          a.progress.reportSpawn,
	})

	a.cfg = cfg
	a.client = client
	a.sessions = application.NewSessionService(client, repo, secretStore, application.CredentialRefs{
		SecretKey:      cfg.Credentials.SecretKeyRef,
		MasterPassword: cfg.Credentials.MasterPasswordRef,
	})
	a.now = time.Now
	a.interactive = isTerminal(opts.stderr)
	a.stdinIsTTY = term.IsTerminal(int(os.Stdin.Fd()))

	return nil
}

// newOPRunner defers a missing executable to the first query so commands
// that never spawn op still work without it.
func newOPRunner(cfg config.OPConfig) ports.CommandRunner {
	runner, err := process.NewRunner(cfg.Path, cfg.Timeout)
	if err != nil {
		return unavailableRunner{err: err}
	}
	return runner
}

type unavailableRunner struct {
	err error
}

func (r unavailableRunner) Run(context.Context, string, ...string) (string, string, error) {
	return "", "", r.err
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
