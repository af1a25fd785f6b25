package application

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/bnema/opq/internal/domain"
	"github.com/bnema/opq/internal/fuzzy"
	"github.com/bnema/opq/internal/logging"
	"github.com/bnema/opq/internal/memo"
	"github.com/bnema/opq/internal/ports"
	"github.com/google/uuid"
)

// DefaultAvatarURL is used for entities without an avatar file.
const DefaultAvatarURL = "https://a.1passwordusercontent.com/default/avatar.png"

type Options struct {
	Lease            time.Duration
	DefaultAvatarURL string
	Fuzzy            fuzzy.Options
	// Concurrency bounds how many items are normalized at once.
	Concurrency int
	// OnSpawn, when set, is told the subcommand of every op invocation just
	// before it starts. It may be called from several goroutines.
	OnSpawn func(command string)
}

func DefaultOptions() Options {
	return Options{
		Lease:            domain.DefaultSessionLease,
		DefaultAvatarURL: DefaultAvatarURL,
		Fuzzy:            fuzzy.DefaultOptions(),
		Concurrency:      8,
	}
}

// Client runs session-scoped queries against the external tool. Each Client
// owns its query cache; results live as long as the Client.
type Client struct {
	runner    ports.CommandRunner
	clock     ports.Clock
	log       logging.Logger
	cache     *memo.Cache
	opts      Options
	itemRules map[domain.TemplateID]itemRule
}

func NewClient(runner ports.CommandRunner, clock ports.Clock, log logging.Logger, opts Options) *Client {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if log == nil {
		log = logging.Nop{}
	}

	defaults := DefaultOptions()
	if opts.Lease <= 0 {
		opts.Lease = defaults.Lease
	}
	if opts.DefaultAvatarURL == "" {
		opts.DefaultAvatarURL = defaults.DefaultAvatarURL
	}
	if opts.Fuzzy == (fuzzy.Options{}) {
		opts.Fuzzy = defaults.Fuzzy
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaults.Concurrency
	}

	return &Client{
		runner:    runner,
		clock:     clock,
		log:       log,
		cache:     memo.New(),
		opts:      opts,
		itemRules: defaultItemRules(),
	}
}

// Authenticate signs in once and returns a session valid for the lease.
// The master password goes to the tool's stdin, never onto its argv.
func (c *Client) Authenticate(ctx context.Context, creds domain.Credentials) (domain.Session, error) {
	if err := creds.Validate(); err != nil {
		return domain.Session{}, err
	}

	issuedAt := c.clock.Now()
	token, err := c.exec(ctx, request{
		command: "signin",
		args:    []string{creds.Domain, creds.Email, creds.SecretKey, "--output=raw"},
		input:   creds.MasterPassword + "\n",
	})
	if err != nil {
		return domain.Session{}, fmt.Errorf("sign in to %s: %w", creds.Domain, err)
	}

	c.log.Info(ctx, "signed in", "domain", creds.Domain, "lease", c.opts.Lease)
	return domain.NewSession(token, issuedAt, c.opts.Lease), nil
}

func (c *Client) IsValid(session domain.Session) bool {
	return session.IsValid(c.clock.Now())
}

func (c *Client) GetAccount(ctx context.Context, session domain.Session) (domain.Account, error) {
	if err := c.requireSession(session); err != nil {
		return domain.Account{}, err
	}

	return memo.Do(ctx, c.cache, memo.Key("get account", session.Token), func(ctx context.Context) (domain.Account, error) {
		rec, err := query[accountRecord](ctx, c, request{command: "get account", session: &session})
		if err != nil {
			return domain.Account{}, fmt.Errorf("get account: %w", err)
		}

		createdAt, err := parseTime("createdAt", rec.CreatedAt)
		if err != nil {
			return domain.Account{}, fmt.Errorf("get account: %w", err)
		}

		account := domain.Account{
			ID:            domain.AccountID(rec.UUID),
			Name:          rec.Name,
			BaseAvatarURL: rec.BaseAvatarURL,
			CreatedAt:     createdAt,
		}
		account.AvatarURL = account.ResolveAvatar(rec.Avatar, c.opts.DefaultAvatarURL)

		return account, nil
	})
}

func (c *Client) GetUsers(ctx context.Context, session domain.Session) ([]domain.User, error) {
	if err := c.requireSession(session); err != nil {
		return nil, err
	}

	users, err := memo.Do(ctx, c.cache, memo.Key("list users", session.Token), func(ctx context.Context) ([]domain.User, error) {
		account, err := c.GetAccount(ctx, session)
		if err != nil {
			return nil, err
		}

		recs, err := query[[]userRecord](ctx, c, request{command: "list users", session: &session})
		if err != nil {
			return nil, fmt.Errorf("list users: %w", err)
		}

		users := make([]domain.User, 0, len(recs))
		for _, rec := range recs {
			users = append(users, c.toUser(account, rec))
		}

		return users, nil
	})

	return slices.Clone(users), err
}

func (c *Client) GetUser(ctx context.Context, session domain.Session, id domain.UserID) (domain.UserDetails, error) {
	if err := c.requireSession(session); err != nil {
		return domain.UserDetails{}, err
	}

	return memo.Do(ctx, c.cache, memo.Key("get user", session.Token, string(id)), func(ctx context.Context) (domain.UserDetails, error) {
		account, err := c.GetAccount(ctx, session)
		if err != nil {
			return domain.UserDetails{}, err
		}

		rec, err := query[userRecord](ctx, c, request{command: "get user", args: []string{string(id)}, session: &session})
		if err != nil {
			return domain.UserDetails{}, fmt.Errorf("get user %s: %w", id, err)
		}

		details := domain.UserDetails{User: c.toUser(account, rec), Language: rec.Language}
		for _, ts := range []struct {
			field string
			raw   string
			dst   *time.Time
		}{
			{"createdAt", rec.CreatedAt, &details.CreatedAt},
			{"updatedAt", rec.UpdatedAt, &details.UpdatedAt},
			{"lastAuthAt", rec.LastAuthAt, &details.LastAuthAt},
		} {
			if *ts.dst, err = parseTime(ts.field, ts.raw); err != nil {
				return domain.UserDetails{}, fmt.Errorf("get user %s: %w", id, err)
			}
		}

		return details, nil
	})
}

func (c *Client) GetTemplates(ctx context.Context, session domain.Session) ([]domain.Template, error) {
	if err := c.requireSession(session); err != nil {
		return nil, err
	}

	templates, err := memo.Do(ctx, c.cache, memo.Key("list templates", session.Token), func(ctx context.Context) ([]domain.Template, error) {
		recs, err := query[[]templateRecord](ctx, c, request{command: "list templates", session: &session})
		if err != nil {
			return nil, fmt.Errorf("list templates: %w", err)
		}

		templates := make([]domain.Template, 0, len(recs))
		for _, rec := range recs {
			templates = append(templates, domain.Template{ID: domain.TemplateID(rec.UUID), Name: rec.Name})
		}

		return templates, nil
	})

	return slices.Clone(templates), err
}

func (c *Client) GetVaults(ctx context.Context, session domain.Session) ([]domain.Vault, error) {
	if err := c.requireSession(session); err != nil {
		return nil, err
	}

	vaults, err := memo.Do(ctx, c.cache, memo.Key("list vaults", session.Token), func(ctx context.Context) ([]domain.Vault, error) {
		recs, err := query[[]vaultRecord](ctx, c, request{command: "list vaults", session: &session})
		if err != nil {
			return nil, fmt.Errorf("list vaults: %w", err)
		}

		vaults := make([]domain.Vault, 0, len(recs))
		for _, rec := range recs {
			vaults = append(vaults, domain.Vault{ID: domain.VaultID(rec.UUID), Name: rec.Name})
		}

		return vaults, nil
	})

	return slices.Clone(vaults), err
}

func (c *Client) GetVault(ctx context.Context, session domain.Session, id domain.VaultID) (domain.VaultDetails, error) {
	if err := c.requireSession(session); err != nil {
		return domain.VaultDetails{}, err
	}

	return memo.Do(ctx, c.cache, memo.Key("get vault", session.Token, string(id)), func(ctx context.Context) (domain.VaultDetails, error) {
		account, err := c.GetAccount(ctx, session)
		if err != nil {
			return domain.VaultDetails{}, err
		}

		rec, err := query[vaultRecord](ctx, c, request{command: "get vault", args: []string{string(id)}, session: &session})
		if err != nil {
			return domain.VaultDetails{}, fmt.Errorf("get vault %s: %w", id, err)
		}

		return domain.VaultDetails{
			Vault:       domain.Vault{ID: domain.VaultID(rec.UUID), Name: rec.Name},
			Description: rec.Desc,
			AvatarURL:   account.ResolveAvatar(rec.Avatar, c.opts.DefaultAvatarURL),
		}, nil
	})
}

func (c *Client) toUser(account domain.Account, rec userRecord) domain.User {
	return domain.User{
		ID:        domain.UserID(rec.UUID),
		FirstName: rec.FirstName,
		LastName:  rec.LastName,
		Name:      rec.Name,
		Email:     rec.Email,
		AvatarURL: account.ResolveAvatar(rec.Avatar, c.opts.DefaultAvatarURL),
	}
}

func (c *Client) requireSession(session domain.Session) error {
	if session.Token == "" {
		return &domain.SessionError{Message: "no session"}
	}
	if !c.IsValid(session) {
		return &domain.SessionError{Message: fmt.Sprintf("session expired at %s", session.ExpiresAt.Format(time.RFC3339))}
	}

	return nil
}

// exec runs one request through the gate, the runner and the classifier.
func (c *Client) exec(ctx context.Context, req request) (string, error) {
	argv, err := buildArgs(req, c.clock.Now())
	if err != nil {
		return "", err
	}

	log := c.log.With("invocation", uuid.NewString(), "command", req.command)
	started := time.Now()
	log.Debug(ctx, "spawn")
	if c.opts.OnSpawn != nil {
		c.opts.OnSpawn(req.command)
	}

	stdout, stderr, err := c.runner.Run(ctx, req.input, argv...)
	if err != nil {
		log.Error(ctx, "spawn failed", "error", err)
		return "", err
	}

	payload, err := classify(stdout, stderr)
	if err != nil {
		log.Debug(ctx, "tool reported failure", "error", err, "elapsed", time.Since(started))
		return "", err
	}
	if payload == "" {
		return "", &domain.ProtocolError{Reason: "empty output", Output: stderr}
	}

	log.Debug(ctx, "done", "elapsed", time.Since(started), "bytes", len(payload))
	return payload, nil
}

func query[T any](ctx context.Context, c *Client, req request) (T, error) {
	payload, err := c.exec(ctx, req)
	if err != nil {
		var zero T
		return zero, err
	}

	return decode[T](payload)
}
