package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bnema/opq/internal/domain"
	"github.com/bnema/opq/internal/ports"
)

// CredentialField names a credential that may live in the secret store.
type CredentialField string

const (
	FieldSecretKey      CredentialField = "secret_key"
	FieldMasterPassword CredentialField = "master_password"
)

const domainPlaceholder = "{domain}"

var ErrUnknownCredentialField = errors.New("unknown credential field")

// CredentialRefs are secret store keys; "{domain}" expands to the sign-in
// domain so several accounts can coexist.
type CredentialRefs struct {
	SecretKey      string
	MasterPassword string
}

func DefaultCredentialRefs() CredentialRefs {
	return CredentialRefs{
		SecretKey:      "opq/{domain}/secret_key",
		MasterPassword: "opq/{domain}/master_password",
	}
}

func (r CredentialRefs) Key(field CredentialField, signinDomain string) (string, error) {
	var ref string
	switch field {
	case FieldSecretKey:
		ref = r.SecretKey
	case FieldMasterPassword:
		ref = r.MasterPassword
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownCredentialField, field)
	}

	return strings.ReplaceAll(ref, domainPlaceholder, signinDomain), nil
}

// Prompter asks the user for a credential missing from the secret store.
type Prompter func(ctx context.Context, field CredentialField) (string, error)

// SessionService keeps one session across CLI invocations: it resolves
// credentials, signs in through the Client and persists the result.
type SessionService struct {
	client *Client
	repo   ports.SessionRepository
	store  ports.SecretStore
	refs   CredentialRefs
}

func NewSessionService(client *Client, repo ports.SessionRepository, store ports.SecretStore, refs CredentialRefs) *SessionService {
	defaults := DefaultCredentialRefs()
	if refs.SecretKey == "" {
		refs.SecretKey = defaults.SecretKey
	}
	if refs.MasterPassword == "" {
		refs.MasterPassword = defaults.MasterPassword
	}

	return &SessionService{client: client, repo: repo, store: store, refs: refs}
}

func (s *SessionService) Client() *Client {
	return s.client
}

// SignIn authenticates and stores the new session. Credentials not given
// explicitly come from the secret store, then from prompt.
func (s *SessionService) SignIn(ctx context.Context, creds domain.Credentials, prompt Prompter) (domain.Session, error) {
	if creds.Domain == "" || creds.Email == "" {
		return domain.Session{}, domain.ErrIncompleteCredentials
	}

	var err error
	if creds.SecretKey == "" {
		creds.SecretKey, err = s.resolve(ctx, creds.Domain, FieldSecretKey, prompt)
		if err != nil {
			return domain.Session{}, err
		}
	}
	if creds.MasterPassword == "" {
		creds.MasterPassword, err = s.resolve(ctx, creds.Domain, FieldMasterPassword, prompt)
		if err != nil {
			return domain.Session{}, err
		}
	}

	session, err := s.client.Authenticate(ctx, creds)
	if err != nil {
		return domain.Session{}, err
	}

	if err := s.repo.Save(ctx, session); err != nil {
		return domain.Session{}, fmt.Errorf("save session: %w", err)
	}

	return session, nil
}

// Current returns the stored session, failing with a SessionError once it
// is missing or expired.
func (s *SessionService) Current(ctx context.Context) (domain.Session, error) {
	session, err := s.repo.Load(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return domain.Session{}, &domain.SessionError{Message: "not signed in"}
		}
		return domain.Session{}, fmt.Errorf("load session: %w", err)
	}

	if !s.client.IsValid(session) {
		return domain.Session{}, &domain.SessionError{Message: "session expired"}
	}

	return session, nil
}

func (s *SessionService) SignOut(ctx context.Context) error {
	if err := s.repo.Delete(ctx); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *SessionService) SetCredential(ctx context.Context, signinDomain string, field CredentialField, value string) error {
	key, err := s.refs.Key(field, signinDomain)
	if err != nil {
		return err
	}
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s value is empty", field)
	}

	if err := s.store.Put(ctx, key, value); err != nil {
		return fmt.Errorf("store %s: %w", field, err)
	}
	return nil
}

func (s *SessionService) RemoveCredential(ctx context.Context, signinDomain string, field CredentialField) error {
	key, err := s.refs.Key(field, signinDomain)
	if err != nil {
		return err
	}

	if err := s.store.Delete(ctx, key); err != nil {
		return fmt.Errorf("remove %s: %w", field, err)
	}
	return nil
}

func (s *SessionService) resolve(ctx context.Context, signinDomain string, field CredentialField, prompt Prompter) (string, error) {
	key, err := s.refs.Key(field, signinDomain)
	if err != nil {
		return "", err
	}

	value, err := s.store.Get(ctx, key)
	if err == nil && value != "" {
		return value, nil
	}
	if err != nil && !errors.Is(err, domain.ErrSecretNotFound) {
		return "", fmt.Errorf("load %s: %w", field, err)
	}

	if prompt == nil {
		return "", fmt.Errorf("%s: %w", field, domain.ErrIncompleteCredentials)
	}

	value, err = prompt(ctx, field)
	if err != nil {
		return "", fmt.Errorf("prompt %s: %w", field, err)
	}
	if value == "" {
		return "", fmt.Errorf("%s: %w", field, domain.ErrIncompleteCredentials)
	}
	return value, nil
}
