package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bnema/opq/internal/domain"
	"github.com/bnema/opq/internal/ports/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestSessionService(t *testing.T) (*SessionService, *mocks.MockCommandRunner, *mocks.MockSessionRepository, *mocks.MockSecretStore) {
	t.Helper()

	client, runner, _ := newTestClient(t)
	repo := mocks.NewMockSessionRepository(t)
	store := mocks.NewMockSecretStore(t)

	return NewSessionService(client, repo, store, CredentialRefs{}), runner, repo, store
}

func TestCredentialRefsExpandDomain(t *testing.T) {
	t.Parallel()

	refs := DefaultCredentialRefs()

	key, err := refs.Key(FieldSecretKey, "acme.example.com")
	require.NoError(t, err)
	assert.Equal(t, "opq/acme.example.com/secret_key", key)

	key, err = refs.Key(FieldMasterPassword, "acme.example.com")
	require.NoError(t, err)
	assert.Equal(t, "opq/acme.example.com/master_password", key)

	_, err = refs.Key("totp", "acme.example.com")
	assert.ErrorIs(t, err, ErrUnknownCredentialField)
}

func TestSignInResolvesStoredCredentialsAndSavesSession(t *testing.T) {
	svc, runner, repo, store := newTestSessionService(t)

	store.EXPECT().Get(mock.Anything, "opq/acme.example.com/secret_key").Return("A3-KEY", nil).Once()
	store.EXPECT().Get(mock.Anything, "opq/acme.example.com/master_password").Return("hunter2", nil).Once()
	runner.EXPECT().
		Run(mock.Anything, "hunter2\n", "signin", "acme.example.com", "a@acme.test", "A3-KEY", "--output=raw").
		Return("tok-123", "", nil).
		Once()
	repo.EXPECT().Save(mock.Anything, domain.NewSession("tok-123", testNow, domain.DefaultSessionLease)).Return(nil).Once()

	session, err := svc.SignIn(context.Background(), domain.Credentials{Domain: "acme.example.com", Email: "a@acme.test"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "tok-123", session.Token)
}

func TestSignInPromptsForMissingSecrets(t *testing.T) {
	svc, runner, repo, store := newTestSessionService(t)

	store.EXPECT().Get(mock.Anything, "opq/acme.example.com/master_password").Return("", domain.ErrSecretNotFound).Once()
	runner.EXPECT().
		Run(mock.Anything, "typed\n", "signin", "acme.example.com", "a@acme.test", "A3-FLAG", "--output=raw").
		Return("tok-1", "", nil).
		Once()
	repo.EXPECT().Save(mock.Anything, mock.Anything).Return(nil).Once()

	var prompted []CredentialField
	prompt := func(_ context.Context, field CredentialField) (string, error) {
		prompted = append(prompted, field)
		return "typed", nil
	}

	_, err := svc.SignIn(context.Background(), domain.Credentials{
		Domain:    "acme.example.com",
		Email:     "a@acme.test",
		SecretKey: "A3-FLAG",
	}, prompt)
	require.NoError(t, err)
	assert.Equal(t, []CredentialField{FieldMasterPassword}, prompted)
}

func TestSignInWithoutPromptFailsOnMissingSecret(t *testing.T) {
	svc, _, _, store := newTestSessionService(t)

	store.EXPECT().Get(mock.Anything, "opq/acme.example.com/secret_key").Return("", domain.ErrSecretNotFound).Once()

	_, err := svc.SignIn(context.Background(), domain.Credentials{Domain: "acme.example.com", Email: "a@acme.test"}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrIncompleteCredentials)
}

func TestSignInSurfacesSecretStoreFailure(t *testing.T) {
	svc, _, _, store := newTestSessionService(t)

	store.EXPECT().Get(mock.Anything, "opq/acme.example.com/secret_key").Return("", errors.New("gpg failed")).Once()

	_, err := svc.SignIn(context.Background(), domain.Credentials{Domain: "acme.example.com", Email: "a@acme.test"}, nil)
	require.Error(t, err)
	assert.ErrorContains(t, err, "gpg failed")
}

func TestSignInDoesNotSaveRejectedSession(t *testing.T) {
	svc, runner, _, _ := newTestSessionService(t)

	runner.EXPECT().
		Run(mock.Anything, "bad\n", "signin", "acme.example.com", "a@acme.test", "A3-KEY", "--output=raw").
		Return("[bin-error] 2026/02/14 --- [ERROR] (ERROR) 401: Authentication required.", "", nil).
		Once()

	_, err := svc.SignIn(context.Background(), domain.Credentials{
		Domain:         "acme.example.com",
		Email:          "a@acme.test",
		SecretKey:      "A3-KEY",
		MasterPassword: "bad",
	}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSession)
}

func TestCurrentReportsMissingAndExpiredSessions(t *testing.T) {
	svc, _, repo, _ := newTestSessionService(t)

	repo.EXPECT().Load(mock.Anything).Return(domain.Session{}, domain.ErrSessionNotFound).Once()
	_, err := svc.Current(context.Background())
	assert.ErrorIs(t, err, domain.ErrSession)

	expired := domain.NewSession("old", testNow.Add(-time.Hour), domain.DefaultSessionLease)
	repo.EXPECT().Load(mock.Anything).Return(expired, nil).Once()
	_, err = svc.Current(context.Background())
	assert.ErrorIs(t, err, domain.ErrSession)

	live := domain.NewSession("live", testNow, domain.DefaultSessionLease)
	repo.EXPECT().Load(mock.Anything).Return(live, nil).Once()
	got, err := svc.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, live, got)
}

func TestSetAndRemoveCredential(t *testing.T) {
	svc, _, _, store := newTestSessionService(t)

	store.EXPECT().Put(mock.Anything, "opq/acme.example.com/secret_key", "A3-KEY").Return(nil).Once()
	store.EXPECT().Delete(mock.Anything, "opq/acme.example.com/secret_key").Return(nil).Once()

	require.NoError(t, svc.SetCredential(context.Background(), "acme.example.com", FieldSecretKey, "A3-KEY"))
	require.NoError(t, svc.RemoveCredential(context.Background(), "acme.example.com", FieldSecretKey))

	err := svc.SetCredential(context.Background(), "acme.example.com", FieldMasterPassword, "  ")
	assert.ErrorContains(t, err, "value is empty")
}
