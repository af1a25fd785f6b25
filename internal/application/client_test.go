package application

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bnema/opq/internal/domain"
	"github.com/bnema/opq/internal/fuzzy"
	"github.com/bnema/opq/internal/ports/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	accountJSON   = `{"uuid":"ACC1","name":"Acme","domain":"acme","avatar":"acme.png","baseAvatarURL":"https://a.example.com/","createdAt":"2020-01-02T03:04:05Z"}`
	templatesJSON = `[{"uuid":"001","name":"Login"},{"uuid":"003","name":"Secure Note"}]`
	vaultJSON     = `{"uuid":"v1","name":"Private","desc":"Personal vault","avatar":""}`
	itemsJSON     = `[
		{"uuid":"i1","templateUuid":"001","vaultUuid":"v1","overview":{"title":"GitHub","ainfo":"octocat","url":"https://github.com"}},
		{"uuid":"i2","templateUuid":"003","vaultUuid":"v1","overview":{"title":"Recovery codes"}},
		{"uuid":"i3","templateUuid":"001","vaultUuid":"v1","overview":{"title":"Gmail","ainfo":"me@gmail.com","url":"https://mail.google.com"}}
	]`
	itemJSON = `{"uuid":"i1","templateUuid":"001","vaultUuid":"v1","overview":{"title":"GitHub","ainfo":"octocat"},
		"details":{"fields":[
			{"designation":"password","name":"pw","type":"P","value":"designated"},
			{"designation":"","name":"password","type":"P","value":"named"}
		]}}`
)

var testNow = time.Date(2026, 2, 14, 12, 0, 0, 0, time.UTC)

func newTestClient(t *testing.T) (*Client, *mocks.MockCommandRunner, domain.Session) {
	t.Helper()

	runner := mocks.NewMockCommandRunner(t)
	clock := mocks.NewMockClock(t)
	clock.EXPECT().Now().Return(testNow).Maybe()

	client := NewClient(runner, clock, nil, DefaultOptions())
	session := domain.NewSession("tok", testNow.Add(-time.Minute), domain.DefaultSessionLease)

	return client, runner, session
}

func expectRun(runner *mocks.MockCommandRunner, stdout string, args ...string) {
	matchers := make([]interface{}, len(args))
	for i, a := range args {
		matchers[i] = a
	}
	runner.EXPECT().Run(mock.Anything, "", matchers...).Return(stdout, "", nil).Once()
}

func TestAuthenticateLeasesSessionFromSigninToken(t *testing.T) {
	client, runner, _ := newTestClient(t)

	runner.EXPECT().
		Run(mock.Anything, "hunter2\n", "signin", "acme.example.com", "a@acme.test", "A3-KEY", "--output=raw").
		Return("tok-123", "", nil).
		Once()

	session, err := client.Authenticate(context.Background(), domain.Credentials{
		Domain:         "acme.example.com",
		Email:          "a@acme.test",
		SecretKey:      "A3-KEY",
		MasterPassword: "hunter2",
	})
	require.NoError(t, err)
	assert.Equal(t, "tok-123", session.Token)
	assert.Equal(t, testNow.Add(29*time.Minute), session.ExpiresAt)
	assert.True(t, client.IsValid(session))
}

func TestAuthenticateRejectsIncompleteCredentials(t *testing.T) {
	client, _, _ := newTestClient(t)

	_, err := client.Authenticate(context.Background(), domain.Credentials{Domain: "acme"})
	assert.ErrorIs(t, err, domain.ErrIncompleteCredentials)
}

func TestAuthenticateSurfacesRejection(t *testing.T) {
	client, runner, _ := newTestClient(t)

	runner.EXPECT().
		Run(mock.Anything, "bad\n", "signin", "acme", "a@acme.test", "KEY", "--output=raw").
		Return("[bin-error] 2026/02/14---[LOG] (ERROR) 401: Authentication required.", "", nil).
		Once()

	_, err := client.Authenticate(context.Background(), domain.Credentials{Domain: "acme", Email: "a@acme.test", SecretKey: "KEY", MasterPassword: "bad"})
	assert.ErrorIs(t, err, domain.ErrSession)
}

func TestExpiredSessionFailsFastWithoutSpawning(t *testing.T) {
	client, _, _ := newTestClient(t)
	expired := domain.Session{Token: "tok", ExpiresAt: testNow}

	_, err := client.GetVaults(context.Background(), expired)
	assert.ErrorIs(t, err, domain.ErrSession)

	_, err = client.GetItems(context.Background(), domain.Session{}, ItemsQuery{})
	assert.ErrorIs(t, err, domain.ErrSession)
	assert.False(t, client.IsValid(expired))
}

func TestGetAccountResolvesAvatarAndIsCached(t *testing.T) {
	client, runner, session := newTestClient(t)
	expectRun(runner, accountJSON, "get", "account", "--session=tok")

	for range 3 {
		account, err := client.GetAccount(context.Background(), session)
		require.NoError(t, err)
		assert.Equal(t, domain.Account{
			ID:            "ACC1",
			Name:          "Acme",
			AvatarURL:     "https://a.example.com/ACC1/acme.png",
			BaseAvatarURL: "https://a.example.com/",
			CreatedAt:     time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC),
		}, account)
	}
}

func TestCacheIsKeyedBySessionToken(t *testing.T) {
	client, runner, session := newTestClient(t)
	other := domain.NewSession("tok-2", testNow, domain.DefaultSessionLease)

	expectRun(runner, `{"uuid":"ACC1","name":"Acme"}`, "get", "account", "--session=tok")
	expectRun(runner, `{"uuid":"ACC2","name":"Other"}`, "get", "account", "--session=tok-2")

	first, err := client.GetAccount(context.Background(), session)
	require.NoError(t, err)
	second, err := client.GetAccount(context.Background(), other)
	require.NoError(t, err)

	assert.Equal(t, domain.AccountID("ACC1"), first.ID)
	assert.Equal(t, domain.AccountID("ACC2"), second.ID)
	assert.Equal(t, DefaultAvatarURL, second.AvatarURL)
}

func TestGetUsersAndUser(t *testing.T) {
	client, runner, session := newTestClient(t)
	expectRun(runner, accountJSON, "get", "account", "--session=tok")
	expectRun(runner, `[{"uuid":"u1","firstName":"Ada","lastName":"Lovelace","name":"Ada Lovelace","email":"ada@acme.test","avatar":"ada.png"},{"uuid":"u2","name":"Bob","email":"bob@acme.test"}]`,
		"list", "users", "--session=tok")
	expectRun(runner, `{"uuid":"u1","firstName":"Ada","lastName":"Lovelace","name":"Ada Lovelace","email":"ada@acme.test","avatar":"","language":"en","createdAt":"2020-01-01T00:00:00Z","updatedAt":"2021-01-01T00:00:00Z","lastAuthAt":"2026-02-14T11:00:00Z"}`,
		"get", "user", "u1", "--session=tok")

	users, err := client.GetUsers(context.Background(), session)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "https://a.example.com/ACC1/ada.png", users[0].AvatarURL)
	assert.Equal(t, DefaultAvatarURL, users[1].AvatarURL)

	details, err := client.GetUser(context.Background(), session, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Ada", details.FirstName)
	assert.Equal(t, "en", details.Language)
	assert.Equal(t, DefaultAvatarURL, details.AvatarURL)
	assert.Equal(t, time.Date(2026, 2, 14, 11, 0, 0, 0, time.UTC), details.LastAuthAt)
}

func TestGetTemplatesAndVaults(t *testing.T) {
	client, runner, session := newTestClient(t)
	expectRun(runner, templatesJSON, "list", "templates", "--session=tok")
	expectRun(runner, `[{"uuid":"v1","name":"Private"},{"uuid":"v2","name":"Shared"}]`, "list", "vaults", "--session=tok")

	templates, err := client.GetTemplates(context.Background(), session)
	require.NoError(t, err)
	assert.Equal(t, []domain.Template{{ID: "001", Name: "Login"}, {ID: "003", Name: "Secure Note"}}, templates)

	vaults, err := client.GetVaults(context.Background(), session)
	require.NoError(t, err)
	assert.Equal(t, []domain.Vault{{ID: "v1", Name: "Private"}, {ID: "v2", Name: "Shared"}}, vaults)

	vaults[0].Name = "mutated"
	again, err := client.GetVaults(context.Background(), session)
	require.NoError(t, err)
	assert.Equal(t, "Private", again[0].Name)
}

func TestConcurrentGetVaultSpawnsOnce(t *testing.T) {
	client, runner, session := newTestClient(t)
	expectRun(runner, accountJSON, "get", "account", "--session=tok")

	var calls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})
	runner.EXPECT().
		Run(mock.Anything, "", "get", "vault", "v1", "--session=tok").
		RunAndReturn(func(context.Context, string, ...string) (string, string, error) {
			if calls.Add(1) == 1 {
				close(started)
			}
			<-release
			return vaultJSON, "", nil
		}).
		Maybe()

	results := make([]domain.VaultDetails, 2)
	var wg sync.WaitGroup
	fetch := func(i int) {
		defer wg.Done()
		v, err := client.GetVault(context.Background(), session, "v1")
		assert.NoError(t, err)
		results[i] = v
	}

	wg.Add(2)
	go fetch(0)
	<-started
	go fetch(1)
	time.Sleep(10 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, results[0], results[1])
	assert.Equal(t, domain.VaultDetails{
		Vault:       domain.Vault{ID: "v1", Name: "Private"},
		Description: "Personal vault",
		AvatarURL:   DefaultAvatarURL,
	}, results[0])
}

func expectItemResolution(runner *mocks.MockCommandRunner) {
	expectRun(runner, accountJSON, "get", "account", "--session=tok")
	expectRun(runner, vaultJSON, "get", "vault", "v1", "--session=tok")
	expectRun(runner, templatesJSON, "list", "templates", "--session=tok")
}

func TestGetItemsWithoutQueryReturnsEveryItemResolved(t *testing.T) {
	client, runner, session := newTestClient(t)
	expectRun(runner, itemsJSON, "list", "items", "--session=tok")
	expectItemResolution(runner)

	items, err := client.GetItems(context.Background(), session, ItemsQuery{})
	require.NoError(t, err)
	require.Len(t, items, 3)

	for _, item := range items {
		base := item.Base()
		assert.Equal(t, "Private", base.Vault.Name)
		assert.Equal(t, "Personal vault", base.Vault.Description)
		assert.NotEmpty(t, base.Template.Name)
	}

	login, ok := items[0].(domain.LoginItem)
	require.True(t, ok)
	assert.Equal(t, "octocat", login.Username)
	assert.Nil(t, login.Password)

	note, ok := items[1].(domain.BaseItem)
	require.True(t, ok)
	assert.Equal(t, domain.Template{ID: "003", Name: "Secure Note"}, note.Template)
}

func TestGetItemsTemplateFilterAndScope(t *testing.T) {
	client, runner, session := newTestClient(t)
	expectRun(runner, itemsJSON, "list", "items", "--session=tok", "--vault=Private")
	expectItemResolution(runner)

	items, err := client.GetItems(context.Background(), session, ItemsQuery{Vault: "Private", Template: "003"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, domain.ItemID("i2"), items[0].Base().ID)
}

func TestGetItemsWithQueryAppliesFuzzyFilter(t *testing.T) {
	client, runner, session := newTestClient(t)
	expectRun(runner, itemsJSON, "list", "items", "--session=tok")
	expectItemResolution(runner)

	items, err := client.GetItems(context.Background(), session, ItemsQuery{Query: "github"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "GitHub", items[0].Base().Title)

	filtered, err := client.GetItems(context.Background(), session, ItemsQuery{Query: "github", Template: "003"})
	require.NoError(t, err)
	assert.Empty(t, filtered)

	typo, err := client.GetItems(context.Background(), session, ItemsQuery{Query: "githob"})
	require.NoError(t, err)
	assert.Empty(t, typo)

	threshold := 0.4
	loose, err := client.GetItems(context.Background(), session, ItemsQuery{Query: "githob", Fuzzy: fuzzy.Overrides{Threshold: &threshold}})
	require.NoError(t, err)
	require.NotEmpty(t, loose)
	assert.Equal(t, "GitHub", loose[0].Base().Title)
}

func TestGetItemResolvesLoginPassword(t *testing.T) {
	client, runner, session := newTestClient(t)
	expectRun(runner, itemJSON, "get", "item", "i1", "--session=tok")
	expectItemResolution(runner)

	item, err := client.GetItem(context.Background(), session, "i1", "")
	require.NoError(t, err)

	login, ok := item.(domain.LoginItem)
	require.True(t, ok)
	require.NotNil(t, login.Password)
	assert.Equal(t, "named", *login.Password)
	assert.Equal(t, "octocat", login.Username)
	assert.Equal(t, domain.VaultID("v1"), login.Vault.ID)
	assert.Equal(t, domain.Template{ID: domain.LoginTemplateID, Name: "Login"}, login.Template)
}

func TestGetItemNotFoundIsQueryError(t *testing.T) {
	client, runner, session := newTestClient(t)
	expectRun(runner, "[bin-error] 2026---[LOG] (ERROR) Item 3142134123412412 not found", "get", "item", "3142134123412412", "--session=tok")

	_, err := client.GetItem(context.Background(), session, "3142134123412412", "")

	var queryErr *domain.QueryError
	require.ErrorAs(t, err, &queryErr)
	assert.Equal(t, "Item 3142134123412412 not found", queryErr.Message)
}

func TestGetItemUnknownTemplateIsQueryError(t *testing.T) {
	client, runner, session := newTestClient(t)
	expectRun(runner, `{"uuid":"i9","templateUuid":"999","vaultUuid":"v1","overview":{"title":"Odd"}}`, "get", "item", "i9", "--session=tok")
	expectItemResolution(runner)

	_, err := client.GetItem(context.Background(), session, "i9", "")
	assert.ErrorIs(t, err, domain.ErrQuery)
}

func TestFailuresAreNotCached(t *testing.T) {
	client, runner, session := newTestClient(t)
	expectRun(runner, "not json", "list", "vaults", "--session=tok")
	expectRun(runner, `[{"uuid":"v1","name":"Private"}]`, "list", "vaults", "--session=tok")

	_, err := client.GetVaults(context.Background(), session)
	require.ErrorIs(t, err, domain.ErrProtocol)

	vaults, err := client.GetVaults(context.Background(), session)
	require.NoError(t, err)
	assert.Len(t, vaults, 1)
}

func TestSpawnAndEmptyOutputErrors(t *testing.T) {
	client, runner, session := newTestClient(t)
	spawnErr := &domain.SpawnError{Path: "/usr/bin/op", Err: errors.New("no such file")}
	runner.EXPECT().Run(mock.Anything, "", "list", "templates", "--session=tok").Return("", "", spawnErr).Once()
	runner.EXPECT().Run(mock.Anything, "", "list", "vaults", "--session=tok").Return("", "segfault", nil).Once()

	_, err := client.GetTemplates(context.Background(), session)
	assert.ErrorIs(t, err, domain.ErrSpawn)

	_, err = client.GetVaults(context.Background(), session)
	var protoErr *domain.ProtocolError
	require.ErrorAs(t, err, &protoErr)
	assert.Equal(t, "segfault", protoErr.Output)
}

func TestCancelledCallerDoesNotFailOtherWaiters(t *testing.T) {
	client, runner, session := newTestClient(t)

	started := make(chan struct{})
	release := make(chan struct{})
	spawnCtxErr := make(chan error, 1)
	runner.EXPECT().
		Run(mock.Anything, "", "get", "account", "--session=tok").
		RunAndReturn(func(ctx context.Context, _ string, _ ...string) (string, string, error) {
			close(started)
			<-release
			spawnCtxErr <- ctx.Err()
			return accountJSON, "", nil
		}).
		Once()

	firstCtx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := client.GetAccount(firstCtx, session)
		firstErr <- err
	}()
	<-started

	second := make(chan domain.Account, 1)
	go func() {
		account, err := client.GetAccount(context.Background(), session)
		assert.NoError(t, err)
		second <- account
	}()

	cancel()
	require.ErrorIs(t, <-firstErr, context.Canceled)

	close(release)
	assert.Equal(t, domain.AccountID("ACC1"), (<-second).ID)
	assert.NoError(t, <-spawnCtxErr)
}

func TestOnSpawnReceivesEverySubcommand(t *testing.T) {
	runner := mocks.NewMockCommandRunner(t)
	clock := mocks.NewMockClock(t)
	clock.EXPECT().Now().Return(testNow).Maybe()
	session := domain.NewSession("tok", testNow.Add(-time.Minute), domain.DefaultSessionLease)

	var mu sync.Mutex
	var spawned []string
	opts := DefaultOptions()
	opts.OnSpawn = func(command string) {
		mu.Lock()
		defer mu.Unlock()
		spawned = append(spawned, command)
	}
	client := NewClient(runner, clock, nil, opts)

	expectRun(runner, itemJSON, "get", "item", "i1", "--session=tok")
	expectItemResolution(runner)

	_, err := client.GetItem(context.Background(), session, "i1", "")
	require.NoError(t, err)

	_, err = client.GetItem(context.Background(), session, "i1", "")
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, []string{"get item", "get account", "get vault", "list templates"}, spawned)
}

func TestMalformedTimestampIsProtocolError(t *testing.T) {
	client, runner, session := newTestClient(t)
	expectRun(runner, `{"uuid":"ACC1","name":"Acme","createdAt":"last tuesday"}`, "get", "account", "--session=tok")

	_, err := client.GetAccount(context.Background(), session)

	var protoErr *domain.ProtocolError
	require.ErrorAs(t, err, &protoErr)
	assert.Equal(t, "malformed createdAt timestamp", protoErr.Reason)
	assert.Equal(t, "last tuesday", protoErr.Output)
}

func TestMalformedUserTimestampIsProtocolError(t *testing.T) {
	client, runner, session := newTestClient(t)
	expectRun(runner, accountJSON, "get", "account", "--session=tok")
	expectRun(runner, `{"uuid":"u1","name":"Ada","email":"ada@acme.test","createdAt":"2020-01-02T03:04:05Z","lastAuthAt":"2020-13-45"}`, "get", "user", "u1", "--session=tok")

	_, err := client.GetUser(context.Background(), session, "u1")
	require.ErrorIs(t, err, domain.ErrProtocol)
	assert.ErrorContains(t, err, "lastAuthAt")
}

func TestGetItemLoginWithoutPasswordFieldKeepsUsername(t *testing.T) {
	client, runner, session := newTestClient(t)
	expectRun(runner, `{"uuid":"i1","templateUuid":"001","vaultUuid":"v1","overview":{"title":"GitHub","ainfo":"octocat"},
		"details":{"fields":[
			{"designation":"username","name":"username","type":"T","value":"octocat"},
			{"designation":"","name":"pin","type":"P","value":"1234"}
		]}}`, "get", "item", "i1", "--session=tok")
	expectItemResolution(runner)

	item, err := client.GetItem(context.Background(), session, "i1", "")
	require.NoError(t, err)

	login, ok := item.(domain.LoginItem)
	require.True(t, ok)
	assert.Equal(t, "octocat", login.Username)
	assert.Nil(t, login.Password)
}
