package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worldscope/countries-api/internal/client/api"
	"github.com/worldscope/countries-api/internal/core/domain"
)

// fakeAPI scripts server behavior per call. Unset functions fail the test if
// reached.
type fakeAPI struct {
	t *testing.T

	registerFn func(ctx context.Context, username, password string) (*api.AuthPayload, error)
	loginFn    func(ctx context.Context, username, password string) (*api.AuthPayload, error)
	listFn     func(ctx context.Context, token string) ([]string, error)
	addFn      func(ctx context.Context, token, code string) ([]string, error)
	removeFn   func(ctx context.Context, token, code string) ([]string, error)
}

func (f *fakeAPI) Register(ctx context.Context, username, password string) (*api.AuthPayload, error) {
	if f.registerFn == nil {
		f.t.Fatal("unexpected Register call")
	}
	return f.registerFn(ctx, username, password)
}

func (f *fakeAPI) Login(ctx context.Context, username, password string) (*api.AuthPayload, error) {
	if f.loginFn == nil {
		f.t.Fatal("unexpected Login call")
	}
	return f.loginFn(ctx, username, password)
}

func (f *fakeAPI) ListFavorites(ctx context.Context, token string) ([]string, error) {
	if f.listFn == nil {
		f.t.Fatal("unexpected ListFavorites call")
	}
	return f.listFn(ctx, token)
}

func (f *fakeAPI) AddFavorite(ctx context.Context, token, code string) ([]string, error) {
	if f.addFn == nil {
		f.t.Fatal("unexpected AddFavorite call")
	}
	return f.addFn(ctx, token, code)
}

func (f *fakeAPI) RemoveFavorite(ctx context.Context, token, code string) ([]string, error) {
	if f.removeFn == nil {
		f.t.Fatal("unexpected RemoveFavorite call")
	}
	return f.removeFn(ctx, token, code)
}

// memStore is an in-memory Store for tests.
type memStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string]string)}
}

func (s *memStore) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok
}

func (s *memStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

func (s *memStore) Delete(keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.data, k)
	}
	return nil
}

func (s *memStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}

var testIdentity = domain.Identity{ID: "u1", Username: "dilmi"}

func authOK(favorites []string) *fakeAPI {
	f := &fakeAPI{}
	f.loginFn = func(context.Context, string, string) (*api.AuthPayload, error) {
		return &api.AuthPayload{User: testIdentity, Token: "token123"}, nil
	}
	f.registerFn = f.loginFn
	f.listFn = func(_ context.Context, token string) ([]string, error) {
		return favorites, nil
	}
	return f
}

func seedStore(t *testing.T, store *memStore, favorites []string) {
	t.Helper()
	rawUser, err := json.Marshal(testIdentity)
	require.NoError(t, err)
	require.NoError(t, store.Set(keyUser, string(rawUser)))
	require.NoError(t, store.Set(keyToken, "token123"))
	rawFavs, err := json.Marshal(favorites)
	require.NoError(t, err)
	require.NoError(t, store.Set(keyFavorites, string(rawFavs)))
}

func TestLogin_Success(t *testing.T) {
	fake := authOK([]string{"CAN", "JPN"})
	fake.t = t
	store := newMemStore()
	m := NewManager(fake, store, zerolog.Nop())

	require.NoError(t, m.Login(context.Background(), "dilmi", "password123"))

	assert.Equal(t, StateAuthenticated, m.State())
	identity, ok := m.Identity()
	require.True(t, ok)
	assert.Equal(t, testIdentity, identity)
	assert.Equal(t, []string{"CAN", "JPN"}, m.Favorites())

	rawUser, ok := store.Get(keyUser)
	require.True(t, ok)
	var persisted domain.Identity
	require.NoError(t, json.Unmarshal([]byte(rawUser), &persisted))
	assert.Equal(t, testIdentity, persisted)

	token, ok := store.Get(keyToken)
	require.True(t, ok)
	assert.Equal(t, "token123", token)
}

func TestLogin_Failure(t *testing.T) {
	fake := &fakeAPI{t: t}
	fake.loginFn = func(context.Context, string, string) (*api.AuthPayload, error) {
		return nil, domain.ErrInvalidCredentials
	}
	store := newMemStore()
	m := NewManager(fake, store, zerolog.Nop())

	err := m.Login(context.Background(), "ghost", "wrongpass1")
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)

	assert.Equal(t, StateAnonymous, m.State())
	_, ok := m.Identity()
	assert.False(t, ok)
	assert.Empty(t, m.Favorites())
	assert.Zero(t, store.len(), "failed login must leave nothing persisted")
}

func TestLogin_RefreshFailureKeepsSession(t *testing.T) {
	fake := authOK(nil)
	fake.t = t
	fake.listFn = func(context.Context, string) ([]string, error) {
		return nil, fmt.Errorf("%w: connection refused", api.ErrUnavailable)
	}
	m := NewManager(fake, newMemStore(), zerolog.Nop())

	require.NoError(t, m.Login(context.Background(), "dilmi", "password123"))

	assert.Equal(t, StateAuthenticated, m.State())
	assert.Empty(t, m.Favorites())
}

func TestToggle_AddsWhenAbsent(t *testing.T) {
	fake := authOK([]string{})
	fake.t = t
	fake.addFn = func(_ context.Context, token, code string) ([]string, error) {
		assert.Equal(t, "token123", token)
		assert.Equal(t, "CAN", code)
		return []string{"CAN"}, nil
	}
	m := NewManager(fake, newMemStore(), zerolog.Nop())
	require.NoError(t, m.Login(context.Background(), "dilmi", "password123"))

	added, err := m.Toggle(context.Background(), "CAN")
	require.NoError(t, err)
	assert.True(t, added)
	assert.Equal(t, []string{"CAN"}, m.Favorites())
	assert.True(t, m.IsFavorite("CAN"))
}

func TestToggle_RemovesWhenPresent(t *testing.T) {
	fake := authOK([]string{"CAN", "JPN"})
	fake.t = t
	fake.removeFn = func(_ context.Context, token, code string) ([]string, error) {
		assert.Equal(t, "CAN", code)
		return []string{"JPN"}, nil
	}
	m := NewManager(fake, newMemStore(), zerolog.Nop())
	require.NoError(t, m.Login(context.Background(), "dilmi", "password123"))

	added, err := m.Toggle(context.Background(), "CAN")
	require.NoError(t, err)
	assert.False(t, added)
	assert.Equal(t, []string{"JPN"}, m.Favorites())
}

func TestToggle_FailureLeavesMirrorUntouched(t *testing.T) {
	fake := authOK([]string{"CAN"})
	fake.t = t
	fake.addFn = func(context.Context, string, string) ([]string, error) {
		return nil, fmt.Errorf("%w: connection refused", api.ErrUnavailable)
	}
	m := NewManager(fake, newMemStore(), zerolog.Nop())
	require.NoError(t, m.Login(context.Background(), "dilmi", "password123"))

	_, err := m.Toggle(context.Background(), "JPN")
	require.ErrorIs(t, err, api.ErrUnavailable)
	assert.Equal(t, []string{"CAN"}, m.Favorites(), "mirror must survive a failed round trip")
}

func TestToggle_Anonymous(t *testing.T) {
	m := NewManager(&fakeAPI{t: t}, newMemStore(), zerolog.Nop())

	_, err := m.Toggle(context.Background(), "CAN")
	require.ErrorIs(t, err, domain.ErrMissingToken)
}

// The server set wins even when it disagrees with what the client expected,
// for example after a mutation from another device.
func TestToggle_ServerSetReplacesMirrorWholesale(t *testing.T) {
	fake := authOK([]string{"CAN"})
	fake.t = t
	fake.addFn = func(context.Context, string, string) ([]string, error) {
		return []string{"CAN", "JPN", "BRA"}, nil
	}
	m := NewManager(fake, newMemStore(), zerolog.Nop())
	require.NoError(t, m.Login(context.Background(), "dilmi", "password123"))

	_, err := m.Toggle(context.Background(), "JPN")
	require.NoError(t, err)
	assert.Equal(t, []string{"CAN", "JPN", "BRA"}, m.Favorites())
}

func TestToggle_LateResponseAfterLogoutDiscarded(t *testing.T) {
	fake := authOK([]string{})
	fake.t = t

	entered := make(chan struct{})
	release := make(chan struct{})
	fake.addFn = func(context.Context, string, string) ([]string, error) {
		close(entered)
		<-release
		return []string{"CAN"}, nil
	}
	store := newMemStore()
	m := NewManager(fake, store, zerolog.Nop())
	require.NoError(t, m.Login(context.Background(), "dilmi", "password123"))

	done := make(chan error, 1)
	go func() {
		_, err := m.Toggle(context.Background(), "CAN")
		done <- err
	}()

	<-entered
	m.Logout()
	close(release)
	require.NoError(t, <-done)

	assert.Equal(t, StateAnonymous, m.State())
	assert.Empty(t, m.Favorites(), "response from before logout must not resurrect the mirror")
	_, ok := store.Get(keyFavorites)
	assert.False(t, ok)
}

func TestLogout_ClearsEverythingAtOnce(t *testing.T) {
	fake := authOK([]string{"CAN"})
	fake.t = t
	store := newMemStore()
	m := NewManager(fake, store, zerolog.Nop())
	require.NoError(t, m.Login(context.Background(), "dilmi", "password123"))

	m.Logout()

	assert.Equal(t, StateAnonymous, m.State())
	_, ok := m.Identity()
	assert.False(t, ok)
	assert.Empty(t, m.Favorites())
	assert.Zero(t, store.len())
}

func TestResume_RestoresPersistedSession(t *testing.T) {
	fake := &fakeAPI{t: t}
	fake.listFn = func(_ context.Context, token string) ([]string, error) {
		assert.Equal(t, "token123", token)
		return []string{"CAN", "JPN"}, nil
	}
	store := newMemStore()
	seedStore(t, store, []string{"CAN"})
	m := NewManager(fake, store, zerolog.Nop())

	state := m.Resume(context.Background())

	assert.Equal(t, StateAuthenticated, state)
	identity, ok := m.Identity()
	require.True(t, ok)
	assert.Equal(t, testIdentity, identity)
	assert.Equal(t, []string{"CAN", "JPN"}, m.Favorites(), "server set replaces the persisted mirror")
}

func TestResume_RejectedTokenDropsToAnonymous(t *testing.T) {
	fake := &fakeAPI{t: t}
	fake.listFn = func(context.Context, string) ([]string, error) {
		return nil, domain.ErrInvalidToken
	}
	store := newMemStore()
	seedStore(t, store, []string{"CAN"})
	m := NewManager(fake, store, zerolog.Nop())

	state := m.Resume(context.Background())

	assert.Equal(t, StateAnonymous, state)
	assert.Zero(t, store.len(), "rejected session must be wiped from the store")
}

func TestResume_TransportFailureKeepsCachedMirror(t *testing.T) {
	fake := &fakeAPI{t: t}
	fake.listFn = func(context.Context, string) ([]string, error) {
		return nil, fmt.Errorf("%w: connection refused", api.ErrUnavailable)
	}
	store := newMemStore()
	seedStore(t, store, []string{"CAN"})
	m := NewManager(fake, store, zerolog.Nop())

	state := m.Resume(context.Background())

	assert.Equal(t, StateAuthenticated, state)
	assert.Equal(t, []string{"CAN"}, m.Favorites(), "offline resume keeps the persisted mirror")
}

func TestResume_NoPersistedSession(t *testing.T) {
	m := NewManager(&fakeAPI{t: t}, newMemStore(), zerolog.Nop())

	assert.Equal(t, StateAnonymous, m.Resume(context.Background()))
}

func TestResume_CorruptUserTreatedAsAbsent(t *testing.T) {
	store := newMemStore()
	require.NoError(t, store.Set(keyUser, "{not json"))
	require.NoError(t, store.Set(keyToken, "token123"))
	m := NewManager(&fakeAPI{t: t}, store, zerolog.Nop())

	state := m.Resume(context.Background())

	assert.Equal(t, StateAnonymous, state)
	assert.Zero(t, store.len())
}

func TestResume_TokenWithoutUserTreatedAsAbsent(t *testing.T) {
	store := newMemStore()
	require.NoError(t, store.Set(keyToken, "token123"))
	m := NewManager(&fakeAPI{t: t}, store, zerolog.Nop())

	assert.Equal(t, StateAnonymous, m.Resume(context.Background()))
	assert.Zero(t, store.len())
}

// Re-login as a different user must never surface the previous user's set,
// even when the old list response arrives after the switch.
func TestRelogin_StaleListFromPreviousUserDiscarded(t *testing.T) {
	fake := &fakeAPI{t: t}
	fake.loginFn = func(_ context.Context, username, _ string) (*api.AuthPayload, error) {
		return &api.AuthPayload{
			User:  domain.Identity{ID: username, Username: username},
			Token: "token-" + username,
		}, nil
	}

	release := make(chan struct{})
	var listCalls int
	var mu sync.Mutex
	fake.listFn = func(_ context.Context, token string) ([]string, error) {
		mu.Lock()
		listCalls++
		first := listCalls == 1
		mu.Unlock()
		if first {
			<-release
			return []string{"CAN"}, nil // old user's set, arriving late
		}
		return []string{"JPN"}, nil
	}

	m := NewManager(fake, newMemStore(), zerolog.Nop())

	done := make(chan error, 1)
	go func() { done <- m.Login(context.Background(), "alice", "password123") }()

	// Second login completes while the first refresh is still in flight.
	// It observes listCalls == 2 only after the first call is underway, so
	// gate on the fake recording the first call.
	for {
		mu.Lock()
		started := listCalls >= 1
		mu.Unlock()
		if started {
			break
		}
		time.Sleep(time.Millisecond)
	}
	require.NoError(t, m.Login(context.Background(), "bob", "password123"))
	close(release)
	require.NoError(t, <-done)

	assert.Equal(t, []string{"JPN"}, m.Favorites(), "late response from the previous session must be discarded")
	identity, ok := m.Identity()
	require.True(t, ok)
	assert.Equal(t, "bob", identity.Username)
}
