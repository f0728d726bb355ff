// Package session holds the client-side session cache: the current
// identity, token, and a locally mirrored favorites set that drives instant
// feedback while the server stays the source of truth.
//
// Reconciliation contract: after every successful list/add/remove round
// trip the mirror is replaced wholesale with the server's returned set;
// a failed round trip leaves the mirror exactly as it was; a response that
// lands after the session changed hands (logout, re-login) is discarded.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/worldscope/countries-api/internal/client/api"
	"github.com/worldscope/countries-api/internal/core/domain"
)

// State is the session lifecycle position. Identity and token are present
// iff the state is StateAuthenticated; the Manager never exposes one
// without the other.
type State int

const (
	StateAnonymous State = iota
	StateAuthenticating
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "anonymous"
	}
}

// Fixed keys in the persisted store. The names match what the original web
// client kept in browser storage.
const (
	keyUser      = "user"
	keyToken     = "token"
	keyFavorites = "favoriteCountries"
)

// API is the subset of the server client the session cache drives.
type API interface {
	Register(ctx context.Context, username, password string) (*api.AuthPayload, error)
	Login(ctx context.Context, username, password string) (*api.AuthPayload, error)
	ListFavorites(ctx context.Context, token string) ([]string, error)
	AddFavorite(ctx context.Context, token, code string) ([]string, error)
	RemoveFavorite(ctx context.Context, token, code string) ([]string, error)
}

// Manager owns the ClientSession. All reads and transitions go through its
// lock; network calls happen outside it, and their results are applied only
// if the session generation has not moved in the meantime.
type Manager struct {
	api    API
	store  Store
	logger zerolog.Logger

	mu         sync.Mutex
	state      State
	identity   domain.Identity
	token      string
	favorites  []string
	generation uint64
}

func NewManager(client API, store Store, logger zerolog.Logger) *Manager {
	return &Manager{
		api:       client,
		store:     store,
		logger:    logger,
		state:     StateAnonymous,
		favorites: []string{},
	}
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Identity returns the authenticated identity, if any.
func (m *Manager) Identity() (domain.Identity, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.identity, m.state == StateAuthenticated
}

// Favorites returns a copy of the mirrored favorites set.
func (m *Manager) Favorites() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.favorites))
	copy(out, m.favorites)
	return out
}

// IsFavorite reports current membership in the mirror.
func (m *Manager) IsFavorite(code string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return contains(m.favorites, code)
}

// Login authenticates and, on success, pulls the authoritative favorites
// set. On failure the session is Anonymous with nothing retained.
func (m *Manager) Login(ctx context.Context, username, password string) error {
	return m.authenticate(ctx, func() (*api.AuthPayload, error) {
		return m.api.Login(ctx, username, password)
	})
}

// Register creates an account and enters the authenticated state, exactly
// like Login.
func (m *Manager) Register(ctx context.Context, username, password string) error {
	return m.authenticate(ctx, func() (*api.AuthPayload, error) {
		return m.api.Register(ctx, username, password)
	})
}

func (m *Manager) authenticate(ctx context.Context, call func() (*api.AuthPayload, error)) error {
	m.mu.Lock()
	m.state = StateAuthenticating
	m.mu.Unlock()

	payload, err := call()
	if err != nil {
		m.resetLocked()
		return err
	}

	m.mu.Lock()
	m.identity = payload.User
	m.token = payload.Token
	m.state = StateAuthenticated
	m.favorites = []string{}
	m.generation++
	gen := m.generation
	token := m.token
	m.mu.Unlock()

	m.persistAuth(payload)

	// Pull server truth for the mirror. A failure here leaves an empty
	// mirror; the session itself stays authenticated.
	if err := m.refresh(ctx, token, gen); err != nil {
		m.logger.Warn().Err(err).Msg("favorites refresh after auth failed")
	}
	return nil
}

// Resume restores a persisted session at process start. The cache enters
// the authenticated state optimistically and immediately revalidates with a
// list call: a token rejection drops straight back to Anonymous and wipes
// the persisted pair, while a transport failure keeps the persisted mirror
// as a best-effort view.
func (m *Manager) Resume(ctx context.Context) State {
	rawUser, okUser := m.store.Get(keyUser)
	token, okToken := m.store.Get(keyToken)

	var identity domain.Identity
	if okUser {
		if err := json.Unmarshal([]byte(rawUser), &identity); err != nil {
			okUser = false
		}
	}
	// A partially populated or corrupt pair is no session at all.
	if !okUser || !okToken || identity.ID == "" || identity.Username == "" || token == "" {
		_ = m.store.Delete(keyUser, keyToken, keyFavorites)
		return StateAnonymous
	}

	favorites := []string{}
	if rawFavs, ok := m.store.Get(keyFavorites); ok {
		var parsed []string
		if err := json.Unmarshal([]byte(rawFavs), &parsed); err == nil && parsed != nil {
			favorites = parsed
		}
	}

	m.mu.Lock()
	m.identity = identity
	m.token = token
	m.state = StateAuthenticated
	m.favorites = favorites
	m.generation++
	gen := m.generation
	m.mu.Unlock()

	if err := m.refresh(ctx, token, gen); err != nil {
		if isAuthError(err) {
			m.logger.Info().Msg("persisted session rejected, dropping to anonymous")
			m.Logout()
			return StateAnonymous
		}
		m.logger.Warn().Err(err).Msg("favorites refresh on resume failed")
	}
	return m.State()
}

// Logout clears identity, token and mirror atomically; no observer can see
// a partially cleared session. Any in-flight response is invalidated by the
// generation bump.
func (m *Manager) Logout() {
	m.resetLocked()
}

// Toggle flips membership of code: present codes are removed, absent codes
// added. The decision reads the in-memory mirror, so back-to-back toggles
// act on the latest intent. On success the mirror is replaced with the
// server's set; on failure it is left untouched and the error returned.
func (m *Manager) Toggle(ctx context.Context, code string) (added bool, err error) {
	m.mu.Lock()
	if m.state != StateAuthenticated {
		m.mu.Unlock()
		return false, domain.ErrMissingToken
	}
	token := m.token
	gen := m.generation
	present := contains(m.favorites, code)
	m.mu.Unlock()

	var updated []string
	if present {
		updated, err = m.api.RemoveFavorite(ctx, token, code)
	} else {
		updated, err = m.api.AddFavorite(ctx, token, code)
	}
	if err != nil {
		return false, err
	}

	m.applyFavorites(updated, gen)
	return !present, nil
}

// Refresh replaces the mirror with the server's current set.
func (m *Manager) Refresh(ctx context.Context) error {
	m.mu.Lock()
	if m.state != StateAuthenticated {
		m.mu.Unlock()
		return domain.ErrMissingToken
	}
	token := m.token
	gen := m.generation
	m.mu.Unlock()

	return m.refresh(ctx, token, gen)
}

func (m *Manager) refresh(ctx context.Context, token string, gen uint64) error {
	favorites, err := m.api.ListFavorites(ctx, token)
	if err != nil {
		return err
	}
	m.applyFavorites(favorites, gen)
	return nil
}

// applyFavorites installs a server-returned set wholesale, unless the
// session generation moved while the request was in flight — a late
// response from before a logout or re-login is discarded, never reapplied.
func (m *Manager) applyFavorites(favorites []string, gen uint64) {
	if favorites == nil {
		favorites = []string{}
	}

	m.mu.Lock()
	if m.generation != gen || m.state != StateAuthenticated {
		m.mu.Unlock()
		m.logger.Debug().Msg("discarding stale favorites response")
		return
	}
	m.favorites = favorites
	m.mu.Unlock()

	if raw, err := json.Marshal(favorites); err == nil {
		if err := m.store.Set(keyFavorites, string(raw)); err != nil {
			m.logger.Warn().Err(err).Msg("persisting favorites failed")
		}
	}
}

// resetLocked drops to Anonymous in a single critical section and wipes the
// persisted keys.
func (m *Manager) resetLocked() {
	m.mu.Lock()
	m.identity = domain.Identity{}
	m.token = ""
	m.favorites = []string{}
	m.state = StateAnonymous
	m.generation++
	m.mu.Unlock()

	if err := m.store.Delete(keyUser, keyToken, keyFavorites); err != nil {
		m.logger.Warn().Err(err).Msg("clearing persisted session failed")
	}
}

func (m *Manager) persistAuth(payload *api.AuthPayload) {
	rawUser, err := json.Marshal(payload.User)
	if err != nil {
		return
	}
	if err := m.store.Set(keyUser, string(rawUser)); err != nil {
		m.logger.Warn().Err(err).Msg("persisting identity failed")
		return
	}
	if err := m.store.Set(keyToken, payload.Token); err != nil {
		m.logger.Warn().Err(err).Msg("persisting token failed")
		// Keep both-or-neither in durable state too.
		_ = m.store.Delete(keyUser)
	}
}

// isAuthError reports whether err means the server rejected the session
// itself, as opposed to a transient transport problem.
func isAuthError(err error) bool {
	return errors.Is(err, domain.ErrInvalidToken) ||
		errors.Is(err, domain.ErrMissingToken) ||
		errors.Is(err, domain.ErrUserNotFound)
}

func contains(codes []string, code string) bool {
	for _, c := range codes {
		if c == code {
			return true
		}
	}
	return false
}
