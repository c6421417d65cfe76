package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"

	"restomanager/client/internal/bus"
	"restomanager/client/internal/domain"
	"restomanager/client/internal/persist"
	"restomanager/client/internal/remote"
)

const (
	keyToken = "authToken"
	keyUser  = "userData"
)

var ErrNotAuthenticated = errors.New("not authenticated")

// Manager owns the auth lifecycle: it logs in against the backend,
// caches the token and profile in the keyring, and announces auth
// changes on the bus so the sync layer re-hydrates.
type Manager struct {
	client *remote.Client
	keys   persist.Keyring
	events *bus.Bus
	log    *logrus.Entry

	mu   sync.Mutex
	user *domain.User
}

func NewManager(client *remote.Client, keys persist.Keyring, events *bus.Bus) *Manager {
	return &Manager{
		client: client,
		keys:   keys,
		events: events,
		log:    logrus.WithField("component", "session"),
	}
}

// Token implements remote.TokenSource. A stored token past its expiry
// claim is treated as absent.
func (m *Manager) Token(ctx context.Context) (string, bool) {
	token, ok, err := m.keys.Get(ctx, keyToken)
	if err != nil {
		m.log.WithError(err).Warn("failed to read stored token")
		return "", false
	}
	if !ok || token == "" {
		return "", false
	}
	if tokenExpired(token) {
		return "", false
	}
	return token, true
}

// HasValidSession reports whether a usable stored token exists.
func (m *Manager) HasValidSession(ctx context.Context) bool {
	_, ok := m.Token(ctx)
	return ok
}

func (m *Manager) Login(ctx context.Context, email string, password string) (domain.User, error) {
	creds, err := m.client.Login(ctx, email, password)
	if err != nil {
		return domain.User{}, err
	}
	if creds.Token == "" {
		return domain.User{}, fmt.Errorf("%w: login response missing token", remote.ErrInvalidServerData)
	}

	m.storeCredentials(ctx, creds)
	m.events.Publish(bus.EventAuthenticated, creds.User)
	m.log.WithField("user", creds.User.Email).Info("session started")
	return creds.User, nil
}

func (m *Manager) Register(ctx context.Context, req domain.RegisterRequest) (domain.User, error) {
	creds, err := m.client.Register(ctx, req)
	if err != nil {
		return domain.User{}, err
	}
	if creds.Token == "" {
		return domain.User{}, fmt.Errorf("%w: register response missing token", remote.ErrInvalidServerData)
	}

	m.storeCredentials(ctx, creds)
	m.events.Publish(bus.EventAuthenticated, creds.User)
	m.log.WithField("user", creds.User.Email).Info("account registered")
	return creds.User, nil
}

func (m *Manager) Logout(ctx context.Context) {
	if err := m.keys.Delete(ctx, keyToken); err != nil {
		m.log.WithError(err).Warn("failed to drop stored token")
	}
	if err := m.keys.Delete(ctx, keyUser); err != nil {
		m.log.WithError(err).Warn("failed to drop cached profile")
	}

	m.mu.Lock()
	m.user = nil
	m.mu.Unlock()

	m.events.Publish(bus.EventLoggedOut, nil)
	m.log.Info("session ended")
}

// CurrentUser returns the profile from memory or the keyring cache.
func (m *Manager) CurrentUser(ctx context.Context) (domain.User, bool) {
	m.mu.Lock()
	if m.user != nil {
		user := *m.user
		m.mu.Unlock()
		return user, true
	}
	m.mu.Unlock()

	raw, ok, err := m.keys.Get(ctx, keyUser)
	if err != nil || !ok {
		return domain.User{}, false
	}
	var user domain.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		m.log.WithError(err).Warn("cached profile unreadable")
		return domain.User{}, false
	}

	m.mu.Lock()
	m.user = &user
	m.mu.Unlock()
	return user, true
}

// RefreshUser re-fetches the profile from the backend and updates the
// cache.
func (m *Manager) RefreshUser(ctx context.Context) (domain.User, error) {
	user, err := m.client.CurrentUser(ctx)
	if err != nil {
		return domain.User{}, err
	}
	m.cacheUser(ctx, user)
	return user, nil
}

func (m *Manager) UpdatePreferences(ctx context.Context, prefs domain.Preferences) (domain.User, error) {
	user, err := m.client.UpdatePreferences(ctx, prefs)
	if err != nil {
		return domain.User{}, err
	}
	m.cacheUser(ctx, user)
	return user, nil
}

func (m *Manager) storeCredentials(ctx context.Context, creds domain.Credentials) {
	if err := m.keys.Set(ctx, keyToken, creds.Token); err != nil {
		m.log.WithError(err).Warn("failed to store token")
	}
	m.cacheUser(ctx, creds.User)
}

func (m *Manager) cacheUser(ctx context.Context, user domain.User) {
	m.mu.Lock()
	m.user = &user
	m.mu.Unlock()

	payload, err := json.Marshal(user)
	if err != nil {
		m.log.WithError(err).Warn("failed to encode profile")
		return
	}
	if err := m.keys.Set(ctx, keyUser, string(payload)); err != nil {
		m.log.WithError(err).Warn("failed to cache profile")
	}
}

// tokenExpired inspects the token's exp claim without verifying the
// signature; verification is the backend's job, this only avoids
// hydrating with a token the server is guaranteed to reject.
func tokenExpired(token string) bool {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		// Not a JWT; let the backend decide.
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(time.Now())
}
