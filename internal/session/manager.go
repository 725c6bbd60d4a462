package session

import (
	"context"
	"strings"
	"sync"

	"github.com/lukman83/buysmart/internal/api"
	"github.com/lukman83/buysmart/internal/metrics"
	"github.com/lukman83/buysmart/internal/models"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Backend is the slice of the API the session lifecycle needs.
type Backend interface {
	Register(ctx context.Context, name, email, password string) error
	Login(ctx context.Context, email, password string) (*api.LoginResponse, error)
	Me(ctx context.Context) (*models.User, error)
	Logout(ctx context.Context) error
}

// Session is the client's view of who is signed in. A nil User means
// anonymous.
type Session struct {
	User *models.User
}

func (s Session) Anonymous() bool { return s.User == nil }

type credentials struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Manager owns the authentication lifecycle. It is the only writer of the
// Vault.
type Manager struct {
	backend Backend
	vault   *Vault
	logger  *zap.Logger
	metrics *metrics.Metrics

	mu              sync.RWMutex
	user            *models.User
	onAuthenticated []func(context.Context)
	onLogout        []func()
}

func NewManager(backend Backend, vault *Vault, logger *zap.Logger, m *metrics.Metrics) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{backend: backend, vault: vault, logger: logger, metrics: m}
}

// OnAuthenticated registers fn to run after a successful bootstrap or login.
func (m *Manager) OnAuthenticated(fn func(context.Context)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onAuthenticated = append(m.onAuthenticated, fn)
}

// OnLogout registers fn to run after the session is dropped.
func (m *Manager) OnLogout(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onLogout = append(m.onLogout, fn)
}

// Current returns the current session.
func (m *Manager) Current() Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return Session{}
	}
	u := *m.user
	return Session{User: &u}
}

// Authenticated reports whether a user is signed in.
func (m *Manager) Authenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.user != nil
}

// Bootstrap re-validates a persisted credential and runs the authenticated
// hooks. Any failure drops the credential and leaves the session anonymous;
// nothing is returned as an error.
func (m *Manager) Bootstrap(ctx context.Context) Session {
	s := m.Resume(ctx)
	if !s.Anonymous() {
		m.runAuthenticated(ctx)
	}
	return s
}

// Resume is Bootstrap without the authenticated hooks, for callers that
// reload dependent data themselves.
func (m *Manager) Resume(ctx context.Context) Session {
	if m.vault.Token() == "" {
		return Session{}
	}

	user, err := m.backend.Me(ctx)
	if err == nil && (user == nil || user.ID == "") {
		err = api.AuthError{Op: "auth.me", Message: "response carried no user"}
	}
	if err != nil {
		m.logger.Info("stored credential rejected, continuing anonymously",
			zap.String("reason", api.ErrorLabel(err)), zap.Error(err))
		m.drop()
		return Session{}
	}

	m.setUser(user)
	return m.Current()
}

// Login exchanges credentials for a token and stores it.
func (m *Manager) Login(ctx context.Context, email, password string) (Session, error) {
	in := loginInput{Email: strings.TrimSpace(email), Password: password}
	if err := api.CheckStruct(in); err != nil {
		return Session{}, err
	}

	resp, err := m.backend.Login(ctx, in.Email, in.Password)
	if err != nil {
		return Session{}, errors.Wrap(err, "login")
	}

	if err := m.vault.set(resp.Token); err != nil {
		m.recordSecondary("credential.save", err)
	}
	user := resp.User
	m.setUser(&user)
	m.logger.Info("signed in", zap.String("email", user.Email))

	m.runAuthenticated(ctx)
	return m.Current(), nil
}

// Register creates the account and then signs in with the same credentials.
// A failed sign-in after a successful registration is reported as a login
// failure.
func (m *Manager) Register(ctx context.Context, name, email, password string) (Session, error) {
	in := credentials{Name: strings.TrimSpace(name), Email: strings.TrimSpace(email), Password: password}
	if err := api.CheckStruct(in); err != nil {
		return Session{}, err
	}

	if err := m.backend.Register(ctx, in.Name, in.Email, in.Password); err != nil {
		return Session{}, errors.Wrap(err, "register")
	}
	m.logger.Info("account registered", zap.String("email", in.Email))

	s, err := m.Login(ctx, in.Email, in.Password)
	if err != nil {
		return Session{}, errors.Wrap(err, "account created but sign-in failed")
	}
	return s, nil
}

// Logout tells the backend on a best-effort basis and always clears local
// state.
func (m *Manager) Logout(ctx context.Context) {
	if m.vault.Token() != "" {
		if err := m.backend.Logout(ctx); err != nil {
			m.recordSecondary("auth.logout", err)
		}
	}
	m.drop()

	m.mu.RLock()
	hooks := append([]func(){}, m.onLogout...)
	m.mu.RUnlock()
	for _, fn := range hooks {
		fn()
	}
}

func (m *Manager) drop() {
	if err := m.vault.clear(); err != nil {
		m.recordSecondary("credential.delete", err)
	}
	m.setUser(nil)
}

func (m *Manager) setUser(u *models.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.user = u
}

func (m *Manager) runAuthenticated(ctx context.Context) {
	m.mu.RLock()
	hooks := append([]func(context.Context){}, m.onAuthenticated...)
	m.mu.RUnlock()
	for _, fn := range hooks {
		fn(ctx)
	}
}

// recordSecondary is where ignored failures end up.
func (m *Manager) recordSecondary(op string, err error) {
	failure := api.SecondaryFailure{Op: op, Err: err}
	m.metrics.IncSecondaryFailure(op)
	m.logger.Warn("ignored failure", zap.String("op", op), zap.Error(failure))
}
