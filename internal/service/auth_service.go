// FILE: internal/service/auth_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"kasbi-client/internal/constant"
	"kasbi-client/internal/dto"
	"kasbi-client/internal/entity"
	"kasbi-client/internal/mapper"
	"kasbi-client/internal/pkg/httpclient"
	"kasbi-client/internal/pkg/logger"
	"kasbi-client/internal/pkg/validation"
	"kasbi-client/internal/repository/contract"
	"kasbi-client/internal/route"

	"github.com/golang-jwt/jwt/v5"
)

const authModule = "SessionManager"

// IAPIClient is the part of httpclient.Client the services use.
type IAPIClient interface {
	Do(ctx context.Context, req *httpclient.Request) (*httpclient.Response, error)
	DoJSON(ctx context.Context, req *httpclient.Request, out interface{}) error
}

type ISessionManager interface {
	Init(ctx context.Context) error
	Ready() <-chan struct{}
	WaitReady(ctx context.Context) error
	Current() (entity.SessionState, *entity.Session)
	Subscribe(fn SessionListener) (unsubscribe func())

	Login(ctx context.Context, req *dto.LoginRequest) (*entity.Session, error)
	Register(ctx context.Context, req *dto.RegisterRequest) (*entity.Session, error)
	Logout(ctx context.Context)
	HandleSessionExpired(ctx context.Context)
}

type SessionListener func(state entity.SessionState, session *entity.Session)

// AuthError is a rejected login or registration. Message is safe to show.
type AuthError struct {
	Message string
	Err     error
}

func (e *AuthError) Error() string { return e.Message }
func (e *AuthError) Unwrap() error { return e.Err }

// SessionManager owns the in-memory session. It and the HTTP client's refresh
// path are the only writers of the token store.
type SessionManager struct {
	client    IAPIClient
	tokens    contract.TokenRepository
	navigator route.Navigator
	logger    logger.ILogger
	mapper    *mapper.UserMapper

	mu        sync.RWMutex
	state     entity.SessionState
	session   *entity.Session
	listeners map[int]SessionListener
	nextId    int

	ready     chan struct{}
	readyOnce sync.Once
}

func NewSessionManager(client IAPIClient, tokens contract.TokenRepository, navigator route.Navigator, log logger.ILogger) *SessionManager {
	return &SessionManager{
		client:    client,
		tokens:    tokens,
		navigator: navigator,
		logger:    log,
		mapper:    mapper.NewUserMapper(),
		state:     entity.SessionUnknown,
		listeners: make(map[int]SessionListener),
		ready:     make(chan struct{}),
	}
}

// Init restores the persisted session. Anything short of a JWT-shaped access
// token plus a well formed profile counts as logged out, and the leftovers
// are wiped.
func (m *SessionManager) Init(ctx context.Context) error {
	defer m.markReady()

	// an unreadable store is just another inconsistent one
	pair, pairErr := m.tokens.Read(ctx)
	session, sessionErr := m.tokens.ReadSession(ctx)

	if pairErr == nil && sessionErr == nil && consistent(pair, session) {
		m.transition(entity.SessionAuthenticated, session)
		m.logger.Info(authModule, "Session restored", map[string]interface{}{
			"username": session.Username,
			"role":     string(session.Role),
		})
		return nil
	}

	if pair != nil || session != nil || pairErr != nil || sessionErr != nil {
		details := map[string]interface{}{
			"has_tokens":  pair != nil,
			"has_session": session != nil,
		}
		if readErr := errors.Join(pairErr, sessionErr); readErr != nil {
			details["error"] = readErr.Error()
		}
		m.logger.Warn(authModule, "Discarding inconsistent stored session", details)
		if err := m.tokens.Clear(ctx); err != nil {
			m.transition(entity.SessionAnonymous, nil)
			return fmt.Errorf("failed to clear inconsistent session: %w", err)
		}
	}
	m.transition(entity.SessionAnonymous, nil)
	return nil
}

func consistent(pair *entity.TokenPair, session *entity.Session) bool {
	if pair == nil || session == nil {
		return false
	}
	return looksLikeJWT(pair.AccessToken) && session.Username != "" && session.Role.Valid()
}

// looksLikeJWT checks shape only. Signature and expiry are the server's
// business; an expired token is still refreshable.
func looksLikeJWT(token string) bool {
	if token == "" {
		return false
	}
	_, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	return err == nil
}

func (m *SessionManager) markReady() {
	m.readyOnce.Do(func() { close(m.ready) })
}

// Ready is closed once the session is no longer Unknown.
func (m *SessionManager) Ready() <-chan struct{} {
	return m.ready
}

func (m *SessionManager) WaitReady(ctx context.Context) error {
	select {
	case <-m.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *SessionManager) Current() (entity.SessionState, *entity.Session) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.session == nil {
		return m.state, nil
	}
	s := *m.session
	return m.state, &s
}

func (m *SessionManager) Subscribe(fn SessionListener) func() {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextId
	m.nextId++
	m.listeners[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.listeners, id)
	}
}

// transition swaps the state and notifies listeners outside the lock.
func (m *SessionManager) transition(state entity.SessionState, session *entity.Session) {
	m.mu.Lock()
	m.state = state
	m.session = nil
	if session != nil {
		s := *session
		m.session = &s
	}
	listeners := make([]SessionListener, 0, len(m.listeners))
	for _, fn := range m.listeners {
		listeners = append(listeners, fn)
	}
	m.mu.Unlock()

	for _, fn := range listeners {
		var s *entity.Session
		if session != nil {
			cp := *session
			s = &cp
		}
		fn(state, s)
	}
}

func (m *SessionManager) Login(ctx context.Context, req *dto.LoginRequest) (*entity.Session, error) {
	body := dto.LoginRequest{
		Email:    strings.TrimSpace(req.Email),
		Username: strings.TrimSpace(req.Username),
		Password: req.Password,
	}
	switch {
	case body.Email == "" && body.Username == "":
		return nil, validation.New("email", "email or username is required")
	case body.Email != "" && body.Username != "":
		return nil, validation.New("email", "use either email or username, not both")
	}
	if err := validation.Struct(body); err != nil {
		return nil, err
	}

	return m.authenticate(ctx, constant.PathAuthLogin, body, "Login failed")
}

func (m *SessionManager) Register(ctx context.Context, req *dto.RegisterRequest) (*entity.Session, error) {
	body := *req
	body.Username = strings.TrimSpace(body.Username)
	body.Email = strings.TrimSpace(body.Email)
	if err := validation.Struct(body); err != nil {
		return nil, err
	}

	return m.authenticate(ctx, constant.PathAuthRegister, body, "Registration failed")
}

// authenticate is the shared tail of login and register. Nothing is written
// unless the server said yes and its answer is usable.
func (m *SessionManager) authenticate(ctx context.Context, path string, body interface{}, fallback string) (*entity.Session, error) {
	var res dto.AuthResponse
	err := m.client.DoJSON(ctx, &httpclient.Request{
		Method:      http.MethodPost,
		Path:        path,
		Body:        body,
		SkipRefresh: true,
	}, &res)
	if err != nil {
		m.logger.Warn(authModule, "Authentication rejected", map[string]interface{}{
			"path":  path,
			"error": err.Error(),
		})
		return nil, &AuthError{Message: httpclient.UserMessage(err, fallback), Err: err}
	}

	session := m.mapper.ToSession(res)
	if res.AccessToken == "" || session.Username == "" || !session.Role.Valid() {
		m.logger.Error(authModule, "Unusable authentication response", map[string]interface{}{
			"path":     path,
			"username": res.Username,
			"role":     res.Role,
		})
		return nil, &AuthError{Message: fallback, Err: errors.New("incomplete authentication response")}
	}

	if err := m.persist(ctx, entity.TokenPair{AccessToken: res.AccessToken, RefreshToken: res.RefreshToken}, session); err != nil {
		return nil, err
	}

	m.transition(entity.SessionAuthenticated, &session)
	m.markReady()

	m.logger.Info(authModule, "Logged in", map[string]interface{}{
		"username": session.Username,
		"role":     string(session.Role),
	})
	return &session, nil
}

// persist writes tokens and profile and drops the previous user's thread. On
// a partial write the store is wiped so it never holds half a session.
func (m *SessionManager) persist(ctx context.Context, pair entity.TokenPair, session entity.Session) error {
	err := m.tokens.Save(ctx, pair)
	if err == nil {
		err = m.tokens.SaveSession(ctx, session)
	}
	if err == nil {
		err = m.tokens.ClearThreadId(ctx)
	}
	if err != nil {
		_ = m.tokens.Clear(context.WithoutCancel(ctx))
		return fmt.Errorf("failed to persist session: %w", err)
	}
	return nil
}

// Logout always succeeds. The server call is a courtesy.
func (m *SessionManager) Logout(ctx context.Context) {
	pair, err := m.tokens.Read(ctx)
	if err == nil && pair != nil && pair.AccessToken != "" {
		_, err := m.client.Do(ctx, &httpclient.Request{
			Method:      http.MethodPost,
			Path:        constant.PathAuthLogout,
			SkipRefresh: true,
		})
		if err != nil {
			m.logger.Warn(authModule, "Logout request failed", map[string]interface{}{"error": err.Error()})
		}
	}

	if err := m.tokens.Clear(context.WithoutCancel(ctx)); err != nil {
		m.logger.Error(authModule, "Failed to clear token store", map[string]interface{}{"error": err.Error()})
	}

	m.transition(entity.SessionAnonymous, nil)
	m.markReady()
	m.logger.Info(authModule, "Logged out", nil)

	if m.navigator != nil {
		m.navigator.Navigate(ctx, route.LoginPath)
	}
}

// HandleSessionExpired is registered with the HTTP client. The client has
// already cleared the store by the time this runs.
func (m *SessionManager) HandleSessionExpired(ctx context.Context) {
	m.transition(entity.SessionAnonymous, nil)
	m.markReady()
	m.logger.Warn(authModule, "Session expired", nil)

	if m.navigator != nil {
		m.navigator.Navigate(ctx, route.LoginPath)
	}
}
