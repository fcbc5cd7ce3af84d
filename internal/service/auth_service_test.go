package service

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"kasbi-client/internal/constant"
	"kasbi-client/internal/dto"
	"kasbi-client/internal/entity"
	"kasbi-client/internal/pkg/httpclient"
	"kasbi-client/internal/pkg/logger"
	"kasbi-client/internal/pkg/validation"
	"kasbi-client/internal/repository/implementation"
	"kasbi-client/internal/repository/memory"
	"kasbi-client/internal/route"
	"kasbi-client/internal/testutil/fakeapi"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "admin"}).SignedString([]byte("k"))
	require.NoError(t, err)
	return token
}

func TestInitRestoresConsistentSession(t *testing.T) {
	ctx := context.Background()
	tokens := memory.NewTokenRepository()
	require.NoError(t, tokens.Save(ctx, entity.TokenPair{AccessToken: signedToken(t), RefreshToken: "r"}))
	require.NoError(t, tokens.SaveSession(ctx, entity.Session{Username: "admin", Role: entity.UserRoleAdmin}))

	sm := NewSessionManager(nil, tokens, nil, logger.NewNopLogger())
	state, _ := sm.Current()
	assert.Equal(t, entity.SessionUnknown, state)

	require.NoError(t, sm.Init(ctx))
	<-sm.Ready()

	state, session := sm.Current()
	assert.Equal(t, entity.SessionAuthenticated, state)
	assert.Equal(t, &entity.Session{Username: "admin", Role: entity.UserRoleAdmin}, session)
}

func TestInitDiscardsInconsistentSession(t *testing.T) {
	tests := []struct {
		name    string
		pair    *entity.TokenPair
		session *entity.Session
	}{
		{"token without profile", &entity.TokenPair{AccessToken: "x.y.z", RefreshToken: "r"}, nil},
		{"profile without token", nil, &entity.Session{Username: "admin", Role: entity.UserRoleAdmin}},
		{"token is not a jwt", &entity.TokenPair{AccessToken: "not-a-jwt"}, &entity.Session{Username: "admin", Role: entity.UserRoleAdmin}},
		{"unknown role", &entity.TokenPair{AccessToken: "valid"}, &entity.Session{Username: "admin", Role: "root"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			tokens := memory.NewTokenRepository()
			if tt.pair != nil {
				pair := *tt.pair
				if pair.AccessToken == "valid" {
					pair.AccessToken = signedToken(t)
				}
				require.NoError(t, tokens.Save(ctx, pair))
			}
			if tt.session != nil {
				require.NoError(t, tokens.SaveSession(ctx, *tt.session))
			}
			require.NoError(t, tokens.SaveThreadId(ctx, "4"))

			sm := NewSessionManager(nil, tokens, nil, logger.NewNopLogger())
			require.NoError(t, sm.Init(ctx))

			state, session := sm.Current()
			assert.Equal(t, entity.SessionAnonymous, state)
			assert.Nil(t, session)

			pair, err := tokens.Read(ctx)
			require.NoError(t, err)
			assert.Nil(t, pair)
			stored, err := tokens.ReadSession(ctx)
			require.NoError(t, err)
			assert.Nil(t, stored)
			threadId, err := tokens.ReadThreadId(ctx)
			require.NoError(t, err)
			assert.Empty(t, threadId)
		})
	}
}

func TestInitRecoversFromCorruptStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
	tokens := implementation.NewTokenRepository(implementation.NewFileStore(path))

	api := fakeapi.New(t)
	log := logger.NewNopLogger()
	client := httpclient.New(httpclient.Config{BaseURL: api.URL, Timeout: 5 * time.Second}, tokens, log)
	sm := NewSessionManager(client, tokens, nil, log)

	require.NoError(t, sm.Init(ctx))
	state, session := sm.Current()
	assert.Equal(t, entity.SessionAnonymous, state)
	assert.Nil(t, session)

	// the file was rewritten, so the store reads cleanly again
	pair, err := tokens.Read(ctx)
	require.NoError(t, err)
	assert.Nil(t, pair)

	_, err = sm.Login(ctx, &dto.LoginRequest{Username: "admin1", Password: fakeapi.DefaultPassword})
	require.NoError(t, err)
	state, _ = sm.Current()
	assert.Equal(t, entity.SessionAuthenticated, state)
}

func TestLoginPersistsServerRole(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	session := env.login(t, "admin1")
	assert.Equal(t, entity.UserRoleSuperAdmin, session.Role)

	state, current := env.sessions.Current()
	assert.Equal(t, entity.SessionAuthenticated, state)
	assert.Equal(t, "admin1", current.Username)

	pair, err := env.tokens.Read(ctx)
	require.NoError(t, err)
	require.NotNil(t, pair)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)

	stored, err := env.tokens.ReadSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, current, stored)
}

func TestLoginRoleDrivesManageAdminsEntry(t *testing.T) {
	labels := func(role entity.UserRole) []string {
		var out []string
		for _, it := range route.AdminNavItems(role) {
			out = append(out, it.Label)
		}
		return out
	}

	env := newTestEnv(t)
	super := env.login(t, "admin1")
	assert.Contains(t, labels(super.Role), route.ManageAdminsLabel)

	admin := env.login(t, "admin")
	assert.NotContains(t, labels(admin.Role), route.ManageAdminsLabel)
}

func TestLoginByEmail(t *testing.T) {
	env := newTestEnv(t)

	session, err := env.sessions.Login(context.Background(), &dto.LoginRequest{
		Email:    " budi@kasbi.id ",
		Password: "secret123",
	})
	require.NoError(t, err)
	assert.Equal(t, entity.UserRoleUser, session.Role)
	assert.Equal(t, "budi", session.Username)
}

func TestLoginValidationSkipsNetwork(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  dto.LoginRequest
	}{
		{"neither identifier", dto.LoginRequest{Password: "secret123"}},
		{"both identifiers", dto.LoginRequest{Email: "a@kasbi.id", Username: "admin", Password: "secret123"}},
		{"missing password", dto.LoginRequest{Username: "admin"}},
		{"malformed email", dto.LoginRequest{Email: "not-an-email", Password: "secret123"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.sessions.Login(ctx, &tt.req)
			var vErr *validation.ValidationError
			assert.True(t, errors.As(err, &vErr), "got %v", err)
		})
	}
	assert.Zero(t, env.api.Hits(http.MethodPost, constant.PathAuthLogin))
}

func TestLoginFailureLeavesStateAlone(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.sessions.Login(ctx, &dto.LoginRequest{Username: "admin", Password: "wrong-password"})
	var authErr *AuthError
	require.True(t, errors.As(err, &authErr))
	assert.Equal(t, "Email atau password salah", authErr.Message)
	assert.True(t, errors.Is(err, httpclient.ErrUnauthorized))

	state, _ := env.sessions.Current()
	assert.Equal(t, entity.SessionAnonymous, state)
	pair, err := env.tokens.Read(ctx)
	require.NoError(t, err)
	assert.Nil(t, pair)
	assert.Zero(t, env.api.Hits(http.MethodPost, constant.PathAuthRefresh))
}

func TestLoginNetworkFailure(t *testing.T) {
	tokens := memory.NewTokenRepository()
	log := logger.NewNopLogger()
	client := httpclient.New(httpclient.Config{BaseURL: "http://127.0.0.1:1"}, tokens, log)
	sm := NewSessionManager(client, tokens, nil, log)
	require.NoError(t, sm.Init(context.Background()))

	_, err := sm.Login(context.Background(), &dto.LoginRequest{Username: "admin", Password: "secret123"})
	var authErr *AuthError
	require.True(t, errors.As(err, &authErr))
	assert.Equal(t, "Tidak dapat terhubung ke server. Silakan coba lagi.", authErr.Message)
	assert.True(t, errors.Is(err, httpclient.ErrNetwork))
}

func TestRegisterLogsIn(t *testing.T) {
	env := newTestEnv(t)

	session, err := env.sessions.Register(context.Background(), &dto.RegisterRequest{
		Username:        "sari",
		Email:           "sari@kasbi.id",
		Password:        "rahasia123",
		ConfirmPassword: "rahasia123",
		Role:            "user",
	})
	require.NoError(t, err)
	assert.Equal(t, &entity.Session{Username: "sari", Role: entity.UserRoleUser}, session)
	assert.True(t, env.api.HasUser("sari"))

	state, _ := env.sessions.Current()
	assert.Equal(t, entity.SessionAuthenticated, state)
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	valid := dto.RegisterRequest{
		Username:        "sari",
		Email:           "sari@kasbi.id",
		Password:        "rahasia123",
		ConfirmPassword: "rahasia123",
		Role:            "user",
	}

	tests := []struct {
		name   string
		mutate func(r *dto.RegisterRequest)
		field  string
	}{
		{"password mismatch", func(r *dto.RegisterRequest) { r.ConfirmPassword = "lain12345" }, "confirmpassword"},
		{"short password", func(r *dto.RegisterRequest) { r.Password, r.ConfirmPassword = "abc", "abc" }, "password"},
		{"unknown role", func(r *dto.RegisterRequest) { r.Role = "root" }, "role"},
		{"bad email", func(r *dto.RegisterRequest) { r.Email = "sari" }, "email"},
		{"short username", func(r *dto.RegisterRequest) { r.Username = "ab" }, "username"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)
			_, err := env.sessions.Register(ctx, &req)

			var vErr *validation.ValidationError
			require.True(t, errors.As(err, &vErr), "got %v", err)
			assert.Contains(t, vErr.Fields, tt.field)
		})
	}
	assert.Zero(t, env.api.Hits(http.MethodPost, constant.PathAuthRegister))
}

func TestRegisterDuplicate(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.sessions.Register(context.Background(), &dto.RegisterRequest{
		Username:        "admin",
		Email:           "other@kasbi.id",
		Password:        "rahasia123",
		ConfirmPassword: "rahasia123",
		Role:            "user",
	})
	var authErr *AuthError
	require.True(t, errors.As(err, &authErr))
	assert.Equal(t, "Username atau email sudah terdaftar", authErr.Message)

	state, _ := env.sessions.Current()
	assert.Equal(t, entity.SessionAnonymous, state)
}

func TestLogoutWhenAnonymousIsNoop(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.sessions.Logout(ctx)
	env.sessions.Logout(ctx)

	state, _ := env.sessions.Current()
	assert.Equal(t, entity.SessionAnonymous, state)
	pair, err := env.tokens.Read(ctx)
	require.NoError(t, err)
	assert.Nil(t, pair)
	assert.Zero(t, env.api.Hits(http.MethodPost, constant.PathAuthLogout))
	assert.Equal(t, []string{route.LoginPath, route.LoginPath}, env.nav.Paths())
}

func TestLogoutClearsEverything(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.login(t, "admin")
	require.NoError(t, env.tokens.SaveThreadId(ctx, "3"))

	env.sessions.Logout(ctx)

	assert.Equal(t, 1, env.api.Hits(http.MethodPost, constant.PathAuthLogout))
	state, session := env.sessions.Current()
	assert.Equal(t, entity.SessionAnonymous, state)
	assert.Nil(t, session)

	pair, err := env.tokens.Read(ctx)
	require.NoError(t, err)
	assert.Nil(t, pair)
	threadId, err := env.tokens.ReadThreadId(ctx)
	require.NoError(t, err)
	assert.Empty(t, threadId)
}

func TestLogoutSurvivesUnreachableServer(t *testing.T) {
	ctx := context.Background()
	tokens := memory.NewTokenRepository()
	require.NoError(t, tokens.Save(ctx, entity.TokenPair{AccessToken: signedToken(t), RefreshToken: "r"}))
	require.NoError(t, tokens.SaveSession(ctx, entity.Session{Username: "admin", Role: entity.UserRoleAdmin}))

	log := logger.NewNopLogger()
	client := httpclient.New(httpclient.Config{BaseURL: "http://127.0.0.1:1"}, tokens, log)
	sm := NewSessionManager(client, tokens, nil, log)
	require.NoError(t, sm.Init(ctx))

	sm.Logout(ctx)

	state, _ := sm.Current()
	assert.Equal(t, entity.SessionAnonymous, state)
	pair, err := tokens.Read(ctx)
	require.NoError(t, err)
	assert.Nil(t, pair)
}

func TestExpiredTokenRefreshesTransparently(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.login(t, "admin")
	before, err := env.tokens.Read(ctx)
	require.NoError(t, err)

	env.api.ExpireAccessTokens()

	var out dto.ChatThreadsResponse
	require.NoError(t, env.client.DoJSON(ctx, &httpclient.Request{Method: http.MethodGet, Path: constant.PathChatThreads}, &out))
	assert.Equal(t, 1, env.api.Hits(http.MethodPost, constant.PathAuthRefresh))
	assert.Equal(t, 2, env.api.Hits(http.MethodGet, constant.PathChatThreads))

	after, err := env.tokens.Read(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, before.AccessToken, after.AccessToken)
	assert.NotEqual(t, before.RefreshToken, after.RefreshToken)

	state, _ := env.sessions.Current()
	assert.Equal(t, entity.SessionAuthenticated, state)
}

func TestFailedRefreshEndsSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.login(t, "admin")

	var events []entity.SessionState
	env.sessions.Subscribe(func(state entity.SessionState, _ *entity.Session) {
		events = append(events, state)
	})

	env.api.ExpireAccessTokens()
	env.api.RejectRefresh(true)

	err := env.client.DoJSON(ctx, &httpclient.Request{Method: http.MethodGet, Path: constant.PathChatThreads}, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpclient.ErrSessionExpired))
	assert.Equal(t, 1, env.api.Hits(http.MethodPost, constant.PathAuthRefresh))
	assert.Equal(t, 1, env.api.Hits(http.MethodGet, constant.PathChatThreads))

	state, _ := env.sessions.Current()
	assert.Equal(t, entity.SessionAnonymous, state)
	assert.Equal(t, []entity.SessionState{entity.SessionAnonymous}, events)
	assert.Equal(t, []string{route.LoginPath}, env.nav.Paths())

	pair, err := env.tokens.Read(ctx)
	require.NoError(t, err)
	assert.Nil(t, pair)
}

func TestSubscribeAndUnsubscribe(t *testing.T) {
	env := newTestEnv(t)

	var seen []entity.SessionState
	unsubscribe := env.sessions.Subscribe(func(state entity.SessionState, session *entity.Session) {
		seen = append(seen, state)
	})

	env.login(t, "budi")
	unsubscribe()
	env.sessions.Logout(context.Background())

	assert.Equal(t, []entity.SessionState{entity.SessionAuthenticated}, seen)
}

func TestLoginDropsPreviousThread(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, env.tokens.SaveThreadId(ctx, "11"))

	env.login(t, "budi")

	threadId, err := env.tokens.ReadThreadId(ctx)
	require.NoError(t, err)
	assert.Empty(t, threadId)
}
