package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"kasbi-client/internal/dto"
	"kasbi-client/internal/entity"
	"kasbi-client/internal/pkg/httpclient"
	"kasbi-client/internal/pkg/logger"
	"kasbi-client/internal/repository/contract"
	"kasbi-client/internal/repository/memory"
	"kasbi-client/internal/testutil/fakeapi"

	"github.com/stretchr/testify/require"
)

type recordingNavigator struct {
	mu    sync.Mutex
	paths []string
}

func (n *recordingNavigator) Navigate(_ context.Context, path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.paths = append(n.paths, path)
}

func (n *recordingNavigator) Paths() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.paths...)
}

type testEnv struct {
	api      *fakeapi.Server
	client   *httpclient.Client
	tokens   contract.TokenRepository
	sessions *SessionManager
	nav      *recordingNavigator
	log      logger.ILogger
}

// newTestEnv wires the client stack against a fresh fake backend, the same
// way bootstrap does, with an in-memory token store.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	api := fakeapi.New(t)
	log := logger.NewNopLogger()
	tokens := memory.NewTokenRepository()
	client := httpclient.New(httpclient.Config{BaseURL: api.URL, Timeout: 5 * time.Second}, tokens, log)
	nav := &recordingNavigator{}

	sessions := NewSessionManager(client, tokens, nav, log)
	client.OnSessionExpired(sessions.HandleSessionExpired)
	require.NoError(t, sessions.Init(context.Background()))

	return &testEnv{api: api, client: client, tokens: tokens, sessions: sessions, nav: nav, log: log}
}

func (e *testEnv) login(t *testing.T, username string) *entity.Session {
	t.Helper()
	session, err := e.sessions.Login(context.Background(), &dto.LoginRequest{
		Username: username,
		Password: fakeapi.DefaultPassword,
	})
	require.NoError(t, err)
	return session
}

type staticConfirmer bool

func (c staticConfirmer) Confirm(context.Context, string) (bool, error) {
	return bool(c), nil
}
