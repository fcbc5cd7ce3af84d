package bootstrap

import (
	"context"
	"testing"
	"time"

	"kasbi-client/internal/config"
	"kasbi-client/internal/dto"
	"kasbi-client/internal/entity"
	"kasbi-client/internal/pkg/logger"
	"kasbi-client/internal/route"
	"kasbi-client/internal/service"
	"kasbi-client/internal/testutil/fakeapi"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(apiURL string, storage config.StorageConfig) *config.Config {
	return &config.Config{
		App:     config.AppConfig{Environment: "test"},
		API:     config.APIConfig{BaseURL: apiURL, Timeout: 5 * time.Second},
		Storage: storage,
		Admin:   config.AdminConfig{DocumentPollInterval: 20 * time.Millisecond, PageSize: 10},
	}
}

func TestContainerEndToEnd(t *testing.T) {
	api := fakeapi.New(t)
	ctx := context.Background()

	var redirects []string
	nav := route.NavigatorFunc(func(_ context.Context, path string) { redirects = append(redirects, path) })

	c, err := NewContainer(ctx, testConfig(api.URL, config.StorageConfig{Driver: "memory"}), logger.NewNopLogger(), nav)
	require.NoError(t, err)
	defer c.Close(ctx)

	require.NoError(t, c.Sessions.Init(ctx))
	_, err = c.Guard.Enter(ctx, route.Chatbot)
	assert.ErrorIs(t, err, route.ErrAccessDenied)
	assert.Equal(t, []string{route.LoginPath}, redirects)

	_, err = c.Sessions.Login(ctx, &dto.LoginRequest{Username: "admin1", Password: fakeapi.DefaultPassword})
	require.NoError(t, err)

	session, err := c.Guard.Enter(ctx, route.AdminUsersManage)
	require.NoError(t, err)
	assert.Equal(t, entity.UserRoleSuperAdmin, session.Role)

	conv := c.NewConversation()
	require.NoError(t, conv.Mount(ctx))
	_, err = conv.Send(ctx, "Apa itu BPMP Papua?")
	require.NoError(t, err)
	assert.NotEmpty(t, conv.ThreadId())

	api.AddDocument("laporan.pdf", "admin1", "pending", 1)
	var last []entity.Document
	poller := c.NewDocumentPoller(func(u service.DocumentUpdate) { last = u.Docs })
	select {
	case <-poller.Start(ctx):
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not finish")
	}
	require.Len(t, last, 1)
	assert.Equal(t, entity.DocumentStatusDone, last[0].Status)
}

func TestContainerWithRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	api := fakeapi.New(t)
	ctx := context.Background()

	cfg := testConfig(api.URL, config.StorageConfig{
		Driver:         "redis",
		RedisURL:       "redis://" + mr.Addr(),
		RedisKeyPrefix: "kasbi-test:",
	})
	c, err := NewContainer(ctx, cfg, logger.NewNopLogger(), nil)
	require.NoError(t, err)

	require.NoError(t, c.Sessions.Init(ctx))
	_, err = c.Sessions.Login(ctx, &dto.LoginRequest{Email: "admin@kasbi.id", Password: fakeapi.DefaultPassword})
	require.NoError(t, err)
	assert.True(t, mr.Exists("kasbi-test:access_token"))

	// a second process sharing the store resumes the session
	other, err := NewContainer(ctx, cfg, logger.NewNopLogger(), nil)
	require.NoError(t, err)
	require.NoError(t, other.Sessions.Init(ctx))
	state, session := other.Sessions.Current()
	assert.Equal(t, entity.SessionAuthenticated, state)
	assert.Equal(t, "admin", session.Username)

	require.NoError(t, c.Close(ctx))
	require.NoError(t, other.Close(ctx))
}

func TestContainerWithFileStore(t *testing.T) {
	api := fakeapi.New(t)
	ctx := context.Background()
	cfg := testConfig(api.URL, config.StorageConfig{Driver: "file", TokenFilePath: t.TempDir() + "/session.json"})

	c, err := NewContainer(ctx, cfg, logger.NewNopLogger(), nil)
	require.NoError(t, err)
	require.NoError(t, c.Sessions.Init(ctx))
	_, err = c.Sessions.Login(ctx, &dto.LoginRequest{Username: "budi", Password: fakeapi.DefaultPassword})
	require.NoError(t, err)

	restarted, err := NewContainer(ctx, cfg, logger.NewNopLogger(), nil)
	require.NoError(t, err)
	require.NoError(t, restarted.Sessions.Init(ctx))
	state, _ := restarted.Sessions.Current()
	assert.Equal(t, entity.SessionAuthenticated, state)
}

func TestContainerRejectsUnknownStore(t *testing.T) {
	_, err := NewContainer(context.Background(), testConfig("http://localhost", config.StorageConfig{Driver: "sqlite"}), logger.NewNopLogger(), nil)
	assert.ErrorContains(t, err, "unknown TOKEN_STORE")
}

func TestContainerRedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewContainer(context.Background(), testConfig("http://localhost", config.StorageConfig{
		Driver:   "redis",
		RedisURL: "redis://" + addr,
	}), logger.NewNopLogger(), nil)
	assert.ErrorContains(t, err, "failed to connect to redis")
}
