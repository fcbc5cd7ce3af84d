package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"kasbi-client/internal/config"
	"kasbi-client/internal/dto"
	"kasbi-client/internal/pkg/httpclient"
	"kasbi-client/internal/pkg/logger"
	"kasbi-client/internal/repository/contract"
	"kasbi-client/internal/repository/implementation"
	"kasbi-client/internal/repository/memory"
	"kasbi-client/internal/route"
	"kasbi-client/internal/service"
	"kasbi-client/internal/tracer"

	"github.com/redis/go-redis/v9"
)

type Container struct {
	Config *config.Config
	Logger logger.ILogger

	// Core
	Tokens contract.TokenRepository
	Client *httpclient.Client

	// Session & access
	Sessions *service.SessionManager
	Guard    *route.Guard

	// Domain services
	Chatbot   service.IChatbotService
	Documents service.IDocumentService
	Admins    service.IAdminService

	closers []func(context.Context) error
}

// NewContainer wires the client stack. navigator receives forced
// redirects (logout, expired session, denied route).
func NewContainer(ctx context.Context, cfg *config.Config, log logger.ILogger, navigator route.Navigator) (*Container, error) {
	c := &Container{Config: cfg, Logger: log}

	// 1. Tracing
	c.closers = append(c.closers, tracer.InitTracer(cfg.Tracing, log))

	// 2. Token store
	tokens, closeStore, err := newTokenRepository(ctx, cfg.Storage)
	if err != nil {
		_ = c.Close(ctx)
		return nil, err
	}
	if closeStore != nil {
		c.closers = append(c.closers, closeStore)
	}
	c.Tokens = tokens

	// 3. HTTP pipeline
	httpCfg := httpclient.Config{
		BaseURL:             cfg.API.BaseURL,
		Timeout:             cfg.API.Timeout,
		RefreshSingleFlight: cfg.API.RefreshSingleFlight,
	}
	if cfg.Tracing.Enabled {
		httpCfg.Transport = tracer.Transport(nil)
	}
	c.Client = httpclient.New(httpCfg, tokens, log)

	// 4. Session
	c.Sessions = service.NewSessionManager(c.Client, tokens, navigator, log)
	c.Client.OnSessionExpired(c.Sessions.HandleSessionExpired)
	c.Guard = route.NewGuard(c.Sessions, navigator, log)

	// 5. Services
	c.Chatbot = service.NewChatbotService(c.Client)
	c.Documents = service.NewDocumentService(c.Client, log)
	c.Admins = service.NewAdminService(c.Client, log)

	log.Info("Bootstrap", "Container ready", map[string]interface{}{
		"api_url":     cfg.API.BaseURL,
		"token_store": cfg.Storage.Driver,
		"tracing":     cfg.Tracing.Enabled,
	})
	return c, nil
}

func newTokenRepository(ctx context.Context, cfg config.StorageConfig) (contract.TokenRepository, func(context.Context) error, error) {
	switch cfg.Driver {
	case "", "file":
		return implementation.NewTokenRepository(implementation.NewFileStore(cfg.TokenFilePath)), nil, nil

	case "memory":
		return memory.NewTokenRepository(), nil, nil

	case "redis":
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		rdb := redis.NewClient(opts)

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}

		closeFn := func(context.Context) error { return rdb.Close() }
		return implementation.NewTokenRepository(implementation.NewRedisStore(rdb, cfg.RedisKeyPrefix)), closeFn, nil
	}
	return nil, nil, fmt.Errorf("unknown TOKEN_STORE %q (want file, memory or redis)", cfg.Driver)
}

// NewConversation builds a chat screen bound to the persisted thread.
func (c *Container) NewConversation() *service.Conversation {
	return service.NewConversation(c.Chatbot, c.Tokens, c.Logger)
}

func (c *Container) NewDocumentPoller(onUpdate func(service.DocumentUpdate)) *service.DocumentPoller {
	page := dto.PageQuery{Limit: c.Config.Admin.PageSize, Descending: true}
	return service.NewDocumentPoller(c.Documents, page, c.Config.Admin.DocumentPollInterval, onUpdate, c.Logger)
}

// Close releases everything in reverse order of creation.
func (c *Container) Close(ctx context.Context) error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}
