package contract

import (
	"context"

	"kasbi-client/internal/entity"
)

// TokenRepository persists the client session across restarts. Only the
// session manager and the HTTP client's refresh path write to it.
type TokenRepository interface {
	Save(ctx context.Context, pair entity.TokenPair) error
	Read(ctx context.Context) (*entity.TokenPair, error) // nil when nothing is stored

	SaveSession(ctx context.Context, session entity.Session) error
	ReadSession(ctx context.Context) (*entity.Session, error) // nil when nothing is stored

	SaveThreadId(ctx context.Context, threadId string) error
	ReadThreadId(ctx context.Context) (string, error) // "" when nothing is stored
	ClearThreadId(ctx context.Context) error

	// Clear drops every key in one step; no reader sees a half-cleared store.
	Clear(ctx context.Context) error
}
