package implementation

import (
	"context"
	"encoding/json"
	"fmt"

	"kasbi-client/internal/constant"
	"kasbi-client/internal/entity"
	"kasbi-client/internal/repository/contract"
)

// KeyValueStore is the storage primitive behind every token repository.
// SetMany and DeleteMany must apply all keys or none.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	SetMany(ctx context.Context, values map[string]string) error
	DeleteMany(ctx context.Context, keys ...string) error
}

type TokenRepositoryImpl struct {
	kv KeyValueStore
}

func NewTokenRepository(kv KeyValueStore) contract.TokenRepository {
	return &TokenRepositoryImpl{kv: kv}
}

func (r *TokenRepositoryImpl) Save(ctx context.Context, pair entity.TokenPair) error {
	return r.kv.SetMany(ctx, map[string]string{
		constant.StorageKeyAccessToken:  pair.AccessToken,
		constant.StorageKeyRefreshToken: pair.RefreshToken,
	})
}

func (r *TokenRepositoryImpl) Read(ctx context.Context) (*entity.TokenPair, error) {
	access, _, err := r.kv.Get(ctx, constant.StorageKeyAccessToken)
	if err != nil {
		return nil, err
	}
	refresh, _, err := r.kv.Get(ctx, constant.StorageKeyRefreshToken)
	if err != nil {
		return nil, err
	}

	pair := entity.TokenPair{AccessToken: access, RefreshToken: refresh}
	if pair.Empty() {
		return nil, nil
	}
	return &pair, nil
}

func (r *TokenRepositoryImpl) SaveSession(ctx context.Context, session entity.Session) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	return r.kv.SetMany(ctx, map[string]string{constant.StorageKeyUserData: string(raw)})
}

func (r *TokenRepositoryImpl) ReadSession(ctx context.Context) (*entity.Session, error) {
	raw, ok, err := r.kv.Get(ctx, constant.StorageKeyUserData)
	if err != nil {
		return nil, err
	}
	if !ok || raw == "" {
		return nil, nil
	}

	var session entity.Session
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		return nil, fmt.Errorf("stored session is corrupt: %w", err)
	}
	return &session, nil
}

func (r *TokenRepositoryImpl) SaveThreadId(ctx context.Context, threadId string) error {
	return r.kv.SetMany(ctx, map[string]string{constant.StorageKeyThreadId: threadId})
}

func (r *TokenRepositoryImpl) ReadThreadId(ctx context.Context) (string, error) {
	id, _, err := r.kv.Get(ctx, constant.StorageKeyThreadId)
	return id, err
}

func (r *TokenRepositoryImpl) ClearThreadId(ctx context.Context) error {
	return r.kv.DeleteMany(ctx, constant.StorageKeyThreadId)
}

func (r *TokenRepositoryImpl) Clear(ctx context.Context) error {
	return r.kv.DeleteMany(ctx, constant.StorageKeys...)
}
