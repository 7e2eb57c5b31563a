package cache

import (
	"context"
	"log/slog"

	"github.com/LeventeLantos/direct-messaging/internal/model"
	"github.com/LeventeLantos/direct-messaging/internal/repo"
)

// CachedStore serves Get from a MessageCache and falls back to the
// wrapped store. Cache failures are logged and never fail a request.
//
// Participants and body are immutable, so a stale entry can only lag on
// read_at; MarkRead drops the entry to bound that window.
type CachedStore struct {
	next  repo.MessageStore
	cache MessageCache
}

var _ repo.MessageStore = (*CachedStore)(nil)

func NewCachedStore(next repo.MessageStore, c MessageCache) *CachedStore {
	return &CachedStore{next: next, cache: c}
}

func (s *CachedStore) Get(ctx context.Context, id int64) (model.Message, error) {
	m, ok, err := s.cache.Load(ctx, id)
	if err != nil {
		slog.Warn("message cache load failed", "id", id, "err", err)
	}
	if ok {
		return m, nil
	}

	m, err = s.next.Get(ctx, id)
	if err != nil {
		return model.Message{}, err
	}
	if err := s.cache.Store(ctx, m); err != nil {
		slog.Warn("message cache store failed", "id", id, "err", err)
	}
	return m, nil
}

func (s *CachedStore) Create(ctx context.Context, fromUsername, toUsername, body string) (model.SentMessage, error) {
	return s.next.Create(ctx, fromUsername, toUsername, body)
}

func (s *CachedStore) MarkRead(ctx context.Context, id int64) (model.ReadReceipt, error) {
	rr, err := s.next.MarkRead(ctx, id)
	if err != nil {
		return model.ReadReceipt{}, err
	}
	if err := s.cache.Invalidate(ctx, id); err != nil {
		slog.Warn("message cache invalidate failed", "id", id, "err", err)
	}
	return rr, nil
}
