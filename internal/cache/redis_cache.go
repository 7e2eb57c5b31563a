package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/LeventeLantos/direct-messaging/internal/model"
	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

var _ MessageCache = (*RedisCache)(nil)

func NewRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl}
}

type userValue struct {
	Username  string `json:"username"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone"`
}

type messageValue struct {
	ID     int64      `json:"id"`
	From   userValue  `json:"from"`
	To     userValue  `json:"to"`
	Body   string     `json:"body"`
	SentAt time.Time  `json:"sentAt"`
	ReadAt *time.Time `json:"readAt,omitempty"`
}

func key(id int64) string {
	return fmt.Sprintf("msg:%d", id)
}

func (c *RedisCache) Load(ctx context.Context, id int64) (model.Message, bool, error) {
	raw, err := c.rdb.Get(ctx, key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.Message{}, false, nil
	}
	if err != nil {
		return model.Message{}, false, err
	}

	var v messageValue
	if err := json.Unmarshal(raw, &v); err != nil {
		return model.Message{}, false, fmt.Errorf("decode cached message %d: %w", id, err)
	}
	return v.toModel(), true, nil
}

func (c *RedisCache) Store(ctx context.Context, m model.Message) error {
	b, err := json.Marshal(fromModel(m))
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key(m.ID), b, c.ttl).Err()
}

func (c *RedisCache) Invalidate(ctx context.Context, id int64) error {
	return c.rdb.Del(ctx, key(id)).Err()
}

func fromModel(m model.Message) messageValue {
	v := messageValue{
		ID:     m.ID,
		From:   userValue(m.FromUser),
		To:     userValue(m.ToUser),
		Body:   m.Body,
		SentAt: m.SentAt.UTC(),
	}
	if m.ReadAt != nil {
		t := m.ReadAt.UTC()
		v.ReadAt = &t
	}
	return v
}

func (v messageValue) toModel() model.Message {
	return model.Message{
		ID:       v.ID,
		FromUser: model.User(v.From),
		ToUser:   model.User(v.To),
		Body:     v.Body,
		SentAt:   v.SentAt,
		ReadAt:   v.ReadAt,
	}
}
