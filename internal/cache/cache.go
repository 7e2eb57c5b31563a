package cache

import (
	"context"

	"github.com/LeventeLantos/direct-messaging/internal/model"
)

type MessageCache interface {
	// Load reports ok=false on a miss.
	Load(ctx context.Context, id int64) (m model.Message, ok bool, err error)
	Store(ctx context.Context, m model.Message) error
	Invalidate(ctx context.Context, id int64) error
}
