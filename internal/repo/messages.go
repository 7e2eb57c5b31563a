package repo

import (
	"context"
	"errors"

	"github.com/LeventeLantos/direct-messaging/internal/model"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrInvalidReference is returned by Create when the sender or the
	// recipient does not exist in the user directory.
	ErrInvalidReference = errors.New("invalid user reference")
)

type MessageStore interface {
	Get(ctx context.Context, id int64) (model.Message, error)
	Create(ctx context.Context, fromUsername, toUsername, body string) (model.SentMessage, error)
	// MarkRead sets read_at the first time it is called for a message.
	// Later calls leave the stored timestamp untouched and return it.
	MarkRead(ctx context.Context, id int64) (model.ReadReceipt, error)
}

type UserDirectory interface {
	GetUser(ctx context.Context, username string) (model.User, error)
	CreateUser(ctx context.Context, u model.User) error
}
