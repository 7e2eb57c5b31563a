package repo

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/LeventeLantos/direct-messaging/internal/model"
)

type memoryMessage struct {
	id     int64
	from   string
	to     string
	body   string
	sentAt time.Time
	readAt *time.Time
}

// MemoryStore keeps users and messages in-process. It implements both
// MessageStore and UserDirectory.
type MemoryStore struct {
	mu       sync.RWMutex
	users    map[string]model.User
	messages map[int64]*memoryMessage
	nextID   int64

	now func() time.Time
}

var (
	_ MessageStore  = (*MemoryStore)(nil)
	_ UserDirectory = (*MemoryStore)(nil)
)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[string]model.User),
		messages: make(map[int64]*memoryMessage),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the time source used for sent_at and read_at.
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
	return s
}

func (s *MemoryStore) GetUser(ctx context.Context, username string) (model.User, error) {
	if err := ctx.Err(); err != nil {
		return model.User{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[username]
	if !ok {
		return model.User{}, ErrNotFound
	}
	return u, nil
}

func (s *MemoryStore) CreateUser(ctx context.Context, u model.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if u.Username == "" {
		return errors.New("username must not be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[u.Username]; exists {
		return fmt.Errorf("%w: %s", ErrUserExists, u.Username)
	}
	s.users[u.Username] = u
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id int64) (model.Message, error) {
	if err := ctx.Err(); err != nil {
		return model.Message{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.messages[id]
	if !ok {
		return model.Message{}, ErrNotFound
	}

	out := model.Message{
		ID:       m.id,
		FromUser: s.users[m.from],
		ToUser:   s.users[m.to],
		Body:     m.body,
		SentAt:   m.sentAt,
	}
	if m.readAt != nil {
		t := *m.readAt
		out.ReadAt = &t
	}
	return out, nil
}

func (s *MemoryStore) Create(ctx context.Context, fromUsername, toUsername, body string) (model.SentMessage, error) {
	if err := ctx.Err(); err != nil {
		return model.SentMessage{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[fromUsername]; !ok {
		return model.SentMessage{}, ErrInvalidReference
	}
	if _, ok := s.users[toUsername]; !ok {
		return model.SentMessage{}, ErrInvalidReference
	}

	s.nextID++
	m := &memoryMessage{
		id:     s.nextID,
		from:   fromUsername,
		to:     toUsername,
		body:   body,
		sentAt: s.now(),
	}
	s.messages[m.id] = m

	return model.SentMessage{
		ID:           m.id,
		FromUsername: m.from,
		ToUsername:   m.to,
		Body:         m.body,
		SentAt:       m.sentAt,
	}, nil
}

func (s *MemoryStore) MarkRead(ctx context.Context, id int64) (model.ReadReceipt, error) {
	if err := ctx.Err(); err != nil {
		return model.ReadReceipt{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.messages[id]
	if !ok {
		return model.ReadReceipt{}, ErrNotFound
	}

	if m.readAt == nil {
		now := s.now()
		if now.Before(m.sentAt) {
			now = m.sentAt
		}
		m.readAt = &now
	}
	return model.ReadReceipt{ID: m.id, ReadAt: *m.readAt}, nil
}
