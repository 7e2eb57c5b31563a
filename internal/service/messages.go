package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/LeventeLantos/direct-messaging/internal/model"
	"github.com/LeventeLantos/direct-messaging/internal/repo"
	"github.com/go-playground/validator/v10"
)

const DefaultContentMax = 1000

type Policy interface {
	CanRead(requester model.Requester, m model.Message) bool
	CanMarkRead(requester model.Requester, m model.Message) bool
}

// MessageService runs the fetch, send and mark-read use cases. It never
// logs; every failure is returned to the caller.
type MessageService struct {
	store      repo.MessageStore
	policy     Policy
	contentMax int
	validate   *validator.Validate
}

type sendInput struct {
	ToUsername string `validate:"required,max=64"`
	Body       string `validate:"required"`
}

func New(store repo.MessageStore, policy Policy, contentMax int) (*MessageService, error) {
	if store == nil {
		return nil, errors.New("store must not be nil")
	}
	if policy == nil {
		return nil, errors.New("policy must not be nil")
	}
	if contentMax <= 0 {
		contentMax = DefaultContentMax
	}
	return &MessageService{
		store:      store,
		policy:     policy,
		contentMax: contentMax,
		validate:   validator.New(),
	}, nil
}

func (s *MessageService) FetchForUser(ctx context.Context, requester model.Requester, id int64) (model.Message, error) {
	if requester.Username == "" {
		return model.Message{}, ErrUnauthenticated
	}

	m, err := s.store.Get(ctx, id)
	if err != nil {
		return model.Message{}, err
	}
	if !s.policy.CanRead(requester, m) {
		return model.Message{}, &ForbiddenError{Reason: cannotReadReason}
	}
	return m, nil
}

func (s *MessageService) Send(ctx context.Context, requester model.Requester, toUsername, body string) (model.SentMessage, error) {
	if requester.Username == "" {
		return model.SentMessage{}, ErrUnauthenticated
	}
	if err := s.validateSend(toUsername, body); err != nil {
		return model.SentMessage{}, err
	}
	return s.store.Create(ctx, requester.Username, strings.TrimSpace(toUsername), body)
}

func (s *MessageService) MarkReadForUser(ctx context.Context, requester model.Requester, id int64) (model.ReadReceipt, error) {
	if requester.Username == "" {
		return model.ReadReceipt{}, ErrUnauthenticated
	}

	m, err := s.store.Get(ctx, id)
	if err != nil {
		return model.ReadReceipt{}, err
	}
	if !s.policy.CanMarkRead(requester, m) {
		return model.ReadReceipt{}, &ForbiddenError{Reason: cannotReadReason}
	}
	return s.store.MarkRead(ctx, id)
}

func (s *MessageService) validateSend(toUsername, body string) error {
	in := sendInput{
		ToUsername: strings.TrimSpace(toUsername),
		Body:       strings.TrimSpace(body),
	}

	var problems []string
	if err := s.validate.Struct(in); err != nil {
		problems = append(problems, describe(err)...)
	}
	// validator counts runes for string max, matching CONTENT_MAX semantics.
	if err := s.validate.Var(body, fmt.Sprintf("max=%d", s.contentMax)); err != nil {
		problems = append(problems, fmt.Sprintf("body must be at most %d characters", s.contentMax))
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

func describe(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}

	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fieldName(fe.Field())
		switch fe.Tag() {
		case "required":
			out = append(out, field+" is required")
		case "max":
			out = append(out, fmt.Sprintf("%s must be at most %s characters", field, fe.Param()))
		default:
			out = append(out, fmt.Sprintf("%s failed %s", field, fe.Tag()))
		}
	}
	return out
}

func fieldName(goName string) string {
	switch goName {
	case "ToUsername":
		return "to_username"
	case "Body":
		return "body"
	}
	return goName
}
