package service

import (
	"errors"
	"strings"
)

const cannotReadReason = "This message cannot be read."

var (
	ErrForbidden       = errors.New("forbidden")
	ErrUnauthenticated = errors.New("requester is not authenticated")
)

// ForbiddenError is returned when the access policy denies an action.
// It matches ErrForbidden with errors.Is.
type ForbiddenError struct {
	Reason string
}

func (e *ForbiddenError) Error() string {
	return e.Reason
}

func (e *ForbiddenError) Is(target error) bool {
	return target == ErrForbidden
}

type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid message: " + strings.Join(e.Problems, "; ")
}
