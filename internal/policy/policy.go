// Package policy decides who may act on a message. It performs no I/O and
// works on messages whose participants are already resolved.
package policy

import "github.com/LeventeLantos/direct-messaging/internal/model"

type MessagePolicy struct{}

func New() MessagePolicy {
	return MessagePolicy{}
}

// CanRead allows both the sender and the recipient.
func (MessagePolicy) CanRead(requester model.Requester, m model.Message) bool {
	if requester.Username == "" {
		return false
	}
	return requester.Username == m.FromUser.Username || requester.Username == m.ToUser.Username
}

// CanMarkRead allows only the recipient.
func (MessagePolicy) CanMarkRead(requester model.Requester, m model.Message) bool {
	if requester.Username == "" {
		return false
	}
	return requester.Username == m.ToUser.Username
}
