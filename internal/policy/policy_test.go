package policy

import (
	"testing"

	"github.com/LeventeLantos/direct-messaging/internal/model"
	"github.com/stretchr/testify/require"
)

func msg(from, to string) model.Message {
	return model.Message{
		ID:       1,
		FromUser: model.User{Username: from},
		ToUser:   model.User{Username: to},
	}
}

func TestMessagePolicy_Predicates(t *testing.T) {
	p := New()
	users := []string{"alice", "bob", "carol"}

	// Every (requester, sender, recipient) combination, self-messages included.
	for _, from := range users {
		for _, to := range users {
			m := msg(from, to)
			for _, who := range users {
				r := model.Requester{Username: who}
				require.Equal(t, who == from || who == to, p.CanRead(r, m),
					"CanRead requester=%s from=%s to=%s", who, from, to)
				require.Equal(t, who == to, p.CanMarkRead(r, m),
					"CanMarkRead requester=%s from=%s to=%s", who, from, to)
			}
		}
	}
}

func TestMessagePolicy_SenderCannotMarkRead(t *testing.T) {
	p := New()
	m := msg("alice", "bob")

	require.True(t, p.CanRead(model.Requester{Username: "alice"}, m))
	require.False(t, p.CanMarkRead(model.Requester{Username: "alice"}, m))
	require.True(t, p.CanMarkRead(model.Requester{Username: "bob"}, m))
}

func TestMessagePolicy_SelfMessage(t *testing.T) {
	p := New()
	m := msg("alice", "alice")
	r := model.Requester{Username: "alice"}

	require.True(t, p.CanRead(r, m))
	require.True(t, p.CanMarkRead(r, m))
}

func TestMessagePolicy_EmptyRequesterDenied(t *testing.T) {
	p := New()
	// Zero-valued participants must not match an anonymous requester.
	m := model.Message{}

	require.False(t, p.CanRead(model.Requester{}, m))
	require.False(t, p.CanMarkRead(model.Requester{}, m))
}
