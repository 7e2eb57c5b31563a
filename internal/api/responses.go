package api

import (
	"time"

	"github.com/LeventeLantos/direct-messaging/internal/model"
)

type userResponse struct {
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

type messageResponse struct {
	ID       int64        `json:"id"`
	Body     string       `json:"body"`
	SentAt   time.Time    `json:"sent_at"`
	ReadAt   *time.Time   `json:"read_at"`
	FromUser userResponse `json:"from_user"`
	ToUser   userResponse `json:"to_user"`
}

type sentMessageResponse struct {
	ID           int64     `json:"id"`
	FromUsername string    `json:"from_username"`
	ToUsername   string    `json:"to_username"`
	Body         string    `json:"body"`
	SentAt       time.Time `json:"sent_at"`
}

type readReceiptResponse struct {
	ID     int64     `json:"id"`
	ReadAt time.Time `json:"read_at"`
}

type sendRequest struct {
	ToUsername string `json:"to_username"`
	Body       string `json:"body"`
}

func toMessageResponse(m model.Message) messageResponse {
	return messageResponse{
		ID:       m.ID,
		Body:     m.Body,
		SentAt:   m.SentAt,
		ReadAt:   m.ReadAt,
		FromUser: userResponse(m.FromUser),
		ToUser:   userResponse(m.ToUser),
	}
}

func toSentMessageResponse(m model.SentMessage) sentMessageResponse {
	return sentMessageResponse(m)
}

func toReadReceiptResponse(r model.ReadReceipt) readReceiptResponse {
	return readReceiptResponse(r)
}
