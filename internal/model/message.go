package model

import "time"

// Message is a stored message with both participants resolved.
type Message struct {
	ID       int64
	FromUser User
	ToUser   User
	Body     string
	SentAt   time.Time
	ReadAt   *time.Time
}

// IsRead reports whether the recipient has marked the message read.
func (m Message) IsRead() bool {
	return m.ReadAt != nil
}

// SentMessage is the record returned when a message is created.
type SentMessage struct {
	ID           int64
	FromUsername string
	ToUsername   string
	Body         string
	SentAt       time.Time
}

type ReadReceipt struct {
	ID     int64
	ReadAt time.Time
}
