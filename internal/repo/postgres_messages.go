package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/LeventeLantos/direct-messaging/internal/model"
	"github.com/jackc/pgx/v5/pgconn"
)

const pgForeignKeyViolation = "23503"

type PostgresMessageRepo struct {
	db *sql.DB
}

var _ MessageStore = (*PostgresMessageRepo)(nil)

func NewPostgresMessageRepo(db *sql.DB) *PostgresMessageRepo {
	return &PostgresMessageRepo{db: db}
}

func (r *PostgresMessageRepo) Get(ctx context.Context, id int64) (model.Message, error) {
	var (
		m      model.Message
		readAt sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT m.id, m.body, m.sent_at, m.read_at,
		       f.username, f.first_name, f.last_name, f.phone,
		       t.username, t.first_name, t.last_name, t.phone
		FROM messages m
		JOIN users f ON f.username = m.from_username
		JOIN users t ON t.username = m.to_username
		WHERE m.id = $1
	`, id).Scan(
		&m.ID,
		&m.Body,
		&m.SentAt,
		&readAt,
		&m.FromUser.Username,
		&m.FromUser.FirstName,
		&m.FromUser.LastName,
		&m.FromUser.Phone,
		&m.ToUser.Username,
		&m.ToUser.FirstName,
		&m.ToUser.LastName,
		&m.ToUser.Phone,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Message{}, ErrNotFound
	}
	if err != nil {
		return model.Message{}, err
	}

	if readAt.Valid {
		t := readAt.Time
		m.ReadAt = &t
	}
	return m, nil
}

func (r *PostgresMessageRepo) Create(ctx context.Context, fromUsername, toUsername, body string) (model.SentMessage, error) {
	var m model.SentMessage
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO messages (from_username, to_username, body, sent_at)
		VALUES ($1, $2, $3, now())
		RETURNING id, from_username, to_username, body, sent_at
	`, fromUsername, toUsername, body).Scan(
		&m.ID,
		&m.FromUsername,
		&m.ToUsername,
		&m.Body,
		&m.SentAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return model.SentMessage{}, ErrInvalidReference
		}
		return model.SentMessage{}, err
	}
	return m, nil
}

func (r *PostgresMessageRepo) MarkRead(ctx context.Context, id int64) (model.ReadReceipt, error) {
	var rr model.ReadReceipt
	err := r.db.QueryRowContext(ctx, `
		UPDATE messages
		SET read_at = COALESCE(read_at, GREATEST(now(), sent_at))
		WHERE id = $1
		RETURNING id, read_at
	`, id).Scan(&rr.ID, &rr.ReadAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ReadReceipt{}, ErrNotFound
	}
	if err != nil {
		return model.ReadReceipt{}, err
	}
	return rr, nil
}
