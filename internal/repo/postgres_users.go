package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/LeventeLantos/direct-messaging/internal/model"
	"github.com/jackc/pgx/v5/pgconn"
)

const pgUniqueViolation = "23505"

var ErrUserExists = errors.New("user already exists")

type PostgresUserRepo struct {
	db *sql.DB
}

var _ UserDirectory = (*PostgresUserRepo)(nil)

func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

func (r *PostgresUserRepo) GetUser(ctx context.Context, username string) (model.User, error) {
	var u model.User
	err := r.db.QueryRowContext(ctx, `
		SELECT username, first_name, last_name, phone
		FROM users
		WHERE username = $1
	`, username).Scan(&u.Username, &u.FirstName, &u.LastName, &u.Phone)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	return u, err
}

func (r *PostgresUserRepo) CreateUser(ctx context.Context, u model.User) error {
	if u.Username == "" {
		return errors.New("username must not be empty")
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (username, first_name, last_name, phone)
		VALUES ($1, $2, $3, $4)
	`, u.Username, u.FirstName, u.LastName, u.Phone)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return fmt.Errorf("%w: %s", ErrUserExists, u.Username)
	}
	return err
}
