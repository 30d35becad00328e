package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrEmailTaken = errors.New("email already exists")

const uniqueViolation = "23505"

type Store struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, name, email, password_hash, currency, language, created_at
		FROM users
		WHERE email = $1
	`, email)

	var user User
	if err := row.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.Currency, &user.Language, &user.CreatedAt); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Store) GetUserByID(ctx context.Context, userID uuid.UUID) (*User, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, name, email, password_hash, currency, language, created_at
		FROM users
		WHERE id = $1
	`, userID)

	var user User
	if err := row.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.Currency, &user.Language, &user.CreatedAt); err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateUser inserts a new user. Email uniqueness is enforced by the
// database; a violation surfaces as ErrEmailTaken.
func (s *Store) CreateUser(ctx context.Context, name, email, passwordHash, currency, language string) (*User, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO users (name, email, password_hash, currency, language, created_at)
		VALUES ($1, $2, $3, $4, $5, now())
		RETURNING id, name, email, password_hash, currency, language, created_at
	`, name, email, passwordHash, currency, language)

	var user User
	if err := row.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.Currency, &user.Language, &user.CreatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return &user, nil
}
