package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nilesh-agrahari/SecureFileShare/internal/models"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already registered")
)

const uniqueViolation = "23505"

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// Create inserts the account. Email uniqueness is enforced by the database
// constraint, not by a prior lookup, so concurrent signups with the same
// email resolve to exactly one winner.
func (r *UserRepository) Create(ctx context.Context, account models.Account) error {
	const query = `
		INSERT INTO accounts (
			id, email, password_hash, role, is_verified, created_at
		) VALUES (
			$1, $2, $3, $4, $5, NOW()
		)
	`

	_, err := r.pool.Exec(ctx, query,
		account.ID,
		account.Email,
		account.PasswordHash,
		account.Role,
		account.IsVerified,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrDuplicateEmail
		}
		return err
	}
	return nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (models.Account, error) {
	const query = `
		SELECT id, email, password_hash, role, is_verified, created_at
		FROM accounts WHERE email = $1
	`

	row := r.pool.QueryRow(ctx, query, email)
	var account models.Account
	if err := row.Scan(
		&account.ID,
		&account.Email,
		&account.PasswordHash,
		&account.Role,
		&account.IsVerified,
		&account.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Account{}, ErrUserNotFound
		}
		return models.Account{}, err
	}
	return account, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (models.Account, error) {
	const query = `
		SELECT id, email, password_hash, role, is_verified, created_at
		FROM accounts WHERE id = $1
	`

	row := r.pool.QueryRow(ctx, query, id)
	var account models.Account
	if err := row.Scan(
		&account.ID,
		&account.Email,
		&account.PasswordHash,
		&account.Role,
		&account.IsVerified,
		&account.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Account{}, ErrUserNotFound
		}
		return models.Account{}, err
	}
	return account, nil
}

// MarkVerified flips the verification flag. Re-verifying an already
// verified account is a no-op that still succeeds.
func (r *UserRepository) MarkVerified(ctx context.Context, email string) error {
	const query = `
		UPDATE accounts SET is_verified = TRUE WHERE email = $1
	`
	cmd, err := r.pool.Exec(ctx, query, email)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}
