package repository

import (
	"context"
	"errors"
	"fmt"

	"storefront_accounts/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// uniqueViolation is the SQLSTATE Postgres reports for a unique constraint breach
const uniqueViolation = "23505"

var ErrDuplicateUsername = errors.New("username already exists")

// DBTX is the subset of pgxpool.Pool the repository needs. Every statement
// returns at most one row.
type DBTX interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// AccountRepository defines operations for account data.
// Find and Delete methods return (nil, nil) when no account matches.
type AccountRepository interface {
	Create(ctx context.Context, account *model.Account) error
	FindByUsername(ctx context.Context, username string) (*model.Account, error)
	FindByID(ctx context.Context, id string) (*model.Account, error)
	Update(ctx context.Context, account *model.Account) error
	Delete(ctx context.Context, id string) (*model.Account, error)
}

type accountRepository struct {
	db DBTX
}

// NewAccountRepository creates a new Postgres-backed AccountRepository
func NewAccountRepository(db DBTX) AccountRepository {
	return &accountRepository{db: db}
}

// Create inserts a new account into the database
func (r *accountRepository) Create(ctx context.Context, a *model.Account) error {
	sql := `INSERT INTO accounts (id, full_name, username, email, mobile, password_hash)
            VALUES ($1, $2, $3, $4, $5, $6) RETURNING created_at, updated_at`
	err := r.db.QueryRow(ctx, sql, a.ID, a.FullName, a.Username, a.Email, a.Mobile, a.PasswordHash).Scan(&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateUsername
		}
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

// FindByUsername retrieves an account by its username
func (r *accountRepository) FindByUsername(ctx context.Context, username string) (*model.Account, error) {
	sql := `SELECT id, full_name, username, email, mobile, password_hash, created_at, updated_at
            FROM accounts WHERE username = $1`
	a, err := scanAccount(r.db.QueryRow(ctx, sql, username))
	if err != nil {
		return nil, fmt.Errorf("failed to find account by username: %w", err)
	}
	return a, nil
}

// FindByID retrieves an account by its ID
func (r *accountRepository) FindByID(ctx context.Context, id string) (*model.Account, error) {
	sql := `SELECT id, full_name, username, email, mobile, password_hash, created_at, updated_at
            FROM accounts WHERE id = $1`
	a, err := scanAccount(r.db.QueryRow(ctx, sql, id))
	if err != nil {
		return nil, fmt.Errorf("failed to find account by ID: %w", err)
	}
	return a, nil
}

// Update overwrites every mutable column of an existing account. Last write wins.
func (r *accountRepository) Update(ctx context.Context, a *model.Account) error {
	sql := `UPDATE accounts
            SET full_name = $1, username = $2, email = $3, mobile = $4, password_hash = $5, updated_at = NOW()
            WHERE id = $6 RETURNING updated_at`
	err := r.db.QueryRow(ctx, sql, a.FullName, a.Username, a.Email, a.Mobile, a.PasswordHash, a.ID).Scan(&a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("account not found for update")
		}
		if isUniqueViolation(err) {
			return ErrDuplicateUsername
		}
		return fmt.Errorf("failed to update account: %w", err)
	}
	return nil
}

// Delete removes an account and returns the removed row
func (r *accountRepository) Delete(ctx context.Context, id string) (*model.Account, error) {
	sql := `DELETE FROM accounts WHERE id = $1
            RETURNING id, full_name, username, email, mobile, password_hash, created_at, updated_at`
	a, err := scanAccount(r.db.QueryRow(ctx, sql, id))
	if err != nil {
		return nil, fmt.Errorf("failed to delete account: %w", err)
	}
	return a, nil
}

func scanAccount(row pgx.Row) (*model.Account, error) {
	a := &model.Account{}
	err := row.Scan(&a.ID, &a.FullName, &a.Username, &a.Email, &a.Mobile, &a.PasswordHash, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return a, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
