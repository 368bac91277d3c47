package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Sentinel errors returned by every repository implementation.
var (
	ErrNotFound       = errors.New("record not found")
	ErrEmailTaken     = errors.New("email already registered")
	ErrDuplicateToken = errors.New("token value already exists")
)

const uniqueViolationCode = "23505"

// Constraint names declared in the schema migrations.
const (
	usersEmailConstraint = "users_email_key"
	tokenValueConstraint = "user_tokens_token_key"
)

// DBTX is the subset of pgx used by the repositories.
// *pgxpool.Pool and pgx.Tx both satisfy it.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TxBeginner is a DBTX able to open transactions.
type TxBeginner interface {
	DBTX
	Begin(ctx context.Context) (pgx.Tx, error)
}

// TxManager runs dependent token writes as one unit of work.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tokens TokenRepository) error) error
}

// WithTx begins a transaction, runs fn with it, and commits on success or
// rolls back on error/panic. Panics are rethrown.
func WithTx(ctx context.Context, db TxBeginner, fn func(ctx context.Context, tx pgx.Tx) error) (err error) {
	tx, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if commitErr := tx.Commit(ctx); commitErr != nil {
			err = fmt.Errorf("commit tx: %w", commitErr)
		}
	}()

	return fn(ctx, tx)
}

type pgTxManager struct {
	db TxBeginner
}

// NewTxManager returns a TxManager backed by Postgres transactions.
func NewTxManager(db TxBeginner) TxManager {
	return &pgTxManager{db: db}
}

func (m *pgTxManager) WithinTx(ctx context.Context, fn func(ctx context.Context, tokens TokenRepository) error) error {
	return WithTx(ctx, m.db, func(ctx context.Context, tx pgx.Tx) error {
		return fn(ctx, NewTokenRepository(tx))
	})
}

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolationCode {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == "" || pgErr.ConstraintName == constraint
}
