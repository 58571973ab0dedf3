package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SscSPs/janseva_bank/internal/apperrors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// dbtx is satisfied by both *pgxpool.Pool and pgx.Tx.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type txCtxKey struct{}

// BaseRepository provides common functionality for all repositories
type BaseRepository struct {
	Pool *pgxpool.Pool
	// LockTimeout is applied to every transaction with SET LOCAL lock_timeout.
	LockTimeout time.Duration
}

// RunInTx implements repositories.TransactionManager. Row locks are taken
// explicitly with SELECT ... FOR UPDATE, so READ COMMITTED is sufficient.
func (r *BaseRepository) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := txFromCtx(ctx); ok {
		return fn(ctx)
	}

	tx, err := r.Pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return translateError(err, "failed to begin transaction")
	}
	defer r.rollback(ctx, tx)

	if r.LockTimeout > 0 {
		stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", r.LockTimeout.Milliseconds())
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return translateError(err, "failed to set lock timeout")
		}
	}

	if err := fn(context.WithValue(ctx, txCtxKey{}, tx)); err != nil {
		return mapPgError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return translateError(err, "failed to commit transaction")
	}
	return nil
}

// rollback is a no-op once the transaction has been committed.
func (r *BaseRepository) rollback(ctx context.Context, tx pgx.Tx) {
	// The caller's context may already be done; the rollback must still reach the server.
	_ = tx.Rollback(context.WithoutCancel(ctx))
}

// conn returns the transaction carried by ctx, or the pool.
func (r *BaseRepository) conn(ctx context.Context) dbtx {
	if tx, ok := txFromCtx(ctx); ok {
		return tx
	}
	return r.Pool
}

// txConn returns the transaction carried by ctx.
func (r *BaseRepository) txConn(ctx context.Context) (pgx.Tx, error) {
	tx, ok := txFromCtx(ctx)
	if !ok {
		return nil, apperrors.NewAppError(500, "pgsql: operation requires RunInTx", nil)
	}
	return tx, nil
}

func txFromCtx(ctx context.Context) (pgx.Tx, bool) {
	tx, ok := ctx.Value(txCtxKey{}).(pgx.Tx)
	return tx, ok
}

// isNoRows reports whether err is pgx.ErrNoRows.
func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
