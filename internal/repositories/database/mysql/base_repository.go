package mysql

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/SscSPs/janseva_bank/internal/apperrors"
	"gorm.io/gorm"
)

type txCtxKey struct{}

// BaseRepository provides common functionality for all repositories
type BaseRepository struct {
	DB *gorm.DB
	// LockTimeout is applied as innodb_lock_wait_timeout, rounded up to whole seconds.
	LockTimeout time.Duration
	now         func() time.Time
}

// RunInTx implements repositories.TransactionManager.
func (r *BaseRepository) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := txFromCtx(ctx); ok {
		return fn(ctx)
	}

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if r.LockTimeout > 0 {
			seconds := int(math.Ceil(r.LockTimeout.Seconds()))
			if err := tx.Exec(fmt.Sprintf("SET SESSION innodb_lock_wait_timeout = %d", seconds)).Error; err != nil {
				return translateError(err, "failed to set lock wait timeout")
			}
		}
		return fn(context.WithValue(ctx, txCtxKey{}, tx))
	})
	return mapMySQLError(err)
}

// conn returns the transaction carried by ctx, or the shared handle.
func (r *BaseRepository) conn(ctx context.Context) *gorm.DB {
	if tx, ok := txFromCtx(ctx); ok {
		return tx.WithContext(ctx)
	}
	return r.DB.WithContext(ctx)
}

// txConn returns the transaction carried by ctx.
func (r *BaseRepository) txConn(ctx context.Context) (*gorm.DB, error) {
	tx, ok := txFromCtx(ctx)
	if !ok {
		return nil, apperrors.NewAppError(500, "mysql: operation requires RunInTx", nil)
	}
	return tx.WithContext(ctx), nil
}

// timestamp returns the current time at the precision of datetime(6).
func (r *BaseRepository) timestamp() time.Time {
	now := time.Now
	if r.now != nil {
		now = r.now
	}
	return now().UTC().Truncate(time.Microsecond)
}

func txFromCtx(ctx context.Context) (*gorm.DB, bool) {
	tx, ok := ctx.Value(txCtxKey{}).(*gorm.DB)
	return tx, ok
}
