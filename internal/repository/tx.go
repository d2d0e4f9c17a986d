package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-admin-core/pkg/config"
	"github.com/noah-isme/sma-admin-core/pkg/database"
	appErrors "github.com/noah-isme/sma-admin-core/pkg/errors"
)

// Coordinator runs multi-statement writes in a single all-or-nothing transaction.
type Coordinator struct {
	db     *sqlx.DB
	opts   *sql.TxOptions
	logger *zap.Logger
}

// NewCoordinator creates a coordinator that opens transactions at the given isolation level.
func NewCoordinator(db *sqlx.DB, isolation string, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{db: db, opts: &sql.TxOptions{Isolation: isolationLevel(isolation)}, logger: logger}
}

// DB exposes the underlying handle for plain reads.
func (c *Coordinator) DB() *sqlx.DB {
	return c.db
}

// Run executes fn inside a transaction. Any error returned by fn, or a panic,
// rolls the transaction back; a panic is re-raised afterwards.
func (c *Coordinator) Run(ctx context.Context, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := c.db.BeginTxx(ctx, c.opts)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	committed := false
	defer func() {
		if p := recover(); p != nil {
			c.rollback(tx, fmt.Errorf("panic: %v", p))
			panic(p)
		}
		if err != nil && !committed {
			c.rollback(tx, err)
		}
	}()

	if err = fn(tx); err != nil {
		if database.IsSerializationFailure(err) {
			err = errConcurrentUpdate(err)
		}
		return err
	}

	if err = tx.Commit(); err != nil {
		committed = true
		if database.IsSerializationFailure(err) {
			return errConcurrentUpdate(err)
		}
		c.logger.Error("transaction commit failed", zap.Error(err))
		return fmt.Errorf("commit transaction: %w", err)
	}
	committed = true
	return nil
}

// RunInTransaction is Run for callbacks that produce a value. The zero value
// is returned whenever the transaction does not commit.
func RunInTransaction[T any](ctx context.Context, c *Coordinator, fn func(tx *sqlx.Tx) (T, error)) (T, error) {
	var result T
	err := c.Run(ctx, func(tx *sqlx.Tx) error {
		value, err := fn(tx)
		if err != nil {
			return err
		}
		result = value
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}

// errConcurrentUpdate reports a serializable conflict. Operations are not retried.
func errConcurrentUpdate(err error) error {
	return appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "concurrent update, please retry")
}

func (c *Coordinator) rollback(tx *sqlx.Tx, cause error) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		c.logger.Error("transaction rollback failed", zap.Error(err), zap.NamedError("cause", cause))
		return
	}

	var appErr *appErrors.Error
	if errors.As(cause, &appErr) && appErr.Status < http.StatusInternalServerError {
		c.logger.Info("transaction rolled back", zap.String("code", appErr.Code), zap.String("reason", appErr.Message))
		return
	}
	c.logger.Error("transaction rolled back", zap.Error(cause))
}

func isolationLevel(name string) sql.IsolationLevel {
	switch name {
	case config.IsolationSerializable:
		return sql.LevelSerializable
	case config.IsolationRepeatableRead:
		return sql.LevelRepeatableRead
	default:
		return sql.LevelReadCommitted
	}
}
