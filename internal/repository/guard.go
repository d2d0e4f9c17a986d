package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	appErrors "github.com/noah-isme/sma-admin-core/pkg/errors"
)

// dependency is one referencing relation checked before a delete.
type dependency struct {
	name    string
	query   string
	message string
}

// checkDependencies counts each relation for id and fails with a dependency
// error naming the first one that still references it.
func checkDependencies(ctx context.Context, tx *sqlx.Tx, id int64, deps []dependency) error {
	for _, dep := range deps {
		var count int
		if err := tx.GetContext(ctx, &count, dep.query, id); err != nil {
			return fmt.Errorf("count %s: %w", dep.name, err)
		}
		if count > 0 {
			return appErrors.Clone(appErrors.ErrDependency, dep.message)
		}
	}
	return nil
}

// lockRow takes a row lock on the parent row so dependents cannot be inserted
// until the transaction ends. It returns sql.ErrNoRows when the row is absent.
func lockRow(ctx context.Context, tx *sqlx.Tx, query string, id int64) (int64, error) {
	var locked int64
	if err := tx.GetContext(ctx, &locked, query, id); err != nil {
		return 0, err
	}
	return locked, nil
}

// updateSet accumulates SET clauses for a partial update.
type updateSet struct {
	clauses []string
	args    []interface{}
}

func (u *updateSet) add(column string, value interface{}) {
	u.args = append(u.args, value)
	u.clauses = append(u.clauses, fmt.Sprintf("%s = $%d", column, len(u.args)))
}

func (u *updateSet) empty() bool {
	return len(u.clauses) == 0
}

// statement renders the UPDATE with the key bound as the last argument.
func (u *updateSet) statement(table, keyColumn string, id int64) (string, []interface{}) {
	args := append(append([]interface{}{}, u.args...), id)
	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = $%d", table, strings.Join(u.clauses, ", "), keyColumn, len(args))
	return query, args
}

func pageBounds(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return size, (page - 1) * size
}
