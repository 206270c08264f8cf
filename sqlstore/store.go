// Package sqlstore provides chunk-atomic MySQL operations for the batch
// engine: every chunk runs inside a single transaction, so a chunk-level
// retry never observes a partially written chunk.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
)

// Table metadata for a bulk operation target.
type Table struct {
	Name string
	//Columns written by insert and update
	Columns []string
	//KeyColumns identity used by update and delete
	KeyColumns []string
}

// Store bulk insert and update against a single table. Row values are
// produced by caller-supplied mappers so the store stays free of
// reflection and model-name dispatch.
type Store[T any] struct {
	db     *sql.DB
	table  Table
	values func(item T) []interface{}
	keys   func(item T) []interface{}
}

// NewStore build a Store. values must align with table.Columns and keys
// with table.KeyColumns.
func NewStore[T any](db *sql.DB, table Table, values func(T) []interface{}, keys func(T) []interface{}) *Store[T] {
	if db == nil {
		panic("db must not be nil")
	}
	if values == nil {
		panic("values mapper must not be nil")
	}
	return &Store[T]{db: db, table: table, values: values, keys: keys}
}

// InsertChunk insert the chunk inside one transaction, skipping rows
// whose identity already exists, and return the subset actually created.
func (s *Store[T]) InsertChunk(ctx context.Context, items []T) ([]T, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, wrapDbErr(err, "begin insert transaction on "+s.table.Name)
	}
	stmt := insertStatement(s.table)
	created := make([]T, 0, len(items))
	for _, item := range items {
		res, err := tx.ExecContext(ctx, stmt, s.values(item)...)
		if err != nil {
			_ = tx.Rollback()
			return nil, wrapDbErr(err, "insert into "+s.table.Name)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			_ = tx.Rollback()
			return nil, wrapDbErr(err, "rows affected on "+s.table.Name)
		}
		if affected > 0 {
			created = append(created, item)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, wrapDbErr(err, "commit insert transaction on "+s.table.Name)
	}
	return created, nil
}

// UpdateChunk update every record of the chunk by identity inside one
// transaction and return the chunk on success.
func (s *Store[T]) UpdateChunk(ctx context.Context, items []T) ([]T, error) {
	if s.keys == nil {
		return nil, errors.New("update requires a key mapper for " + s.table.Name)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, wrapDbErr(err, "begin update transaction on "+s.table.Name)
	}
	stmt := updateStatement(s.table)
	for _, item := range items {
		args := append(s.values(item), s.keys(item)...)
		if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
			_ = tx.Rollback()
			return nil, wrapDbErr(err, "update "+s.table.Name)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, wrapDbErr(err, "commit update transaction on "+s.table.Name)
	}
	return items, nil
}

// Deleter bulk delete by single-column identity.
type Deleter[K any] struct {
	db        *sql.DB
	table     string
	keyColumn string
}

func NewDeleter[K any](db *sql.DB, table, keyColumn string) *Deleter[K] {
	if db == nil {
		panic("db must not be nil")
	}
	return &Deleter[K]{db: db, table: table, keyColumn: keyColumn}
}

// DeleteChunk delete the identities with a single statement and return
// them on success.
func (d *Deleter[K]) DeleteChunk(ctx context.Context, keys []K) ([]K, error) {
	if len(keys) == 0 {
		return keys, nil
	}
	args := make([]interface{}, len(keys))
	for i, k := range keys {
		args[i] = k
	}
	if _, err := d.db.ExecContext(ctx, deleteStatement(d.table, d.keyColumn, len(keys)), args...); err != nil {
		return nil, wrapDbErr(err, "delete from "+d.table)
	}
	return keys, nil
}

// Refresher runs the trailing aggregate recomputation of an import, one
// caller-supplied statement recomputing sums and counts for the target
// entity. Implements the engine's AggregateRefresher.
type Refresher struct {
	db        *sql.DB
	statement string
	args      []interface{}
}

func NewRefresher(db *sql.DB, statement string, args ...interface{}) *Refresher {
	if db == nil {
		panic("db must not be nil")
	}
	return &Refresher{db: db, statement: statement, args: args}
}

func (r *Refresher) RefreshAggregates(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, r.statement, r.args...); err != nil {
		return wrapDbErr(err, "refresh aggregates")
	}
	return nil
}

func insertStatement(t Table) string {
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(t.Columns)), ",")
	return fmt.Sprintf("insert ignore into %s (%s) values (%s)",
		t.Name, strings.Join(t.Columns, ", "), placeholders)
}

func updateStatement(t Table) string {
	sets := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		sets[i] = c + "=?"
	}
	wheres := make([]string, len(t.KeyColumns))
	for i, c := range t.KeyColumns {
		wheres[i] = c + "=?"
	}
	return fmt.Sprintf("update %s set %s where %s",
		t.Name, strings.Join(sets, ", "), strings.Join(wheres, " and "))
}

func deleteStatement(table, keyColumn string, count int) string {
	placeholders := strings.TrimSuffix(strings.Repeat("?,", count), ",")
	return fmt.Sprintf("delete from %s where %s in (%s)", table, keyColumn, placeholders)
}

// Transient MySQL failures are reworded so the engine's content-based
// retry classification recognizes them.
var retryableMySQLErrors = map[uint16]string{
	1040: "too many connections",
	1205: "lock wait timeout exceeded",
	1213: "deadlock found when trying to get lock",
}

func wrapDbErr(err error, op string) error {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		if hint, ok := retryableMySQLErrors[myErr.Number]; ok {
			return errors.Wrapf(err, "%s: %s", op, hint)
		}
	}
	return errors.Wrap(err, op)
}
