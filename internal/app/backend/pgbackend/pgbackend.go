// Package pgbackend implements backend.Backend on Postgres through
// database/sql and the pgx stdlib driver.
package pgbackend

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/dalemusser/folioadmin/internal/app/backend"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	"go.uber.org/zap"
)

// Backend is a backend.Backend over a Postgres connection pool.
type Backend struct {
	db  *sql.DB
	log *zap.Logger
}

var _ backend.Backend = (*Backend)(nil)

// New wraps an open *sql.DB.
func New(db *sql.DB, logger *zap.Logger) *Backend {
	return &Backend{db: db, log: logger}
}

// Connect opens a pool for dsn and pings it.
func Connect(ctx context.Context, dsn string, logger *zap.Logger) (*sql.DB, *Backend, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	logger.Info("connected to Postgres")
	return db, New(db, logger), nil
}

// DB exposes the pool for migrations.
func (b *Backend) DB() *sql.DB { return b.db }

func (b *Backend) Count(ctx context.Context, table string) (*int64, error) {
	tbl, err := ident(table)
	if err != nil {
		return nil, err
	}
	var n sql.NullInt64
	if err := b.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+tbl).Scan(&n); err != nil {
		return nil, translate(table, err)
	}
	if !n.Valid {
		return nil, nil
	}
	return &n.Int64, nil
}

func (b *Backend) Select(ctx context.Context, table string, q backend.Query) ([]backend.Row, error) {
	query, args, err := buildSelect(table, q)
	if err != nil {
		return nil, err
	}

	rows, err := b.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, translate(table, err)
	}
	defer func() { _ = rows.Close() }()

	out, err := scanRows(rows)
	if err != nil {
		return nil, translate(table, err)
	}
	return out, nil
}

func (b *Backend) Get(ctx context.Context, table, id string) (backend.Row, error) {
	tbl, err := ident(table)
	if err != nil {
		return nil, err
	}
	rows, err := b.db.QueryContext(ctx, "SELECT * FROM "+tbl+` WHERE "id" = $1 LIMIT 1`, id)
	if err != nil {
		return nil, translate(table, err)
	}
	defer func() { _ = rows.Close() }()

	out, err := scanRows(rows)
	if err != nil {
		return nil, translate(table, err)
	}
	if len(out) == 0 {
		return nil, backend.ErrNotFound
	}
	return out[0], nil
}

func (b *Backend) Insert(ctx context.Context, table string, row backend.Row) error {
	tbl, err := ident(table)
	if err != nil {
		return err
	}
	cols := sortedKeys(row)
	if len(cols) == 0 {
		return fmt.Errorf("insert into %s: empty row", table)
	}

	quoted := make([]string, len(cols))
	marks := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, c := range cols {
		q, err := ident(c)
		if err != nil {
			return err
		}
		v, err := encodeValue(row[c])
		if err != nil {
			return fmt.Errorf("insert into %s: column %s: %w", table, c, err)
		}
		quoted[i] = q
		marks[i] = fmt.Sprintf("$%d", i+1)
		args[i] = v
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", tbl, strings.Join(quoted, ", "), strings.Join(marks, ", "))
	if _, err := b.db.ExecContext(ctx, query, args...); err != nil {
		return translate(table, err)
	}
	return nil
}

func (b *Backend) Update(ctx context.Context, table, id string, row backend.Row) error {
	tbl, err := ident(table)
	if err != nil {
		return err
	}

	var sets []string
	var args []any
	for _, c := range sortedKeys(row) {
		if c == "id" {
			continue
		}
		q, err := ident(c)
		if err != nil {
			return err
		}
		v, err := encodeValue(row[c])
		if err != nil {
			return fmt.Errorf("update %s: column %s: %w", table, c, err)
		}
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", q, len(args)))
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE %s SET %s WHERE "id" = $%d`, tbl, strings.Join(sets, ", "), len(args))
	res, err := b.db.ExecContext(ctx, query, args...)
	if err != nil {
		return translate(table, err)
	}
	return requireAffected(res)
}

func (b *Backend) Delete(ctx context.Context, table, id string) error {
	tbl, err := ident(table)
	if err != nil {
		return err
	}
	res, err := b.db.ExecContext(ctx, "DELETE FROM "+tbl+` WHERE "id" = $1`, id)
	if err != nil {
		return translate(table, err)
	}
	return requireAffected(res)
}

func (b *Backend) Ping(ctx context.Context) error {
	return b.db.PingContext(ctx)
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return backend.ErrNotFound
	}
	return nil
}

func buildSelect(table string, q backend.Query) (string, []any, error) {
	tbl, err := ident(table)
	if err != nil {
		return "", nil, err
	}

	cols := "*"
	if len(q.Columns) > 0 {
		quoted := make([]string, len(q.Columns))
		for i, c := range q.Columns {
			if quoted[i], err = ident(c); err != nil {
				return "", nil, err
			}
		}
		cols = strings.Join(quoted, ", ")
	}

	var sb strings.Builder
	var args []any
	fmt.Fprintf(&sb, "SELECT %s FROM %s", cols, tbl)

	if !q.Since.IsZero() && q.SinceColumn != "" {
		col, err := ident(q.SinceColumn)
		if err != nil {
			return "", nil, err
		}
		args = append(args, q.Since)
		fmt.Fprintf(&sb, " WHERE %s >= $%d", col, len(args))
	}
	if q.OrderBy != "" {
		col, err := ident(q.OrderBy)
		if err != nil {
			return "", nil, err
		}
		dir := "ASC"
		if q.Descending {
			dir = "DESC"
		}
		fmt.Fprintf(&sb, " ORDER BY %s %s", col, dir)
	}
	if q.Limit > 0 {
		args = append(args, int64(q.Limit))
		fmt.Fprintf(&sb, " LIMIT $%d", len(args))
	}
	return sb.String(), args, nil
}

func scanRows(rows *sql.Rows) ([]backend.Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}
	isJSON := make([]bool, len(cols))
	for i, ct := range types {
		isJSON[i] = jsonColumn(ct.DatabaseTypeName())
	}

	var out []backend.Row
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(backend.Row, len(cols))
		for i, c := range cols {
			row[c] = decodeValue(vals[i], isJSON[i])
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func jsonColumn(dbType string) bool {
	switch strings.ToUpper(dbType) {
	case "JSON", "JSONB":
		return true
	}
	return false
}

// decodeValue turns driver values into plain Go values. json and jsonb
// columns are kept as raw JSON so nested documents decode into structs;
// every other text value stays a string.
func decodeValue(v any, isJSON bool) any {
	switch t := v.(type) {
	case []byte:
		if isJSON {
			if t == nil {
				return nil
			}
			return json.RawMessage(append([]byte(nil), t...))
		}
		return string(t)
	case string:
		if isJSON {
			return json.RawMessage(t)
		}
		return t
	case time.Time:
		return t.UTC()
	}
	return v
}

// encodeValue passes scalars through and stores everything else as JSON
// text (for jsonb columns).
func encodeValue(v any) (any, error) {
	switch t := v.(type) {
	case nil, string, bool, int, int32, int64, float32, float64, time.Time, []byte:
		return t, nil
	case *time.Time:
		if t == nil {
			return nil, nil
		}
		return *t, nil
	case json.RawMessage:
		return string(t), nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

var identRe = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// ident validates and quotes a table or column name. Only lower-case
// snake_case identifiers are accepted.
func ident(name string) (string, error) {
	if !identRe.MatchString(name) {
		return "", fmt.Errorf("invalid identifier %q", name)
	}
	return pgx.Identifier{name}.Sanitize(), nil
}

func sortedKeys(row backend.Row) []string {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func translate(table string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return &backend.Error{Code: pgErr.Code, Message: pgErr.Message, Table: table, Err: err}
	}
	if errors.Is(err, sql.ErrNoRows) {
		return backend.ErrNotFound
	}
	return fmt.Errorf("postgres %s: %w", table, err)
}
