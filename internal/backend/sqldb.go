package backend

import (
	"context"
	"database/sql"

	"tesseract/internal/oerrors"
)

// sqlBackend adapts a database/sql.DB to the Backend interface. All
// three concrete backends (MySQL, Postgres, ClickHouse) share this:
// only the driver name and DSN shape differ per dialect.
type sqlBackend struct {
	db *sql.DB
}

// OpenSQL opens a database/sql.DB-backed Backend for the named driver.
// Concrete backend packages (mysqlbackend, postgresbackend,
// clickhousebackend) call this from their Connector, supplying only
// the driver name their import's init registers with database/sql.
func OpenSQL(driverName, dsn string) (Backend, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, err
	}
	return &sqlBackend{db: db}, nil
}

func (b *sqlBackend) Ping(ctx context.Context) error {
	return b.db.PingContext(ctx)
}

func (b *sqlBackend) Close() error {
	return b.db.Close()
}

// Query runs sql and scans every row into []any, one value per result
// column reported by rows.Columns().
// The caller-supplied headers are trusted to match the generated
// query's column order; they are not re-derived from rows.Columns()
// since ClickHouse and Postgres return slightly different native type
// names that the generator's Headers already accounts for.
func (b *sqlBackend) Query(ctx context.Context, query string, headers []string) (*Result, error) {
	rows, err := b.db.QueryContext(ctx, query)
	if err != nil {
		return nil, &oerrors.BackendError{Cause: err}
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, &oerrors.BackendError{Cause: err}
	}

	result := &Result{Headers: headers}
	for rows.Next() {
		raw := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, &oerrors.BackendError{Cause: err}
		}
		result.Rows = append(result.Rows, raw)
	}
	if err := rows.Err(); err != nil {
		return nil, &oerrors.BackendError{Cause: err}
	}
	return result, nil
}
