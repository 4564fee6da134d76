// Package postgresbackend registers the Postgres backend.Connector.
package postgresbackend

import (
	_ "github.com/lib/pq"

	"tesseract/internal/backend"
	"tesseract/internal/sqlgen"
)

func init() {
	backend.Register(sqlgen.PostgreSQL, func(dsn string) (backend.Backend, error) {
		return backend.OpenSQL("postgres", dsn)
	})
}
