// Package clickhousebackend registers the ClickHouse backend.Connector.
package clickhousebackend

import (
	_ "github.com/ClickHouse/clickhouse-go/v2"

	"tesseract/internal/backend"
	"tesseract/internal/sqlgen"
)

func init() {
	backend.Register(sqlgen.ClickHouse, func(dsn string) (backend.Backend, error) {
		return backend.OpenSQL("clickhouse", dsn)
	})
}
