// Package mysqlbackend registers the MySQL backend.Connector, grounded
// on the teacher's own use of go-sql-driver/mysql in internal/apply.
package mysqlbackend

import (
	_ "github.com/go-sql-driver/mysql"

	"tesseract/internal/backend"
	"tesseract/internal/sqlgen"
)

func init() {
	backend.Register(sqlgen.MySQL, func(dsn string) (backend.Backend, error) {
		return backend.OpenSQL("mysql", dsn)
	})
}
