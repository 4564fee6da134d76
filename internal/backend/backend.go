// Package backend is the execution-side contract described in spec
// §4.5: given generated SQL, run it against a concrete database and
// return rows in the header order the compiler produced. Connection
// handling mirrors the connect/ping/close lifecycle the teacher's
// applier uses, generalized to three read-only backends instead of one
// migration target.
package backend

import (
	"context"
	"fmt"
	"sync"

	"tesseract/internal/oerrors"
	"tesseract/internal/sqlgen"
)

// Result is a query's rows, with Headers matching queryir.Headers 1:1.
type Result struct {
	Headers []string
	Rows    [][]any
}

// Backend executes generated SQL against one connected database.
type Backend interface {
	Query(ctx context.Context, sql string, headers []string) (*Result, error)
	Ping(ctx context.Context) error
	Close() error
}

// Connector opens a Backend for a dialect-specific DSN.
type Connector func(dsn string) (Backend, error)

var (
	registryMu sync.RWMutex
	registry   = map[sqlgen.Type]Connector{}
)

// Register associates a dialect with the Connector that opens it.
// Concrete backend packages call this from an init func, the same
// registration shape the teacher uses for its dialect generators.
func Register(dialect sqlgen.Type, c Connector) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[dialect] = c
}

// Open connects to dialect's registered backend using dsn.
func Open(dialect sqlgen.Type, dsn string) (Backend, error) {
	registryMu.RLock()
	c, ok := registry[dialect]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("backend: no connector registered for dialect %q", dialect)
	}
	b, err := c(dsn)
	if err != nil {
		return nil, &oerrors.BackendError{Cause: err}
	}
	return b, nil
}
