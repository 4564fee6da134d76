package backend

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpenSQLUnknownDriver(t *testing.T) {
	_, err := OpenSQL("no-such-driver", "dsn://unused")
	require.Error(t, err)
}
