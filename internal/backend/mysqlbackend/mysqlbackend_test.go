package mysqlbackend

import (
	"testing"

	"github.com/stretchr/testify/require"

	"tesseract/internal/backend"
	"tesseract/internal/sqlgen"
)

// Importing this package registers sqlgen.MySQL's connector via init;
// sql.Open validates the driver name without dialing, so Open succeeds
// here even with no reachable server.
func TestInitRegistersMySQLConnector(t *testing.T) {
	b, err := backend.Open(sqlgen.MySQL, "user:pass@tcp(127.0.0.1:3306)/db")
	require.NoError(t, err)
	require.NotNil(t, b)
	require.NoError(t, b.Close())
}
