package clickhousebackend

import (
	"testing"

	"github.com/stretchr/testify/require"

	"tesseract/internal/backend"
	"tesseract/internal/sqlgen"
)

func TestInitRegistersClickHouseConnector(t *testing.T) {
	b, err := backend.Open(sqlgen.ClickHouse, "clickhouse://default:@127.0.0.1:9000/default")
	require.NoError(t, err)
	require.NotNil(t, b)
	require.NoError(t, b.Close())
}
