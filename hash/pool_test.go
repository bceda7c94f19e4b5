package hash

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zeebo/blake3"
)

func TestSum(t *testing.T) {
	expected := blake3.Sum256([]byte("netstate schema"))
	require.Equal(t, expected, Sum([]byte("netstate "), []byte("schema")))
	// hasher returned to the pool must be clean
	require.Equal(t, expected, Sum([]byte("netstate schema")))
	require.NotEqual(t, expected, Sum([]byte("netstate")))
}
