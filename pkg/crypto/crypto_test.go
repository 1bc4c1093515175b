package crypto

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("longenough1", 4)
	require.NoError(t, err)
	require.NotEqual(t, "longenough1", hash)

	require.True(t, VerifyPassword(hash, "longenough1"))
	require.False(t, VerifyPassword(hash, "wrongpassword"))
}

func TestHashPasswordIsSalted(t *testing.T) {
	first, err := HashPassword("longenough1", 4)
	require.NoError(t, err)

	second, err := HashPassword("longenough1", 4)
	require.NoError(t, err)

	require.NotEqual(t, first, second)
}

func TestHashPasswordInvalidCostFallsBack(t *testing.T) {
	hash, err := HashPassword("longenough1", -3)
	require.NoError(t, err)
	require.True(t, VerifyPassword(hash, "longenough1"))
}
