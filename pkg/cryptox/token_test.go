package cryptox_test

import (
	"testing"

	"github.com/brudebord/rsvp/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

func TestGenerateToken(t *testing.T) {
	t.Parallel()

	t.Run("produces distinct url-safe tokens", func(t *testing.T) {
		a, err := cryptox.GenerateToken(cryptox.TokenSize256)
		require.NoError(t, err)
		b, err := cryptox.GenerateToken(cryptox.TokenSize256)
		require.NoError(t, err)

		require.Len(t, a, 43)
		require.NotEqual(t, a, b)
		require.NotContains(t, a, "=")
		require.NotContains(t, a, "+")
		require.NotContains(t, a, "/")
	})

	t.Run("rejects non-positive sizes", func(t *testing.T) {
		_, err := cryptox.GenerateToken(0)
		require.Error(t, err)
	})
}

func TestFingerprintToken(t *testing.T) {
	t.Parallel()

	fp := cryptox.FingerprintToken("some-token")
	require.Len(t, fp, 43)
	require.Equal(t, fp, cryptox.FingerprintToken("some-token"))
	require.NotEqual(t, fp, cryptox.FingerprintToken("other-token"))
}
