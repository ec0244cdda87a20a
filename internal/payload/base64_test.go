package payload

import (
	"crypto/rand"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/apresai/podcastr/internal/failure"
)

func TestDecodeRoundTrip(t *testing.T) {
	for _, n := range []int{1, 2, 3, 4, 255, 4096} {
		in := make([]byte, n)
		_, err := rand.Read(in)
		require.NoError(t, err)

		out, err := Decode(base64.StdEncoding.EncodeToString(in))
		require.NoError(t, err)
		require.Equal(t, in, out)
	}
}

func TestDecodeTrimsWhitespace(t *testing.T) {
	out, err := Decode("  aGVsbG8=\n")
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), out)
}

func TestDecodeMalformed(t *testing.T) {
	for _, in := range []string{"", "   ", "not base64!", "aGVsbG8"} {
		_, err := Decode(in)
		require.Error(t, err, in)
		require.True(t, failure.IsKind(err, failure.DecodeFailure), in)
	}
}
