package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apresai/podcastr/internal/failure"
)

func TestDurationRejectsNonMP3(t *testing.T) {
	_, err := Duration(nil)
	require.Error(t, err)
	assert.True(t, failure.IsKind(err, failure.DecodeFailure))

	_, err = Duration([]byte("definitely not an mp3 stream"))
	require.Error(t, err)
	assert.True(t, failure.IsKind(err, failure.DecodeFailure))
}

func TestFormatDuration(t *testing.T) {
	cases := map[float64]string{
		0:      "0:00",
		-3:     "0:00",
		5.9:    "0:05",
		65:     "1:05",
		600:    "10:00",
		3725.2: "1:02:05",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatDuration(in), "%v", in)
	}
}
