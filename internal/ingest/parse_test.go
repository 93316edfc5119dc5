package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMixedSeparators(t *testing.T) {
	t.Parallel()

	values, err := Parse([]byte("mouthSmile_L=0.88|jawOpen=0.42&eyeBlink_R=1.0"))
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{
		"mouthSmile_L": 0.88,
		"jawOpen":      0.42,
		"eyeBlink_R":   1.0,
	}, values)
}

func TestParseUnknownKeysDropped(t *testing.T) {
	t.Parallel()

	values, err := Parse([]byte("jawOpen=0.5&bogusChannel=0.9"))
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"jawOpen": 0.5}, values)
}

func TestParseMalformedPairs(t *testing.T) {
	t.Parallel()

	t.Run("partial salvage", func(t *testing.T) {
		values, err := Parse([]byte("jawOpen=0.5&eyeBlink_L&mouthSmile_R=abc"))
		require.NoError(t, err)
		assert.Equal(t, map[string]float64{"jawOpen": 0.5}, values)
	})

	t.Run("nothing usable", func(t *testing.T) {
		_, err := Parse([]byte("eyeBlink_L&mouthSmile_R=abc"))
		assert.Error(t, err)
	})

	t.Run("empty payload", func(t *testing.T) {
		values, err := Parse([]byte(""))
		require.NoError(t, err)
		assert.Empty(t, values)
	})

	t.Run("invalid utf8", func(t *testing.T) {
		_, err := Parse([]byte{0xff, 0xfe, '='})
		assert.Error(t, err)
	})
}

func TestParseOutOfRangeValuesKept(t *testing.T) {
	t.Parallel()

	// Range clamping belongs to the encoder, not the parser.
	values, err := Parse([]byte("jawOpen=1.7&eyeBlink_L=-0.3"))
	require.NoError(t, err)
	assert.Equal(t, 1.7, values["jawOpen"])
	assert.Equal(t, -0.3, values["eyeBlink_L"])
}

func TestCatalogue(t *testing.T) {
	t.Parallel()

	assert.Len(t, Channels, 52)
	assert.True(t, KnownChannel("tongueOut"))
	assert.True(t, KnownChannel("browInnerUp"))
	assert.False(t, KnownChannel("TongueOut"), "catalogue lookup is case sensitive")
	assert.False(t, KnownChannel(""))
}
