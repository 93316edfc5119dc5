package ingest

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSerialSourceWithInput(store *Store, input string) *SerialSource {
	source := NewSerialSource("/dev/ttyUSB0", 115200, store)
	source.open = func(path string, baud int) (io.ReadCloser, error) {
		return io.NopCloser(strings.NewReader(input)), nil
	}
	return source
}

func TestSerialSourceAppliesLines(t *testing.T) {
	t.Parallel()

	store := NewStore()
	source := newSerialSourceWithInput(store,
		"jawOpen=0.42&eyeBlink_R=1.0\njawOpen=0.9\n")

	require.NoError(t, source.Start(context.Background()))

	snapshot := store.Snapshot()
	assert.Equal(t, 0.9, snapshot["jawOpen"])
	assert.Equal(t, 1.0, snapshot["eyeBlink_R"])
}

func TestSerialSourceDropsBadLines(t *testing.T) {
	t.Parallel()

	store := NewStore()
	source := newSerialSourceWithInput(store,
		"jawOpen=0.42\nnot a message\nbrowInnerUp=0.1\n")

	require.NoError(t, source.Start(context.Background()))

	snapshot := store.Snapshot()
	assert.Equal(t, 0.42, snapshot["jawOpen"])
	assert.Equal(t, 0.1, snapshot["browInnerUp"])
	assert.Equal(t, uint64(1), source.parseErrs)
}

func TestSerialSourceOpenFailure(t *testing.T) {
	t.Parallel()

	source := NewSerialSource("/dev/null", 0, NewStore())
	source.open = func(path string, baud int) (io.ReadCloser, error) {
		return nil, errors.New("no such device")
	}

	err := source.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open serial port")
}

func TestSerialSourceBaudDefault(t *testing.T) {
	t.Parallel()

	source := NewSerialSource("/dev/ttyUSB0", 0, NewStore())
	assert.Equal(t, 115200, source.baud)
}
