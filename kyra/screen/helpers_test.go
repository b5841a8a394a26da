package screen

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cam-per/kyra/internal/logging"
	"github.com/cam-per/kyra/kyra/shp"
)

func newTestScreen(t *testing.T) (*Screen, *ImageHost, *bytes.Buffer) {
	t.Helper()
	var logs bytes.Buffer
	host := NewImageHost()
	screen := New(Config{Host: host, Logger: logging.New(&logs, 0)})
	return screen, host, &logs
}

func mustShape(t *testing.T, pixels []byte, w, h int) []byte {
	t.Helper()
	data, err := shp.Encode(pixels, w, h, shp.EncodeOptions{})
	require.NoError(t, err)
	return data
}

func fillPage(page []byte, c byte) {
	for i := range page {
		page[i] = c
	}
}

func identity() []byte {
	table := make([]byte, 256)
	for i := range table {
		table[i] = byte(i)
	}
	return table
}

func at(x, y int) int { return y*Width + x }
