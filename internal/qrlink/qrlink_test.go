package qrlink

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testExpiry = time.Date(2026, 1, 15, 10, 40, 0, 0, time.UTC)

func TestCheckInURL(t *testing.T) {
	r := NewRenderer("https://attend.example.edu")
	url := r.CheckInURL("lecture-123", testExpiry)

	assert.True(t, strings.HasPrefix(url, "https://attend.example.edu/checkin?"))
	assert.Contains(t, url, "lecture=lecture-123")
	assert.Contains(t, url, "expires=1768473600")
}

func TestPNG(t *testing.T) {
	r := NewRenderer("https://attend.example.edu")
	png, err := r.PNG("lecture-123", testExpiry)
	require.NoError(t, err)

	// PNG magic bytes.
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))
}

func TestDataURL(t *testing.T) {
	r := NewRenderer("https://attend.example.edu")
	dataURL, err := r.DataURL("lecture-123", testExpiry)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(dataURL, "data:image/png;base64,"))
	assert.Greater(t, len(dataURL), len("data:image/png;base64,"))
}
