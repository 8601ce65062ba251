package service

import (
	"bytes"
	"compress/gzip"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCompressionPolicy(t *testing.T) {
	tests := []struct {
		contentType string
		compress    bool
	}{
		{"text/plain", true},
		{"text/plain; charset=utf-8", true},
		{"application/json", true},
		{"application/octet-stream", true},
		{"APPLICATION/PDF", false},
		{"application/zip", false},
		{"application/gzip", false},
		{"image/jpeg", false},
		{"image/png", false},
		{"video/mp4", false},
		{"audio/mpeg", false},
		{"", true},
	}

	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			assert.Equal(t, tt.compress, DefaultCompressionPolicy(tt.contentType))
		})
	}
}

func TestGzipAll(t *testing.T) {
	payload := strings.Repeat("archive me ", 1000)

	buf, err := gzipAll(strings.NewReader(payload))
	require.NoError(t, err)
	assert.Less(t, buf.Len(), len(payload))

	zr, err := gzip.NewReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer zr.Close()

	out, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Equal(t, payload, string(out))
}

func TestGzipAll_Empty(t *testing.T) {
	buf, err := gzipAll(strings.NewReader(""))
	require.NoError(t, err)
	assert.NotZero(t, buf.Len()) // gzip header alone
}
