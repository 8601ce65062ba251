package service

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"strings"
)

// CompressionPolicy decides whether content of the given MIME type should be
// gzip-compressed on the small-file path. The multipart path never
// compresses; parts go to storage untouched.
type CompressionPolicy func(contentType string) bool

// alreadyCompressed lists formats where gzip only burns CPU.
var alreadyCompressed = map[string]struct{}{
	"application/zip":    {},
	"application/gzip":   {},
	"application/x-gzip": {},
	"application/x-7z-compressed":  {},
	"application/x-rar-compressed": {},
	"application/pdf":              {},
	"image/jpeg":                   {},
	"image/png":                    {},
	"image/gif":                    {},
	"image/webp":                   {},
	"video/mp4":                    {},
	"video/webm":                   {},
	"audio/mpeg":                   {},
	"audio/ogg":                    {},
}

// DefaultCompressionPolicy compresses everything except a denylist of formats
// that are already compressed.
func DefaultCompressionPolicy(contentType string) bool {
	// Strip parameters like "; charset=utf-8".
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	_, skip := alreadyCompressed[contentType]
	return !skip
}

// gzipAll compresses the full reader into memory. Only used on the
// small-file path, where payloads are bounded by the request size limit.
func gzipAll(r io.Reader) (*bytes.Buffer, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := io.Copy(zw, r); err != nil {
		zw.Close()
		return nil, fmt.Errorf("gzip copy: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("gzip close: %w", err)
	}
	return &buf, nil
}
