package client

import (
	"compress/gzip"
	"fmt"
	"io"
	"strings"

	"github.com/andybalholm/brotli"
)

// decodeBody wraps the body with a decompressing reader matching the
// Content-Encoding response header.
func decodeBody(body io.ReadCloser, contentEncoding string) (io.ReadCloser, error) {
	switch strings.ToLower(contentEncoding) {
	case "gzip":
		v, err := gzip.NewReader(body)
		if err != nil {
			return nil, fmt.Errorf("cannot decode gzip: %w", err)
		}
		return v, nil
	case "br":
		return io.NopCloser(brotli.NewReader(body)), nil
	default:
		return body, nil
	}
}
