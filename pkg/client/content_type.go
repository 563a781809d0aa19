package client

import (
	"regexp"
	"strings"
)

// jsonContentTypeRegexp matches JSON content types including vendor trees, e.g. "application/vnd.api+json".
var jsonContentTypeRegexp = regexp.MustCompile(`^application/([a-zA-Z0-9\.\-]+\+)?json$`)

func isJSONContentType(contentType string) bool {
	// Strip parameters, e.g. "; charset=utf-8"
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	return jsonContentTypeRegexp.MatchString(strings.TrimSpace(contentType))
}
