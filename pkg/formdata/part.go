package formdata

import (
	"fmt"
	"io"
	"strings"

	"github.com/keboola/go-utils/pkg/orderedmap"
)

// Part is one section of a multipart body.
// It is immutable once appended to the builder.
//
// The content source is lazy: an in-memory part wraps its buffer, a
// file-backed part opens a read stream over the file first when the body
// is built.
type Part struct {
	name          string
	open          func() (io.ReadCloser, error)
	contentLength uint64
	headers       *orderedmap.OrderedMap
}

// Name returns the form field name of the part.
func (p Part) Name() string {
	return p.name
}

// ContentLength returns the byte count of the part content.
func (p Part) ContentLength() uint64 {
	return p.contentLength
}

// Headers returns the header block of the part, in emit order.
func (p Part) Headers() *orderedmap.OrderedMap {
	return p.headers
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

// partHeaders builds the header block of one part.
// A MIME type, if present, is emitted first under the Content-Type key.
// The disposition string is always emitted under the Content-Disposition key,
// see RFC 2183.
func partHeaders(name, fileName, mimeType string) *orderedmap.OrderedMap {
	headers := orderedmap.New()
	if mimeType != "" {
		headers.Set("Content-Type", mimeType)
	}
	disposition := fmt.Sprintf(`form-data; name="%s"`, escapeQuotes(name))
	if fileName != "" {
		disposition += fmt.Sprintf(`; filename="%s"`, escapeQuotes(fileName))
	}
	headers.Set("Content-Disposition", disposition)
	return headers
}
