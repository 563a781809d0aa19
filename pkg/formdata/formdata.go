// Package formdata builds multipart/form-data request bodies, see RFC 2388.
//
// Use New to create a FormData builder, append parts from in-memory buffers
// by the AppendData/AppendField methods or from files by the
// AppendFile/AppendFileAs methods, and assemble the framed body by the
// Build method.
//
// File content is not loaded to memory when a part is appended.
// Build streams it in fixed-size chunks, so a file may exceed the available
// memory. Parts appear in the body in append order.
//
// A FormData value is not safe for concurrent use.
package formdata

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cast"
)

// DefaultBufferSize is the default maximum number of bytes read from a
// content stream per read during Build.
const DefaultBufferSize = 4096

// crlf is the end-of-line token required by RFC 2388 framing.
const crlf = "\r\n"

// FormData accumulates ordered parts and assembles the multipart body.
// The With* methods return a modified clone, the Append* methods add parts
// to the receiver.
type FormData struct {
	boundary   string
	eol        string
	bufferSize int
	fs         FileSystem
	parts      []Part
}

// New creates a FormData builder with a random boundary,
// CRLF line endings and the default stream buffer size.
func New() *FormData {
	return &FormData{
		boundary:   randomBoundary(),
		eol:        crlf,
		bufferSize: DefaultBufferSize,
		fs:         DefaultFileSystem(),
	}
}

// WithBoundary returns a clone of the builder with a custom boundary.
// The caller is responsible for the boundary not occurring in any part
// content, see RFC 2046, section 5.1.1.
func (f *FormData) WithBoundary(boundary string) *FormData {
	clone := f.clone()
	clone.boundary = boundary
	return clone
}

// WithBufferSize returns a clone of the builder with the maximum number of
// bytes read from a content stream per read during Build.
func (f *FormData) WithBufferSize(size int) *FormData {
	if size < 1 {
		panic(fmt.Errorf("buffer size must be positive, given %d", size))
	}
	clone := f.clone()
	clone.bufferSize = size
	return clone
}

// WithFileSystem returns a clone of the builder with a custom FileSystem
// for file-backed parts.
func (f *FormData) WithFileSystem(fs FileSystem) *FormData {
	if fs == nil {
		panic(fmt.Errorf("file system cannot be nil"))
	}
	clone := f.clone()
	clone.fs = fs
	return clone
}

// clone copies the builder, the part list is copied too, so appends to one
// value never leak to the other.
func (f *FormData) clone() *FormData {
	clone := *f
	clone.parts = append([]Part(nil), f.parts...)
	return &clone
}

// Boundary returns the boundary delimiting the parts.
func (f *FormData) Boundary() string {
	return f.boundary
}

// Parts returns the appended parts, in append order.
func (f *FormData) Parts() []Part {
	return f.parts
}

// ContentType returns the value for the Content-Type header of a request
// carrying the built body.
func (f *FormData) ContentType() string {
	return "multipart/form-data; boundary=" + f.boundary
}

// AppendData appends a part over an in-memory buffer.
// The fileName and mimeType are optional, empty string means absent.
// The builder keeps a reference to data, the caller must not modify it
// until the body is built.
func (f *FormData) AppendData(data []byte, name, fileName, mimeType string) {
	f.parts = append(f.parts, Part{
		name:          name,
		open:          func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(data)), nil },
		contentLength: uint64(len(data)),
		headers:       partHeaders(name, fileName, mimeType),
	})
}

// AppendField appends a plain form field, the value is converted to string.
func (f *FormData) AppendField(name string, value any) error {
	str, err := cast.ToStringE(value)
	if err != nil {
		return fmt.Errorf(`cannot convert value of field "%s" to string: %w`, name, err)
	}
	f.AppendData([]byte(str), name, "", "")
	return nil
}

// AppendFile appends a part streaming the file at the path.
// The file name is derived from the last path component and the MIME type
// from the file extension.
func (f *FormData) AppendFile(path, name string) error {
	fileName := filepath.Base(path)
	if fileName == "." || fileName == string(filepath.Separator) {
		return &InvalidFileSourceError{Path: path, Reason: "cannot derive file name from the path"}
	}
	mimeType := mime.TypeByExtension(filepath.Ext(fileName))
	if mimeType == "" {
		return &InvalidFileSourceError{Path: path, Reason: "cannot derive MIME type from the file extension"}
	}
	return f.AppendFileAs(path, name, fileName, mimeType)
}

// AppendFileAs appends a part streaming the file at the path, with an
// explicit file name and MIME type, empty strings mean absent.
//
// The file is validated, but its content is not read: Build opens a stream
// over it first when the body is assembled.
func (f *FormData) AppendFileAs(path, name, fileName, mimeType string) error {
	exists, isDir := f.fs.Exists(path)
	if !exists {
		return &InvalidFileSourceError{Path: path, Reason: "file does not exist"}
	}
	if isDir {
		return &InvalidFileSourceError{Path: path, Reason: "path is a directory"}
	}

	if reachable, err := f.fs.CheckReachable(path); err != nil || !reachable {
		return &UnreachableFileSourceError{Path: path, Err: err}
	}

	size, err := f.fs.Size(path)
	if err != nil {
		return &UnknownFileSizeError{Path: path, Err: err}
	}

	// Probe the stream, the content itself is read during Build.
	if stream, err := f.fs.OpenReadStream(path); err != nil {
		return &StreamInitializationFailedError{Path: path, Err: err}
	} else {
		_ = stream.Close()
	}

	fs := f.fs
	f.parts = append(f.parts, Part{
		name: name,
		open: func() (io.ReadCloser, error) {
			stream, err := fs.OpenReadStream(path)
			if err != nil {
				return nil, &StreamInitializationFailedError{Path: path, Err: err}
			}
			return stream, nil
		},
		contentLength: size,
		headers:       partHeaders(name, fileName, mimeType),
	})
	return nil
}

// ContentLength returns the exact byte length of the body Build produces,
// computed without reading any content stream.
func (f *FormData) ContentLength() uint64 {
	if len(f.parts) == 0 {
		return 0
	}
	length := uint64(0)
	for _, part := range f.parts {
		length += uint64(len(f.startBoundary()))
		for _, key := range part.headers.Keys() {
			value, _ := part.headers.Get(key)
			length += uint64(len(key) + len(": ") + len(cast.ToString(value)) + len(f.eol))
		}
		length += uint64(len(f.eol))
		length += part.contentLength
		length += uint64(len(f.eol))
	}
	return length + uint64(len(f.endBoundary()))
}

// Build assembles the framed body.
//
// For a builder with zero parts it returns an empty body with no boundary
// markers. Otherwise each part is framed by the start boundary, its header
// block and an empty line, and the whole body is terminated by the end
// boundary. Content streams are opened and closed within this call, at most
// bufferSize bytes are read per read.
//
// On the first stream failure the build is aborted and no partial body is
// returned. The part list is left unchanged in all cases.
func (f *FormData) Build() ([]byte, error) {
	if len(f.parts) == 0 {
		return []byte{}, nil
	}

	var buf bytes.Buffer
	buf.Grow(int(f.ContentLength()))
	chunk := make([]byte, f.bufferSize)

	for _, part := range f.parts {
		buf.WriteString(f.startBoundary())
		for _, key := range part.headers.Keys() {
			value, _ := part.headers.Get(key)
			buf.WriteString(key + ": " + cast.ToString(value) + f.eol)
		}
		buf.WriteString(f.eol)
		if err := streamPart(&buf, part, chunk); err != nil {
			return nil, err
		}
		buf.WriteString(f.eol)
	}

	buf.WriteString(f.endBoundary())
	return buf.Bytes(), nil
}

func (f *FormData) startBoundary() string {
	return "--" + f.boundary + f.eol
}

func (f *FormData) endBoundary() string {
	return "--" + f.boundary + "--" + f.eol
}

// streamPart copies the part content to the buffer in chunk-sized reads.
// The stream is closed regardless of the outcome.
func streamPart(buf *bytes.Buffer, part Part, chunk []byte) (err error) {
	stream, err := part.open()
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := stream.Close(); closeErr != nil {
			err = multierror.Append(err, closeErr).ErrorOrNil()
		}
	}()

	for {
		n, readErr := stream.Read(chunk)
		if n > 0 {
			buf.Write(chunk[:n])
		}
		if readErr == io.EOF {
			return nil
		}
		if readErr != nil {
			return &StreamReadError{Name: part.name, Err: readErr}
		}
	}
}

// randomBoundary generates a boundary with no separator characters,
// to minimize the chance of a collision with part content.
func randomBoundary() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
