package formdata

import (
	"fmt"
)

// InvalidFileSourceError is returned when the appended path does not point
// to a readable local file, or when a file name / MIME type cannot be
// derived from it.
type InvalidFileSourceError struct {
	Path   string
	Reason string
}

func (e *InvalidFileSourceError) Error() string {
	return fmt.Sprintf(`invalid file source "%s": %s`, e.Path, e.Reason)
}

// UnreachableFileSourceError is returned when the file is a placeholder
// item that cannot be materialized, for example a file offloaded to a
// remote file system.
type UnreachableFileSourceError struct {
	Path string
	Err  error
}

func (e *UnreachableFileSourceError) Error() string {
	msg := fmt.Sprintf(`unreachable file source "%s"`, e.Path)
	if e.Err != nil {
		msg += fmt.Sprintf(": %s", e.Err)
	}
	return msg
}

func (e *UnreachableFileSourceError) Unwrap() error {
	return e.Err
}

// UnknownFileSizeError is returned when the size of the file cannot be read.
type UnknownFileSizeError struct {
	Path string
	Err  error
}

func (e *UnknownFileSizeError) Error() string {
	return fmt.Sprintf(`cannot read size of file "%s": %s`, e.Path, e.Err)
}

func (e *UnknownFileSizeError) Unwrap() error {
	return e.Err
}

// StreamInitializationFailedError is returned when a read stream over the
// file cannot be opened.
type StreamInitializationFailedError struct {
	Path string
	Err  error
}

func (e *StreamInitializationFailedError) Error() string {
	return fmt.Sprintf(`cannot open stream over file "%s": %s`, e.Path, e.Err)
}

func (e *StreamInitializationFailedError) Unwrap() error {
	return e.Err
}

// StreamReadError is returned from Build when a content stream reports an
// error mid-read. No partial body is returned together with it.
type StreamReadError struct {
	Name string // form field name of the failing part
	Err  error
}

func (e *StreamReadError) Error() string {
	return fmt.Sprintf(`cannot read content of part "%s": %s`, e.Name, e.Err)
}

func (e *StreamReadError) Unwrap() error {
	return e.Err
}
