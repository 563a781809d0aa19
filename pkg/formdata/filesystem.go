package formdata

import (
	"io"
	"os"
)

// FileSystem provides the file operations needed to validate and stream
// file-backed parts. The default implementation reads the local OS file
// system, a custom implementation can serve network or in-memory files.
type FileSystem interface {
	// Exists reports whether the path exists and whether it is a directory.
	Exists(path string) (exists bool, isDir bool)
	// Size returns the byte size of the file.
	Size(path string) (uint64, error)
	// CheckReachable reports whether the file content can be materialized.
	// A placeholder item, e.g. a file offloaded to a remote file system,
	// may exist but not be reachable.
	CheckReachable(path string) (bool, error)
	// OpenReadStream opens a sequential read stream over the file content.
	OpenReadStream(path string) (io.ReadCloser, error)
}

// DefaultFileSystem returns a FileSystem reading the local OS file system.
func DefaultFileSystem() FileSystem {
	return osFileSystem{}
}

type osFileSystem struct{}

func (osFileSystem) Exists(path string) (bool, bool) {
	info, err := os.Stat(path)
	if err != nil {
		return false, false
	}
	return true, info.IsDir()
}

func (osFileSystem) Size(path string) (uint64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return uint64(info.Size()), nil
}

func (osFileSystem) CheckReachable(path string) (bool, error) {
	// Local files are reachable whenever they can be stated,
	// placeholder materialization is a concern of remote file systems.
	if _, err := os.Stat(path); err != nil {
		return false, err
	}
	return true, nil
}

func (osFileSystem) OpenReadStream(path string) (io.ReadCloser, error) {
	return os.Open(path)
}
