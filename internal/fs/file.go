package fs

import (
	"io"
	"os"
)

// File is the sink surface the disk package needs: a seekable stream
// with read and write access.
type File interface {
	io.ReadWriteSeeker
	io.Closer
	Stat() (os.FileInfo, error)
}
