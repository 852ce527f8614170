//go:build !windows

package fs

import "os"

// Open opens a device or image file read-only.
func Open(path string) (File, error) {
	return os.Open(path)
}

// OpenRW opens a device or image file for reading and writing.
func OpenRW(path string) (File, error) {
	return os.OpenFile(path, os.O_RDWR, 0)
}
