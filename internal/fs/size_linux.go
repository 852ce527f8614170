//go:build linux

package fs

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// deviceSize queries the byte size of a block device with the
// BLKGETSIZE64 ioctl.
func deviceSize(f File) (int64, error) {
	osf, ok := f.(*os.File)
	if !ok {
		return 0, fmt.Errorf("cannot determine size of %T", f)
	}
	size, err := unix.IoctlGetInt(int(osf.Fd()), unix.BLKGETSIZE64)
	if err != nil {
		return 0, fmt.Errorf("ioctl BLKGETSIZE64 failed: %w", err)
	}
	return int64(size), nil
}
