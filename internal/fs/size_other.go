//go:build !linux && !windows

package fs

import "fmt"

func deviceSize(f File) (int64, error) {
	return 0, fmt.Errorf("cannot determine device size on this platform")
}
