package fs

import "io"

// Size reports the byte size of a regular file or block device. Seeking
// to the end works for both on every supported platform; block devices
// that reject it fall back to a platform ioctl.
func Size(f File) (int64, error) {
	size, err := f.Seek(0, io.SeekEnd)
	if err == nil {
		_, err = f.Seek(0, io.SeekStart)
		return size, err
	}
	return deviceSize(f)
}
