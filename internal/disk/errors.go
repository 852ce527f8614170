package disk

import (
	"errors"
	"fmt"
)

var (
	// ErrTableFull is returned by Table.Add when all four MBR slots are
	// already occupied. The caller may keep using the existing entries.
	ErrTableFull = errors.New("partition table is full")

	// ErrInvalidSize is returned when a requested partition or file size
	// cannot be represented within FAT32's 32-bit fields, or when the
	// derived cluster and FAT quantities would not be positive.
	ErrInvalidSize = errors.New("size not representable on a FAT32 volume")
)

// DeviceError wraps a failed seek, read or write against the underlying
// device. A raw write to a block device is not safely retryable, so a
// DeviceError always aborts the current operation without repair.
type DeviceError struct {
	Op  string
	Err error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("device I/O: %s: %v", e.Op, e.Err)
}

func (e *DeviceError) Unwrap() error {
	return e.Err
}

func deviceErr(op string, err error) error {
	return &DeviceError{Op: op, Err: err}
}
