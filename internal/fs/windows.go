//go:build windows
// +build windows

// Copyright (c) 2026 The mkoverlay authors
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.
package fs

import (
	"fmt"
	"os"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"
)

// WindowsDiskFile wraps a raw volume handle. Raw volume paths look like
// \\.\E: and require CreateFile; os.OpenFile cannot open them.
type WindowsDiskFile struct {
	handle windows.Handle
	path   string
}

type diskFileInfo struct {
	name string
	size int64
}

func (fi *diskFileInfo) Name() string       { return fi.name }
func (fi *diskFileInfo) Size() int64        { return fi.size }
func (fi *diskFileInfo) Mode() os.FileMode  { return 0 }
func (fi *diskFileInfo) ModTime() time.Time { return time.Time{} }
func (fi *diskFileInfo) IsDir() bool        { return false }
func (fi *diskFileInfo) Sys() interface{}   { return nil }

// Open opens a disk or volume for raw reading.
func Open(path string) (File, error) {
	return open(path, windows.GENERIC_READ)
}

// OpenRW opens a disk or volume for raw reading and writing.
func OpenRW(path string) (File, error) {
	return open(path, windows.GENERIC_READ|windows.GENERIC_WRITE)
}

func open(path string, access uint32) (File, error) {
	handle, err := windows.CreateFile(
		windows.StringToUTF16Ptr(path),
		access,
		windows.FILE_SHARE_READ|windows.FILE_SHARE_WRITE,
		nil,
		windows.OPEN_EXISTING,
		0,
		0,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open %q: %w", path, err)
	}
	return &WindowsDiskFile{handle: handle, path: path}, nil
}

func (d *WindowsDiskFile) Read(p []byte) (int, error) {
	var n uint32
	err := windows.ReadFile(d.handle, p, &n, nil)
	return int(n), err
}

func (d *WindowsDiskFile) Write(p []byte) (int, error) {
	var n uint32
	err := windows.WriteFile(d.handle, p, &n, nil)
	return int(n), err
}

func (d *WindowsDiskFile) Seek(offset int64, whence int) (int64, error) {
	return windows.Seek(d.handle, offset, whence)
}

const ioctlDiskGetLengthInfo = 0x0007405C

func (d *WindowsDiskFile) Stat() (os.FileInfo, error) {
	var (
		length        int64
		bytesReturned uint32
	)
	err := windows.DeviceIoControl(
		d.handle,
		ioctlDiskGetLengthInfo,
		nil,
		0,
		(*byte)(unsafe.Pointer(&length)),
		uint32(unsafe.Sizeof(length)),
		&bytesReturned,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("DeviceIoControl(IOCTL_DISK_GET_LENGTH_INFO) failed: %w", err)
	}
	return &diskFileInfo{name: d.path, size: length}, nil
}

func (d *WindowsDiskFile) Close() error {
	return windows.CloseHandle(d.handle)
}

func deviceSize(f File) (int64, error) {
	fi, err := f.Stat()
	if err != nil {
		return 0, err
	}
	return fi.Size(), nil
}
