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
package disk

import (
	"encoding/binary"
	"io"
	"time"
)

const (
	// volumeLabel names the synthesized volume, both in the boot sector
	// and in the root directory label entry.
	volumeLabel = "OVERLAY    "

	// overlayFileName is the 8.3 name of the pre-registered file.
	overlayFileName = "OVERLAY IMG"

	// backupBootSector is the sector offset of the boot sector copy,
	// kept because the target is typically flash memory.
	backupBootSector = 6
)

// FAT entry sentinels. Entries for the two reserved clusters carry the
// media descriptor and the mirroring flags; 0x0FFFFFF8 and above marks
// the end of a cluster chain.
const (
	fatMediaEntry = 0x0FFFFFF8
	fatEndOfChain = 0x0FFFFFFF
)

// fatReserved holds the three leading FAT entries: cluster 0 (media
// descriptor), cluster 1 (reserved) and cluster 2, the root directory's
// single-cluster chain.
var fatReserved = [3]uint32{fatMediaEntry, fatEndOfChain, fatMediaEntry}

// ProgressFunc consumes the running byte counters of one format
// operation. id identifies the sink when several formatters report to a
// shared consumer. The callback runs synchronously on the formatter's
// goroutine after every write: it must not block for long and must not
// call back into the formatter or the partition table.
type ProgressFunc func(id string, written, total uint64)

// Formatter writes a complete FAT32 filesystem onto a byte range of a
// seekable sink, holding a single pre-registered overlay file. All I/O is
// synchronous and unbuffered; a failed write aborts the operation leaving
// the partially written state as-is.
type Formatter struct {
	w        io.WriteSeeker
	id       string
	progress ProgressFunc
	now      func() time.Time

	written uint64
	total   uint64
}

// NewFormatter returns a formatter reporting progress for the sink
// identified by id. progress may be nil.
func NewFormatter(w io.WriteSeeker, id string, progress ProgressFunc) *Formatter {
	if progress == nil {
		progress = func(string, uint64, uint64) {}
	}
	return &Formatter{
		w:        w,
		id:       id,
		progress: progress,
		now:      time.Now,
	}
}

// Format synthesizes a FAT32 filesystem over the partition of the given
// byte size starting at offset: boot sector, FSInfo sector, backup boot
// sector, two FATs, the root directory and the leading zeros of the
// overlay file. The file's directory entry claims the whole partition
// while only its first 64 KiB of content is written; the FAT chain keeps
// the remaining clusters reserved for the payload supplied later.
func (f *Formatter) Format(offset, size uint64) error {
	layout, err := NewLayout(size, f.now())
	if err != nil {
		return err
	}
	return f.format(offset, layout)
}

func (f *Formatter) format(offset uint64, layout Layout) error {
	f.written = 0
	f.total = layout.HeaderSize + layout.FileZeros

	if _, err := f.w.Seek(int64(offset), io.SeekStart); err != nil {
		return deviceErr("seek partition start", err)
	}

	boot := newBootSector(layout)
	bootBytes := boot.Encode()
	info := newFSInfoSector(layout)

	if err := f.write(bootBytes); err != nil {
		return err
	}
	if err := f.write(info.Encode()); err != nil {
		return err
	}
	if err := f.writeZeros(4 * SectorSize); err != nil {
		return err
	}
	if err := f.write(bootBytes); err != nil {
		return err
	}
	if err := f.writeZeros((reservedSectors - backupBootSector - 1) * SectorSize); err != nil {
		return err
	}

	for i := 0; i < numFATs; i++ {
		if err := f.writeFATCopy(layout); err != nil {
			return err
		}
	}

	label := volumeLabelEntry(layout)
	file := overlayFileEntry(layout)
	if err := f.write(label.Encode()); err != nil {
		return err
	}
	if err := f.write(file.Encode()); err != nil {
		return err
	}
	if err := f.writeZeros(layout.ClusterSize - 2*DirEntrySize); err != nil {
		return err
	}

	return f.writeZeros(layout.FileZeros)
}

// writeFATCopy emits one File Allocation Table: the three reserved
// entries, the linear cluster chain of the overlay file, its end-of-chain
// marker, and zero padding up to the FAT's declared sector length.
func (f *Formatter) writeFATCopy(layout Layout) error {
	buf := make([]byte, 0, SectorSize)
	for _, entry := range fatReserved {
		buf = binary.LittleEndian.AppendUint32(buf, entry)
	}

	// Each chained cluster's entry points at its successor; the chain
	// covers FirstCluster..NextFreeCluster-1.
	for cluster := uint64(FirstCluster) + 1; cluster < layout.NextFreeCluster; cluster++ {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(cluster))
		if len(buf) == cap(buf) {
			if err := f.write(buf); err != nil {
				return err
			}
			buf = buf[:0]
		}
	}
	buf = binary.LittleEndian.AppendUint32(buf, fatEndOfChain)
	if err := f.write(buf); err != nil {
		return err
	}

	used := uint64(len(fatReserved)+1)*4 + (layout.NextFreeCluster-(FirstCluster+1))*4
	return f.writeZeros(layout.FATLength*SectorSize - used)
}

// write pushes p to the sink, accumulates the progress counters and
// notifies the reporter. A short write is an error: ambiguous success on
// a raw device write is unacceptable.
func (f *Formatter) write(p []byte) error {
	n, err := f.w.Write(p)
	if err == nil && n < len(p) {
		err = io.ErrShortWrite
	}
	if err != nil {
		return deviceErr("write filesystem data", err)
	}
	f.written += uint64(n)
	f.progress(f.id, f.written, f.total)
	return nil
}

// writeZeros writes size zero bytes in sector-sized chunks, bounding
// per-call memory and keeping progress reports fine-grained.
func (f *Formatter) writeZeros(size uint64) error {
	var zeros [SectorSize]byte
	for size > 0 {
		n := min(size, SectorSize)
		if err := f.write(zeros[:n]); err != nil {
			return err
		}
		size -= n
	}
	return nil
}
