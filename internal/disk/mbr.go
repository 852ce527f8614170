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
	"fmt"
	"io"
	"math"
)

const (
	// SectorSize is the logical sector size assumed throughout. FAT32
	// permits larger sectors but virtually no removable media uses them.
	SectorSize = 512

	// PartitionTableOffset is the byte offset of the first partition
	// entry within the MBR (0x1BE).
	PartitionTableOffset = 446

	// PartitionEntrySize is the fixed size of one MBR partition record.
	PartitionEntrySize = 16

	// MaxPartitions is the number of slots in the classic MBR table.
	MaxPartitions = 4
)

// PartitionEntry is a single 16-byte record of the MBR partition table.
// Multi-byte fields are little-endian on disk; Encode and
// decodePartitionEntry are the only serialization paths.
type PartitionEntry struct {
	BootIndicator uint8         // 0x00: 0x80 for bootable, 0x00 for inactive
	StartCHS      [3]byte       // 0x01: cylinder-head-sector of the first sector
	Type          PartitionType // 0x04: partition type ID (0x0B for FAT32)
	EndCHS        [3]byte       // 0x05: cylinder-head-sector of the last sector
	StartLBA      uint32        // 0x08: logical block address of the first sector
	TotalSectors  uint32        // 0x0C: sector count of the partition
}

// Encode serializes the entry into its on-disk representation.
func (e *PartitionEntry) Encode() [PartitionEntrySize]byte {
	var raw [PartitionEntrySize]byte
	raw[0] = e.BootIndicator
	copy(raw[1:4], e.StartCHS[:])
	raw[4] = byte(e.Type)
	copy(raw[5:8], e.EndCHS[:])
	binary.LittleEndian.PutUint32(raw[8:12], e.StartLBA)
	binary.LittleEndian.PutUint32(raw[12:16], e.TotalSectors)
	return raw
}

func decodePartitionEntry(raw []byte) PartitionEntry {
	var e PartitionEntry
	e.BootIndicator = raw[0]
	copy(e.StartCHS[:], raw[1:4])
	e.Type = PartitionType(raw[4])
	copy(e.EndCHS[:], raw[5:8])
	e.StartLBA = binary.LittleEndian.Uint32(raw[8:12])
	e.TotalSectors = binary.LittleEndian.Uint32(raw[12:16])
	return e
}

// Offset returns the byte offset of the partition's first sector.
func (e *PartitionEntry) Offset() uint64 {
	return uint64(e.StartLBA) * SectorSize
}

// Size returns the partition size in bytes.
func (e *PartitionEntry) Size() uint64 {
	return uint64(e.TotalSectors) * SectorSize
}

// String provides a human-readable representation of the entry.
func (e *PartitionEntry) String() string {
	bootable := "No"
	if e.BootIndicator == 0x80 {
		bootable = "Yes"
	}
	return fmt.Sprintf("  Bootable: %s (0x%02X)\n"+
		"  Partition Type: 0x%02X (%s)\n"+
		"  Start LBA: %d\n"+
		"  Total Sectors: %d",
		bootable, e.BootIndicator,
		uint8(e.Type), e.Type.Name(),
		e.StartLBA,
		e.TotalSectors)
}

// Table manages the four fixed MBR partition slots of one device. The
// underlying stream's seek cursor is shared mutable state: callers must
// serialize all operations on one sink.
type Table struct {
	rw      io.ReadWriteSeeker
	entries []PartitionEntry
}

// LoadTable scans all four partition slots at PartitionTableOffset.
// All-zero records denote unused slots and are excluded from the
// in-memory table. A short read makes the whole table unreadable and is
// reported as a DeviceError.
func LoadTable(rw io.ReadWriteSeeker) (*Table, error) {
	if _, err := rw.Seek(PartitionTableOffset, io.SeekStart); err != nil {
		return nil, deviceErr("seek partition table", err)
	}

	t := &Table{rw: rw}
	for i := 0; i < MaxPartitions; i++ {
		var raw [PartitionEntrySize]byte
		if _, err := io.ReadFull(rw, raw[:]); err != nil {
			return nil, deviceErr("read partition table", err)
		}
		if raw == [PartitionEntrySize]byte{} {
			continue
		}
		t.entries = append(t.entries, decodePartitionEntry(raw[:]))
	}
	return t, nil
}

// Entries returns the loaded and added partition entries in slot order.
func (t *Table) Entries() []PartitionEntry {
	return t.entries
}

// Add registers a FAT32 partition covering size bytes at the given byte
// offset, persists its record to the device and returns the 1-based slot
// number. The sector count is truncated toward zero; enforcing alignment
// is left to the caller.
func (t *Table) Add(offset, size uint64) (int, error) {
	if len(t.entries) >= MaxPartitions {
		return 0, ErrTableFull
	}
	if offset/SectorSize > math.MaxUint32 || size/SectorSize > math.MaxUint32 {
		return 0, fmt.Errorf("partition at %d spanning %d bytes: %w", offset, size, ErrInvalidSize)
	}

	entry := PartitionEntry{
		StartCHS:     encodeCHS(offset),
		Type:         PartitionTypeFAT32CHS,
		EndCHS:       encodeCHS(offset + size),
		StartLBA:     uint32(offset / SectorSize),
		TotalSectors: uint32(size / SectorSize),
	}

	slot := len(t.entries)
	if _, err := t.rw.Seek(PartitionTableOffset+int64(slot)*PartitionEntrySize, io.SeekStart); err != nil {
		return 0, deviceErr("seek partition slot", err)
	}
	raw := entry.Encode()
	if n, err := t.rw.Write(raw[:]); err != nil {
		return 0, deviceErr("write partition entry", err)
	} else if n < len(raw) {
		return 0, deviceErr("write partition entry", io.ErrShortWrite)
	}

	t.entries = append(t.entries, entry)
	return slot + 1, nil
}

// PartitionType is the single-byte partition type ID of an MBR entry.
type PartitionType uint8

const (
	PartitionTypeEmpty PartitionType = iota
	PartitionTypeFAT12
	PartitionTypeXENIXRoot
	PartitionTypeXENIXUsr
	PartitionTypeFAT16LessThan32MB
	PartitionTypeExtendedCHS
	PartitionTypeFAT16GreaterThan32MB
	PartitionTypeNTFSHPFSexFATQNX
	PartitionTypeAIX
	PartitionTypeAIXBootable
	PartitionTypeOs2BootManager
	PartitionTypeFAT32CHS
	PartitionTypeFAT32LBA
	PartitionTypeFAT16LBA
)

const (
	PartitionTypeExtendedLBA PartitionType = 0x0F
	PartitionTypeLinuxSwap   PartitionType = 0x82
	PartitionTypeLinux       PartitionType = 0x83
	PartitionTypeGPT         PartitionType = 0xEE
	PartitionTypeEFISystem   PartitionType = 0xEF
)

// Name maps common partition type IDs to display names.
func (p PartitionType) Name() string {
	switch p {
	case PartitionTypeEmpty:
		return "Empty"
	case PartitionTypeFAT12:
		return "FAT12"
	case PartitionTypeFAT16LessThan32MB:
		return "FAT16 (<32MB)"
	case PartitionTypeExtendedCHS:
		return "Extended (CHS)"
	case PartitionTypeFAT16GreaterThan32MB:
		return "FAT16 (>32MB)"
	case PartitionTypeNTFSHPFSexFATQNX:
		return "NTFS/HPFS/exFAT/QNX"
	case PartitionTypeFAT32CHS:
		return "FAT32 (CHS)"
	case PartitionTypeFAT32LBA:
		return "FAT32 (LBA)"
	case PartitionTypeFAT16LBA:
		return "FAT16 (LBA)"
	case PartitionTypeExtendedLBA:
		return "Extended (LBA)"
	case PartitionTypeLinuxSwap:
		return "Linux swap"
	case PartitionTypeLinux:
		return "Linux filesystem"
	case PartitionTypeGPT:
		return "GPT Protective MBR"
	case PartitionTypeEFISystem:
		return "EFI System Partition"
	default:
		return "Unknown"
	}
}

// IsFAT reports whether the type ID denotes a FAT variant.
func (p PartitionType) IsFAT() bool {
	switch p {
	case PartitionTypeFAT12,
		PartitionTypeFAT16LessThan32MB,
		PartitionTypeFAT16GreaterThan32MB,
		PartitionTypeFAT16LBA,
		PartitionTypeFAT32CHS,
		PartitionTypeFAT32LBA:
		return true
	}
	return false
}
