package disk

import (
	"bytes"
	"encoding/binary"
)

// Directory entry attribute bits.
const (
	AttrReadOnly    = 0x01
	AttrHidden      = 0x02
	AttrSystem      = 0x04
	AttrVolumeLabel = 0x08
	AttrDirectory   = 0x10
	AttrArchive     = 0x20
)

// DirEntrySize is the fixed size of a classic FAT directory entry.
const DirEntrySize = 32

// DirEntry is a 32-byte FAT directory entry. Serialized verbatim with
// encoding/binary, little-endian.
type DirEntry struct {
	Name            [11]byte // 8.3 name, space padded
	Attribute       uint8
	NTReserved      uint8
	CreateTimeTenth uint8
	CreateTime      uint16
	CreateDate      uint16
	LastAccessDate  uint16
	FirstClusterHI  uint16
	WriteTime       uint16
	WriteDate       uint16
	FirstClusterLO  uint16
	FileSize        uint32
}

// Encode serializes the entry into its 32-byte on-disk form.
func (e *DirEntry) Encode() []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, e) // fixed-size struct, cannot fail
	return buf.Bytes()
}

// volumeLabelEntry is the root directory record repeating the volume
// label of the boot sector.
func volumeLabelEntry(layout Layout) DirEntry {
	e := DirEntry{
		Attribute:      AttrVolumeLabel,
		CreateTime:     layout.CreateTime,
		CreateDate:     layout.CreateDate,
		LastAccessDate: layout.CreateDate,
		WriteTime:      layout.CreateTime,
		WriteDate:      layout.CreateDate,
	}
	copy(e.Name[:], volumeLabel)
	return e
}

// overlayFileEntry is the directory record of the pre-registered overlay
// file. It claims MaxFileSize bytes starting at FirstCluster even though
// only the leading FileZeros bytes are materialized.
func overlayFileEntry(layout Layout) DirEntry {
	e := DirEntry{
		Attribute:      AttrArchive,
		CreateTime:     layout.CreateTime,
		CreateDate:     layout.CreateDate,
		LastAccessDate: layout.CreateDate,
		WriteTime:      layout.CreateTime,
		WriteDate:      layout.CreateDate,
		FirstClusterLO: FirstCluster,
		FileSize:       uint32(layout.MaxFileSize),
	}
	copy(e.Name[:], overlayFileName)
	return e
}
