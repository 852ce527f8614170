package disk

import (
	"bytes"
	"encoding/binary"
)

// FSInfo sector signatures. The struct signature sits at byte 484, the
// trail signature puts 0x55 0xAA at bytes 510-511.
const (
	fsInfoLeadSignature   = 0x41615252 // "RRaA"
	fsInfoStructSignature = 0x61417272 // "rrAa"
	fsInfoTrailSignature  = 0xAA550000
)

// FSInfoSector caches the free-cluster accounting FAT32 drivers consult
// before scanning the FAT. Serialized verbatim with encoding/binary.
type FSInfoSector struct {
	LeadSignature   uint32 // 0x000
	Reserved1       [480]byte
	StructSignature uint32 // 0x1E4
	FreeClusters    uint32 // 0x1E8
	NextFreeCluster uint32 // 0x1EC
	Reserved2       [12]byte
	TrailSignature  uint32 // 0x1FC
}

func newFSInfoSector(layout Layout) FSInfoSector {
	return FSInfoSector{
		LeadSignature:   fsInfoLeadSignature,
		StructSignature: fsInfoStructSignature,
		FreeClusters:    uint32(layout.FreeClusters),
		NextFreeCluster: uint32(layout.NextFreeCluster),
		TrailSignature:  fsInfoTrailSignature,
	}
}

// Encode serializes the FSInfo sector into its 512-byte on-disk form.
func (s *FSInfoSector) Encode() []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, s) // fixed-size struct, cannot fail
	return buf.Bytes()
}
