package disk

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// BootSector is the FAT32 boot sector with its BIOS parameter block, boot
// code region and signature, exactly as laid out on disk. Multi-byte
// fields are little-endian; the struct is serialized verbatim with
// encoding/binary, so field order and widths must not change.
type BootSector struct {
	Jump              [3]byte  // 0x00: boot strap short jump
	OEMName           [8]byte  // 0x03
	SectorSize        uint16   // 0x0B: bytes per logical sector
	SectorsPerCluster uint8    // 0x0D
	ReservedSectors   uint16   // 0x0E
	NumFATs           uint8    // 0x10
	RootEntries       uint16   // 0x11: zero on FAT32
	Sectors16         uint16   // 0x13: zero on FAT32
	Media             uint8    // 0x15
	FATLength16       uint16   // 0x16: zero on FAT32
	SectorsPerTrack   uint16   // 0x18
	Heads             uint16   // 0x1A
	HiddenSectors     uint32   // 0x1C
	TotalSectors      uint32   // 0x20
	FATLength         uint32   // 0x24: sectors per FAT copy
	Flags             uint16   // 0x28
	Version           uint16   // 0x2A
	RootCluster       uint32   // 0x2C
	InfoSector        uint16   // 0x30
	BackupBoot        uint16   // 0x32
	Reserved          [12]byte // 0x34
	DriveNumber       uint8    // 0x40
	Reserved1         uint8    // 0x41
	BootSignature     uint8    // 0x42: extended boot signature (0x29)
	VolumeID          uint32   // 0x43
	VolumeLabel       [11]byte // 0x47
	FilesystemType    [8]byte  // 0x52
	BootCode          [420]byte
	Marker            uint16 // 0x1FE: 0xAA55
}

const bootSectorMarker = 0xAA55

// bootCodeStub is a real-mode routine that prints bootMessage and waits
// for a keypress, for the case someone attempts to boot from the overlay
// partition.
var bootCodeStub = []byte{
	0x0E,             // push cs
	0x1F,             // pop ds
	0xBE, 0x77, 0x7C, // mov si, 0x7C77 (message offset)
	0xAC,       // lodsb
	0x22, 0xC0, // and al, al
	0x74, 0x0B, // jz short halt
	0x56,             // push si
	0xB4, 0x0E,       // mov ah, 0x0E (teletype output)
	0xBB, 0x07, 0x00, // mov bx, 0x0007
	0xCD, 0x10, // int 0x10
	0x5E,       // pop si
	0xEB, 0xF0, // jmp short print loop
	0x32, 0xE4, // xor ah, ah
	0xCD, 0x16, // int 0x16 (wait for key)
	0xCD, 0x19, // int 0x19 (reboot)
	0xEB, 0xFE, // jmp short self
}

const bootMessage = "This is not a bootable disk.  Please insert a bootable floppy and\r\n" +
	"press any key to try again ... \r\n"

// newBootSector builds the boot sector of an overlay volume. The fixed
// values (OEM name, media byte, geometry) match what mkfs.fat emits, so
// drivers that sanity-check them accept the volume.
func newBootSector(layout Layout) BootSector {
	b := BootSector{
		Jump:              [3]byte{0xEB, 0x58, 0x90},
		SectorSize:        SectorSize,
		SectorsPerCluster: uint8(layout.SectorsPerCluster),
		ReservedSectors:   reservedSectors,
		NumFATs:           numFATs,
		Media:             0xF8,
		SectorsPerTrack:   62,
		Heads:             247,
		TotalSectors:      uint32(layout.TotalSectors),
		FATLength:         uint32(layout.FATLength),
		RootCluster:       2,
		InfoSector:        1,
		BackupBoot:        backupBootSector,
		DriveNumber:       0x80,
		BootSignature:     0x29,
		VolumeID:          layout.VolumeID,
	}
	copy(b.OEMName[:], "mkfs.fat")
	copy(b.VolumeLabel[:], volumeLabel)
	copy(b.FilesystemType[:], "FAT32   ")

	n := copy(b.BootCode[:], bootCodeStub)
	copy(b.BootCode[n:], bootMessage)
	b.Marker = bootSectorMarker
	return b
}

// Encode serializes the boot sector into its 512-byte on-disk form.
func (b *BootSector) Encode() []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, b) // fixed-size struct, cannot fail
	return buf.Bytes()
}

// DecodeBootSector parses a 512-byte sector as a FAT32 boot sector,
// validating the trailing signature.
func DecodeBootSector(data []byte) (*BootSector, error) {
	if len(data) != SectorSize {
		return nil, fmt.Errorf("boot sector size mismatch: expected %d bytes, got %d bytes",
			SectorSize, len(data))
	}

	var b BootSector
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, &b); err != nil {
		return nil, fmt.Errorf("reading boot sector: %w", err)
	}
	if b.Marker != bootSectorMarker {
		return nil, fmt.Errorf("invalid boot sector marker: expected 0x%04X, got 0x%04X",
			bootSectorMarker, b.Marker)
	}
	return &b, nil
}

// Label returns the volume label with padding trimmed.
func (b *BootSector) Label() string {
	return string(bytes.TrimRight(b.VolumeLabel[:], " "))
}
