package disk

// Legacy disk geometry used for the informational CHS fields of a
// partition entry, matching the geometry commonly emulated for USB media.
// Modern consumers ignore CHS and use the LBA fields, but old tools still
// read these bytes, so the packing must stay bit-exact.
const (
	sectorsPerTrack  = 255
	headsPerCylinder = 16
)

// encodeCHS packs the cylinder/head/sector triplet addressing the given
// byte offset. Byte 0 holds the head, byte 1 the two high cylinder bits
// (bits 6-7) together with the 1-based sector (bits 0-5), byte 2 the low
// eight cylinder bits.
func encodeCHS(offset uint64) [3]byte {
	lba := offset / SectorSize

	head := (lba / sectorsPerTrack) % headsPerCylinder
	sector := lba%sectorsPerTrack + 1
	cylinder := lba / (headsPerCylinder * sectorsPerTrack)

	return [3]byte{
		byte(head),
		byte((cylinder>>2)&0xC0) | byte(sector&0x3F),
		byte(cylinder),
	}
}
