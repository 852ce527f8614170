package disk

import (
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

// newMemSink returns an in-memory file of the given size, standing in
// for a raw device.
func newMemSink(t *testing.T, size int64) afero.File {
	t.Helper()

	f, err := afero.NewMemMapFs().Create("disk.img")
	require.NoError(t, err)
	require.NoError(t, f.Truncate(size))
	return f
}

func TestTableAddPersistsEntry(t *testing.T) {
	sink := newMemSink(t, 80*mib)

	table, err := LoadTable(sink)
	require.NoError(t, err)
	require.Empty(t, table.Entries())

	slot, err := table.Add(1*mib, 64*mib)
	require.NoError(t, err)
	require.Equal(t, 1, slot)

	var raw [PartitionEntrySize]byte
	_, err = sink.ReadAt(raw[:], PartitionTableOffset)
	require.NoError(t, err)

	want := [PartitionEntrySize]byte{
		0x00,             // not bootable
		0x08, 0x09, 0x00, // start CHS of LBA 2048
		0x0B,             // FAT32
		0x0A, 0x0B, 0x20, // end CHS of LBA 133120
		0x00, 0x08, 0x00, 0x00, // start LBA 2048
		0x00, 0x00, 0x02, 0x00, // 131072 sectors
	}
	require.Equal(t, want, raw)
}

func TestTableRoundTrip(t *testing.T) {
	// The table itself needs only the MBR sector; registered partitions
	// may point past the end of the in-memory image.
	sink := newMemSink(t, mib)

	table, err := LoadTable(sink)
	require.NoError(t, err)

	_, err = table.Add(1*mib, 64*mib)
	require.NoError(t, err)
	_, err = table.Add(65*mib, 128*mib)
	require.NoError(t, err)

	reloaded, err := LoadTable(sink)
	require.NoError(t, err)
	require.Equal(t, table.Entries(), reloaded.Entries())

	for i, entry := range table.Entries() {
		got := reloaded.Entries()[i]
		require.Equal(t, entry.Encode(), got.Encode())
	}
}

func TestTableLoadSkipsEmptySlots(t *testing.T) {
	sink := newMemSink(t, 80*mib)

	// Persist a single entry in slot 2, leaving 0, 1 and 3 zeroed.
	entry := PartitionEntry{
		Type:         PartitionTypeFAT32CHS,
		StartLBA:     2048,
		TotalSectors: 4096,
	}
	raw := entry.Encode()
	_, err := sink.WriteAt(raw[:], PartitionTableOffset+2*PartitionEntrySize)
	require.NoError(t, err)

	table, err := LoadTable(sink)
	require.NoError(t, err)
	require.Len(t, table.Entries(), 1)
	require.Equal(t, entry, table.Entries()[0])
}

func TestTableFull(t *testing.T) {
	sink := newMemSink(t, mib)

	table, err := LoadTable(sink)
	require.NoError(t, err)

	for i := 0; i < MaxPartitions; i++ {
		slot, err := table.Add(uint64(i+1)*100*mib, 50*mib)
		require.NoError(t, err)
		require.Equal(t, i+1, slot)
	}

	_, err = table.Add(600*mib, 50*mib)
	require.ErrorIs(t, err, ErrTableFull)
	require.Len(t, table.Entries(), MaxPartitions)
}

func TestTableAddRejectsHugePartition(t *testing.T) {
	sink := newMemSink(t, 80*mib)

	table, err := LoadTable(sink)
	require.NoError(t, err)

	// More sectors than a 32-bit count can hold.
	_, err = table.Add(1*mib, 3<<41)
	require.ErrorIs(t, err, ErrInvalidSize)
}

func TestTableLoadShortRead(t *testing.T) {
	// A device that ends inside the partition table is unreadable.
	sink := newMemSink(t, PartitionTableOffset+10)

	_, err := LoadTable(sink)
	var devErr *DeviceError
	require.True(t, errors.As(err, &devErr))
}

func TestPartitionEntryEncodeDecode(t *testing.T) {
	entry := PartitionEntry{
		BootIndicator: 0x80,
		StartCHS:      [3]byte{1, 2, 3},
		Type:          PartitionTypeLinux,
		EndCHS:        [3]byte{4, 5, 6},
		StartLBA:      0xAABBCCDD,
		TotalSectors:  0x11223344,
	}
	raw := entry.Encode()
	require.Equal(t, entry, decodePartitionEntry(raw[:]))

	// Little-endian layout of the LBA fields.
	require.Equal(t, []byte{0xDD, 0xCC, 0xBB, 0xAA}, raw[8:12])
	require.Equal(t, []byte{0x44, 0x33, 0x22, 0x11}, raw[12:16])
}

const mib = 1024 * 1024
