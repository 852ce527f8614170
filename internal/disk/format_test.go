package disk

import (
	"encoding/binary"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

type progressRecord struct {
	id      string
	written uint64
	total   uint64
}

// formatImage formats a 64 MiB partition at a 1 MiB offset on an
// in-memory sink under a fixed clock and returns the sink, the expected
// layout and every progress report received.
func formatImage(t *testing.T, offset, size uint64) (afero.File, Layout, []progressRecord) {
	t.Helper()

	sink := newMemSink(t, int64(offset+size))

	var reports []progressRecord
	f := NewFormatter(sink, "disk.img", func(id string, written, total uint64) {
		reports = append(reports, progressRecord{id, written, total})
	})
	f.now = func() time.Time { return fixedClock }

	require.NoError(t, f.Format(offset, size))

	layout, err := NewLayout(size, fixedClock)
	require.NoError(t, err)
	return sink, layout, reports
}

func TestFormatByteCount(t *testing.T) {
	for _, size := range []uint64{64 * mib, 100 * mib} {
		offset := uint64(mib)
		_, layout, reports := formatImage(t, offset, size)

		require.NotEmpty(t, reports)
		final := reports[len(reports)-1]
		require.Equal(t, "disk.img", final.id)
		require.Equal(t, layout.HeaderSize+layout.FileZeros, final.total)
		require.Equal(t, final.total, final.written)

		// Progress is monotonic and never overshoots the total.
		var prev uint64
		for _, r := range reports {
			require.GreaterOrEqual(t, r.written, prev)
			require.LessOrEqual(t, r.written, r.total)
			prev = r.written
		}
	}
}

func TestFormatBootSectors(t *testing.T) {
	offset := uint64(mib)
	sink, layout, _ := formatImage(t, offset, 64*mib)

	var sector [SectorSize]byte
	_, err := sink.ReadAt(sector[:], int64(offset))
	require.NoError(t, err)
	require.Equal(t, []byte{0x55, 0xAA}, sector[510:512])

	boot, err := DecodeBootSector(sector[:])
	require.NoError(t, err)
	require.Equal(t, "OVERLAY", boot.Label())
	require.Equal(t, "mkfs.fat", string(boot.OEMName[:]))
	require.Equal(t, "FAT32   ", string(boot.FilesystemType[:]))
	require.Equal(t, uint8(layout.SectorsPerCluster), boot.SectorsPerCluster)
	require.Equal(t, uint32(layout.TotalSectors), boot.TotalSectors)
	require.Equal(t, uint32(layout.FATLength), boot.FATLength)
	require.Equal(t, uint32(2), boot.RootCluster)
	require.Equal(t, uint16(1), boot.InfoSector)
	require.Equal(t, uint16(6), boot.BackupBoot)
	require.Equal(t, layout.VolumeID, boot.VolumeID)

	// The backup copy at sector 6 is byte-identical.
	var backup [SectorSize]byte
	_, err = sink.ReadAt(backup[:], int64(offset)+6*SectorSize)
	require.NoError(t, err)
	require.Equal(t, sector, backup)
}

func TestFormatFSInfo(t *testing.T) {
	offset := uint64(mib)
	sink, layout, _ := formatImage(t, offset, 64*mib)

	var sector [SectorSize]byte
	_, err := sink.ReadAt(sector[:], int64(offset)+SectorSize)
	require.NoError(t, err)

	require.Equal(t, []byte("RRaA"), sector[0:4])
	require.Equal(t, []byte("rrAa"), sector[484:488])
	require.Equal(t, uint32(layout.FreeClusters), binary.LittleEndian.Uint32(sector[488:492]))
	require.Equal(t, uint32(layout.NextFreeCluster), binary.LittleEndian.Uint32(sector[492:496]))
	require.Equal(t, []byte{0x55, 0xAA}, sector[510:512])
}

func TestFormatFATChain(t *testing.T) {
	offset := uint64(mib)
	sink, layout, _ := formatImage(t, offset, 64*mib)

	fatBytes := layout.FATLength * SectorSize
	fat := make([]byte, fatBytes)
	_, err := sink.ReadAt(fat, int64(offset)+reservedSectors*SectorSize)
	require.NoError(t, err)

	entry := func(i uint64) uint32 {
		return binary.LittleEndian.Uint32(fat[i*4 : i*4+4])
	}

	require.Equal(t, uint32(fatMediaEntry), entry(0))
	require.Equal(t, uint32(fatEndOfChain), entry(1))
	require.Equal(t, uint32(fatMediaEntry), entry(2))

	// Linear chain: every entry points at its successor, terminated by
	// the end-of-chain sentinel.
	for cluster := uint64(FirstCluster); cluster < layout.NextFreeCluster-1; cluster++ {
		require.Equal(t, uint32(cluster+1), entry(cluster), "cluster %d", cluster)
	}
	require.Equal(t, uint32(fatEndOfChain), entry(layout.NextFreeCluster-1))

	// Everything past the chain is zero padding.
	for i := layout.NextFreeCluster; i < fatBytes/4; i++ {
		require.Equal(t, uint32(0), entry(i), "entry %d", i)
	}

	// The second FAT copy is byte-identical.
	fat2 := make([]byte, fatBytes)
	_, err = sink.ReadAt(fat2, int64(offset+(reservedSectors+layout.FATLength)*SectorSize))
	require.NoError(t, err)
	require.Equal(t, fat, fat2)
}

func TestFormatRootDirectory(t *testing.T) {
	offset := uint64(mib)
	sink, layout, _ := formatImage(t, offset, 64*mib)

	rootOffset := int64(offset + layout.HeaderSize - layout.ClusterSize)
	cluster := make([]byte, layout.ClusterSize)
	_, err := sink.ReadAt(cluster, rootOffset)
	require.NoError(t, err)

	// Volume label entry.
	require.Equal(t, []byte("OVERLAY    "), cluster[0:11])
	require.Equal(t, byte(AttrVolumeLabel), cluster[11])

	// Overlay file entry claiming the full file size at cluster 3.
	require.Equal(t, []byte("OVERLAY IMG"), cluster[32:43])
	require.Equal(t, byte(AttrArchive), cluster[43])
	require.Equal(t, uint16(FirstCluster), binary.LittleEndian.Uint16(cluster[32+26:32+28]))
	require.Equal(t, uint32(layout.MaxFileSize), binary.LittleEndian.Uint32(cluster[32+28:32+32]))

	// Exactly two non-zero directory entries.
	for i := 2 * DirEntrySize; i < len(cluster); i++ {
		require.Equal(t, byte(0), cluster[i], "byte %d", i)
	}

	// The materialized zeros of the file follow the root cluster.
	zeros := make([]byte, layout.FileZeros)
	_, err = sink.ReadAt(zeros, rootOffset+int64(layout.ClusterSize))
	require.NoError(t, err)
	for i, b := range zeros {
		require.Equal(t, byte(0), b, "byte %d", i)
	}
}

// failingSink returns an error once more than failAfter bytes have been
// written.
type failingSink struct {
	io.WriteSeeker
	written   int
	failAfter int
}

func (s *failingSink) Write(p []byte) (int, error) {
	if s.written+len(p) > s.failAfter {
		return 0, errors.New("device gone")
	}
	s.written += len(p)
	return s.WriteSeeker.Write(p)
}

func TestFormatWriteFailure(t *testing.T) {
	sink := newMemSink(t, 65*mib)
	failing := &failingSink{WriteSeeker: sink, failAfter: 4 * SectorSize}

	f := NewFormatter(failing, "disk.img", nil)
	f.now = func() time.Time { return fixedClock }

	err := f.Format(mib, 64*mib)
	var devErr *DeviceError
	require.True(t, errors.As(err, &devErr))
	require.Equal(t, "write filesystem data", devErr.Op)
}

func TestFormatInvalidSize(t *testing.T) {
	sink := newMemSink(t, mib)

	f := NewFormatter(sink, "disk.img", nil)
	err := f.Format(0, 16*1024)
	require.ErrorIs(t, err, ErrInvalidSize)
}

func TestBootSectorEncodeDecode(t *testing.T) {
	layout, err := NewLayout(64*mib, fixedClock)
	require.NoError(t, err)

	boot := newBootSector(layout)
	raw := boot.Encode()
	require.Len(t, raw, SectorSize)

	decoded, err := DecodeBootSector(raw)
	require.NoError(t, err)
	require.Equal(t, &boot, decoded)
}

func TestFSInfoSectorEncode(t *testing.T) {
	layout, err := NewLayout(64*mib, fixedClock)
	require.NoError(t, err)

	info := newFSInfoSector(layout)
	raw := info.Encode()
	require.Len(t, raw, SectorSize)
	require.Equal(t, []byte("RRaA"), raw[0:4])
	require.Equal(t, []byte("rrAa"), raw[484:488])
	require.Equal(t, []byte{0x00, 0x00, 0x55, 0xAA}, raw[508:512])
}

func TestDirEntryEncodeSize(t *testing.T) {
	layout, err := NewLayout(64*mib, fixedClock)
	require.NoError(t, err)

	label := volumeLabelEntry(layout)
	file := overlayFileEntry(layout)
	require.Len(t, label.Encode(), DirEntrySize)
	require.Len(t, file.Encode(), DirEntrySize)
	require.Equal(t, layout.CreateTime, file.CreateTime)
	require.Equal(t, layout.CreateDate, file.WriteDate)
}
