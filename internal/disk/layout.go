package disk

import (
	"fmt"
	"math"
	"time"
)

const (
	reservedSectors = 32
	numFATs         = 2

	// FirstCluster is the cluster holding the first byte of the overlay
	// file. Cluster 2 is the root directory.
	FirstCluster = 3

	// maxFileZeros bounds how much of the overlay file's content is
	// actually zeroed on disk. The FAT chain and the directory entry
	// claim the full size; writing gigabytes of zeros for content that
	// another process supplies later would be wasted work.
	maxFileZeros = 64 * 1024
)

// clusterBands maps a partition size in MiB to the sectors-per-cluster
// value of the volume, first match wins. The bands follow the
// conventional mkfs.fat heuristic, keeping the cluster count addressable
// in 32 bits while minimizing internal fragmentation.
var clusterBands = []struct {
	maxSizeMB         uint64
	sectorsPerCluster uint64
}{
	{260, 1},
	{8192, 8},
	{16384, 16},
	{32768, 24},
}

const maxSectorsPerCluster = 32

// Layout holds every quantity the formatter needs to materialize a FAT32
// filesystem. It is derived once per format operation from the partition
// size and the clock and never mutated afterwards.
type Layout struct {
	SectorsPerCluster uint64
	ClusterSize       uint64 // bytes per cluster
	TotalSectors      uint64
	FATLength         uint64 // sectors per FAT copy
	HeaderSize        uint64 // reserved region, both FATs and the root cluster, in bytes
	MaxFileSize       uint64 // size claimed by the overlay file's directory entry
	FileZeros         uint64 // zero bytes actually materialized for the file
	NextFreeCluster   uint64
	FreeClusters      uint64
	VolumeID          uint32
	CreateTime        uint16 // FAT-packed time of day
	CreateDate        uint16 // FAT-packed date
}

func sectorsPerClusterFor(size uint64) uint64 {
	sizeMB := size / (1 << 20)
	for _, band := range clusterBands {
		if sizeMB <= band.maxSizeMB {
			return band.sectorsPerCluster
		}
	}
	return maxSectorsPerCluster
}

func alignUp(n, alignment uint64) uint64 {
	return (n + alignment - 1) &^ (alignment - 1)
}

func divCeil(a, b uint64) uint64 {
	return (a + b - 1) / b
}

// NewLayout derives the complete filesystem layout for a partition of the
// given byte size. The clock feeds only the volume serial and the create
// timestamps, so a fixed now yields a fully deterministic layout.
func NewLayout(size uint64, now time.Time) (Layout, error) {
	spc := sectorsPerClusterFor(size)
	clusterSize := spc * SectorSize

	totalSectors := size / SectorSize
	if totalSectors <= reservedSectors {
		return Layout{}, fmt.Errorf("%d bytes: %w", size, ErrInvalidSize)
	}

	// Clusters that fit once each one also pays its share of both FAT
	// copies (4 bytes per FAT). The +2 below accounts for the two
	// reserved low-order FAT entries.
	fatData := totalSectors - reservedSectors
	clusters := (fatData*SectorSize + numFATs*8) / (clusterSize + numFATs*4)
	if clusters == 0 {
		return Layout{}, fmt.Errorf("%d bytes: %w", size, ErrInvalidSize)
	}
	fatLength := alignUp(divCeil((clusters+2)*4, SectorSize), spc)

	headerSize := (reservedSectors + numFATs*fatLength + spc) * SectorSize
	if size <= headerSize+SectorSize {
		return Layout{}, fmt.Errorf("%d bytes: %w", size, ErrInvalidSize)
	}

	// The file size field of a directory entry is 32 bits wide. Within
	// that cap the file claims the rest of the partition, aligned down
	// to a sector boundary minus one sector.
	maxFileSize := min(size-headerSize, math.MaxUint32)
	maxFileSize = alignUp(maxFileSize-SectorSize-1, SectorSize)

	l := Layout{
		SectorsPerCluster: spc,
		ClusterSize:       clusterSize,
		TotalSectors:      totalSectors,
		FATLength:         fatLength,
		HeaderSize:        headerSize,
		MaxFileSize:       maxFileSize,
		FileZeros:         min(maxFileSize, maxFileZeros),
		NextFreeCluster:   FirstCluster + maxFileSize/clusterSize + 1,
		FreeClusters:      (size-headerSize)/clusterSize + 1,
		VolumeID:          uint32(now.UnixMilli()),
		CreateTime:        packTime(now.UTC()),
		CreateDate:        packDate(now.UTC()),
	}

	// The cluster chain of the overlay file must fit the computed FAT.
	if l.NextFreeCluster*4 > l.FATLength*SectorSize {
		return Layout{}, fmt.Errorf("%d bytes: %w", size, ErrInvalidSize)
	}
	return l, nil
}

// packTime encodes a time of day as a FAT directory timestamp word:
// bits 0-4 hold the two-second count, bits 5-10 the minute, bits 11-15
// the hour.
func packTime(t time.Time) uint16 {
	return uint16(t.Second())/2 |
		uint16(t.Minute())<<5 |
		uint16(t.Hour())<<11
}

// packDate encodes a date as a FAT directory date word: bits 0-4 hold the
// day of month, bits 5-8 the month, bits 9-15 the years since 1980.
func packDate(t time.Time) uint16 {
	return uint16(t.Day()) |
		uint16(t.Month())<<5 |
		uint16(t.Year()-1980)<<9
}
