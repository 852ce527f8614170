package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/overlaytools/mkoverlay/internal/disk"
	"github.com/overlaytools/mkoverlay/internal/fs"
	fmtutil "github.com/overlaytools/mkoverlay/pkg/util/format"
)

func DefineInspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:          "inspect <device|image>",
		Short:        "Print the MBR partition table and FAT32 volume parameters",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE:         RunInspect,
	}
}

func RunInspect(cmd *cobra.Command, args []string) error {
	path := disk.NormalizeVolumePath(args[0])

	f, err := fs.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %q: %w", path, err)
	}
	defer f.Close()

	table, err := disk.LoadTable(f)
	if err != nil {
		return err
	}

	entries := table.Entries()
	if len(entries) == 0 {
		fmt.Println("No partitions registered.")
		return nil
	}

	fmt.Println("--- Partition Table Entries ---")
	for i, entry := range entries {
		fmt.Printf("\nPartition %d:\n%s\n", i+1, entry.String())
		fmt.Printf("  Size: %s\n", fmtutil.FormatBytes(int64(entry.Size())))

		if entry.Type.IsFAT() {
			printVolumeInfo(f, &entry)
		}
	}
	return nil
}

// printVolumeInfo decodes the partition's boot sector and prints the
// FAT32 volume parameters. Errors only degrade the output: an
// unformatted partition is not an inspection failure.
func printVolumeInfo(f fs.File, entry *disk.PartitionEntry) {
	if _, err := f.Seek(int64(entry.Offset()), io.SeekStart); err != nil {
		return
	}
	var sector [disk.SectorSize]byte
	if _, err := io.ReadFull(f, sector[:]); err != nil {
		return
	}

	boot, err := disk.DecodeBootSector(sector[:])
	if err != nil {
		fmt.Printf("  Volume: not a valid FAT boot sector (%v)\n", err)
		return
	}

	fmt.Printf("  Volume Label: %s\n", boot.Label())
	fmt.Printf("  Cluster Size: %s\n", fmtutil.FormatBytes(int64(boot.SectorsPerCluster)*int64(boot.SectorSize)))
	fmt.Printf("  FAT Length: %d sectors\n", boot.FATLength)
	fmt.Printf("  Volume Serial: %08X\n", boot.VolumeID)
}
