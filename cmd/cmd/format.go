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
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/overlaytools/mkoverlay/internal/disk"
	"github.com/overlaytools/mkoverlay/internal/fs"
	"github.com/overlaytools/mkoverlay/pkg/pbar"
	fmtutil "github.com/overlaytools/mkoverlay/pkg/util/format"
)

const mib = 1024 * 1024

func DefineFormatCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "format <device|image>",
		Short:        "Register an overlay partition in the MBR and write its FAT32 filesystem",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE:         RunFormat,
	}

	cmd.Flags().String("offset", "1MiB", "byte offset of the overlay partition")
	cmd.Flags().String("size", "", "partition size (default: remaining space, 1MiB aligned)")
	cmd.Flags().BoolP("quiet", "q", false, "suppress status output and the progress bar")
	cmd.Flags().String("log-level", "INFO", "log level (DEBUG, INFO, WARN, ERROR)")

	return cmd
}

func RunFormat(cmd *cobra.Command, args []string) error {
	path := disk.NormalizeVolumePath(args[0])

	logger := setupLogger(cmd)

	offset, err := getBytes(cmd, "offset")
	if err != nil {
		return err
	}

	f, err := fs.OpenRW(path)
	if err != nil {
		return fmt.Errorf("failed to open %q: %w", path, err)
	}
	defer f.Close()

	devSize, err := fs.Size(f)
	if err != nil {
		return err
	}

	if offset >= uint64(devSize) {
		return fmt.Errorf("offset %s exceeds device size %s",
			fmtutil.FormatBytes(int64(offset)), fmtutil.FormatBytes(devSize))
	}

	size := uint64(devSize) - offset
	size -= size % mib
	if s, _ := cmd.Flags().GetString("size"); s != "" {
		if size, err = fmtutil.ParseBytes(s); err != nil {
			return err
		}
	}
	if offset+size > uint64(devSize) {
		return fmt.Errorf("partition at %s spanning %s exceeds device size %s",
			fmtutil.FormatBytes(int64(offset)), fmtutil.FormatBytes(int64(size)), fmtutil.FormatBytes(devSize))
	}

	quiet, _ := cmd.Flags().GetBool("quiet")
	if !quiet {
		fmt.Println("[INFO] Starting format operation...")
		fmt.Printf("[INFO] Target: \t%s (%s)\n", path, fmtutil.FormatBytes(devSize))
		fmt.Printf("[INFO] Partition: \toffset %s, size %s\n",
			fmtutil.FormatBytes(int64(offset)), fmtutil.FormatBytes(int64(size)))
	}

	table, err := disk.LoadTable(f)
	if err != nil {
		return err
	}
	logger.Debug("partition table loaded", "entries", len(table.Entries()))

	slot, err := table.Add(offset, size)
	if err != nil {
		return err
	}
	logger.Info("partition registered", "slot", slot, "offset", offset, "sectors", size/disk.SectorSize)

	var progress disk.ProgressFunc
	var bar *pbar.ProgressBar
	if !quiet {
		bar = pbar.New()
		progress = bar.Report
	}

	start := time.Now()
	formatter := disk.NewFormatter(f, path, progress)
	if err := formatter.Format(offset, size); err != nil {
		return err
	}
	if bar != nil {
		bar.Finish()
	}

	if !quiet {
		fmt.Printf("[INFO] Format completed!\n")
		fmt.Printf("[INFO] Partition slot: \t%d\n", slot)
		fmt.Printf("[INFO] Duration: \t%s\n", time.Since(start).Round(time.Millisecond))
	}
	return nil
}

func getBytes(cmd *cobra.Command, name string) (uint64, error) {
	s, _ := cmd.Flags().GetString(name)
	return fmtutil.ParseBytes(s)
}

// setupLogger initializes a slog.Logger writing to stderr at the level
// selected through the --log-level flag.
func setupLogger(cmd *cobra.Command) *slog.Logger {
	levelStr, _ := cmd.Flags().GetString("log-level")

	var level slog.Level
	if err := level.UnmarshalText([]byte(levelStr)); err != nil {
		level = slog.LevelInfo
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return slog.New(handler)
}
