package format

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	_  = iota
	KB = 1 << (10 * iota)
	MB
	GB
	TB
)

// FormatBytes renders a byte count in human-readable units, avoiding
// trailing .00 for whole numbers.
func FormatBytes(b int64) string {
	val := float64(b)
	var unit string

	switch {
	case b >= TB:
		val /= float64(TB)
		unit = "TB"
	case b >= GB:
		val /= float64(GB)
		unit = "GB"
	case b >= MB:
		val /= float64(MB)
		unit = "MB"
	case b >= KB:
		val /= float64(KB)
		unit = "KB"
	default:
		return fmt.Sprintf("%dB", b)
	}

	if val == float64(int(val)) {
		return fmt.Sprintf("%.0f%s", val, unit)
	}
	return fmt.Sprintf("%.2f%s", val, unit)
}

// byteUnits maps size suffixes to multipliers, longest spelling first so
// "MiB" never matches as a bare "B". Units are binary regardless of the
// iB spelling, and the single-letter forms "K", "M", "G", "T" are
// accepted the way fdisk accepts them.
var byteUnits = []struct {
	suffix string
	mult   uint64
}{
	{"TIB", TB}, {"TB", TB}, {"T", TB},
	{"GIB", GB}, {"GB", GB}, {"G", GB},
	{"MIB", MB}, {"MB", MB}, {"M", MB},
	{"KIB", KB}, {"KB", KB}, {"K", KB},
	{"B", 1},
}

// ParseBytes parses a human-readable byte count such as "512", "4KB",
// "1MiB", "100M" or "2.5GB". An unrecognized suffix is an error, not a
// bare byte count.
func ParseBytes(s string) (uint64, error) {
	str := strings.TrimSpace(strings.ToUpper(s))
	if str == "" {
		return 0, fmt.Errorf("empty size")
	}

	mult := uint64(1)
	for _, unit := range byteUnits {
		if strings.HasSuffix(str, unit.suffix) {
			mult = unit.mult
			str = strings.TrimSuffix(str, unit.suffix)
			break
		}
	}

	val, err := strconv.ParseFloat(str, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	if val < 0 {
		return 0, fmt.Errorf("invalid size %q: negative", s)
	}
	return uint64(val * float64(mult)), nil
}
