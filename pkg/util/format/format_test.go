package format

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormatBytes(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{0, "0B"},
		{512, "512B"},
		{1024, "1KB"},
		{1536, "1.50KB"},
		{64 * MB, "64MB"},
		{100*MB + 512*KB, "100.50MB"},
		{2 * GB, "2GB"},
		{3 * TB, "3TB"},
	}
	for _, c := range cases {
		require.Equal(t, c.want, FormatBytes(c.in))
	}
}

func TestParseBytes(t *testing.T) {
	cases := []struct {
		in   string
		want uint64
	}{
		{"512", 512},
		{"512B", 512},
		{"4KB", 4 * KB},
		{"4KiB", 4 * KB},
		{"1K", KB},
		{"1MiB", MB},
		{"1mb", MB},
		{"100M", 100 * MB},
		{"2.5GB", 2*GB + 512*MB},
		{"2G", 2 * GB},
		{"1TB", TB},
		{"1T", TB},
		{" 64MB ", 64 * MB},
	}
	for _, c := range cases {
		got, err := ParseBytes(c.in)
		require.NoError(t, err, c.in)
		require.Equal(t, c.want, got, c.in)
	}
}

func TestParseBytesInvalid(t *testing.T) {
	for _, in := range []string{"", "abc", "-1MB", "12XB", "10QB", "M"} {
		_, err := ParseBytes(in)
		require.Error(t, err, in)
	}
}
