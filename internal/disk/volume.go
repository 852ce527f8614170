package disk

import (
	"runtime"
	"strings"
	"unicode"
)

// NormalizeVolumePath turns Windows drive-letter paths like "E:" or
// "E:\" into the raw volume form \\.\E: that CreateFile expects. On
// other platforms the path is returned unchanged.
func NormalizeVolumePath(path string) string {
	if runtime.GOOS != "windows" {
		return path
	}

	path = strings.TrimSpace(path)
	path = strings.ReplaceAll(path, "/", `\`)
	upper := strings.ToUpper(path)

	if strings.HasPrefix(upper, `\\.\`) {
		return upper
	}

	if len(upper) >= 2 && upper[1] == ':' && unicode.IsLetter(rune(upper[0])) {
		return `\\.\` + string(upper[0]) + `:`
	}

	return path
}
