package sanitize

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	// fileNameUnsafeRegex matches characters that are path separators or
	// reserved on common filesystems.
	fileNameUnsafeRegex = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)

	// reservedWindowsNames cannot be used as a file base name on Windows.
	reservedWindowsNames = map[string]bool{
		"CON": true, "PRN": true, "AUX": true, "NUL": true,
		"COM1": true, "COM2": true, "COM3": true, "COM4": true, "COM5": true,
		"COM6": true, "COM7": true, "COM8": true, "COM9": true,
		"LPT1": true, "LPT2": true, "LPT3": true, "LPT4": true, "LPT5": true,
		"LPT6": true, "LPT7": true, "LPT8": true, "LPT9": true,
	}
)

// maxFileNameLength keeps room for an extension within the usual 255 byte limit.
const maxFileNameLength = 200

// ForFileName sanitizes a display name (for example a game name) for use as a
// file base name. Spaces and letter case are kept so names stay recognizable.
func ForFileName(s string) string {
	s = fileNameUnsafeRegex.ReplaceAllString(s, "_")

	// Leading dots would hide the file; trailing dots and spaces are dropped on Windows
	s = strings.TrimLeft(s, ". ")
	s = strings.TrimRight(s, ". ")

	if len(s) > maxFileNameLength {
		s = s[:maxFileNameLength]
		for !utf8.ValidString(s) {
			s = s[:len(s)-1]
		}
	}

	if s == "" {
		return "_"
	}
	if reservedWindowsNames[strings.ToUpper(s)] {
		return "_" + s
	}
	return s
}
