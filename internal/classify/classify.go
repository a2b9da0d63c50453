package classify

import (
	"regexp"
	"strings"
)

// Matches WhatsApp message lines in US (1/1/24) and international (01/01/2024)
// formats, with or without square-bracket timestamps.
var lineRE = regexp.MustCompile(`^\[?\d{1,2}[/\-.]\d{1,2}[/\-.]\d{2,4},?\s+\d{1,2}:\d{2}`)

const scanWindow = 20

// IsChatExport reports whether content looks like a WhatsApp chat export.
// It scans at most the first 20 non-blank lines and requires at least two of
// them to carry a leading date+time token. Two matches (not one) tolerates a
// garbage first line while still rejecting files that merely mention a date.
func IsChatExport(content string) bool {
	matches := 0
	for _, line := range window(content) {
		if lineRE.MatchString(line) {
			matches++
			if matches >= 2 {
				return true
			}
		}
	}
	return false
}

// window returns the non-blank lines among the first scanWindow physical lines.
func window(content string) []string {
	lines := strings.Split(content, "\n")
	if len(lines) > scanWindow {
		lines = lines[:scanWindow]
	}
	out := lines[:0]
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			out = append(out, line)
		}
	}
	return out
}
