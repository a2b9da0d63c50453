// Package parse turns raw WhatsApp chat exports into structured message
// records with stable, content-addressed identifiers.
package parse

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Record is one parsed chat message, the durable unit of the silver layer.
type Record struct {
	MessageID  string `json:"message_id"`
	Date       string `json:"date"` // ISO-8601 when parseable, raw passthrough otherwise
	Time       string `json:"time"` // raw time string as found in the export
	Sender     string `json:"sender"`
	Message    string `json:"message"`
	WordCount  int    `json:"word_count"`
	SourceFile string `json:"source_file"`
}

// Handles US (M/D/YY) and international (D/M/YYYY) date formats, optional
// square-bracket prefix, and both hyphen and en-dash separators. The sender
// group stops at the first colon so colons inside the body stay in the body.
var msgRE = regexp.MustCompile(
	`(?i)^\[?(\d{1,2}/\d{1,2}/\d{2,4})\]?,?\s+` +
		`(\d{1,2}:\d{2}(?:\s*[AP]M)?)\s*[-\x{2013}]\s+` +
		`([^:]+):\s+(.*)`,
)

// Ordered candidate layouts for ambiguous export dates. First strict parse
// wins, so 13/1/24 falls through the month-first layouts to day-first.
var dateLayouts = []string{"1/2/06", "1/2/2006", "2/1/06", "2/1/2006"}

// NormalizeDate converts a WhatsApp date string to ISO-8601 YYYY-MM-DD.
// Unrecognized strings are returned unchanged rather than dropped; downstream
// consumers treat non-ISO dates as best-effort passthrough values.
func NormalizeDate(s string) string {
	trimmed := strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return s
}

// MessageID returns a stable 16-char hex ID from SHA-256(sourceFile:lineIndex).
// Identity tracks position, not content: re-parsing the same file yields the
// same ids, and editing a message in place does not change its id.
func MessageID(sourceFile string, lineIndex int) string {
	sum := sha256.Sum256(fmt.Appendf(nil, "%s:%d", sourceFile, lineIndex))
	return hex.EncodeToString(sum[:])[:16]
}

// File parses a single chat export into message records. Lines that don't
// match the timestamp pattern are silently dropped: system messages,
// media-omitted notices, and continuations of multi-line messages.
func File(sourceKey, content string) []Record {
	var records []Record
	for i, line := range strings.Split(content, "\n") {
		m := msgRE.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		message := strings.TrimSpace(m[4])
		records = append(records, Record{
			MessageID:  MessageID(sourceKey, i),
			Date:       NormalizeDate(m[1]),
			Time:       strings.TrimSpace(m[2]),
			Sender:     strings.TrimSpace(m[3]),
			Message:    message,
			WordCount:  len(strings.Fields(message)),
			SourceFile: sourceKey,
		})
	}
	return records
}
