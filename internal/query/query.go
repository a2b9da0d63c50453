// Package query builds the predicate-filtered SQL for the chats surface.
package query

import (
	"fmt"
	"strings"
)

const (
	DefaultLimit = 200
	MaxLimit     = 1000
)

// Filters is the user-supplied filter set. Zero values mean "no filter";
// a zero Limit falls back to DefaultLimit.
type Filters struct {
	Date   string // exact ISO-8601 date
	Sender string // case-insensitive substring on sender
	Search string // case-insensitive substring on message body
	Limit  int
}

// escape doubles single quotes for SQL string literals. Every user-supplied
// value passes through here before interpolation.
func escape(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

// Build renders the filter set into a query against the messages table.
// Ordering is a contract: most recent date first, chronological within a
// date.
func Build(f Filters) string {
	var predicates []string
	if f.Date != "" {
		predicates = append(predicates, fmt.Sprintf("date = '%s'", escape(f.Date)))
	}
	if f.Sender != "" {
		predicates = append(predicates, fmt.Sprintf("LOWER(sender) LIKE '%%%s%%'", escape(strings.ToLower(f.Sender))))
	}
	if f.Search != "" {
		predicates = append(predicates, fmt.Sprintf("LOWER(message) LIKE '%%%s%%'", escape(strings.ToLower(f.Search))))
	}

	where := ""
	if len(predicates) > 0 {
		where = "WHERE " + strings.Join(predicates, " AND ") + " "
	}

	limit := f.Limit
	if limit == 0 {
		limit = DefaultLimit
	}
	if limit < 1 {
		limit = 1
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	return fmt.Sprintf(
		"SELECT message_id, date, time, sender, message, word_count FROM messages %sORDER BY date DESC, time ASC LIMIT %d",
		where, limit,
	)
}
