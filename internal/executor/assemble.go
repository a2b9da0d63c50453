package executor

import (
	"context"
	"fmt"

	"github.com/chatlake/chatlake/internal/engine"
)

// Assemble pages through a succeeded execution's results and flattens them
// into field-name -> value rows. The first row of the first page is the
// header row and is excluded from data; subsequent pages carry no header.
// Zero data rows yields an empty slice, not an error.
func Assemble(ctx context.Context, eng engine.Engine, executionID string) ([]map[string]string, error) {
	out := []map[string]string{}
	token := ""
	first := true
	for {
		page, err := eng.FetchPage(ctx, executionID, token)
		if err != nil {
			return nil, fmt.Errorf("fetch results: %w", err)
		}
		rows := page.Rows
		if first {
			if len(rows) > 0 {
				rows = rows[1:]
			}
			first = false
		}
		for _, row := range rows {
			rec := make(map[string]string, len(page.Columns))
			for i, col := range page.Columns {
				if i < len(row) {
					rec[col] = row[i]
				} else {
					rec[col] = ""
				}
			}
			out = append(out, rec)
		}
		if page.NextToken == "" {
			return out, nil
		}
		token = page.NextToken
	}
}
