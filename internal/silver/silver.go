// Package silver persists parsed message records into the date-partitioned
// messages table. Writes replace whole partitions: every date present in a
// batch is overwritten, every other date is left untouched.
package silver

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chatlake/chatlake/internal/bus"
	"github.com/chatlake/chatlake/internal/parse"
)

// Publisher announces silver-layer changes so the catalog side can repoint.
// Satisfied by *bus.Client.
type Publisher interface {
	Publish(subject string, data any) error
}

type Store struct {
	pool   *pgxpool.Pool
	events Publisher
	logger *slog.Logger
}

func New(ctx context.Context, databaseURL string, events Publisher, logger *slog.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{pool: pool, events: events, logger: logger}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

// Pool exposes the underlying pool for the query engine, which scans the
// same table the writer maintains.
func (s *Store) Pool() *pgxpool.Pool {
	return s.pool
}

// EnsureSchema creates the messages table if missing. The primary key is
// (date, message_id): ids are positional hashes, unique within a source
// file, and the date column is the partition key.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS messages (
			message_id  TEXT NOT NULL,
			date        TEXT NOT NULL,
			time        TEXT NOT NULL DEFAULT '',
			sender      TEXT NOT NULL DEFAULT '',
			message     TEXT NOT NULL DEFAULT '',
			word_count  INT  NOT NULL DEFAULT 0,
			source_file TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (date, message_id)
		)`)
	if err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// Write replaces the partitions present in records and reports how many rows
// were written. The whole batch runs in one transaction, so a failure leaves
// no partition half-written. An empty batch is a no-op, not an error.
func (s *Store) Write(ctx context.Context, records []parse.Record) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	byDate := make(map[string][]parse.Record)
	for _, r := range records {
		byDate[r.Date] = append(byDate[r.Date], r)
	}
	dates := make([]string, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	total := 0
	for _, date := range dates {
		recs := byDate[date]
		if _, err := tx.Exec(ctx, `DELETE FROM messages WHERE date = $1`, date); err != nil {
			return 0, fmt.Errorf("clear partition %s: %w", date, err)
		}
		n, err := tx.CopyFrom(ctx,
			pgx.Identifier{"messages"},
			[]string{"message_id", "date", "time", "sender", "message", "word_count", "source_file"},
			pgx.CopyFromSlice(len(recs), func(i int) ([]any, error) {
				r := recs[i]
				return []any{r.MessageID, r.Date, r.Time, r.Sender, r.Message, r.WordCount, r.SourceFile}, nil
			}),
		)
		if err != nil {
			return 0, fmt.Errorf("write partition %s: %w", date, err)
		}
		total += int(n)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}

	s.logger.Info("silver partitions replaced", "rows", total, "partitions", len(dates))

	// Catalog repoint is a side-effect signal, not something this layer
	// implements. Losing the event is survivable; the next run re-emits it.
	if s.events != nil {
		err := s.events.Publish(bus.SubjectSilverUpdated, map[string]any{
			"table":      "messages",
			"rows":       total,
			"partitions": dates,
		})
		if err != nil {
			s.logger.Warn("failed to publish silver update", "error", err)
		}
	}

	return total, nil
}
