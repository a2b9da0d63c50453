// Package ingest orchestrates the pipeline: raw uploads are classified into
// the bronze layer, and ingestion runs parse every bronze export into the
// partitioned silver store.
package ingest

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/chatlake/chatlake/internal/blob"
	"github.com/chatlake/chatlake/internal/bronze"
	"github.com/chatlake/chatlake/internal/bus"
	"github.com/chatlake/chatlake/internal/parse"
)

// RecordWriter persists a batch of records with partition-replace semantics.
// Satisfied by *silver.Store.
type RecordWriter interface {
	Write(ctx context.Context, records []parse.Record) (int, error)
}

type Processor struct {
	blobs    blob.Store
	writer   RecordWriter
	archiver *bronze.Archiver
	logger   *slog.Logger
}

func New(blobs blob.Store, writer RecordWriter, archiver *bronze.Archiver, logger *slog.Logger) *Processor {
	return &Processor{blobs: blobs, writer: writer, archiver: archiver, logger: logger}
}

// HandleRawStored is the NATS handler for lake.raw.stored.
func (p *Processor) HandleRawStored(subject string, data []byte) {
	var evt bus.RawStoredEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		p.logger.Error("failed to parse raw-stored event", "error", err)
		return
	}
	if evt.Key == "" {
		p.logger.Error("raw-stored event without key")
		return
	}
	if _, _, err := p.archiver.Archive(context.Background(), evt.Key); err != nil {
		p.logger.Error("bronze archive failed", "key", evt.Key, "error", err)
	}
}

// HandleIngestRun is the NATS handler for lake.ingest.run.
func (p *Processor) HandleIngestRun(subject string, data []byte) {
	if _, err := p.RunSilver(context.Background()); err != nil {
		p.logger.Error("silver run failed", "error", err)
	}
}

// RunSilver parses every bronze export and writes the records through the
// partitioned store writer. Zero bronze files or zero parseable messages is
// a clean no-op. Returns the number of rows written.
func (p *Processor) RunSilver(ctx context.Context) (int, error) {
	keys, err := p.blobs.List(ctx, bronze.Prefix)
	if err != nil {
		return 0, err
	}

	var records []parse.Record
	files := 0
	for _, key := range keys {
		if !strings.HasSuffix(key, ".txt") {
			continue
		}
		data, err := p.blobs.Get(ctx, key)
		if err != nil {
			return 0, err
		}
		files++
		content := strings.ToValidUTF8(string(data), "�")
		records = append(records, parse.File(key, content)...)
	}

	if files == 0 {
		p.logger.Info("no bronze files to process")
		return 0, nil
	}
	if len(records) == 0 {
		p.logger.Info("no parseable messages in bronze files", "files", files)
		return 0, nil
	}

	n, err := p.writer.Write(ctx, records)
	if err != nil {
		return 0, err
	}
	p.logger.Info("silver run complete", "files", files, "rows", n)
	return n, nil
}
