// Package bronze classifies uploaded files and archives accepted chat
// exports into the date-partitioned bronze layer of the object store.
package bronze

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/chatlake/chatlake/internal/blob"
	"github.com/chatlake/chatlake/internal/classify"
)

const Prefix = "bronze/whatsapp/"

// Key returns the partitioned bronze key for a filename and archive time.
func Key(filename string, ts time.Time) string {
	return fmt.Sprintf("%syear=%d/month=%02d/%s", Prefix, ts.Year(), int(ts.Month()), filename)
}

type Archiver struct {
	store  blob.Store
	logger *slog.Logger
	now    func() time.Time
}

func New(store blob.Store, logger *slog.Logger) *Archiver {
	return &Archiver{store: store, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// Archive fetches an uploaded object, classifies it, and copies accepted
// chat exports under the bronze prefix. Rejected files are skipped, not
// errored: classification ambiguity is expected, and the original object is
// left in place either way.
func (a *Archiver) Archive(ctx context.Context, key string) (string, bool, error) {
	data, err := a.store.Get(ctx, key)
	if err != nil {
		return "", false, fmt.Errorf("fetch %s: %w", key, err)
	}

	content := strings.ToValidUTF8(string(data), "�")
	if !classify.IsChatExport(content) {
		a.logger.Info("skipped: not a chat export", "key", key)
		return "", false, nil
	}

	dest := Key(path.Base(key), a.now())
	if err := a.store.Copy(ctx, key, dest); err != nil {
		return "", false, fmt.Errorf("archive %s: %w", key, err)
	}
	a.logger.Info("archived to bronze", "key", key, "dest", dest)
	return dest, true, nil
}
