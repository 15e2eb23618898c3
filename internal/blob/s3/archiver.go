package s3blob

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"

	"github.com/oddslens/engine/internal/domain"
)

// Archiver implements domain.SnapshotArchiver by serializing each snapshot to
// gzip-compressed JSON and uploading it, partitioned by fetch date:
//
//	snapshots/2026/08/28/<run-id>.json.gz
type Archiver struct {
	writer *Writer
}

var _ domain.SnapshotArchiver = (*Archiver)(nil)

// NewArchiver creates an Archiver that uploads through the given writer.
func NewArchiver(w *Writer) *Archiver {
	return &Archiver{writer: w}
}

// Archive uploads the snapshot and returns the object key it was stored
// under.
func (a *Archiver) Archive(ctx context.Context, snap domain.Snapshot) (string, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)

	enc := json.NewEncoder(gz)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(snap); err != nil {
		return "", fmt.Errorf("s3blob: encode snapshot %s: %w", snap.RunID, err)
	}
	if err := gz.Close(); err != nil {
		return "", fmt.Errorf("s3blob: compress snapshot %s: %w", snap.RunID, err)
	}

	key := snapshotKey(snap)
	if err := a.writer.Put(ctx, key, &buf, "application/json", "gzip"); err != nil {
		return "", fmt.Errorf("s3blob: archive snapshot %s: %w", snap.RunID, err)
	}
	return key, nil
}

// snapshotKey builds the object key for a snapshot, partitioned by the UTC
// date of the fetch so listing a day's runs is a single prefix scan.
func snapshotKey(snap domain.Snapshot) string {
	day := snap.FetchedAt.UTC()
	return fmt.Sprintf("snapshots/%04d/%02d/%02d/%s.json.gz",
		day.Year(), int(day.Month()), day.Day(), snap.RunID)
}
