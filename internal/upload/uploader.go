package upload

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"tdh-engine/internal/domain"
	"tdh-engine/internal/storage"
)

const dayMs = int64(24 * 60 * 60 * 1000)

// Uploader renders a score table to CSV, pushes it to object storage and
// records the artifact reference.
type Uploader struct {
	storage ObjectStorage
	store   storage.UploadStore
	logger  zerolog.Logger
}

func NewUploader(objStorage ObjectStorage, store storage.UploadStore, logger zerolog.Logger) *Uploader {
	return &Uploader{storage: objStorage, store: store, logger: logger}
}

// Run archives records for the given snapshot. prefix distinguishes the
// wallet table from the identity table ("tdh" / "consolidated_tdh").
// The artifact date is the day after the snapshot timestamp: a run over
// block N covers activity through N, published the following day.
func (u *Uploader) Run(ctx context.Context, prefix string, snapshot domain.Snapshot, records []*domain.ScoreRecord) (*domain.UploadRecord, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, records); err != nil {
		return nil, fmt.Errorf("render %s artifact: %w", prefix, err)
	}

	date := ArtifactDate(snapshot.Timestamp)
	objectName := fmt.Sprintf("%s/%s-%d.csv", prefix, date, snapshot.Block)

	if err := u.storage.Upload(ctx, objectName, &buf, int64(buf.Len())); err != nil {
		return nil, fmt.Errorf("upload %s artifact: %w", prefix, err)
	}

	rec := &domain.UploadRecord{
		Block:    snapshot.Block,
		Date:     date,
		Location: objectName,
	}
	if err := u.store.Upsert(ctx, rec); err != nil {
		return nil, fmt.Errorf("record %s artifact: %w", prefix, err)
	}

	u.logger.Info().
		Str("object", objectName).
		Int("records", len(records)).
		Msg("archived score table")
	return rec, nil
}

// ArtifactDate formats the publication date (YYYYMMDD) for a snapshot
// timestamp: the UTC day after the snapshot.
func ArtifactDate(timestampMs int64) string {
	return time.UnixMilli(timestampMs + dayMs).UTC().Format("20060102")
}
