// Package media deduplicates uploaded assets by content fingerprint. The
// expensive upload call runs at most once per distinct content; every later
// resolution of the same fingerprint returns the stored URL.
package media

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"social-backend/internal/errs"
	"social-backend/internal/model"
	"social-backend/internal/store"
)

// UploadFunc turns a local asset into a durable URL. Provided by the upload
// collaborator; only invoked on first resolution of a fingerprint.
type UploadFunc func(ctx context.Context) (string, error)

type Dedup struct {
	store  store.Store
	logger zerolog.Logger
}

func NewDedup(st store.Store, logger zerolog.Logger) *Dedup {
	return &Dedup{store: st, logger: logger}
}

// Resolve returns the stored URL for hash, uploading and persisting a new
// record only when the fingerprint is unseen. stored reports whether this
// call created the record. Two callers racing on the same fingerprint both
// succeed: the loser of the insert re-reads the winner's record.
func (d *Dedup) Resolve(ctx context.Context, hash string, size int64, mimeType string, upload UploadFunc) (url string, stored bool, err error) {
	existing, err := d.store.GetMediaByHash(ctx, hash)
	if err == nil {
		return existing.URL, false, nil
	}
	if !errors.Is(err, errs.ErrNotFound) {
		return "", false, err
	}

	url, err = upload(ctx)
	if err != nil {
		return "", false, fmt.Errorf("%w: upload failed: %v", errs.ErrUnavailable, err)
	}

	rec := &model.Media{
		ID:        uuid.NewString(),
		Hash:      hash,
		URL:       url,
		Size:      size,
		MIMEType:  mimeType,
		CreatedAt: time.Now().UTC(),
	}
	err = d.store.InsertMedia(ctx, rec)
	if errors.Is(err, errs.ErrConflict) {
		// Lost the race; the winner's record is authoritative.
		winner, rerr := d.store.GetMediaByHash(ctx, hash)
		if rerr != nil {
			return "", false, rerr
		}
		d.logger.Debug().Str("hash", hash).Msg("media insert race lost, reusing winner")
		return winner.URL, false, nil
	}
	if err != nil {
		return "", false, err
	}
	return url, true, nil
}
