package media

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"social-backend/internal/errs"
	"social-backend/internal/logging"
	"social-backend/internal/model"
	"social-backend/internal/store"
)

func TestFingerprint(t *testing.T) {
	hash, size, err := Fingerprint(strings.NewReader("hello world"))
	if err != nil {
		t.Fatalf("Fingerprint: %v", err)
	}
	if size != 11 {
		t.Fatalf("size = %d, want 11", size)
	}
	want := "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"
	if hash != want {
		t.Fatalf("hash = %s, want %s", hash, want)
	}
}

func TestResolveUploadsOnce(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	dedup := NewDedup(st, logging.Nop())

	uploads := 0
	upload := func(ctx context.Context) (string, error) {
		uploads++
		return "https://cdn.example.com/asset-1", nil
	}

	url, stored, err := dedup.Resolve(ctx, "abc", 42, "image/png", upload)
	if err != nil {
		t.Fatalf("first Resolve: %v", err)
	}
	if !stored {
		t.Fatal("first resolution should store the record")
	}
	if url != "https://cdn.example.com/asset-1" {
		t.Fatalf("url = %s", url)
	}

	url, stored, err = dedup.Resolve(ctx, "abc", 42, "image/png", upload)
	if err != nil {
		t.Fatalf("second Resolve: %v", err)
	}
	if stored {
		t.Fatal("second resolution must not store again")
	}
	if url != "https://cdn.example.com/asset-1" {
		t.Fatalf("url = %s, want the stored one", url)
	}
	if uploads != 1 {
		t.Fatalf("uploads = %d, want 1", uploads)
	}
}

func TestResolveLosesInsertRace(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	dedup := NewDedup(st, logging.Nop())

	// The competing record lands between our existence check and insert.
	upload := func(ctx context.Context) (string, error) {
		err := st.InsertMedia(ctx, &model.Media{
			ID:        "winner",
			Hash:      "abc",
			URL:       "https://cdn.example.com/winner",
			CreatedAt: time.Now().UTC(),
		})
		if err != nil {
			t.Fatalf("competing insert: %v", err)
		}
		return "https://cdn.example.com/loser", nil
	}

	url, stored, err := dedup.Resolve(ctx, "abc", 42, "image/png", upload)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if stored {
		t.Fatal("race loser must not report stored")
	}
	if url != "https://cdn.example.com/winner" {
		t.Fatalf("url = %s, want the winner's", url)
	}
}

func TestResolveUploadFailure(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	dedup := NewDedup(st, logging.Nop())

	upload := func(ctx context.Context) (string, error) {
		return "", errors.New("cdn timeout")
	}

	_, _, err := dedup.Resolve(ctx, "abc", 42, "image/png", upload)
	if !errors.Is(err, errs.ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}

	// Nothing persisted; a retry uploads again.
	if _, err := st.GetMediaByHash(ctx, "abc"); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("GetMediaByHash after failure err = %v, want ErrNotFound", err)
	}
}
