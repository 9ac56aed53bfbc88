package feed

import (
	"context"
	"errors"
	"testing"
	"time"

	"social-backend/internal/errs"
	"social-backend/internal/logging"
	"social-backend/internal/model"
	"social-backend/internal/store"
)

func seedUser(t *testing.T, st *store.MemoryStore, id string) {
	t.Helper()
	err := st.InsertUser(context.Background(), &model.User{
		ID:        id,
		Email:     id + "@example.com",
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("seed user %s: %v", id, err)
	}
}

func seedPost(t *testing.T, st *store.MemoryStore, id, authorID string, createdAt time.Time) {
	t.Helper()
	err := st.InsertPost(context.Background(), &model.Post{
		ID:        id,
		AuthorID:  authorID,
		Text:      "post " + id,
		CreatedAt: createdAt,
	})
	if err != nil {
		t.Fatalf("seed post %s: %v", id, err)
	}
}

func TestFeedFollowedAuthorsNewestFirst(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	for _, id := range []string{"u", "x", "y", "z"} {
		seedUser(t, st, id)
	}
	if _, err := st.Follow(ctx, "u", "x"); err != nil {
		t.Fatalf("follow x: %v", err)
	}
	if _, err := st.Follow(ctx, "u", "y"); err != nil {
		t.Fatalf("follow y: %v", err)
	}

	base := time.Now().UTC()
	seedPost(t, st, "p1", "x", base.Add(10*time.Second))
	seedPost(t, st, "p2", "y", base.Add(20*time.Second))
	seedPost(t, st, "p3", "x", base.Add(30*time.Second))
	seedPost(t, st, "p4", "z", base.Add(40*time.Second)) // not followed

	posts, err := NewAssembler(st, logging.Nop()).Feed(ctx, "u")
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}

	want := []string{"p3", "p2", "p1"}
	if len(posts) != len(want) {
		t.Fatalf("feed length = %d, want %d", len(posts), len(want))
	}
	for i, id := range want {
		if posts[i].ID != id {
			t.Fatalf("feed[%d] = %s, want %s", i, posts[i].ID, id)
		}
	}
}

func TestFeedFollowingNobody(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	seedUser(t, st, "u")
	seedPost(t, st, "p1", "u", time.Now().UTC())

	posts, err := NewAssembler(st, logging.Nop()).Feed(ctx, "u")
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if posts == nil || len(posts) != 0 {
		t.Fatalf("feed = %v, want empty non-nil slice", posts)
	}
}

func TestFeedMissingUser(t *testing.T) {
	st := store.NewMemoryStore()
	_, err := NewAssembler(st, logging.Nop()).Feed(context.Background(), "ghost")
	if !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
