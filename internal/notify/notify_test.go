package notify

import (
	"context"
	"testing"
	"time"

	"social-backend/internal/logging"
	"social-backend/internal/model"
	"social-backend/internal/store"
)

func seed(t *testing.T, st *store.MemoryStore) {
	t.Helper()
	ctx := context.Background()
	for _, id := range []string{"alice", "bob"} {
		err := st.InsertUser(ctx, &model.User{
			ID:           id,
			Email:        id + "@example.com",
			PasswordHash: "$2a$10$secret",
			CreatedAt:    time.Now().UTC(),
		})
		if err != nil {
			t.Fatalf("seed user %s: %v", id, err)
		}
	}
	err := st.InsertPost(ctx, &model.Post{
		ID:       "p1",
		AuthorID: "alice",
		Text:     "hello",
		Comments: []model.Comment{
			{ID: "c1", AuthorID: "bob", Text: "first!"},
		},
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("seed post: %v", err)
	}
}

func TestListResolvesContextNewestFirst(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	seed(t, st)
	svc := NewService(st, logging.Nop())

	if err := svc.Create(ctx, "alice", "bob", model.NotificationLike, "p1", ""); err != nil {
		t.Fatalf("create like: %v", err)
	}
	if err := svc.Create(ctx, "alice", "bob", model.NotificationComment, "p1", "c1"); err != nil {
		t.Fatalf("create comment: %v", err)
	}
	if err := svc.Create(ctx, "bob", "alice", model.NotificationFollow, "", ""); err != nil {
		t.Fatalf("create follow: %v", err)
	}

	resolved, err := svc.ListForRecipient(ctx, "alice")
	if err != nil {
		t.Fatalf("ListForRecipient: %v", err)
	}
	if len(resolved) != 2 {
		t.Fatalf("resolved = %d, want 2 (bob's follow excluded)", len(resolved))
	}

	// Newest first: the comment notification leads.
	first := resolved[0]
	if first.Notification.Type != model.NotificationComment {
		t.Fatalf("first type = %s, want comment", first.Notification.Type)
	}
	if first.Sender == nil || first.Sender.ID != "bob" {
		t.Fatalf("sender = %+v, want bob", first.Sender)
	}
	if first.Sender.PasswordHash != "" {
		t.Fatal("sender must not expose password hash")
	}
	if first.Post == nil || first.Post.ID != "p1" {
		t.Fatalf("post = %+v, want p1", first.Post)
	}
	if first.Comment == nil || first.Comment.ID != "c1" {
		t.Fatalf("comment = %+v, want c1", first.Comment)
	}

	second := resolved[1]
	if second.Notification.Type != model.NotificationLike {
		t.Fatalf("second type = %s, want like", second.Notification.Type)
	}
	if second.Comment != nil {
		t.Fatalf("like carries no comment, got %+v", second.Comment)
	}
}

func TestListToleratesDeletedPost(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	seed(t, st)
	svc := NewService(st, logging.Nop())

	if err := svc.Create(ctx, "alice", "bob", model.NotificationLike, "p1", ""); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := st.DeletePostByAuthor(ctx, "p1", "alice"); err != nil {
		t.Fatalf("delete post: %v", err)
	}

	resolved, err := svc.ListForRecipient(ctx, "alice")
	if err != nil {
		t.Fatalf("ListForRecipient: %v", err)
	}
	if len(resolved) != 1 {
		t.Fatalf("resolved = %d, want 1", len(resolved))
	}
	if resolved[0].Post != nil {
		t.Fatalf("post = %+v, want nil for the deleted post", resolved[0].Post)
	}
	if resolved[0].Sender == nil {
		t.Fatal("sender should still resolve")
	}
}

func TestMarkAllRead(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	seed(t, st)
	svc := NewService(st, logging.Nop())

	for i := 0; i < 3; i++ {
		if err := svc.Create(ctx, "alice", "bob", model.NotificationFollow, "", ""); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	n, err := svc.MarkAllRead(ctx, "alice")
	if err != nil {
		t.Fatalf("MarkAllRead: %v", err)
	}
	if n != 3 {
		t.Fatalf("flipped = %d, want 3", n)
	}

	n, err = svc.MarkAllRead(ctx, "alice")
	if err != nil {
		t.Fatalf("second MarkAllRead: %v", err)
	}
	if n != 0 {
		t.Fatalf("second pass flipped = %d, want 0", n)
	}

	resolved, err := svc.ListForRecipient(ctx, "alice")
	if err != nil {
		t.Fatalf("ListForRecipient: %v", err)
	}
	for _, r := range resolved {
		if !r.Notification.IsRead {
			t.Fatalf("notification %s still unread", r.Notification.ID)
		}
	}
}
