package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"social-backend/internal/errs"
	"social-backend/internal/model"
)

func seedUser(t *testing.T, s *MemoryStore, id, email string) {
	t.Helper()
	err := s.InsertUser(context.Background(), &model.User{
		ID:        id,
		Email:     email,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("seed user %s: %v", id, err)
	}
}

func seedPost(t *testing.T, s *MemoryStore, id, authorID, text string, createdAt time.Time) {
	t.Helper()
	err := s.InsertPost(context.Background(), &model.Post{
		ID:        id,
		AuthorID:  authorID,
		Text:      text,
		CreatedAt: createdAt,
	})
	if err != nil {
		t.Fatalf("seed post %s: %v", id, err)
	}
}

func TestAddLikeExclusivity(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	seedUser(t, s, "alice", "alice@example.com")
	seedPost(t, s, "p1", "alice", "hello", time.Now().UTC())

	post, err := s.AddDislike(ctx, "p1", "bob")
	if err != nil {
		t.Fatalf("AddDislike: %v", err)
	}
	if len(post.Dislikes) != 1 || post.Dislikes[0] != "bob" {
		t.Fatalf("dislikes = %v, want [bob]", post.Dislikes)
	}

	post, err = s.AddLike(ctx, "p1", "bob")
	if err != nil {
		t.Fatalf("AddLike after dislike: %v", err)
	}
	if len(post.Likes) != 1 || post.Likes[0] != "bob" {
		t.Fatalf("likes = %v, want [bob]", post.Likes)
	}
	if len(post.Dislikes) != 0 {
		t.Fatalf("dislikes = %v, want empty after like", post.Dislikes)
	}

	if _, err := s.AddLike(ctx, "p1", "bob"); !errors.Is(err, errs.ErrConflict) {
		t.Fatalf("second AddLike err = %v, want ErrConflict", err)
	}
}

func TestAddLikeMissingPost(t *testing.T) {
	s := NewMemoryStore()
	if _, err := s.AddLike(context.Background(), "ghost", "bob"); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("AddLike on missing post err = %v, want ErrNotFound", err)
	}
}

func TestFollowSymmetryAndIdempotence(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	seedUser(t, s, "a", "a@example.com")
	seedUser(t, s, "b", "b@example.com")

	gained, err := s.Follow(ctx, "a", "b")
	if err != nil {
		t.Fatalf("Follow: %v", err)
	}
	if !gained {
		t.Fatal("first follow should gain the followers entry")
	}

	following, err := s.FollowingIDs(ctx, "a")
	if err != nil {
		t.Fatalf("FollowingIDs: %v", err)
	}
	if len(following) != 1 || following[0] != "b" {
		t.Fatalf("following = %v, want [b]", following)
	}
	followers, err := s.FollowerIDs(ctx, "b")
	if err != nil {
		t.Fatalf("FollowerIDs: %v", err)
	}
	if len(followers) != 1 || followers[0] != "a" {
		t.Fatalf("followers = %v, want [a]", followers)
	}

	gained, err = s.Follow(ctx, "a", "b")
	if err != nil {
		t.Fatalf("second Follow: %v", err)
	}
	if gained {
		t.Fatal("repeat follow must not gain the entry again")
	}

	following, _ = s.FollowingIDs(ctx, "a")
	if len(following) != 1 {
		t.Fatalf("following after repeat follow = %v, want single entry", following)
	}
}

func TestUnfollowThenRefollow(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	seedUser(t, s, "a", "a@example.com")
	seedUser(t, s, "b", "b@example.com")

	if _, err := s.Follow(ctx, "a", "b"); err != nil {
		t.Fatalf("Follow: %v", err)
	}
	if err := s.Unfollow(ctx, "a", "b"); err != nil {
		t.Fatalf("Unfollow: %v", err)
	}
	// Removing an absent entry is a no-op.
	if err := s.Unfollow(ctx, "a", "b"); err != nil {
		t.Fatalf("repeat Unfollow: %v", err)
	}

	gained, err := s.Follow(ctx, "a", "b")
	if err != nil {
		t.Fatalf("refollow: %v", err)
	}
	if !gained {
		t.Fatal("refollow should gain the followers entry again")
	}

	following, _ := s.FollowingIDs(ctx, "a")
	followers, _ := s.FollowerIDs(ctx, "b")
	if len(following) != 1 || len(followers) != 1 {
		t.Fatalf("after refollow following = %v followers = %v, want one entry each", following, followers)
	}
}

func TestInsertUserDuplicateEmail(t *testing.T) {
	s := NewMemoryStore()
	seedUser(t, s, "a", "dup@example.com")
	err := s.InsertUser(context.Background(), &model.User{ID: "b", Email: "dup@example.com"})
	if !errors.Is(err, errs.ErrConflict) {
		t.Fatalf("duplicate email err = %v, want ErrConflict", err)
	}
}

func TestInsertMediaDuplicateHash(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	if err := s.InsertMedia(ctx, &model.Media{ID: "m1", Hash: "abc", URL: "u1"}); err != nil {
		t.Fatalf("InsertMedia: %v", err)
	}
	err := s.InsertMedia(ctx, &model.Media{ID: "m2", Hash: "abc", URL: "u2"})
	if !errors.Is(err, errs.ErrConflict) {
		t.Fatalf("duplicate hash err = %v, want ErrConflict", err)
	}
	m, err := s.GetMediaByHash(ctx, "abc")
	if err != nil {
		t.Fatalf("GetMediaByHash: %v", err)
	}
	if m.URL != "u1" {
		t.Fatalf("url = %q, want winner's u1", m.URL)
	}
}

func TestListPostsPagination(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	base := time.Now().UTC()
	for i := 0; i < 25; i++ {
		seedPost(t, s, postID(i), "author", "post", base.Add(time.Duration(i)*time.Second))
	}

	posts, total, err := s.ListPosts(ctx, 10, 10, DefaultSort())
	if err != nil {
		t.Fatalf("ListPosts: %v", err)
	}
	if total != 25 {
		t.Fatalf("total = %d, want 25", total)
	}
	if len(posts) != 10 {
		t.Fatalf("page length = %d, want 10", len(posts))
	}
	// Newest first: page 2 starts at the 11th newest.
	if posts[0].ID != postID(14) {
		t.Fatalf("first post on page 2 = %s, want %s", posts[0].ID, postID(14))
	}

	posts, _, err = s.ListPosts(ctx, 100, 10, DefaultSort())
	if err != nil {
		t.Fatalf("ListPosts past end: %v", err)
	}
	if len(posts) != 0 {
		t.Fatalf("past-end page length = %d, want 0", len(posts))
	}
}

func postID(i int) string {
	return string(rune('a'+i/10)) + string(rune('0'+i%10))
}

func TestUpdateAndDeleteRequireAuthor(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	seedPost(t, s, "p1", "alice", "hello", time.Now().UTC())

	text := "edited"
	if _, err := s.UpdatePostByAuthor(ctx, "p1", "mallory", PostPatch{Text: &text}); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("update by non-author err = %v, want ErrNotFound", err)
	}
	if err := s.DeletePostByAuthor(ctx, "p1", "mallory"); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("delete by non-author err = %v, want ErrNotFound", err)
	}

	p, err := s.UpdatePostByAuthor(ctx, "p1", "alice", PostPatch{Text: &text})
	if err != nil {
		t.Fatalf("update by author: %v", err)
	}
	if p.Text != "edited" {
		t.Fatalf("text = %q, want edited", p.Text)
	}
	if err := s.DeletePostByAuthor(ctx, "p1", "alice"); err != nil {
		t.Fatalf("delete by author: %v", err)
	}
	if _, err := s.GetPost(ctx, "p1"); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("get after delete err = %v, want ErrNotFound", err)
	}
}

func TestAppendReplyScopedToPost(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	seedPost(t, s, "p1", "alice", "hello", time.Now().UTC())
	seedPost(t, s, "p2", "alice", "other", time.Now().UTC())

	c := model.Comment{ID: "c1", AuthorID: "bob", Text: "nice", CreatedAt: time.Now().UTC()}
	if _, err := s.AppendComment(ctx, "p1", c); err != nil {
		t.Fatalf("AppendComment: %v", err)
	}

	r := model.Reply{ID: "r1", AuthorID: "carol", Text: "agreed", CreatedAt: time.Now().UTC()}
	// The comment belongs to p1; addressing it through p2 must fail.
	if _, err := s.AppendReply(ctx, "p2", "c1", r); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("reply via wrong post err = %v, want ErrNotFound", err)
	}

	post, err := s.AppendReply(ctx, "p1", "c1", r)
	if err != nil {
		t.Fatalf("AppendReply: %v", err)
	}
	if len(post.Comments) != 1 || len(post.Comments[0].Replies) != 1 {
		t.Fatalf("comments = %+v, want one comment with one reply", post.Comments)
	}
	if post.Comments[0].Replies[0].Text != "agreed" {
		t.Fatalf("reply text = %q", post.Comments[0].Replies[0].Text)
	}
}

func TestMarkNotificationsReadIdempotent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	for i := 0; i < 3; i++ {
		err := s.InsertNotification(ctx, &model.Notification{
			ID:          postID(i),
			RecipientID: "alice",
			SenderID:    "bob",
			Type:        model.NotificationLike,
			CreatedAt:   time.Now().UTC(),
		})
		if err != nil {
			t.Fatalf("InsertNotification: %v", err)
		}
	}

	n, err := s.MarkNotificationsRead(ctx, "alice")
	if err != nil {
		t.Fatalf("MarkNotificationsRead: %v", err)
	}
	if n != 3 {
		t.Fatalf("flipped = %d, want 3", n)
	}

	n, err = s.MarkNotificationsRead(ctx, "alice")
	if err != nil {
		t.Fatalf("second MarkNotificationsRead: %v", err)
	}
	if n != 0 {
		t.Fatalf("second pass flipped = %d, want 0", n)
	}
}
