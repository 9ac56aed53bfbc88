// Package store provides the persistence layer behind the social core: one
// Store interface with MongoDB, SQL (Postgres/MySQL) and in-memory
// implementations. Components receive a Store handle at construction time;
// nothing reaches for a global connection.
package store

import (
	"context"
	"fmt"

	"social-backend/internal/errs"
	"social-backend/internal/model"
)

// SortSpec orders a post listing. Only the creation timestamp is a valid
// sort field; Desc true means newest first.
type SortSpec struct {
	Field string
	Desc  bool
}

// SortFieldCreatedAt is the only supported sort field.
const SortFieldCreatedAt = "created_at"

// DefaultSort is newest first.
func DefaultSort() SortSpec {
	return SortSpec{Field: SortFieldCreatedAt, Desc: true}
}

// ProfilePatch applies only its non-nil fields.
type ProfilePatch struct {
	Username      *string
	Bio           *string
	ProfilePicURL *string
}

// PostPatch applies only its non-nil fields.
type PostPatch struct {
	Text     *string
	ImageURL *string
	VideoURL *string
}

// Store is the storage contract shared by all backends.
//
// Error contract: a missing entity is reported as errs.ErrNotFound, a
// uniqueness or state conflict as errs.ErrConflict, and any driver failure
// as errs.ErrUnavailable, always via errors.Is-compatible wrapping.
//
// AddLike and AddDislike are atomic at the storage layer: the cross-set
// removal, the membership check and the insertion happen in a single
// conditional update (Mongo) or transaction (SQL), never as a read of the
// whole document followed by a blind write.
type Store interface {
	// EnsureSchema creates collections/tables and unique indexes. Idempotent.
	EnsureSchema(ctx context.Context) error
	Close(ctx context.Context) error

	// Users.
	InsertUser(ctx context.Context, u *model.User) error
	GetUser(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	UpdateUserProfile(ctx context.Context, id string, patch ProfilePatch) (*model.User, error)
	UserIDs(ctx context.Context) ([]string, error)

	// Follow graph. Follow adds followeeID to the follower's following set
	// and followerID to the followee's followers set; both insertions are
	// idempotent. The returned bool reports whether the followers side
	// actually gained the entry (the absent-to-present transition that
	// triggers a follow notification). Unfollow removes both sides and is a
	// no-op on absent entries.
	Follow(ctx context.Context, followerID, followeeID string) (bool, error)
	Unfollow(ctx context.Context, followerID, followeeID string) error
	FollowingIDs(ctx context.Context, userID string) ([]string, error)
	FollowerIDs(ctx context.Context, userID string) ([]string, error)

	// Single-side repairs used by the reconciliation sweep. On backends
	// where the graph is a single edge table these complete or remove the
	// whole edge. RemoveFollowingEdge drops followeeID from userID's
	// following list; the sweep uses it to clear a dangling half-edge
	// whose followee no longer exists.
	AddFollowerEdge(ctx context.Context, userID, followerID string) error
	RemoveFollowerEdge(ctx context.Context, userID, followerID string) error
	RemoveFollowingEdge(ctx context.Context, userID, followeeID string) error

	// Posts.
	InsertPost(ctx context.Context, p *model.Post) error
	GetPost(ctx context.Context, id string) (*model.Post, error)
	// FindPostByContent matches the exact (text, imageURL, videoURL) tuple
	// for the given author, treating unset fields as empty strings. Returns
	// errs.ErrNotFound when no such post exists.
	FindPostByContent(ctx context.Context, authorID, text, imageURL, videoURL string) (*model.Post, error)
	AddLike(ctx context.Context, postID, userID string) (*model.Post, error)
	AddDislike(ctx context.Context, postID, userID string) (*model.Post, error)
	AppendComment(ctx context.Context, postID string, c model.Comment) (*model.Post, error)
	AppendReply(ctx context.Context, postID, commentID string, r model.Reply) (*model.Post, error)
	Comments(ctx context.Context, postID string) ([]model.Comment, error)
	// UpdatePostByAuthor and DeletePostByAuthor filter on both post id and
	// author id in one query, so a non-author gets the same errs.ErrNotFound
	// as a missing post.
	UpdatePostByAuthor(ctx context.Context, postID, authorID string, patch PostPatch) (*model.Post, error)
	DeletePostByAuthor(ctx context.Context, postID, authorID string) error
	ListPosts(ctx context.Context, offset, limit int, sort SortSpec) ([]model.Post, int64, error)
	// PostsByAuthors returns every post whose author is in authorIDs,
	// newest first.
	PostsByAuthors(ctx context.Context, authorIDs []string) ([]model.Post, error)

	// Media. InsertMedia returns errs.ErrConflict when another writer won
	// the race for the same hash; the caller re-reads instead of failing.
	GetMediaByHash(ctx context.Context, hash string) (*model.Media, error)
	InsertMedia(ctx context.Context, m *model.Media) error

	// Notifications.
	InsertNotification(ctx context.Context, n *model.Notification) error
	NotificationsForRecipient(ctx context.Context, userID string) ([]model.Notification, error)
	MarkNotificationsRead(ctx context.Context, userID string) (int64, error)
}

// unavailable wraps a driver error into the taxonomy.
func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", errs.ErrUnavailable, op, err)
}

// notFound builds an ErrNotFound for the given entity.
func notFound(entity string) error {
	return fmt.Errorf("%w: %s", errs.ErrNotFound, entity)
}

// conflict builds an ErrConflict with a reason.
func conflict(reason string) error {
	return fmt.Errorf("%w: %s", errs.ErrConflict, reason)
}
