// Package engagement owns post lifecycle and social state: likes, dislikes,
// comments and replies. Set mutations are delegated to the store's atomic
// operations; this layer adds the business rules and the notification side
// effects.
package engagement

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

// Notifier records an engagement event for a recipient. Failures are
// secondary: the primary mutation has already committed when it is called.
type Notifier interface {
	Create(ctx context.Context, recipientID, senderID, notifType, postID, commentID string) error
}

// PageLimits bounds ListPosts page sizes.
type PageLimits struct {
	DefaultPageSize int
	MaxPageSize     int
}

type Engine struct {
	store    store.Store
	notifier Notifier
	logger   zerolog.Logger
	limits   PageLimits
}

func NewEngine(st store.Store, notifier Notifier, logger zerolog.Logger, limits PageLimits) *Engine {
	if limits.DefaultPageSize <= 0 {
		limits.DefaultPageSize = 10
	}
	if limits.MaxPageSize <= 0 {
		limits.MaxPageSize = 100
	}
	return &Engine{store: st, notifier: notifier, logger: logger, limits: limits}
}

// Outcome is the result of a mutation that triggers a notification. Warning
// carries a notification-persistence failure; the primary effect has
// committed whenever Outcome is returned.
type Outcome struct {
	Post    *model.Post `json:"post"`
	Warning error       `json:"-"`
}

// Like adds userID to the post's likes, removing any dislike by the same
// user in the same storage operation. Conflict when already liked. The
// author is notified unless they liked their own post.
func (e *Engine) Like(ctx context.Context, postID, userID string) (*Outcome, error) {
	post, err := e.store.AddLike(ctx, postID, userID)
	if err != nil {
		return nil, err
	}

	out := &Outcome{Post: post}
	if post.AuthorID != userID {
		out.Warning = e.emit(ctx, post.AuthorID, userID, model.NotificationLike, postID, "")
	}
	return out, nil
}

// Dislike is symmetric to Like but emits no notification.
func (e *Engine) Dislike(ctx context.Context, postID, userID string) (*model.Post, error) {
	return e.store.AddDislike(ctx, postID, userID)
}

// AddComment appends a comment and notifies the post's author.
func (e *Engine) AddComment(ctx context.Context, postID, userID, text string) (*Outcome, error) {
	comment := model.Comment{
		ID:        uuid.NewString(),
		AuthorID:  userID,
		Text:      text,
		Replies:   []model.Reply{},
		CreatedAt: time.Now().UTC(),
	}

	post, err := e.store.AppendComment(ctx, postID, comment)
	if err != nil {
		return nil, err
	}

	out := &Outcome{Post: post}
	out.Warning = e.emit(ctx, post.AuthorID, userID, model.NotificationComment, postID, comment.ID)
	return out, nil
}

// ReplyToComment appends a reply to the comment identified by (postID,
// commentID). Replies do not notify anyone.
func (e *Engine) ReplyToComment(ctx context.Context, postID, commentID, userID, text string) (*model.Post, error) {
	reply := model.Reply{
		ID:        uuid.NewString(),
		AuthorID:  userID,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
	return e.store.AppendReply(ctx, postID, commentID, reply)
}

// Comments returns the post's comments in insertion order.
func (e *Engine) Comments(ctx context.Context, postID string) ([]model.Comment, error) {
	return e.store.Comments(ctx, postID)
}

// CreatePost creates a post with the provided fields. A post needs at least
// one of text, image or video, and an author may not hold two posts with an
// identical content tuple.
func (e *Engine) CreatePost(ctx context.Context, userID, text, imageURL, videoURL string) (*model.Post, error) {
	if text == "" && imageURL == "" && videoURL == "" {
		return nil, fmt.Errorf("%w: post needs text, an image or a video", errs.ErrInvalidArgument)
	}

	if _, err := e.store.GetUser(ctx, userID); err != nil {
		return nil, err
	}

	_, err := e.store.FindPostByContent(ctx, userID, text, imageURL, videoURL)
	if err == nil {
		return nil, fmt.Errorf("%w: a similar post already exists", errs.ErrConflict)
	}
	if !errors.Is(err, errs.ErrNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	post := &model.Post{
		ID:        uuid.NewString(),
		AuthorID:  userID,
		Text:      text,
		ImageURL:  imageURL,
		VideoURL:  videoURL,
		Likes:     []string{},
		Dislikes:  []string{},
		Comments:  []model.Comment{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := e.store.InsertPost(ctx, post); err != nil {
		return nil, err
	}

	e.logger.Debug().Str("post", post.ID).Str("author", userID).Msg("post created")
	return post, nil
}

// UpdatePost applies the patch to the caller's own post. A non-author gets
// NotFound, never Forbidden.
func (e *Engine) UpdatePost(ctx context.Context, postID, userID string, patch store.PostPatch) (*model.Post, error) {
	return e.store.UpdatePostByAuthor(ctx, postID, userID, patch)
}

// DeletePost removes the caller's own post. Notifications referencing the
// post are left in place; the notification listing resolves them to nil.
func (e *Engine) DeletePost(ctx context.Context, postID, userID string) error {
	return e.store.DeletePostByAuthor(ctx, postID, userID)
}

// PageInfo describes a page of the global post listing.
type PageInfo struct {
	TotalPosts   int64 `json:"total_posts"`
	TotalPages   int   `json:"total_pages"`
	CurrentPage  int   `json:"current_page"`
	PostsPerPage int   `json:"posts_per_page"`
}

// Page is one page of posts plus pagination metadata.
type Page struct {
	Posts      []model.Post `json:"posts"`
	Pagination PageInfo     `json:"pagination"`
}

// ListPosts returns a page of all posts ordered per sortSpec, newest first
// by default. Page numbers start at 1.
func (e *Engine) ListPosts(ctx context.Context, page, pageSize int, sortSpec store.SortSpec) (*Page, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = e.limits.DefaultPageSize
	}
	if pageSize > e.limits.MaxPageSize {
		pageSize = e.limits.MaxPageSize
	}

	if sortSpec.Field == "" {
		sortSpec = store.DefaultSort()
	}
	if sortSpec.Field != store.SortFieldCreatedAt {
		return nil, fmt.Errorf("%w: unsupported sort field %q", errs.ErrInvalidArgument, sortSpec.Field)
	}

	posts, total, err := e.store.ListPosts(ctx, (page-1)*pageSize, pageSize, sortSpec)
	if err != nil {
		return nil, err
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return &Page{
		Posts: posts,
		Pagination: PageInfo{
			TotalPosts:   total,
			TotalPages:   totalPages,
			CurrentPage:  page,
			PostsPerPage: pageSize,
		},
	}, nil
}

func (e *Engine) emit(ctx context.Context, recipientID, senderID, notifType, postID, commentID string) error {
	err := e.notifier.Create(ctx, recipientID, senderID, notifType, postID, commentID)
	if err == nil {
		return nil
	}
	e.logger.Warn().
		Err(err).
		Str("type", notifType).
		Str("recipient", recipientID).
		Msg("primary action committed but notification failed")
	return fmt.Errorf("%s recorded but notification failed: %w", notifType, err)
}
