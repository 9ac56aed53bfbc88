// Package notify records engagement events as notifications and serves the
// read/unread lifecycle. Creation is invoked synchronously by the engagement
// and graph components after their primary effect has committed; a failure
// here never rolls back the triggering action.
package notify

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"social-backend/internal/errs"
	"social-backend/internal/model"
	"social-backend/internal/store"
)

type Service struct {
	store  store.Store
	logger zerolog.Logger
}

func NewService(st store.Store, logger zerolog.Logger) *Service {
	return &Service{store: st, logger: logger}
}

// Create persists a new unread notification. postID and commentID may be
// empty depending on the event type.
func (s *Service) Create(ctx context.Context, recipientID, senderID, notifType, postID, commentID string) error {
	n := &model.Notification{
		ID:          uuid.NewString(),
		RecipientID: recipientID,
		SenderID:    senderID,
		Type:        notifType,
		PostID:      postID,
		CommentID:   commentID,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.store.InsertNotification(ctx, n); err != nil {
		return err
	}
	s.logger.Debug().
		Str("type", notifType).
		Str("recipient", recipientID).
		Str("sender", senderID).
		Msg("notification created")
	return nil
}

// Resolved is a notification with its context loaded. Sender, Post and
// Comment are nil when the referenced entity no longer exists: deleting a
// post does not cascade to notifications, so dangling references are
// expected and tolerated.
type Resolved struct {
	Notification model.Notification `json:"notification"`
	Sender       *model.User        `json:"sender,omitempty"`
	Post         *model.Post        `json:"post,omitempty"`
	Comment      *model.Comment     `json:"comment,omitempty"`
}

// ListForRecipient returns the recipient's notifications newest first, each
// resolved with sender and, when referenced, post and comment context.
func (s *Service) ListForRecipient(ctx context.Context, userID string) ([]Resolved, error) {
	notifications, err := s.store.NotificationsForRecipient(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]Resolved, 0, len(notifications))
	for _, n := range notifications {
		r := Resolved{Notification: n}

		sender, err := s.store.GetUser(ctx, n.SenderID)
		switch {
		case err == nil:
			sender.PasswordHash = ""
			r.Sender = sender
		case !errors.Is(err, errs.ErrNotFound):
			return nil, err
		}

		if n.PostID != "" {
			post, err := s.store.GetPost(ctx, n.PostID)
			switch {
			case err == nil:
				r.Post = post
				if n.CommentID != "" {
					for i := range post.Comments {
						if post.Comments[i].ID == n.CommentID {
							r.Comment = &post.Comments[i]
							break
						}
					}
				}
			case !errors.Is(err, errs.ErrNotFound):
				return nil, err
			}
		}

		out = append(out, r)
	}
	return out, nil
}

// MarkAllRead flips every unread notification for the recipient. Idempotent.
func (s *Service) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	return s.store.MarkNotificationsRead(ctx, userID)
}
