// Package socialgraph maintains the directed follow relation between users.
// On document backends the relation is stored on both sides (the follower's
// following list and the followee's followers list) without a cross-document
// transaction, so the package also provides a symmetry check and a
// reconciliation sweep.
package socialgraph

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"social-backend/internal/errs"
	"social-backend/internal/model"
	"social-backend/internal/store"
)

// Notifier records the follow event; called only after the followers side
// has durably gained the edge.
type Notifier interface {
	Create(ctx context.Context, recipientID, senderID, notifType, postID, commentID string) error
}

type Graph struct {
	store    store.Store
	notifier Notifier
	logger   zerolog.Logger
}

func New(st store.Store, notifier Notifier, logger zerolog.Logger) *Graph {
	return &Graph{store: st, notifier: notifier, logger: logger}
}

// FollowOutcome returns both sides of the relation after the mutation.
// Warning carries a notification-persistence failure.
type FollowOutcome struct {
	Follower *model.User `json:"follower"`
	Followee *model.User `json:"followee"`
	Warning  error       `json:"-"`
}

// Follow makes followerID follow followeeID. Idempotent; the followee is
// notified only when their followers list actually gains the entry.
func (g *Graph) Follow(ctx context.Context, followerID, followeeID string) (*FollowOutcome, error) {
	if followerID == followeeID {
		return nil, fmt.Errorf("%w: cannot follow yourself", errs.ErrInvalidArgument)
	}

	gained, err := g.store.Follow(ctx, followerID, followeeID)
	if err != nil {
		return nil, err
	}

	out := &FollowOutcome{}
	if gained {
		if nerr := g.notifier.Create(ctx, followeeID, followerID, model.NotificationFollow, "", ""); nerr != nil {
			g.logger.Warn().Err(nerr).
				Str("follower", followerID).
				Str("followee", followeeID).
				Msg("follow committed but notification failed")
			out.Warning = fmt.Errorf("follow recorded but notification failed: %w", nerr)
		}
	}

	if out.Follower, err = g.sanitizedUser(ctx, followerID); err != nil {
		return nil, err
	}
	if out.Followee, err = g.sanitizedUser(ctx, followeeID); err != nil {
		return nil, err
	}
	return out, nil
}

// Unfollow removes the relation from both sides. Removing an absent entry
// is a no-op, not an error.
func (g *Graph) Unfollow(ctx context.Context, followerID, followeeID string) (*FollowOutcome, error) {
	if err := g.store.Unfollow(ctx, followerID, followeeID); err != nil {
		return nil, err
	}

	out := &FollowOutcome{}
	var err error
	if out.Follower, err = g.sanitizedUser(ctx, followerID); err != nil {
		return nil, err
	}
	if out.Followee, err = g.sanitizedUser(ctx, followeeID); err != nil {
		return nil, err
	}
	return out, nil
}

// FollowingIDs is the feed assembler's source lookup.
func (g *Graph) FollowingIDs(ctx context.Context, userID string) ([]string, error) {
	return g.store.FollowingIDs(ctx, userID)
}

func (g *Graph) sanitizedUser(ctx context.Context, id string) (*model.User, error) {
	u, err := g.store.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	u.PasswordHash = ""
	return u, nil
}

// Asymmetry kinds. Follow writes the following side first and unfollow
// removes the following side first, so the direction of an asymmetry tells
// which operation was interrupted and therefore which repair completes it.
const (
	// KindMissingFollower: B is in A's following but A is missing from B's
	// followers, the signature of an interrupted follow. Repair completes
	// the edge, or drops the following entry when B no longer exists.
	KindMissingFollower = "missing_follower"

	// KindStaleFollower: A is in B's followers but B is missing from A's
	// following, the signature of an interrupted unfollow. Repair removes
	// the stale entry.
	KindStaleFollower = "stale_follower"
)

// Asymmetry is one inconsistent half-edge: FollowerID should (or should
// not) appear in UserID's followers list.
type Asymmetry struct {
	Kind       string
	UserID     string
	FollowerID string
}

// Check scans the whole graph and reports every asymmetric half-edge. An
// empty result means the two-sided invariant holds.
func (g *Graph) Check(ctx context.Context) ([]Asymmetry, error) {
	ids, err := g.store.UserIDs(ctx)
	if err != nil {
		return nil, err
	}

	following := make(map[string]map[string]bool, len(ids))
	followers := make(map[string]map[string]bool, len(ids))
	for _, id := range ids {
		f, err := g.store.FollowingIDs(ctx, id)
		if err != nil {
			return nil, err
		}
		following[id] = toSet(f)

		f, err = g.store.FollowerIDs(ctx, id)
		if err != nil {
			return nil, err
		}
		followers[id] = toSet(f)
	}

	var out []Asymmetry
	for _, a := range ids {
		for b := range following[a] {
			if !followers[b][a] {
				out = append(out, Asymmetry{Kind: KindMissingFollower, UserID: b, FollowerID: a})
			}
		}
		for f := range followers[a] {
			if !following[f][a] {
				out = append(out, Asymmetry{Kind: KindStaleFollower, UserID: a, FollowerID: f})
			}
		}
	}
	return out, nil
}

// Reconcile repairs every asymmetry Check finds and returns how many edges
// were fixed.
func (g *Graph) Reconcile(ctx context.Context) (int, error) {
	asymmetries, err := g.Check(ctx)
	if err != nil {
		return 0, err
	}

	repaired := 0
	for _, a := range asymmetries {
		switch a.Kind {
		case KindMissingFollower:
			err = g.store.AddFollowerEdge(ctx, a.UserID, a.FollowerID)
			if errors.Is(err, errs.ErrNotFound) {
				// The followee is gone; the half-edge cannot be completed,
				// so drop it from the follower's side instead.
				err = g.store.RemoveFollowingEdge(ctx, a.FollowerID, a.UserID)
			}
		case KindStaleFollower:
			err = g.store.RemoveFollowerEdge(ctx, a.UserID, a.FollowerID)
		}
		if err != nil {
			return repaired, err
		}
		repaired++
		g.logger.Info().
			Str("kind", a.Kind).
			Str("user", a.UserID).
			Str("follower", a.FollowerID).
			Msg("repaired follow-graph asymmetry")
	}
	return repaired, nil
}

func toSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
