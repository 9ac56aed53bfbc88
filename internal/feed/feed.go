// Package feed assembles a user's personalized feed from the follow graph.
// Read-only: it never mutates the graph or the post store.
package feed

import (
	"context"

	"github.com/rs/zerolog"

	"social-backend/internal/model"
	"social-backend/internal/store"
)

type Assembler struct {
	store  store.Store
	logger zerolog.Logger
}

func NewAssembler(st store.Store, logger zerolog.Logger) *Assembler {
	return &Assembler{store: st, logger: logger}
}

// Feed returns every post authored by a user the given user follows, newest
// first. Following nobody yields an empty feed, not an error. The feed is
// deliberately unpaginated, unlike the global post listing.
func (a *Assembler) Feed(ctx context.Context, userID string) ([]model.Post, error) {
	followingIDs, err := a.store.FollowingIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(followingIDs) == 0 {
		return []model.Post{}, nil
	}
	return a.store.PostsByAuthors(ctx, followingIDs)
}
