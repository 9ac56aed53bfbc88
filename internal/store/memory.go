package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"social-backend/internal/model"
)

// MemoryStore is a mutex-protected in-memory Store. It is the reference
// implementation of the storage semantics and the backend used by the test
// suites. All returned entities are deep copies.
type MemoryStore struct {
	mu            sync.RWMutex
	users         map[string]*model.User
	posts         map[string]*model.Post
	postSeq       map[string]int64
	media         map[string]*model.Media // keyed by hash
	notifications []model.Notification
	seq           int64
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:   make(map[string]*model.User),
		posts:   make(map[string]*model.Post),
		postSeq: make(map[string]int64),
		media:   make(map[string]*model.Media),
	}
}

func (s *MemoryStore) EnsureSchema(ctx context.Context) error { return nil }
func (s *MemoryStore) Close(ctx context.Context) error        { return nil }

func cloneUser(u *model.User) *model.User {
	c := *u
	c.Followers = append([]string(nil), u.Followers...)
	c.Following = append([]string(nil), u.Following...)
	return &c
}

func clonePost(p *model.Post) *model.Post {
	c := *p
	c.Likes = append([]string(nil), p.Likes...)
	c.Dislikes = append([]string(nil), p.Dislikes...)
	c.Comments = cloneComments(p.Comments)
	return &c
}

func cloneComments(comments []model.Comment) []model.Comment {
	out := make([]model.Comment, len(comments))
	for i, cm := range comments {
		out[i] = cm
		out[i].Replies = append([]model.Reply(nil), cm.Replies...)
	}
	return out
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func remove(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func (s *MemoryStore) InsertUser(ctx context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Email == u.Email {
			return conflict("email already registered")
		}
	}
	if u.Followers == nil {
		u.Followers = []string{}
	}
	if u.Following == nil {
		u.Following = []string{}
	}
	s.users[u.ID] = cloneUser(u)
	return nil
}

func (s *MemoryStore) GetUser(ctx context.Context, id string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, notFound("user " + id)
	}
	return cloneUser(u), nil
}

func (s *MemoryStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, notFound("user with email " + email)
}

func (s *MemoryStore) UpdateUserProfile(ctx context.Context, id string, patch ProfilePatch) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, notFound("user " + id)
	}
	if patch.Username != nil {
		u.Username = *patch.Username
	}
	if patch.Bio != nil {
		u.Bio = *patch.Bio
	}
	if patch.ProfilePicURL != nil {
		u.ProfilePicURL = *patch.ProfilePicURL
	}
	u.UpdatedAt = time.Now().UTC()
	return cloneUser(u), nil
}

func (s *MemoryStore) UserIDs(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.users))
	for id := range s.users {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *MemoryStore) Follow(ctx context.Context, followerID, followeeID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	follower, ok := s.users[followerID]
	if !ok {
		return false, notFound("follower " + followerID)
	}
	followee, ok := s.users[followeeID]
	if !ok {
		return false, notFound("followee " + followeeID)
	}

	if !contains(follower.Following, followeeID) {
		follower.Following = append(follower.Following, followeeID)
	}
	if contains(followee.Followers, followerID) {
		return false, nil
	}
	followee.Followers = append(followee.Followers, followerID)
	return true, nil
}

func (s *MemoryStore) Unfollow(ctx context.Context, followerID, followeeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	follower, ok := s.users[followerID]
	if !ok {
		return notFound("follower " + followerID)
	}
	followee, ok := s.users[followeeID]
	if !ok {
		return notFound("followee " + followeeID)
	}

	follower.Following = remove(follower.Following, followeeID)
	followee.Followers = remove(followee.Followers, followerID)
	return nil
}

func (s *MemoryStore) FollowingIDs(ctx context.Context, userID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[userID]
	if !ok {
		return nil, notFound("user " + userID)
	}
	return append([]string(nil), u.Following...), nil
}

func (s *MemoryStore) FollowerIDs(ctx context.Context, userID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[userID]
	if !ok {
		return nil, notFound("user " + userID)
	}
	return append([]string(nil), u.Followers...), nil
}

func (s *MemoryStore) AddFollowerEdge(ctx context.Context, userID, followerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return notFound("user " + userID)
	}
	if !contains(u.Followers, followerID) {
		u.Followers = append(u.Followers, followerID)
	}
	return nil
}

func (s *MemoryStore) RemoveFollowerEdge(ctx context.Context, userID, followerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return notFound("user " + userID)
	}
	u.Followers = remove(u.Followers, followerID)
	return nil
}

// RemoveFollowingEdge drops followeeID from userID's following list without
// touching the followee's followers list.
func (s *MemoryStore) RemoveFollowingEdge(ctx context.Context, userID, followeeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return notFound("user " + userID)
	}
	u.Following = remove(u.Following, followeeID)
	return nil
}

// AddFollowingEdge adds followeeID to userID's following list only. Test
// seam for simulating a crash after the first side of a follow.
func (s *MemoryStore) AddFollowingEdge(ctx context.Context, userID, followeeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return notFound("user " + userID)
	}
	if !contains(u.Following, followeeID) {
		u.Following = append(u.Following, followeeID)
	}
	return nil
}

func (s *MemoryStore) InsertPost(ctx context.Context, p *model.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.Likes == nil {
		p.Likes = []string{}
	}
	if p.Dislikes == nil {
		p.Dislikes = []string{}
	}
	if p.Comments == nil {
		p.Comments = []model.Comment{}
	}
	s.seq++
	s.postSeq[p.ID] = s.seq
	s.posts[p.ID] = clonePost(p)
	return nil
}

func (s *MemoryStore) GetPost(ctx context.Context, id string) (*model.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.posts[id]
	if !ok {
		return nil, notFound("post " + id)
	}
	return clonePost(p), nil
}

func (s *MemoryStore) FindPostByContent(ctx context.Context, authorID, text, imageURL, videoURL string) (*model.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.posts {
		if p.AuthorID == authorID && p.Text == text && p.ImageURL == imageURL && p.VideoURL == videoURL {
			return clonePost(p), nil
		}
	}
	return nil, notFound("post with matching content")
}

func (s *MemoryStore) AddLike(ctx context.Context, postID, userID string) (*model.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[postID]
	if !ok {
		return nil, notFound("post " + postID)
	}
	if contains(p.Likes, userID) {
		return nil, conflict("user already liked this post")
	}
	p.Dislikes = remove(p.Dislikes, userID)
	p.Likes = append(p.Likes, userID)
	p.UpdatedAt = time.Now().UTC()
	return clonePost(p), nil
}

func (s *MemoryStore) AddDislike(ctx context.Context, postID, userID string) (*model.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[postID]
	if !ok {
		return nil, notFound("post " + postID)
	}
	if contains(p.Dislikes, userID) {
		return nil, conflict("user already disliked this post")
	}
	p.Likes = remove(p.Likes, userID)
	p.Dislikes = append(p.Dislikes, userID)
	p.UpdatedAt = time.Now().UTC()
	return clonePost(p), nil
}

func (s *MemoryStore) AppendComment(ctx context.Context, postID string, c model.Comment) (*model.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[postID]
	if !ok {
		return nil, notFound("post " + postID)
	}
	if c.Replies == nil {
		c.Replies = []model.Reply{}
	}
	p.Comments = append(p.Comments, c)
	p.UpdatedAt = time.Now().UTC()
	return clonePost(p), nil
}

func (s *MemoryStore) AppendReply(ctx context.Context, postID, commentID string, r model.Reply) (*model.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[postID]
	if !ok {
		return nil, notFound("post " + postID)
	}
	for i := range p.Comments {
		if p.Comments[i].ID == commentID {
			p.Comments[i].Replies = append(p.Comments[i].Replies, r)
			p.UpdatedAt = time.Now().UTC()
			return clonePost(p), nil
		}
	}
	return nil, notFound("comment " + commentID + " on post " + postID)
}

func (s *MemoryStore) Comments(ctx context.Context, postID string) ([]model.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.posts[postID]
	if !ok {
		return nil, notFound("post " + postID)
	}
	return cloneComments(p.Comments), nil
}

func (s *MemoryStore) UpdatePostByAuthor(ctx context.Context, postID, authorID string, patch PostPatch) (*model.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[postID]
	if !ok || p.AuthorID != authorID {
		return nil, notFound("post " + postID)
	}
	if patch.Text != nil {
		p.Text = *patch.Text
	}
	if patch.ImageURL != nil {
		p.ImageURL = *patch.ImageURL
	}
	if patch.VideoURL != nil {
		p.VideoURL = *patch.VideoURL
	}
	p.UpdatedAt = time.Now().UTC()
	return clonePost(p), nil
}

func (s *MemoryStore) DeletePostByAuthor(ctx context.Context, postID, authorID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[postID]
	if !ok || p.AuthorID != authorID {
		return notFound("post " + postID)
	}
	delete(s.posts, postID)
	delete(s.postSeq, postID)
	return nil
}

func (s *MemoryStore) sortedPosts(spec SortSpec) []model.Post {
	out := make([]model.Post, 0, len(s.posts))
	for _, p := range s.posts {
		out = append(out, *clonePost(p))
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			if spec.Desc {
				return a.CreatedAt.After(b.CreatedAt)
			}
			return a.CreatedAt.Before(b.CreatedAt)
		}
		// Ties fall back to insertion order.
		if spec.Desc {
			return s.postSeq[a.ID] > s.postSeq[b.ID]
		}
		return s.postSeq[a.ID] < s.postSeq[b.ID]
	})
	return out
}

func (s *MemoryStore) ListPosts(ctx context.Context, offset, limit int, sortSpec SortSpec) ([]model.Post, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.sortedPosts(sortSpec)
	total := int64(len(all))

	if offset >= len(all) {
		return []model.Post{}, total, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (s *MemoryStore) PostsByAuthors(ctx context.Context, authorIDs []string) ([]model.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	authors := make(map[string]struct{}, len(authorIDs))
	for _, id := range authorIDs {
		authors[id] = struct{}{}
	}

	out := []model.Post{}
	for _, p := range s.sortedPosts(DefaultSort()) {
		if _, ok := authors[p.AuthorID]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *MemoryStore) GetMediaByHash(ctx context.Context, hash string) (*model.Media, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.media[hash]
	if !ok {
		return nil, notFound("media " + hash)
	}
	c := *m
	return &c, nil
}

func (s *MemoryStore) InsertMedia(ctx context.Context, m *model.Media) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.media[m.Hash]; ok {
		return conflict("media hash already stored")
	}
	c := *m
	s.media[m.Hash] = &c
	return nil
}

func (s *MemoryStore) InsertNotification(ctx context.Context, n *model.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.notifications = append(s.notifications, *n)
	return nil
}

func (s *MemoryStore) NotificationsForRecipient(ctx context.Context, userID string) ([]model.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []model.Notification{}
	for i := len(s.notifications) - 1; i >= 0; i-- {
		if s.notifications[i].RecipientID == userID {
			out = append(out, s.notifications[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) MarkNotificationsRead(ctx context.Context, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var flipped int64
	for i := range s.notifications {
		if s.notifications[i].RecipientID == userID && !s.notifications[i].IsRead {
			s.notifications[i].IsRead = true
			flipped++
		}
	}
	return flipped, nil
}
