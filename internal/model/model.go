// Package model holds the persisted entities shared by every component.
package model

import "time"

// User is an account with its two sides of the follow graph. Followers and
// Following are maintained bidirectionally by the social graph component:
// if A appears in B's Followers then B appears in A's Following.
type User struct {
	ID            string    `json:"id" bson:"_id"`
	Email         string    `json:"email" bson:"email"`
	Username      string    `json:"username,omitempty" bson:"username,omitempty"`
	PasswordHash  string    `json:"-" bson:"password_hash"`
	Bio           string    `json:"bio,omitempty" bson:"bio,omitempty"`
	ProfilePicURL string    `json:"profile_pic_url,omitempty" bson:"profile_pic_url,omitempty"`
	Followers     []string  `json:"followers" bson:"followers"`
	Following     []string  `json:"following" bson:"following"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" bson:"updated_at"`
}

// Post is an authored piece of content. Likes and Dislikes are disjoint
// user-id sets. Comments are embedded: they have no lifecycle apart from
// their post.
type Post struct {
	ID        string    `json:"id" bson:"_id"`
	AuthorID  string    `json:"author_id" bson:"author_id"`
	Text      string    `json:"text,omitempty" bson:"text"`
	ImageURL  string    `json:"image_url,omitempty" bson:"image_url"`
	VideoURL  string    `json:"video_url,omitempty" bson:"video_url"`
	Likes     []string  `json:"likes" bson:"likes"`
	Dislikes  []string  `json:"dislikes" bson:"dislikes"`
	Comments  []Comment `json:"comments" bson:"comments"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// Comment is owned by its post and addressed by (post id, comment id).
type Comment struct {
	ID        string    `json:"id" bson:"_id"`
	AuthorID  string    `json:"author_id" bson:"author_id"`
	Text      string    `json:"text" bson:"text"`
	Replies   []Reply   `json:"replies" bson:"replies"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// Reply is owned by its comment.
type Reply struct {
	ID        string    `json:"id" bson:"_id"`
	AuthorID  string    `json:"author_id" bson:"author_id"`
	Text      string    `json:"text" bson:"text"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// Media is a deduplicated stored asset, unique-keyed by the SHA-256 hash of
// its content. Immutable after creation; never deleted by this core. Posts
// reference media only by URL, so media retention is decoupled from post
// lifecycle.
type Media struct {
	ID        string    `json:"id" bson:"_id"`
	Hash      string    `json:"hash" bson:"hash"`
	URL       string    `json:"url" bson:"url"`
	Size      int64     `json:"size" bson:"size"`
	MIMEType  string    `json:"mime_type" bson:"mime_type"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// Notification types.
const (
	NotificationLike    = "like"
	NotificationComment = "comment"
	NotificationFollow  = "follow"
)

// Notification records an engagement event for its recipient. Only IsRead
// is ever mutated after creation.
type Notification struct {
	ID          string    `json:"id" bson:"_id"`
	RecipientID string    `json:"recipient_id" bson:"recipient_id"`
	SenderID    string    `json:"sender_id" bson:"sender_id"`
	Type        string    `json:"type" bson:"type"`
	PostID      string    `json:"post_id,omitempty" bson:"post_id,omitempty"`
	CommentID   string    `json:"comment_id,omitempty" bson:"comment_id,omitempty"`
	IsRead      bool      `json:"is_read" bson:"is_read"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
}
