package store

// Relational mapping of the document model: comments, replies, likes and
// dislikes become cascade-delete child tables keyed by their parent, and the
// follow graph becomes a single edge table so both sides of a follow commit
// atomically.

func timestampType(d Dialect) string {
	if d == DialectMySQL {
		return "DATETIME(6)"
	}
	return "TIMESTAMPTZ"
}

func schemaStatements(d Dialect) []string {
	ts := timestampType(d)

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id VARCHAR(36) PRIMARY KEY,
			email VARCHAR(255) NOT NULL,
			username VARCHAR(255) NOT NULL,
			password_hash VARCHAR(255) NOT NULL,
			bio TEXT NOT NULL,
			profile_pic_url TEXT NOT NULL,
			created_at ` + ts + ` NOT NULL,
			updated_at ` + ts + ` NOT NULL,
			CONSTRAINT users_email_unique UNIQUE (email)
		)`,
		`CREATE TABLE IF NOT EXISTS follows (
			follower_id VARCHAR(36) NOT NULL,
			followee_id VARCHAR(36) NOT NULL,
			created_at ` + ts + ` NOT NULL,
			PRIMARY KEY (follower_id, followee_id)
		)`,
		`CREATE TABLE IF NOT EXISTS posts (
			id VARCHAR(36) PRIMARY KEY,
			author_id VARCHAR(36) NOT NULL,
			body TEXT NOT NULL,
			image_url TEXT NOT NULL,
			video_url TEXT NOT NULL,
			created_at ` + ts + ` NOT NULL,
			updated_at ` + ts + ` NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS post_likes (
			post_id VARCHAR(36) NOT NULL,
			user_id VARCHAR(36) NOT NULL,
			PRIMARY KEY (post_id, user_id),
			CONSTRAINT post_likes_post_fk FOREIGN KEY (post_id) REFERENCES posts (id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS post_dislikes (
			post_id VARCHAR(36) NOT NULL,
			user_id VARCHAR(36) NOT NULL,
			PRIMARY KEY (post_id, user_id),
			CONSTRAINT post_dislikes_post_fk FOREIGN KEY (post_id) REFERENCES posts (id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS post_comments (
			id VARCHAR(36) PRIMARY KEY,
			post_id VARCHAR(36) NOT NULL,
			author_id VARCHAR(36) NOT NULL,
			body TEXT NOT NULL,
			created_at ` + ts + ` NOT NULL,
			CONSTRAINT post_comments_post_fk FOREIGN KEY (post_id) REFERENCES posts (id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS comment_replies (
			id VARCHAR(36) PRIMARY KEY,
			comment_id VARCHAR(36) NOT NULL,
			author_id VARCHAR(36) NOT NULL,
			body TEXT NOT NULL,
			created_at ` + ts + ` NOT NULL,
			CONSTRAINT comment_replies_comment_fk FOREIGN KEY (comment_id) REFERENCES post_comments (id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS media (
			id VARCHAR(36) PRIMARY KEY,
			hash VARCHAR(64) NOT NULL,
			url TEXT NOT NULL,
			byte_size BIGINT NOT NULL,
			mime_type VARCHAR(127) NOT NULL,
			created_at ` + ts + ` NOT NULL,
			CONSTRAINT media_hash_unique UNIQUE (hash)
		)`,
		`CREATE TABLE IF NOT EXISTS notifications (
			id VARCHAR(36) PRIMARY KEY,
			recipient_id VARCHAR(36) NOT NULL,
			sender_id VARCHAR(36) NOT NULL,
			notif_type VARCHAR(16) NOT NULL,
			post_id VARCHAR(36) NOT NULL,
			comment_id VARCHAR(36) NOT NULL,
			is_read BOOLEAN NOT NULL,
			created_at ` + ts + ` NOT NULL
		)`,
	}

	// MySQL has no CREATE INDEX IF NOT EXISTS, so secondary indexes are
	// only created on Postgres; on MySQL the primary keys carry the hot
	// lookups and the rest rides on table scans sized for this workload.
	if d == DialectPostgres {
		stmts = append(stmts,
			`CREATE INDEX IF NOT EXISTS posts_author_idx ON posts (author_id)`,
			`CREATE INDEX IF NOT EXISTS posts_created_idx ON posts (created_at DESC)`,
			`CREATE INDEX IF NOT EXISTS follows_followee_idx ON follows (followee_id)`,
			`CREATE INDEX IF NOT EXISTS notifications_recipient_idx ON notifications (recipient_id, created_at DESC)`,
		)
	}
	return stmts
}
