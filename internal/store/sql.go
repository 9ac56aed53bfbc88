package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	mysqldrv "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"social-backend/internal/model"
)

// Dialect selects the relational engine behind a SQLStore.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectMySQL    Dialect = "mysql"
)

// SQLStore implements Store on a relational engine through database/sql.
// Postgres connects through the pgx stdlib adapter, MySQL through
// go-sql-driver. MySQL DSNs must set parseTime=true so DATETIME columns
// scan into time.Time.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
}

func NewSQLStore(ctx context.Context, dialect Dialect, dsn string) (*SQLStore, error) {
	var driverName string
	switch dialect {
	case DialectPostgres:
		driverName = "pgx"
	case DialectMySQL:
		driverName = "mysql"
	default:
		return nil, fmt.Errorf("unknown dialect %q", dialect)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, unavailable("sql open", err)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, unavailable("sql ping", err)
	}
	return &SQLStore{db: db, dialect: dialect}, nil
}

func (s *SQLStore) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements(s.dialect) {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return unavailable("ensure schema", err)
		}
	}
	return nil
}

func (s *SQLStore) Close(ctx context.Context) error {
	return s.db.Close()
}

// rebind converts ?-style placeholders to $n for Postgres. Queries here
// never contain a literal question mark.
func (s *SQLStore) rebind(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func isDuplicate(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var myErr *mysqldrv.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}
	return false
}

// withTx runs fn in a transaction, rolling back on error or panic.
func (s *SQLStore) withTx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return unavailable("begin tx", err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		} else if err != nil {
			tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()
	err = fn(tx)
	return err
}

func inPlaceholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func (s *SQLStore) userExists(ctx context.Context, q querier, id string) (bool, error) {
	var one int
	err := q.QueryRowContext(ctx, s.rebind(`SELECT 1 FROM users WHERE id = ?`), id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, unavailable("check user", err)
	}
	return true, nil
}

func (s *SQLStore) InsertUser(ctx context.Context, u *model.User) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO users (id, email, username, password_hash, bio, profile_pic_url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		u.ID, u.Email, u.Username, u.PasswordHash, u.Bio, u.ProfilePicURL, u.CreatedAt, u.UpdatedAt)
	if isDuplicate(err) {
		return conflict("email already registered")
	}
	if err != nil {
		return unavailable("insert user", err)
	}
	return nil
}

func (s *SQLStore) loadUser(ctx context.Context, q querier, where string, arg string) (*model.User, error) {
	var u model.User
	err := q.QueryRowContext(ctx, s.rebind(`
		SELECT id, email, username, password_hash, bio, profile_pic_url, created_at, updated_at
		FROM users WHERE `+where+` = ?`), arg).
		Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.Bio, &u.ProfilePicURL, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("user " + arg)
	}
	if err != nil {
		return nil, unavailable("get user", err)
	}

	u.Following, err = s.edgeList(ctx, q, `SELECT followee_id FROM follows WHERE follower_id = ? ORDER BY created_at, followee_id`, u.ID)
	if err != nil {
		return nil, err
	}
	u.Followers, err = s.edgeList(ctx, q, `SELECT follower_id FROM follows WHERE followee_id = ? ORDER BY created_at, follower_id`, u.ID)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *SQLStore) edgeList(ctx context.Context, q querier, query, arg string) ([]string, error) {
	rows, err := q.QueryContext(ctx, s.rebind(query), arg)
	if err != nil {
		return nil, unavailable("list edges", err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, unavailable("scan edge", err)
		}
		out = append(out, id)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterate edges", err)
	}
	return out, nil
}

func (s *SQLStore) GetUser(ctx context.Context, id string) (*model.User, error) {
	return s.loadUser(ctx, s.db, "id", id)
}

func (s *SQLStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.loadUser(ctx, s.db, "email", email)
}

func (s *SQLStore) UpdateUserProfile(ctx context.Context, id string, patch ProfilePatch) (*model.User, error) {
	var u *model.User
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		ok, err := s.userExists(ctx, tx, id)
		if err != nil {
			return err
		}
		if !ok {
			return notFound("user " + id)
		}

		sets := []string{"updated_at = ?"}
		args := []any{time.Now().UTC()}
		if patch.Username != nil {
			sets = append(sets, "username = ?")
			args = append(args, *patch.Username)
		}
		if patch.Bio != nil {
			sets = append(sets, "bio = ?")
			args = append(args, *patch.Bio)
		}
		if patch.ProfilePicURL != nil {
			sets = append(sets, "profile_pic_url = ?")
			args = append(args, *patch.ProfilePicURL)
		}
		args = append(args, id)

		_, err = tx.ExecContext(ctx, s.rebind(`UPDATE users SET `+strings.Join(sets, ", ")+` WHERE id = ?`), args...)
		if err != nil {
			return unavailable("update user profile", err)
		}

		u, err = s.loadUser(ctx, tx, "id", id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (s *SQLStore) UserIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM users ORDER BY id`)
	if err != nil {
		return nil, unavailable("list user ids", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, unavailable("scan user id", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterate user ids", err)
	}
	return ids, nil
}

// Follow inserts a single edge row, so both sides of the relation commit
// atomically on relational backends.
func (s *SQLStore) Follow(ctx context.Context, followerID, followeeID string) (bool, error) {
	var gained bool
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		for _, pair := range []struct{ role, id string }{
			{"follower", followerID},
			{"followee", followeeID},
		} {
			ok, err := s.userExists(ctx, tx, pair.id)
			if err != nil {
				return err
			}
			if !ok {
				return notFound(pair.role + " " + pair.id)
			}
		}

		var one int
		err := tx.QueryRowContext(ctx, s.rebind(`SELECT 1 FROM follows WHERE follower_id = ? AND followee_id = ?`),
			followerID, followeeID).Scan(&one)
		if err == nil {
			return nil // already following
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return unavailable("check follow edge", err)
		}

		_, err = tx.ExecContext(ctx, s.rebind(`INSERT INTO follows (follower_id, followee_id, created_at) VALUES (?, ?, ?)`),
			followerID, followeeID, time.Now().UTC())
		if isDuplicate(err) {
			return nil
		}
		if err != nil {
			return unavailable("insert follow edge", err)
		}
		gained = true
		return nil
	})
	return gained, err
}

func (s *SQLStore) Unfollow(ctx context.Context, followerID, followeeID string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, pair := range []struct{ role, id string }{
			{"follower", followerID},
			{"followee", followeeID},
		} {
			ok, err := s.userExists(ctx, tx, pair.id)
			if err != nil {
				return err
			}
			if !ok {
				return notFound(pair.role + " " + pair.id)
			}
		}
		_, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM follows WHERE follower_id = ? AND followee_id = ?`),
			followerID, followeeID)
		if err != nil {
			return unavailable("delete follow edge", err)
		}
		return nil
	})
}

func (s *SQLStore) FollowingIDs(ctx context.Context, userID string) ([]string, error) {
	ok, err := s.userExists(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, notFound("user " + userID)
	}
	return s.edgeList(ctx, s.db, `SELECT followee_id FROM follows WHERE follower_id = ? ORDER BY created_at, followee_id`, userID)
}

func (s *SQLStore) FollowerIDs(ctx context.Context, userID string) ([]string, error) {
	ok, err := s.userExists(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, notFound("user " + userID)
	}
	return s.edgeList(ctx, s.db, `SELECT follower_id FROM follows WHERE followee_id = ? ORDER BY created_at, follower_id`, userID)
}

// AddFollowerEdge completes the whole edge on relational backends; the
// graph lives in one table, so a one-sided repair has nothing to fix.
func (s *SQLStore) AddFollowerEdge(ctx context.Context, userID, followerID string) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`INSERT INTO follows (follower_id, followee_id, created_at) VALUES (?, ?, ?)`),
		followerID, userID, time.Now().UTC())
	if isDuplicate(err) {
		return nil
	}
	if err != nil {
		return unavailable("add follower edge", err)
	}
	return nil
}

func (s *SQLStore) RemoveFollowerEdge(ctx context.Context, userID, followerID string) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM follows WHERE follower_id = ? AND followee_id = ?`),
		followerID, userID)
	if err != nil {
		return unavailable("remove follower edge", err)
	}
	return nil
}

func (s *SQLStore) RemoveFollowingEdge(ctx context.Context, userID, followeeID string) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM follows WHERE follower_id = ? AND followee_id = ?`),
		userID, followeeID)
	if err != nil {
		return unavailable("remove following edge", err)
	}
	return nil
}

func (s *SQLStore) InsertPost(ctx context.Context, p *model.Post) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO posts (id, author_id, body, image_url, video_url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`),
		p.ID, p.AuthorID, p.Text, p.ImageURL, p.VideoURL, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return unavailable("insert post", err)
	}
	return nil
}

func (s *SQLStore) loadPost(ctx context.Context, q querier, id string) (*model.Post, error) {
	var p model.Post
	err := q.QueryRowContext(ctx, s.rebind(`
		SELECT id, author_id, body, image_url, video_url, created_at, updated_at
		FROM posts WHERE id = ?`), id).
		Scan(&p.ID, &p.AuthorID, &p.Text, &p.ImageURL, &p.VideoURL, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("post " + id)
	}
	if err != nil {
		return nil, unavailable("get post", err)
	}

	p.Likes, err = s.edgeList(ctx, q, `SELECT user_id FROM post_likes WHERE post_id = ? ORDER BY user_id`, id)
	if err != nil {
		return nil, err
	}
	p.Dislikes, err = s.edgeList(ctx, q, `SELECT user_id FROM post_dislikes WHERE post_id = ? ORDER BY user_id`, id)
	if err != nil {
		return nil, err
	}
	p.Comments, err = s.loadComments(ctx, q, id)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *SQLStore) loadComments(ctx context.Context, q querier, postID string) ([]model.Comment, error) {
	rows, err := q.QueryContext(ctx, s.rebind(`
		SELECT id, author_id, body, created_at
		FROM post_comments WHERE post_id = ? ORDER BY created_at, id`), postID)
	if err != nil {
		return nil, unavailable("list comments", err)
	}
	defer rows.Close()

	comments := []model.Comment{}
	for rows.Next() {
		var c model.Comment
		if err := rows.Scan(&c.ID, &c.AuthorID, &c.Text, &c.CreatedAt); err != nil {
			return nil, unavailable("scan comment", err)
		}
		c.Replies = []model.Reply{}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterate comments", err)
	}

	if len(comments) == 0 {
		return comments, nil
	}

	ids := make([]any, len(comments))
	index := make(map[string]int, len(comments))
	for i, c := range comments {
		ids[i] = c.ID
		index[c.ID] = i
	}

	replyRows, err := q.QueryContext(ctx, s.rebind(`
		SELECT id, comment_id, author_id, body, created_at
		FROM comment_replies WHERE comment_id IN (`+inPlaceholders(len(ids))+`)
		ORDER BY created_at, id`), ids...)
	if err != nil {
		return nil, unavailable("list replies", err)
	}
	defer replyRows.Close()

	for replyRows.Next() {
		var r model.Reply
		var commentID string
		if err := replyRows.Scan(&r.ID, &commentID, &r.AuthorID, &r.Text, &r.CreatedAt); err != nil {
			return nil, unavailable("scan reply", err)
		}
		if i, ok := index[commentID]; ok {
			comments[i].Replies = append(comments[i].Replies, r)
		}
	}
	if err := replyRows.Err(); err != nil {
		return nil, unavailable("iterate replies", err)
	}
	return comments, nil
}

func (s *SQLStore) GetPost(ctx context.Context, id string) (*model.Post, error) {
	return s.loadPost(ctx, s.db, id)
}

func (s *SQLStore) FindPostByContent(ctx context.Context, authorID, text, imageURL, videoURL string) (*model.Post, error) {
	var id string
	err := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT id FROM posts
		WHERE author_id = ? AND body = ? AND image_url = ? AND video_url = ?`),
		authorID, text, imageURL, videoURL).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("post with matching content")
	}
	if err != nil {
		return nil, unavailable("find post by content", err)
	}
	return s.loadPost(ctx, s.db, id)
}

func (s *SQLStore) AddLike(ctx context.Context, postID, userID string) (*model.Post, error) {
	return s.moveReaction(ctx, postID, userID, "post_likes", "post_dislikes", "user already liked this post")
}

func (s *SQLStore) AddDislike(ctx context.Context, postID, userID string) (*model.Post, error) {
	return s.moveReaction(ctx, postID, userID, "post_dislikes", "post_likes", "user already disliked this post")
}

// moveReaction runs the membership check, the cross-set delete and the
// insert inside one transaction, with the post row locked so concurrent
// reactors on the same post serialize.
func (s *SQLStore) moveReaction(ctx context.Context, postID, userID, addTable, pullTable, conflictMsg string) (*model.Post, error) {
	var p *model.Post
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var authorID string
		err := tx.QueryRowContext(ctx, s.rebind(`SELECT author_id FROM posts WHERE id = ? FOR UPDATE`), postID).Scan(&authorID)
		if errors.Is(err, sql.ErrNoRows) {
			return notFound("post " + postID)
		}
		if err != nil {
			return unavailable("lock post", err)
		}

		var one int
		err = tx.QueryRowContext(ctx, s.rebind(`SELECT 1 FROM `+addTable+` WHERE post_id = ? AND user_id = ?`),
			postID, userID).Scan(&one)
		if err == nil {
			return conflict(conflictMsg)
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return unavailable("check reaction", err)
		}

		if _, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM `+pullTable+` WHERE post_id = ? AND user_id = ?`),
			postID, userID); err != nil {
			return unavailable("remove opposite reaction", err)
		}
		if _, err := tx.ExecContext(ctx, s.rebind(`INSERT INTO `+addTable+` (post_id, user_id) VALUES (?, ?)`),
			postID, userID); err != nil {
			return unavailable("insert reaction", err)
		}
		if _, err := tx.ExecContext(ctx, s.rebind(`UPDATE posts SET updated_at = ? WHERE id = ?`),
			time.Now().UTC(), postID); err != nil {
			return unavailable("touch post", err)
		}

		p, err = s.loadPost(ctx, tx, postID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *SQLStore) AppendComment(ctx context.Context, postID string, c model.Comment) (*model.Post, error) {
	var p *model.Post
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var one int
		err := tx.QueryRowContext(ctx, s.rebind(`SELECT 1 FROM posts WHERE id = ?`), postID).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return notFound("post " + postID)
		}
		if err != nil {
			return unavailable("check post", err)
		}

		if _, err := tx.ExecContext(ctx, s.rebind(`
			INSERT INTO post_comments (id, post_id, author_id, body, created_at)
			VALUES (?, ?, ?, ?, ?)`),
			c.ID, postID, c.AuthorID, c.Text, c.CreatedAt); err != nil {
			return unavailable("insert comment", err)
		}
		if _, err := tx.ExecContext(ctx, s.rebind(`UPDATE posts SET updated_at = ? WHERE id = ?`),
			time.Now().UTC(), postID); err != nil {
			return unavailable("touch post", err)
		}

		p, err = s.loadPost(ctx, tx, postID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *SQLStore) AppendReply(ctx context.Context, postID, commentID string, r model.Reply) (*model.Post, error) {
	var p *model.Post
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var one int
		err := tx.QueryRowContext(ctx, s.rebind(`SELECT 1 FROM post_comments WHERE id = ? AND post_id = ?`),
			commentID, postID).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return notFound("comment " + commentID + " on post " + postID)
		}
		if err != nil {
			return unavailable("check comment", err)
		}

		if _, err := tx.ExecContext(ctx, s.rebind(`
			INSERT INTO comment_replies (id, comment_id, author_id, body, created_at)
			VALUES (?, ?, ?, ?, ?)`),
			r.ID, commentID, r.AuthorID, r.Text, r.CreatedAt); err != nil {
			return unavailable("insert reply", err)
		}
		if _, err := tx.ExecContext(ctx, s.rebind(`UPDATE posts SET updated_at = ? WHERE id = ?`),
			time.Now().UTC(), postID); err != nil {
			return unavailable("touch post", err)
		}

		p, err = s.loadPost(ctx, tx, postID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *SQLStore) Comments(ctx context.Context, postID string) ([]model.Comment, error) {
	var one int
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT 1 FROM posts WHERE id = ?`), postID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("post " + postID)
	}
	if err != nil {
		return nil, unavailable("check post", err)
	}
	return s.loadComments(ctx, s.db, postID)
}

func (s *SQLStore) UpdatePostByAuthor(ctx context.Context, postID, authorID string, patch PostPatch) (*model.Post, error) {
	var p *model.Post
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var one int
		err := tx.QueryRowContext(ctx, s.rebind(`SELECT 1 FROM posts WHERE id = ? AND author_id = ?`),
			postID, authorID).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return notFound("post " + postID)
		}
		if err != nil {
			return unavailable("check post", err)
		}

		sets := []string{"updated_at = ?"}
		args := []any{time.Now().UTC()}
		if patch.Text != nil {
			sets = append(sets, "body = ?")
			args = append(args, *patch.Text)
		}
		if patch.ImageURL != nil {
			sets = append(sets, "image_url = ?")
			args = append(args, *patch.ImageURL)
		}
		if patch.VideoURL != nil {
			sets = append(sets, "video_url = ?")
			args = append(args, *patch.VideoURL)
		}
		args = append(args, postID)

		if _, err := tx.ExecContext(ctx, s.rebind(`UPDATE posts SET `+strings.Join(sets, ", ")+` WHERE id = ?`), args...); err != nil {
			return unavailable("update post", err)
		}

		p, err = s.loadPost(ctx, tx, postID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *SQLStore) DeletePostByAuthor(ctx context.Context, postID, authorID string) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM posts WHERE id = ? AND author_id = ?`), postID, authorID)
	if err != nil {
		return unavailable("delete post", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return unavailable("delete post", err)
	}
	if n == 0 {
		return notFound("post " + postID)
	}
	return nil
}

func (s *SQLStore) ListPosts(ctx context.Context, offset, limit int, sortSpec SortSpec) ([]model.Post, int64, error) {
	dir := "ASC"
	if sortSpec.Desc {
		dir = "DESC"
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT id FROM posts ORDER BY created_at `+dir+`, id `+dir+` LIMIT ? OFFSET ?`),
		limit, offset)
	if err != nil {
		return nil, 0, unavailable("list posts", err)
	}
	ids, err := collectIDs(rows)
	if err != nil {
		return nil, 0, err
	}

	posts := make([]model.Post, 0, len(ids))
	for _, id := range ids {
		p, err := s.loadPost(ctx, s.db, id)
		if err != nil {
			return nil, 0, err
		}
		posts = append(posts, *p)
	}

	var total int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts`).Scan(&total); err != nil {
		return nil, 0, unavailable("count posts", err)
	}
	return posts, total, nil
}

func (s *SQLStore) PostsByAuthors(ctx context.Context, authorIDs []string) ([]model.Post, error) {
	if len(authorIDs) == 0 {
		return []model.Post{}, nil
	}

	args := make([]any, len(authorIDs))
	for i, id := range authorIDs {
		args[i] = id
	}
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT id FROM posts WHERE author_id IN (`+inPlaceholders(len(args))+`)
		 ORDER BY created_at DESC, id DESC`), args...)
	if err != nil {
		return nil, unavailable("posts by authors", err)
	}
	ids, err := collectIDs(rows)
	if err != nil {
		return nil, err
	}

	posts := make([]model.Post, 0, len(ids))
	for _, id := range ids {
		p, err := s.loadPost(ctx, s.db, id)
		if err != nil {
			return nil, err
		}
		posts = append(posts, *p)
	}
	return posts, nil
}

func collectIDs(rows *sql.Rows) ([]string, error) {
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, unavailable("scan id", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterate ids", err)
	}
	return ids, nil
}

func (s *SQLStore) GetMediaByHash(ctx context.Context, hash string) (*model.Media, error) {
	var m model.Media
	err := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT id, hash, url, byte_size, mime_type, created_at FROM media WHERE hash = ?`), hash).
		Scan(&m.ID, &m.Hash, &m.URL, &m.Size, &m.MIMEType, &m.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("media " + hash)
	}
	if err != nil {
		return nil, unavailable("get media", err)
	}
	return &m, nil
}

func (s *SQLStore) InsertMedia(ctx context.Context, m *model.Media) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO media (id, hash, url, byte_size, mime_type, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`),
		m.ID, m.Hash, m.URL, m.Size, m.MIMEType, m.CreatedAt)
	if isDuplicate(err) {
		return conflict("media hash already stored")
	}
	if err != nil {
		return unavailable("insert media", err)
	}
	return nil
}

func (s *SQLStore) InsertNotification(ctx context.Context, n *model.Notification) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO notifications (id, recipient_id, sender_id, notif_type, post_id, comment_id, is_read, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		n.ID, n.RecipientID, n.SenderID, n.Type, n.PostID, n.CommentID, n.IsRead, n.CreatedAt)
	if err != nil {
		return unavailable("insert notification", err)
	}
	return nil
}

func (s *SQLStore) NotificationsForRecipient(ctx context.Context, userID string) ([]model.Notification, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT id, recipient_id, sender_id, notif_type, post_id, comment_id, is_read, created_at
		FROM notifications WHERE recipient_id = ?
		ORDER BY created_at DESC, id DESC`), userID)
	if err != nil {
		return nil, unavailable("list notifications", err)
	}
	defer rows.Close()

	out := []model.Notification{}
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(&n.ID, &n.RecipientID, &n.SenderID, &n.Type, &n.PostID, &n.CommentID, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, unavailable("scan notification", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterate notifications", err)
	}
	return out, nil
}

func (s *SQLStore) MarkNotificationsRead(ctx context.Context, userID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, s.rebind(`
		UPDATE notifications SET is_read = TRUE WHERE recipient_id = ? AND is_read = FALSE`), userID)
	if err != nil {
		return 0, unavailable("mark notifications read", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, unavailable("mark notifications read", err)
	}
	return n, nil
}
