package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"social-backend/internal/model"
)

// MongoStore persists the document model: posts embed their comments,
// replies and like/dislike arrays, exactly one document per aggregate.
// Set mutations use $addToSet/$pull conditional updates so concurrent
// likers never overwrite each other.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewMongoStore connects and pings the deployment.
func NewMongoStore(ctx context.Context, uri, dbName string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, unavailable("mongo connect", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, unavailable("mongo ping", err)
	}
	return &MongoStore{client: client, db: client.Database(dbName)}, nil
}

func (s *MongoStore) users() *mongo.Collection         { return s.db.Collection("users") }
func (s *MongoStore) posts() *mongo.Collection         { return s.db.Collection("posts") }
func (s *MongoStore) media() *mongo.Collection         { return s.db.Collection("media") }
func (s *MongoStore) notifications() *mongo.Collection { return s.db.Collection("notifications") }

func (s *MongoStore) EnsureSchema(ctx context.Context) error {
	unique := options.Index().SetUnique(true)

	_, err := s.users().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: unique,
	})
	if err != nil {
		return unavailable("create users.email index", err)
	}

	_, err = s.media().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "hash", Value: 1}},
		Options: unique,
	})
	if err != nil {
		return unavailable("create media.hash index", err)
	}

	_, err = s.posts().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "author_id", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	})
	if err != nil {
		return unavailable("create posts indexes", err)
	}

	_, err = s.notifications().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "recipient_id", Value: 1}, {Key: "created_at", Value: -1}},
	})
	if err != nil {
		return unavailable("create notifications index", err)
	}
	return nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) InsertUser(ctx context.Context, u *model.User) error {
	if u.Followers == nil {
		u.Followers = []string{}
	}
	if u.Following == nil {
		u.Following = []string{}
	}
	_, err := s.users().InsertOne(ctx, u)
	if mongo.IsDuplicateKeyError(err) {
		return conflict("email already registered")
	}
	if err != nil {
		return unavailable("insert user", err)
	}
	return nil
}

func (s *MongoStore) GetUser(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	err := s.users().FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, notFound("user " + id)
	}
	if err != nil {
		return nil, unavailable("get user", err)
	}
	return &u, nil
}

func (s *MongoStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	err := s.users().FindOne(ctx, bson.M{"email": email}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, notFound("user with email " + email)
	}
	if err != nil {
		return nil, unavailable("get user by email", err)
	}
	return &u, nil
}

func (s *MongoStore) UpdateUserProfile(ctx context.Context, id string, patch ProfilePatch) (*model.User, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if patch.Username != nil {
		set["username"] = *patch.Username
	}
	if patch.Bio != nil {
		set["bio"] = *patch.Bio
	}
	if patch.ProfilePicURL != nil {
		set["profile_pic_url"] = *patch.ProfilePicURL
	}

	after := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var u model.User
	err := s.users().FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, after).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, notFound("user " + id)
	}
	if err != nil {
		return nil, unavailable("update user profile", err)
	}
	return &u, nil
}

func (s *MongoStore) UserIDs(ctx context.Context) ([]string, error) {
	cursor, err := s.users().Find(ctx, bson.M{}, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, unavailable("list user ids", err)
	}
	defer cursor.Close(ctx)

	var ids []string
	for cursor.Next(ctx) {
		var doc struct {
			ID string `bson:"_id"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, unavailable("decode user id", err)
		}
		ids = append(ids, doc.ID)
	}
	if err := cursor.Err(); err != nil {
		return nil, unavailable("iterate user ids", err)
	}
	return ids, nil
}

// Follow writes the follower's following entry first, then the followee's
// followers entry. The two updates are not atomic across the documents; a
// failure between them leaves an asymmetry that the reconciliation sweep
// repairs. Both users are verified before the first write so a missing
// followee cannot leave a dangling following entry behind.
func (s *MongoStore) Follow(ctx context.Context, followerID, followeeID string) (bool, error) {
	n, err := s.users().CountDocuments(ctx, bson.M{"_id": followeeID})
	if err != nil {
		return false, unavailable("check followee", err)
	}
	if n == 0 {
		return false, notFound("followee " + followeeID)
	}

	res, err := s.users().UpdateOne(ctx,
		bson.M{"_id": followerID},
		bson.M{"$addToSet": bson.M{"following": followeeID}})
	if err != nil {
		return false, unavailable("add following entry", err)
	}
	if res.MatchedCount == 0 {
		return false, notFound("follower " + followerID)
	}

	res, err = s.users().UpdateOne(ctx,
		bson.M{"_id": followeeID},
		bson.M{"$addToSet": bson.M{"followers": followerID}})
	if err != nil {
		return false, unavailable("add followers entry", err)
	}
	if res.MatchedCount == 0 {
		return false, notFound("followee " + followeeID)
	}
	return res.ModifiedCount > 0, nil
}

func (s *MongoStore) Unfollow(ctx context.Context, followerID, followeeID string) error {
	res, err := s.users().UpdateOne(ctx,
		bson.M{"_id": followerID},
		bson.M{"$pull": bson.M{"following": followeeID}})
	if err != nil {
		return unavailable("remove following entry", err)
	}
	if res.MatchedCount == 0 {
		return notFound("follower " + followerID)
	}

	res, err = s.users().UpdateOne(ctx,
		bson.M{"_id": followeeID},
		bson.M{"$pull": bson.M{"followers": followerID}})
	if err != nil {
		return unavailable("remove followers entry", err)
	}
	if res.MatchedCount == 0 {
		return notFound("followee " + followeeID)
	}
	return nil
}

func (s *MongoStore) followField(ctx context.Context, userID, field string) ([]string, error) {
	var doc struct {
		Followers []string `bson:"followers"`
		Following []string `bson:"following"`
	}
	opts := options.FindOne().SetProjection(bson.M{field: 1})
	err := s.users().FindOne(ctx, bson.M{"_id": userID}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, notFound("user " + userID)
	}
	if err != nil {
		return nil, unavailable("get "+field, err)
	}
	if field == "followers" {
		return doc.Followers, nil
	}
	return doc.Following, nil
}

func (s *MongoStore) FollowingIDs(ctx context.Context, userID string) ([]string, error) {
	return s.followField(ctx, userID, "following")
}

func (s *MongoStore) FollowerIDs(ctx context.Context, userID string) ([]string, error) {
	return s.followField(ctx, userID, "followers")
}

func (s *MongoStore) AddFollowerEdge(ctx context.Context, userID, followerID string) error {
	res, err := s.users().UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$addToSet": bson.M{"followers": followerID}})
	if err != nil {
		return unavailable("add follower edge", err)
	}
	if res.MatchedCount == 0 {
		return notFound("user " + userID)
	}
	return nil
}

func (s *MongoStore) RemoveFollowerEdge(ctx context.Context, userID, followerID string) error {
	res, err := s.users().UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$pull": bson.M{"followers": followerID}})
	if err != nil {
		return unavailable("remove follower edge", err)
	}
	if res.MatchedCount == 0 {
		return notFound("user " + userID)
	}
	return nil
}

func (s *MongoStore) RemoveFollowingEdge(ctx context.Context, userID, followeeID string) error {
	res, err := s.users().UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$pull": bson.M{"following": followeeID}})
	if err != nil {
		return unavailable("remove following edge", err)
	}
	if res.MatchedCount == 0 {
		return notFound("user " + userID)
	}
	return nil
}

func (s *MongoStore) InsertPost(ctx context.Context, p *model.Post) error {
	if p.Likes == nil {
		p.Likes = []string{}
	}
	if p.Dislikes == nil {
		p.Dislikes = []string{}
	}
	if p.Comments == nil {
		p.Comments = []model.Comment{}
	}
	if _, err := s.posts().InsertOne(ctx, p); err != nil {
		return unavailable("insert post", err)
	}
	return nil
}

func (s *MongoStore) GetPost(ctx context.Context, id string) (*model.Post, error) {
	var p model.Post
	err := s.posts().FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, notFound("post " + id)
	}
	if err != nil {
		return nil, unavailable("get post", err)
	}
	return &p, nil
}

func (s *MongoStore) FindPostByContent(ctx context.Context, authorID, text, imageURL, videoURL string) (*model.Post, error) {
	filter := bson.M{
		"author_id": authorID,
		"text":      text,
		"image_url": imageURL,
		"video_url": videoURL,
	}
	var p model.Post
	err := s.posts().FindOne(ctx, filter).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, notFound("post with matching content")
	}
	if err != nil {
		return nil, unavailable("find post by content", err)
	}
	return &p, nil
}

// AddLike is a single conditional update: the filter excludes posts already
// liked by the user, and the update pulls the dislike and adds the like in
// one storage operation.
func (s *MongoStore) AddLike(ctx context.Context, postID, userID string) (*model.Post, error) {
	return s.moveReaction(ctx, postID, userID, "likes", "dislikes", "user already liked this post")
}

func (s *MongoStore) AddDislike(ctx context.Context, postID, userID string) (*model.Post, error) {
	return s.moveReaction(ctx, postID, userID, "dislikes", "likes", "user already disliked this post")
}

func (s *MongoStore) moveReaction(ctx context.Context, postID, userID, addSet, pullSet, conflictMsg string) (*model.Post, error) {
	filter := bson.M{"_id": postID, addSet: bson.M{"$ne": userID}}
	update := bson.M{
		"$addToSet": bson.M{addSet: userID},
		"$pull":     bson.M{pullSet: userID},
		"$set":      bson.M{"updated_at": time.Now().UTC()},
	}
	after := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var p model.Post
	err := s.posts().FindOneAndUpdate(ctx, filter, update, after).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		// Either the post is gone or the user is already in the set.
		n, countErr := s.posts().CountDocuments(ctx, bson.M{"_id": postID})
		if countErr != nil {
			return nil, unavailable("check post existence", countErr)
		}
		if n == 0 {
			return nil, notFound("post " + postID)
		}
		return nil, conflict(conflictMsg)
	}
	if err != nil {
		return nil, unavailable("update reaction", err)
	}
	return &p, nil
}

func (s *MongoStore) AppendComment(ctx context.Context, postID string, c model.Comment) (*model.Post, error) {
	if c.Replies == nil {
		c.Replies = []model.Reply{}
	}
	after := options.FindOneAndUpdate().SetReturnDocument(options.After)
	update := bson.M{
		"$push": bson.M{"comments": c},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	}

	var p model.Post
	err := s.posts().FindOneAndUpdate(ctx, bson.M{"_id": postID}, update, after).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, notFound("post " + postID)
	}
	if err != nil {
		return nil, unavailable("append comment", err)
	}
	return &p, nil
}

func (s *MongoStore) AppendReply(ctx context.Context, postID, commentID string, r model.Reply) (*model.Post, error) {
	after := options.FindOneAndUpdate().SetReturnDocument(options.After)
	filter := bson.M{"_id": postID, "comments._id": commentID}
	update := bson.M{
		"$push": bson.M{"comments.$.replies": r},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	}

	var p model.Post
	err := s.posts().FindOneAndUpdate(ctx, filter, update, after).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, notFound("comment " + commentID + " on post " + postID)
	}
	if err != nil {
		return nil, unavailable("append reply", err)
	}
	return &p, nil
}

func (s *MongoStore) Comments(ctx context.Context, postID string) ([]model.Comment, error) {
	var doc struct {
		Comments []model.Comment `bson:"comments"`
	}
	opts := options.FindOne().SetProjection(bson.M{"comments": 1})
	err := s.posts().FindOne(ctx, bson.M{"_id": postID}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, notFound("post " + postID)
	}
	if err != nil {
		return nil, unavailable("get comments", err)
	}
	if doc.Comments == nil {
		doc.Comments = []model.Comment{}
	}
	return doc.Comments, nil
}

func (s *MongoStore) UpdatePostByAuthor(ctx context.Context, postID, authorID string, patch PostPatch) (*model.Post, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if patch.Text != nil {
		set["text"] = *patch.Text
	}
	if patch.ImageURL != nil {
		set["image_url"] = *patch.ImageURL
	}
	if patch.VideoURL != nil {
		set["video_url"] = *patch.VideoURL
	}

	after := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var p model.Post
	err := s.posts().FindOneAndUpdate(ctx,
		bson.M{"_id": postID, "author_id": authorID},
		bson.M{"$set": set}, after).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, notFound("post " + postID)
	}
	if err != nil {
		return nil, unavailable("update post", err)
	}
	return &p, nil
}

func (s *MongoStore) DeletePostByAuthor(ctx context.Context, postID, authorID string) error {
	res, err := s.posts().DeleteOne(ctx, bson.M{"_id": postID, "author_id": authorID})
	if err != nil {
		return unavailable("delete post", err)
	}
	if res.DeletedCount == 0 {
		return notFound("post " + postID)
	}
	return nil
}

func (s *MongoStore) ListPosts(ctx context.Context, offset, limit int, sortSpec SortSpec) ([]model.Post, int64, error) {
	dir := 1
	if sortSpec.Desc {
		dir = -1
	}
	opts := options.Find().
		SetSort(bson.D{{Key: sortSpec.Field, Value: dir}, {Key: "_id", Value: dir}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := s.posts().Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, 0, unavailable("list posts", err)
	}
	defer cursor.Close(ctx)

	posts := []model.Post{}
	if err := cursor.All(ctx, &posts); err != nil {
		return nil, 0, unavailable("decode posts", err)
	}

	total, err := s.posts().CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, unavailable("count posts", err)
	}
	return posts, total, nil
}

func (s *MongoStore) PostsByAuthors(ctx context.Context, authorIDs []string) ([]model.Post, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := s.posts().Find(ctx, bson.M{"author_id": bson.M{"$in": authorIDs}}, opts)
	if err != nil {
		return nil, unavailable("posts by authors", err)
	}
	defer cursor.Close(ctx)

	posts := []model.Post{}
	if err := cursor.All(ctx, &posts); err != nil {
		return nil, unavailable("decode posts", err)
	}
	return posts, nil
}

func (s *MongoStore) GetMediaByHash(ctx context.Context, hash string) (*model.Media, error) {
	var m model.Media
	err := s.media().FindOne(ctx, bson.M{"hash": hash}).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, notFound("media " + hash)
	}
	if err != nil {
		return nil, unavailable("get media", err)
	}
	return &m, nil
}

// InsertMedia relies on the unique hash index: the loser of a concurrent
// insert race gets ErrConflict and re-reads the winner's record.
func (s *MongoStore) InsertMedia(ctx context.Context, m *model.Media) error {
	_, err := s.media().InsertOne(ctx, m)
	if mongo.IsDuplicateKeyError(err) {
		return conflict("media hash already stored")
	}
	if err != nil {
		return unavailable("insert media", err)
	}
	return nil
}

func (s *MongoStore) InsertNotification(ctx context.Context, n *model.Notification) error {
	if _, err := s.notifications().InsertOne(ctx, n); err != nil {
		return unavailable("insert notification", err)
	}
	return nil
}

func (s *MongoStore) NotificationsForRecipient(ctx context.Context, userID string) ([]model.Notification, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := s.notifications().Find(ctx, bson.M{"recipient_id": userID}, opts)
	if err != nil {
		return nil, unavailable("list notifications", err)
	}
	defer cursor.Close(ctx)

	out := []model.Notification{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, unavailable("decode notifications", err)
	}
	return out, nil
}

func (s *MongoStore) MarkNotificationsRead(ctx context.Context, userID string) (int64, error) {
	res, err := s.notifications().UpdateMany(ctx,
		bson.M{"recipient_id": userID, "is_read": false},
		bson.M{"$set": bson.M{"is_read": true}})
	if err != nil {
		return 0, unavailable("mark notifications read", err)
	}
	return res.ModifiedCount, nil
}
