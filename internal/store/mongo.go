package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ayush/socialnet/backend/internal/models"
)

// NewID returns a fresh document id. Ids are ObjectID hex strings so they
// sort by creation time and stay readable in URLs.
func NewID() string {
	return primitive.NewObjectID().Hex()
}

// MongoStore handles user and post documents in MongoDB.
type MongoStore struct {
	client       *mongo.Client
	users        *mongo.Collection
	posts        *mongo.Collection
	transactions bool
}

// NewMongoStore binds the users and posts collections. When transactions
// is set, two-document edge updates run inside a multi-document
// transaction, which requires a replica set.
func NewMongoStore(client *mongo.Client, db *mongo.Database, transactions bool) *MongoStore {
	return &MongoStore{
		client:       client,
		users:        db.Collection("users"),
		posts:        db.Collection("posts"),
		transactions: transactions,
	}
}

// EnsureIndexes creates the unique username/email indexes and the feed indexes.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true).SetName(usernameIndex)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetName(emailIndex)},
	})
	if err != nil {
		return fmt.Errorf("users indexes: %w", err)
	}
	_, err = s.posts.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "likes", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("posts indexes: %w", err)
	}
	return nil
}

// ── Users ────────────────────────────────────────────────

func (s *MongoStore) CreateUser(ctx context.Context, u *models.User) error {
	if _, err := s.users.InsertOne(ctx, u); err != nil {
		return mapWriteErr("insert user", err)
	}
	return nil
}

func (s *MongoStore) UserByID(ctx context.Context, id string) (*models.User, error) {
	return s.findUser(ctx, bson.M{"_id": id})
}

func (s *MongoStore) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.findUser(ctx, bson.M{"username": username})
}

func (s *MongoStore) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findUser(ctx, bson.M{"email": email})
}

func (s *MongoStore) findUser(ctx context.Context, filter bson.M) (*models.User, error) {
	var u models.User
	if err := s.users.FindOne(ctx, filter).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &u, nil
}

// UsersByIDs returns the users that exist among ids, keyed by id.
func (s *MongoStore) UsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error) {
	out := make(map[string]*models.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cur, err := s.users.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}
	defer cur.Close(ctx)

	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	for i := range users {
		out[users[i].ID] = &users[i]
	}
	return out, nil
}

// UpdateProfile writes the profile fields and password digest. Edge sets
// are left alone so a concurrent follow or like is not overwritten.
func (s *MongoStore) UpdateProfile(ctx context.Context, u *models.User) error {
	res, err := s.users.UpdateOne(ctx, bson.M{"_id": u.ID}, bson.M{"$set": bson.M{
		"username":    u.Username,
		"email":       u.Email,
		"password":    u.Password,
		"full_name":   u.FullName,
		"bio":         u.Bio,
		"link":        u.Link,
		"profile_img": u.ProfileImg,
		"cover_img":   u.CoverImg,
		"updated_at":  u.UpdatedAt,
	}})
	if err != nil {
		return mapWriteErr("update user", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Follow adds actorID to the target's followers and targetID to the actor's
// following. It reports false without touching the actor when the edge
// already existed.
func (s *MongoStore) Follow(ctx context.Context, actorID, targetID string) (bool, error) {
	return s.edge(ctx, func(ctx context.Context) (bool, error) {
		res, err := s.users.UpdateOne(ctx,
			bson.M{"_id": targetID, "followers": bson.M{"$ne": actorID}},
			bson.M{"$addToSet": bson.M{"followers": actorID}},
		)
		if err != nil {
			return false, fmt.Errorf("add follower: %w", err)
		}
		if res.ModifiedCount == 0 {
			return false, nil
		}
		if _, err := s.users.UpdateOne(ctx,
			bson.M{"_id": actorID},
			bson.M{"$addToSet": bson.M{"following": targetID}},
		); err != nil {
			return false, fmt.Errorf("add following: %w", err)
		}
		return true, nil
	})
}

// Unfollow removes both halves of the edge. It reports false when the
// target's follower set did not contain actorID.
func (s *MongoStore) Unfollow(ctx context.Context, actorID, targetID string) (bool, error) {
	return s.edge(ctx, func(ctx context.Context) (bool, error) {
		res, err := s.users.UpdateOne(ctx,
			bson.M{"_id": targetID, "followers": actorID},
			bson.M{"$pull": bson.M{"followers": actorID}},
		)
		if err != nil {
			return false, fmt.Errorf("remove follower: %w", err)
		}
		if res.ModifiedCount == 0 {
			return false, nil
		}
		if _, err := s.users.UpdateOne(ctx,
			bson.M{"_id": actorID},
			bson.M{"$pull": bson.M{"following": targetID}},
		); err != nil {
			return false, fmt.Errorf("remove following: %w", err)
		}
		return true, nil
	})
}

// edge runs fn in a transaction when enabled. Without transactions the two
// updates inside fn are independent and a failure between them leaves a
// one-sided edge.
func (s *MongoStore) edge(ctx context.Context, fn func(context.Context) (bool, error)) (bool, error) {
	if !s.transactions {
		return fn(ctx)
	}
	sess, err := s.client.StartSession()
	if err != nil {
		return false, fmt.Errorf("start session: %w", err)
	}
	defer sess.EndSession(ctx)

	res, err := sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return fn(sc)
	})
	if err != nil {
		return false, err
	}
	changed, _ := res.(bool)
	return changed, nil
}

func (s *MongoStore) AddLikedPost(ctx context.Context, userID, postID string) error {
	_, err := s.users.UpdateOne(ctx, bson.M{"_id": userID}, bson.M{"$addToSet": bson.M{"liked_posts": postID}})
	if err != nil {
		return fmt.Errorf("add liked post: %w", err)
	}
	return nil
}

func (s *MongoStore) RemoveLikedPost(ctx context.Context, userID, postID string) error {
	_, err := s.users.UpdateOne(ctx, bson.M{"_id": userID}, bson.M{"$pull": bson.M{"liked_posts": postID}})
	if err != nil {
		return fmt.Errorf("remove liked post: %w", err)
	}
	return nil
}

// SampleUsers returns up to size random users other than excludeID.
func (s *MongoStore) SampleUsers(ctx context.Context, excludeID string, size int) ([]models.User, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "_id", Value: bson.D{{Key: "$ne", Value: excludeID}}}}}},
		{{Key: "$sample", Value: bson.D{{Key: "size", Value: size}}}},
	}
	cur, err := s.users.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("sample users: %w", err)
	}
	defer cur.Close(ctx)

	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("decode sampled users: %w", err)
	}
	return users, nil
}

// ── Posts ────────────────────────────────────────────────

func (s *MongoStore) InsertPost(ctx context.Context, p *models.Post) error {
	if _, err := s.posts.InsertOne(ctx, p); err != nil {
		return fmt.Errorf("insert post: %w", err)
	}
	return nil
}

func (s *MongoStore) PostByID(ctx context.Context, id string) (*models.Post, error) {
	var p models.Post
	if err := s.posts.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find post: %w", err)
	}
	return &p, nil
}

func (s *MongoStore) DeletePost(ctx context.Context, id string) error {
	res, err := s.posts.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// AddLike adds userID to the post's likes and reports whether it was absent.
func (s *MongoStore) AddLike(ctx context.Context, postID, userID string) (bool, error) {
	res, err := s.posts.UpdateOne(ctx,
		bson.M{"_id": postID, "likes": bson.M{"$ne": userID}},
		bson.M{"$addToSet": bson.M{"likes": userID}, "$set": bson.M{"updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return false, fmt.Errorf("add like: %w", err)
	}
	return res.ModifiedCount > 0, nil
}

// RemoveLike pulls userID from the post's likes and reports whether it was present.
func (s *MongoStore) RemoveLike(ctx context.Context, postID, userID string) (bool, error) {
	res, err := s.posts.UpdateOne(ctx,
		bson.M{"_id": postID, "likes": userID},
		bson.M{"$pull": bson.M{"likes": userID}, "$set": bson.M{"updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return false, fmt.Errorf("remove like: %w", err)
	}
	return res.ModifiedCount > 0, nil
}

// AppendComment pushes c onto the post's comments and returns the updated post.
func (s *MongoStore) AppendComment(ctx context.Context, postID string, c models.Comment) (*models.Post, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var p models.Post
	err := s.posts.FindOneAndUpdate(ctx,
		bson.M{"_id": postID},
		bson.M{"$push": bson.M{"comments": c}, "$set": bson.M{"updated_at": c.CreatedAt}},
		opts,
	).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("append comment: %w", err)
	}
	return &p, nil
}

// ListPosts returns matching posts newest first.
func (s *MongoStore) ListPosts(ctx context.Context, f PostFilter) ([]models.Post, error) {
	filter := bson.M{}
	if f.Authors != nil {
		filter["user_id"] = bson.M{"$in": f.Authors}
	}
	if f.LikedBy != "" {
		filter["likes"] = f.LikedBy
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := s.posts.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer cur.Close(ctx)

	var posts []models.Post
	if err := cur.All(ctx, &posts); err != nil {
		return nil, fmt.Errorf("decode posts: %w", err)
	}
	return posts, nil
}

const (
	usernameIndex = "username_unique"
	emailIndex    = "email_unique"
)

func mapWriteErr(op string, err error) error {
	if !mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%s: %w", op, err)
	}
	switch duplicateIndex(err) {
	case usernameIndex:
		return ErrUsernameTaken
	case emailIndex:
		return ErrEmailTaken
	}
	return ErrConflict
}

// duplicateIndex names the unique index an E11000 write error tripped. It
// reads only the "index: <name>" segment, never the duplicated key value.
func duplicateIndex(err error) string {
	var we mongo.WriteException
	if !errors.As(err, &we) {
		return ""
	}
	for _, e := range we.WriteErrors {
		if e.Code != 11000 {
			continue
		}
		head, _, _ := strings.Cut(e.Message, " dup key:")
		if _, name, ok := strings.Cut(head, " index: "); ok {
			return strings.TrimSpace(name)
		}
	}
	return ""
}
