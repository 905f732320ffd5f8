// Package mongo implements the storage contract on MongoDB. Unlike the MySQL
// backend it has no multi-document transaction around the cascade delete;
// orphaned ratings are tolerated and excluded by keying every aggregate on
// the surviving comment ids.
package mongo

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/Guyuepp/go-comment-engine/domain"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	colComments = "comments"
	colRatings  = "ratings"
	colRoles    = "roles"
)

type commentDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Page      string             `bson:"page"`
	ThreadID  *string            `bson:"thread_id,omitempty"`
	Author    string             `bson:"author"`
	Content   string             `bson:"content"`
	CreatedAt time.Time          `bson:"created_at"`
}

func (d *commentDoc) toDomain() domain.Comment {
	var content domain.ContentNode
	_ = json.Unmarshal([]byte(d.Content), &content)
	return domain.Comment{
		ID:        d.ID.Hex(),
		Page:      d.Page,
		ThreadID:  d.ThreadID,
		Author:    d.Author,
		Content:   &content,
		CreatedAt: d.CreatedAt,
	}
}

type ratingDoc struct {
	CommentID string    `bson:"comment_id"`
	UserID    string    `bson:"user_id"`
	Liked     bool      `bson:"liked"`
	CreatedAt time.Time `bson:"created_at"`
}

type roleDoc struct {
	UserID    string `bson:"user_id"`
	Page      string `bson:"page"`
	Name      string `bson:"name"`
	CanDelete bool   `bson:"can_delete"`
}

type commentStorage struct {
	db *mongo.Database
}

var _ domain.CommentStorage = (*commentStorage)(nil)

// NewCommentStorage creates the MongoDB implementation of the storage contract.
func NewCommentStorage(db *mongo.Database) *commentStorage {
	return &commentStorage{db: db}
}

// EnsureIndexes creates the compound unique index that makes the rating
// upsert atomic, plus the listing index.
func (r *commentStorage) EnsureIndexes(ctx context.Context) error {
	_, err := r.db.Collection(colRatings).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "comment_id", Value: 1}, {Key: "user_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}
	_, err = r.db.Collection(colComments).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "page", Value: 1}, {Key: "thread_id", Value: 1}, {Key: "created_at", Value: -1}},
	})
	return err
}

func (r *commentStorage) GetComments(ctx context.Context, opts domain.ListOptions) ([]domain.Comment, error) {
	filter := bson.M{"page": opts.Page}
	if opts.Thread != nil {
		filter["thread_id"] = *opts.Thread
	} else {
		filter["thread_id"] = bson.M{"$exists": false}
	}
	window := bson.M{}
	if opts.Before != nil {
		window["$lt"] = *opts.Before
	}
	if opts.After != nil {
		window["$gt"] = *opts.After
	}
	if len(window) > 0 {
		filter["created_at"] = window
	}

	dir := -1
	if opts.Sort == domain.SortOldest {
		dir = 1
	}
	cur, err := r.db.Collection(colComments).Find(ctx, filter, options.Find().
		SetSort(bson.D{{Key: "created_at", Value: dir}, {Key: "_id", Value: 1}}).
		SetLimit(int64(opts.Limit)))
	if err != nil {
		return nil, err
	}
	var docs []commentDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return []domain.Comment{}, nil
	}

	res := make([]domain.Comment, len(docs))
	ids := make([]string, len(docs))
	index := make(map[string]*domain.Comment, len(docs))
	for i := range docs {
		res[i] = docs[i].toDomain()
		ids[i] = res[i].ID
		index[res[i].ID] = &res[i]
	}

	if err := r.fillAggregates(ctx, ids, index, opts.Auth); err != nil {
		return nil, err
	}
	return res, nil
}

func (r *commentStorage) fillAggregates(ctx context.Context, ids []string, index map[string]*domain.Comment, auth *domain.AuthInfo) error {
	cur, err := r.db.Collection(colRatings).Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"comment_id": bson.M{"$in": ids}}}},
		{{Key: "$group", Value: bson.M{
			"_id": bson.M{"comment_id": "$comment_id", "liked": "$liked"},
			"n":   bson.M{"$sum": 1},
		}}},
	})
	if err != nil {
		return err
	}
	var rateCounts []struct {
		ID struct {
			CommentID string `bson:"comment_id"`
			Liked     bool   `bson:"liked"`
		} `bson:"_id"`
		N int64 `bson:"n"`
	}
	if err := cur.All(ctx, &rateCounts); err != nil {
		return err
	}
	for _, rc := range rateCounts {
		c := index[rc.ID.CommentID]
		if c == nil {
			continue
		}
		if rc.ID.Liked {
			c.Likes = rc.N
		} else {
			c.Dislikes = rc.N
		}
	}

	cur, err = r.db.Collection(colComments).Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"thread_id": bson.M{"$in": ids}}}},
		{{Key: "$group", Value: bson.M{"_id": "$thread_id", "n": bson.M{"$sum": 1}}}},
	})
	if err != nil {
		return err
	}
	var replyCounts []struct {
		ID string `bson:"_id"`
		N  int64  `bson:"n"`
	}
	if err := cur.All(ctx, &replyCounts); err != nil {
		return err
	}
	for _, rc := range replyCounts {
		if c := index[rc.ID]; c != nil {
			c.Replies = rc.N
		}
	}

	if auth == nil {
		return nil
	}
	cur, err = r.db.Collection(colRatings).Find(ctx, bson.M{
		"comment_id": bson.M{"$in": ids},
		"user_id":    auth.ID,
	})
	if err != nil {
		return err
	}
	var own []ratingDoc
	if err := cur.All(ctx, &own); err != nil {
		return err
	}
	for i := range own {
		if c := index[own[i].CommentID]; c != nil {
			liked := own[i].Liked
			c.Liked = &liked
		}
	}
	return nil
}

func (r *commentStorage) PostComment(ctx context.Context, auth domain.AuthInfo, page string, thread *string, content *domain.ContentNode) (*domain.Comment, error) {
	raw, err := json.Marshal(content)
	if err != nil {
		return nil, err
	}

	if thread != nil {
		parentID, err := primitive.ObjectIDFromHex(*thread)
		if err != nil {
			return nil, domain.ErrNotFound
		}
		var parent commentDoc
		err = r.db.Collection(colComments).
			FindOne(ctx, bson.M{"_id": parentID, "page": page}).
			Decode(&parent)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		if err != nil {
			return nil, err
		}
		if parent.ThreadID != nil {
			return nil, &domain.StatusError{Status: http.StatusBadRequest, Message: "thread must reference a top-level comment"}
		}
	}

	doc := commentDoc{
		Page:      page,
		ThreadID:  thread,
		Author:    auth.ID,
		Content:   string(raw),
		CreatedAt: time.Now(),
	}
	inserted, err := r.db.Collection(colComments).InsertOne(ctx, doc)
	if err != nil {
		return nil, err
	}
	doc.ID = inserted.InsertedID.(primitive.ObjectID)

	res := doc.toDomain()
	return &res, nil
}

func (r *commentStorage) UpdateComment(ctx context.Context, id string, auth domain.AuthInfo, page string, content *domain.ContentNode) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil
	}
	raw, err := json.Marshal(content)
	if err != nil {
		return err
	}
	// ownership lives in the filter; matching nothing is a no-op by contract
	_, err = r.db.Collection(colComments).UpdateOne(ctx,
		bson.M{"_id": oid, "author": auth.ID, "page": page},
		bson.M{"$set": bson.M{"content": string(raw)}})
	return err
}

func (r *commentStorage) DeleteComment(ctx context.Context, id string, auth domain.AuthInfo, page string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil
	}

	cur, err := r.db.Collection(colComments).Find(ctx,
		bson.M{"page": page, "$or": bson.A{bson.M{"_id": oid}, bson.M{"thread_id": id}}},
		options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return err
	}
	var doomed []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cur.All(ctx, &doomed); err != nil {
		return err
	}
	if len(doomed) == 0 {
		return nil
	}
	oids := make([]primitive.ObjectID, len(doomed))
	hexes := make([]string, len(doomed))
	for i := range doomed {
		oids[i] = doomed[i].ID
		hexes[i] = doomed[i].ID.Hex()
	}

	_, err = r.db.Collection(colComments).DeleteMany(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return err
	}
	// best effort; leftovers are orphans and never counted
	if _, err := r.db.Collection(colRatings).DeleteMany(ctx, bson.M{"comment_id": bson.M{"$in": hexes}}); err != nil {
		logrus.Warnf("failed to clean up ratings of deleted comments: %v", err)
	}
	return nil
}

func (r *commentStorage) SetRate(ctx context.Context, id string, auth domain.AuthInfo, page string, like bool) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrNotFound
	}
	err = r.db.Collection(colComments).
		FindOne(ctx, bson.M{"_id": oid}, options.FindOne().SetProjection(bson.M{"_id": 1})).
		Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.ErrNotFound
	}
	if err != nil {
		return err
	}

	// upsert against the unique (comment_id, user_id) index
	_, err = r.db.Collection(colRatings).UpdateOne(ctx,
		bson.M{"comment_id": id, "user_id": auth.ID},
		bson.M{
			"$set":         bson.M{"liked": like},
			"$setOnInsert": bson.M{"created_at": time.Now()},
		},
		options.Update().SetUpsert(true))
	return err
}

func (r *commentStorage) DeleteRate(ctx context.Context, id string, auth domain.AuthInfo, page string) error {
	_, err := r.db.Collection(colRatings).DeleteOne(ctx,
		bson.M{"comment_id": id, "user_id": auth.ID})
	return err
}

func (r *commentStorage) GetCommentAuthor(ctx context.Context, id string) (string, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return "", domain.ErrNotFound
	}
	var doc commentDoc
	err = r.db.Collection(colComments).
		FindOne(ctx, bson.M{"_id": oid}, options.FindOne().SetProjection(bson.M{"author": 1})).
		Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", domain.ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return doc.Author, nil
}

func (r *commentStorage) GetRole(ctx context.Context, auth domain.AuthInfo, page string) (*domain.Role, error) {
	var doc roleDoc
	err := r.db.Collection(colRoles).
		FindOne(ctx, bson.M{"user_id": auth.ID, "page": page}).
		Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &domain.Role{Name: doc.Name, CanDelete: doc.CanDelete}, nil
}
