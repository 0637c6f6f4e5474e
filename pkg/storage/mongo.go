package storage

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore keeps one document per file, keyed by path.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

type mongoFile struct {
	Path      string    `bson:"_id"`
	Content   string    `bson:"content"`
	Size      int       `bson:"size"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// NewMongoStore connects to MongoDB and verifies the connection.
func NewMongoStore(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return &MongoStore{
		client: client,
		coll:   client.Database(cfg.Database).Collection(cfg.Collection),
	}, nil
}

func (s *MongoStore) Read(ctx context.Context, p string) (string, error) {
	clean, err := cleanPath(p)
	if err != nil {
		return "", err
	}
	var doc mongoFile
	err = s.coll.FindOne(ctx, bson.M{"_id": clean}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", notFound(clean)
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", clean, err)
	}
	return doc.Content, nil
}

func (s *MongoStore) Write(ctx context.Context, p, content string) error {
	clean, err := cleanPath(p)
	if err != nil {
		return err
	}
	update := bson.M{"$set": bson.M{
		"content":    content,
		"size":       len(content),
		"updated_at": time.Now().UTC(),
	}}
	_, err = s.coll.UpdateOne(ctx, bson.M{"_id": clean}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("write %s: %w", clean, err)
	}
	return nil
}

func (s *MongoStore) List(ctx context.Context, dir string) ([]string, error) {
	prefix, err := cleanDir(dir)
	if err != nil {
		return nil, err
	}
	filter := bson.M{}
	if prefix != "" {
		filter["_id"] = bson.M{"$regex": "^" + regexp.QuoteMeta(prefix)}
	}
	opts := options.Find().
		SetProjection(bson.M{"_id": 1}).
		SetSort(bson.D{{Key: "_id", Value: 1}})

	cur, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	var docs []mongoFile
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.Path
	}
	return out, nil
}

func (s *MongoStore) Delete(ctx context.Context, p string) error {
	clean, err := cleanPath(p)
	if err != nil {
		return err
	}
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": clean})
	if err != nil {
		return fmt.Errorf("delete %s: %w", clean, err)
	}
	if res.DeletedCount == 0 {
		return notFound(clean)
	}
	return nil
}

// Close disconnects the client.
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

var _ Store = (*MongoStore)(nil)
