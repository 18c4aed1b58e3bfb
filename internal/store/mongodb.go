package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fan-feed-go/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

type MongoRepository struct {
	cli   *mongo.Client
	posts *mongo.Collection
}

func OpenMongo(ctx context.Context, uri, dbName string) (*MongoRepository, error) {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return nil, errors.New("MONGO_URI is empty")
	}
	if strings.TrimSpace(dbName) == "" {
		dbName = "fan_feed"
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cli, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := cli.Ping(ctx, readpref.Primary()); err != nil {
		_ = cli.Disconnect(ctx)
		return nil, err
	}
	posts := cli.Database(dbName).Collection("posts")
	_, err = posts.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "seq", Value: 1}},
			Options: options.Index().SetName("idx_posts_seq"),
		},
		{
			Keys:    bson.D{{Key: "published_at", Value: -1}},
			Options: options.Index().SetName("idx_posts_published"),
		},
	})
	if err != nil {
		_ = cli.Disconnect(ctx)
		return nil, fmt.Errorf("mongo create indexes posts: %w", err)
	}
	return &MongoRepository{cli: cli, posts: posts}, nil
}

func (r *MongoRepository) All(ctx context.Context) ([]model.Post, error) {
	cur, err := r.posts.Find(ctx, bson.D{})
	if err != nil {
		return nil, err
	}
	out := []model.Post{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *MongoRepository) Get(ctx context.Context, id string) (model.Post, error) {
	var p model.Post
	err := r.posts.FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.Post{}, ErrNotFound
	}
	return p, err
}

func (r *MongoRepository) Put(ctx context.Context, p model.Post) error {
	_, err := r.posts.ReplaceOne(ctx, bson.M{"_id": p.ID}, p, options.Replace().SetUpsert(true))
	return err
}

func (r *MongoRepository) Delete(ctx context.Context, id string) error {
	res, err := r.posts.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoRepository) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return r.cli.Disconnect(ctx)
}
