// Package store keeps the verified posts. Backends only persist; ordering,
// ids and the retention cap are enforced by Store.
package store

import (
	"context"
	"errors"

	"fan-feed-go/internal/model"
)

var ErrNotFound = errors.New("post not found")

// Repository is a persistence backend for posts. All returns posts in no
// particular order.
type Repository interface {
	All(ctx context.Context) ([]model.Post, error)
	Get(ctx context.Context, id string) (model.Post, error)
	Put(ctx context.Context, p model.Post) error
	Delete(ctx context.Context, id string) error
	Close() error
}
