package store

import (
	"context"
	"sync"

	"fan-feed-go/internal/model"
)

type MemoryRepository struct {
	mu    sync.RWMutex
	posts map[string]model.Post
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{posts: make(map[string]model.Post)}
}

func (r *MemoryRepository) All(_ context.Context) ([]model.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.Post, 0, len(r.posts))
	for _, p := range r.posts {
		out = append(out, p)
	}
	return out, nil
}

func (r *MemoryRepository) Get(_ context.Context, id string) (model.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.posts[id]
	if !ok {
		return model.Post{}, ErrNotFound
	}
	return p, nil
}

func (r *MemoryRepository) Put(_ context.Context, p model.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.posts[p.ID] = p
	return nil
}

func (r *MemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.posts[id]; !ok {
		return ErrNotFound
	}
	delete(r.posts, id)
	return nil
}

func (r *MemoryRepository) Close() error { return nil }
