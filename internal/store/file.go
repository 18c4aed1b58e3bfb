package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"fan-feed-go/internal/model"
)

// FileRepository keeps all posts in one indented JSON array. Writes replace
// the file through a temp file and rename.
type FileRepository struct {
	path string
	mu   sync.RWMutex
}

func NewFileRepository(path string) (*FileRepository, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}
	return &FileRepository{path: path}, nil
}

func (r *FileRepository) load() ([]model.Post, error) {
	b, err := os.ReadFile(r.path)
	if errors.Is(err, os.ErrNotExist) {
		return []model.Post{}, nil
	}
	if err != nil {
		return nil, err
	}
	var posts []model.Post
	if len(b) == 0 {
		return []model.Post{}, nil
	}
	if err := json.Unmarshal(b, &posts); err != nil {
		return nil, fmt.Errorf("decode %s: %w", r.path, err)
	}
	return posts, nil
}

func (r *FileRepository) save(posts []model.Post) error {
	b, err := json.MarshalIndent(posts, "", "  ")
	if err != nil {
		return err
	}
	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, r.path)
}

func (r *FileRepository) All(_ context.Context) ([]model.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.load()
}

func (r *FileRepository) Get(_ context.Context, id string) (model.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	posts, err := r.load()
	if err != nil {
		return model.Post{}, err
	}
	for _, p := range posts {
		if p.ID == id {
			return p, nil
		}
	}
	return model.Post{}, ErrNotFound
}

func (r *FileRepository) Put(_ context.Context, p model.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	posts, err := r.load()
	if err != nil {
		return err
	}
	replaced := false
	for i := range posts {
		if posts[i].ID == p.ID {
			posts[i] = p
			replaced = true
			break
		}
	}
	if !replaced {
		posts = append(posts, p)
	}
	return r.save(posts)
}

func (r *FileRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	posts, err := r.load()
	if err != nil {
		return err
	}
	for i := range posts {
		if posts[i].ID == id {
			return r.save(append(posts[:i], posts[i+1:]...))
		}
	}
	return ErrNotFound
}

func (r *FileRepository) Close() error { return nil }
