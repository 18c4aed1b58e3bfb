package store

import (
	"context"
	"path/filepath"
	"strings"

	"fan-feed-go/internal/config"
	"fan-feed-go/internal/logger"
)

func postsFile(cfg config.Config) string {
	if p := strings.TrimSpace(cfg.PostsFile); p != "" {
		return p
	}
	dir := strings.TrimSpace(cfg.DataDir)
	if dir == "" {
		dir = "data"
	}
	return filepath.Join(dir, "posts.json")
}

// OpenRepository picks the backend named by STORE_BACKEND.
func OpenRepository(ctx context.Context, cfg config.Config) (Repository, error) {
	kind := parseBackend(cfg.StoreBackend)
	logger.Info("opening post store", "backend", string(kind))
	switch kind {
	case backendMemory:
		return NewMemoryRepository(), nil
	case backendSQLite:
		return OpenSQLite(cfg.SQLitePath)
	case backendMySQL:
		return OpenMySQL(cfg.MySQLDSN)
	case backendPostgres:
		return OpenPostgres(cfg.PostgresDSN)
	case backendMongoDB:
		return OpenMongo(ctx, cfg.MongoURI, cfg.MongoDB)
	default:
		return NewFileRepository(postsFile(cfg))
	}
}

func NewFromConfig(ctx context.Context, cfg config.Config) (*Store, error) {
	repo, err := OpenRepository(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return New(repo, cfg.PostRetentionCap), nil
}
