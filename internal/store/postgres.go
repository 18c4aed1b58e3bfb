package store

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func OpenPostgres(dsn string) (*SQLRepository, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, errors.New("POSTGRES_DSN is empty")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	setDBPoolDefaults(db, 8)
	db.SetConnMaxIdleTime(2 * time.Minute)

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS posts (
			id TEXT NOT NULL PRIMARY KEY,
			seq BIGINT NOT NULL,
			published_at BIGINT NOT NULL,
			data_json TEXT NOT NULL,
			updated_at BIGINT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_posts_seq ON posts(seq);`,
	}
	if err := initSchema(db, stmts); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLRepository{db: db, kind: backendPostgres}, nil
}
