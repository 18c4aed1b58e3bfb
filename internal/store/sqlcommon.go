package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"fan-feed-go/internal/model"
)

type backendKind string

const (
	backendMemory   backendKind = "memory"
	backendFile     backendKind = "file"
	backendSQLite   backendKind = "sqlite"
	backendMySQL    backendKind = "mysql"
	backendPostgres backendKind = "postgres"
	backendMongoDB  backendKind = "mongodb"
)

func parseBackend(v string) backendKind {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "memory", "mem":
		return backendMemory
	case "sqlite":
		return backendSQLite
	case "mysql":
		return backendMySQL
	case "postgres", "postgresql":
		return backendPostgres
	case "mongodb", "mongo":
		return backendMongoDB
	default:
		return backendFile
	}
}

func placeholder(k backendKind, idx int) string {
	if k == backendPostgres {
		return fmt.Sprintf("$%d", idx)
	}
	return "?"
}

func isDriverDisabled(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), "unknown driver")
}

func setDBPoolDefaults(db *sql.DB, maxOpen int) {
	if db == nil {
		return
	}
	if maxOpen <= 0 {
		maxOpen = 4
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxOpen)
	db.SetConnMaxLifetime(0)
}

// SQLRepository stores each post as a JSON document keyed by id. seq and
// published_at are duplicated into columns so operators can query them.
type SQLRepository struct {
	db   *sql.DB
	kind backendKind
}

func initSchema(db *sql.DB, stmts []string) error {
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

func (r *SQLRepository) upsertSQL() string {
	p := func(i int) string { return placeholder(r.kind, i) }
	insert := fmt.Sprintf(
		`INSERT INTO posts(id, seq, published_at, data_json, updated_at) VALUES(%s, %s, %s, %s, %s)`,
		p(1), p(2), p(3), p(4), p(5),
	)
	if r.kind == backendMySQL {
		return insert + ` ON DUPLICATE KEY UPDATE seq=VALUES(seq), published_at=VALUES(published_at), data_json=VALUES(data_json), updated_at=VALUES(updated_at);`
	}
	return insert + ` ON CONFLICT(id) DO UPDATE SET seq=excluded.seq, published_at=excluded.published_at, data_json=excluded.data_json, updated_at=excluded.updated_at;`
}

func (r *SQLRepository) All(ctx context.Context) ([]model.Post, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT data_json FROM posts`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Post{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var p model.Post
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			return nil, fmt.Errorf("decode post row: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *SQLRepository) Get(ctx context.Context, id string) (model.Post, error) {
	var raw string
	err := r.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT data_json FROM posts WHERE id = %s`, placeholder(r.kind, 1)),
		id,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Post{}, ErrNotFound
	}
	if err != nil {
		return model.Post{}, err
	}
	var p model.Post
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return model.Post{}, fmt.Errorf("decode post %s: %w", id, err)
	}
	return p, nil
}

func (r *SQLRepository) Put(ctx context.Context, p model.Post) error {
	if strings.TrimSpace(p.ID) == "" {
		return errors.New("post id is empty")
	}
	b, err := json.Marshal(p)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, r.upsertSQL(),
		p.ID, p.Seq, p.PublishedAt.UTC().Unix(), string(b), time.Now().Unix(),
	)
	return err
}

func (r *SQLRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM posts WHERE id = %s`, placeholder(r.kind, 1)),
		id,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLRepository) Close() error {
	return r.db.Close()
}
