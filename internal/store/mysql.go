package store

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

func OpenMySQL(dsn string) (*SQLRepository, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, errors.New("MYSQL_DSN is empty")
	}
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	setDBPoolDefaults(db, 8)
	db.SetConnMaxIdleTime(2 * time.Minute)

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS posts (
			id VARCHAR(64) NOT NULL,
			seq BIGINT NOT NULL,
			published_at BIGINT NOT NULL,
			data_json LONGTEXT NOT NULL,
			updated_at BIGINT NOT NULL,
			PRIMARY KEY (id),
			KEY idx_posts_seq (seq)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;`,
	}
	if err := initSchema(db, stmts); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLRepository{db: db, kind: backendMySQL}, nil
}
