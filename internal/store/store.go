// Package store provides SQLite persistence for user accounts and their
// favorite movies.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	_ "modernc.org/sqlite"
)

var ErrEmailTaken = errors.New("email already registered")

type Store struct {
	sqldb *sql.DB
	db    *bun.DB
}

type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           int64  `bun:"id,pk,autoincrement"`
	Email        string `bun:"email,notnull"`
	PasswordHash string `bun:"password_hash,notnull"`
	CreatedAt    string `bun:"created_at,notnull"`
}

type Favorite struct {
	bun.BaseModel `bun:"table:favorites,alias:f"`

	ID        int64 `bun:"id,pk,autoincrement"`
	UserID    int64 `bun:"user_id,notnull"`
	MovieID   int64 `bun:"movie_id,notnull"`
	CreatedAt string `bun:"created_at,notnull"`
}

func Open(dbPath string) (*Store, error) {
	if dbPath == "" {
		return nil, errors.New("DB_PATH is required")
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, err
	}

	sqldb, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	if err := sqldb.PingContext(ctx); err != nil {
		if cerr := sqldb.Close(); cerr != nil {
			return nil, fmt.Errorf("ping db: %w; close failed: %w", err, cerr)
		}
		return nil, err
	}

	if err := initSchema(ctx, sqldb); err != nil {
		if cerr := sqldb.Close(); cerr != nil {
			return nil, fmt.Errorf("init schema: %w; close failed: %w", err, cerr)
		}
		return nil, err
	}

	bdb := bun.NewDB(sqldb, sqlitedialect.New())
	return &Store{sqldb: sqldb, db: bdb}, nil
}

func (s *Store) Close() error { return s.sqldb.Close() }

func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	email TEXT NOT NULL,
	password_hash TEXT NOT NULL,
	created_at TEXT NOT NULL,
	UNIQUE(email)
);
CREATE TABLE IF NOT EXISTS favorites (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL,
	movie_id INTEGER NOT NULL,
	created_at TEXT NOT NULL,
	UNIQUE(user_id, movie_id)
);
CREATE INDEX IF NOT EXISTS idx_favorites_user ON favorites(user_id);
`
	_, err := db.ExecContext(ctx, schema)
	return err
}

func (s *Store) CreateUser(ctx context.Context, email, passwordHash string) (int64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user := User{
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC().Format(time.RFC3339),
	}

	res, err := s.db.NewInsert().
		Model(&user).
		Column("email", "password_hash", "created_at").
		Exec(ctx)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return 0, ErrEmailTaken
		}
		return 0, err
	}
	return res.LastInsertId()
}

func (s *Store) UserByEmail(ctx context.Context, email string) (User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var user User
	err := s.db.NewSelect().
		Model(&user).
		Where("email = ?", email).
		Limit(1).
		Scan(ctx)
	return user, err
}

func (s *Store) UserByID(ctx context.Context, id int64) (User, error) {
	var user User
	err := s.db.NewSelect().
		Model(&user).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	return user, err
}

// ListFavoriteIDs returns the user's favorite movie ids, most recent first.
func (s *Store) ListFavoriteIDs(ctx context.Context, userID int64) ([]int64, error) {
	ids := []int64{}
	err := s.db.NewSelect().
		Table("favorites").
		Column("movie_id").
		Where("user_id = ?", userID).
		OrderExpr("created_at DESC, id DESC").
		Scan(ctx, &ids)
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// AddFavorite is idempotent: marking an existing favorite again is a no-op.
func (s *Store) AddFavorite(ctx context.Context, userID, movieID int64) error {
	fav := Favorite{
		UserID:    userID,
		MovieID:   movieID,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	_, err := s.db.NewInsert().
		Model(&fav).
		Column("user_id", "movie_id", "created_at").
		On("CONFLICT (user_id, movie_id) DO NOTHING").
		Exec(ctx)
	return err
}

func (s *Store) RemoveFavorite(ctx context.Context, userID, movieID int64) error {
	res, err := s.db.NewDelete().
		Table("favorites").
		Where("user_id = ?", userID).
		Where("movie_id = ?", movieID).
		Exec(ctx)
	if err != nil {
		return err
	}
	return expectRowsAffected(res)
}

func (s *Store) IsFavorite(ctx context.Context, userID, movieID int64) (bool, error) {
	count, err := s.db.NewSelect().
		Table("favorites").
		Where("user_id = ?", userID).
		Where("movie_id = ?", movieID).
		Count(ctx)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func expectRowsAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
