// Package database keeps the relational ownership records: user accounts
// and which papers each user uploaded. The indexing core itself never
// reads these tables; they scope global queries to a user's papers.
package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/BuiltByCharitha/Research-Paper-Assistant-System/internal/models"
)

var (
	ErrUserExists   = errors.New("username already exists")
	ErrUserNotFound = errors.New("user not found")
)

type Config struct {
	URL string
}

type DB struct {
	pool *pgxpool.Pool
}

func NewWithConfig(config Config) (*DB, error) {
	pool, err := pgxpool.New(context.Background(), config.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db := &DB{pool: pool}
	if err := db.initialize(); err != nil {
		pool.Close()
		return nil, err
	}
	return db, nil
}

func (db *DB) initialize() error {
	ctx := context.Background()

	createUsers := `
		CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			username TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL
		)`
	if _, err := db.pool.Exec(ctx, createUsers); err != nil {
		return fmt.Errorf("failed to create users table: %w", err)
	}

	createPapers := `
		CREATE TABLE IF NOT EXISTS papers (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			user_id TEXT NOT NULL REFERENCES users(id)
		)`
	if _, err := db.pool.Exec(ctx, createPapers); err != nil {
		return fmt.Errorf("failed to create papers table: %w", err)
	}
	return nil
}

func (db *DB) CreateUser(ctx context.Context, user models.User) error {
	_, err := db.pool.Exec(ctx,
		"INSERT INTO users (id, username, password_hash) VALUES ($1, $2, $3)",
		user.ID, user.Username, user.PasswordHash)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return fmt.Errorf("%w: %s", ErrUserExists, user.Username)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (db *DB) UserByUsername(ctx context.Context, username string) (models.User, error) {
	var user models.User
	row := db.pool.QueryRow(ctx,
		"SELECT id, username, password_hash FROM users WHERE username = $1", username)
	if err := row.Scan(&user.ID, &user.Username, &user.PasswordHash); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user, fmt.Errorf("%w: %s", ErrUserNotFound, username)
		}
		return user, fmt.Errorf("failed to load user: %w", err)
	}
	return user, nil
}

func (db *DB) CreatePaper(ctx context.Context, paper models.Paper) error {
	_, err := db.pool.Exec(ctx,
		"INSERT INTO papers (id, title, user_id) VALUES ($1, $2, $3)",
		paper.ID, paper.Title, paper.UserID)
	if err != nil {
		return fmt.Errorf("failed to create paper record: %w", err)
	}
	return nil
}

// PapersByUser lists the papers a user owns, the scoping set for that
// user's global queries.
func (db *DB) PapersByUser(ctx context.Context, userID string) ([]models.Paper, error) {
	rows, err := db.pool.Query(ctx,
		"SELECT id, title, user_id FROM papers WHERE user_id = $1 ORDER BY title", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list papers: %w", err)
	}
	defer rows.Close()
	return scanPapers(rows)
}

// PapersByTitleKeyword matches papers whose title contains the keyword,
// case-insensitively, within one user's collection.
func (db *DB) PapersByTitleKeyword(ctx context.Context, userID, keyword string) ([]models.Paper, error) {
	rows, err := db.pool.Query(ctx,
		"SELECT id, title, user_id FROM papers WHERE user_id = $1 AND title ILIKE $2 ORDER BY title",
		userID, "%"+keyword+"%")
	if err != nil {
		return nil, fmt.Errorf("failed to search papers: %w", err)
	}
	defer rows.Close()
	return scanPapers(rows)
}

func scanPapers(rows pgx.Rows) ([]models.Paper, error) {
	var papers []models.Paper
	for rows.Next() {
		var p models.Paper
		if err := rows.Scan(&p.ID, &p.Title, &p.UserID); err != nil {
			return nil, fmt.Errorf("failed to scan paper row: %w", err)
		}
		papers = append(papers, p)
	}
	return papers, rows.Err()
}

func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}
