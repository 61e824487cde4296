package publisher

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"sjsage522/steamcrawler/internal/crawler"
)

// SQLitePublisher stores records in a SQLite table keyed by game id.
// Re-crawling an id replaces the previous row.
type SQLitePublisher struct {
	db *sql.DB
}

// NewSQLitePublisher opens or creates the database at path
func NewSQLitePublisher(path string) (*SQLitePublisher, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	p := &SQLitePublisher{db: db}
	if err := p.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return p, nil
}

func (p *SQLitePublisher) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS games (
		game_id TEXT PRIMARY KEY,
		title TEXT,
		tag_list TEXT NOT NULL,
		deck TEXT NOT NULL,
		early_access INTEGER NOT NULL,
		vr_only INTEGER NOT NULL,
		vr_supported INTEGER NOT NULL,
		vr_pcinput TEXT NOT NULL,
		crawled_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	_, err := p.db.ExecContext(context.Background(), schema)
	return err
}

// Publish upserts the record
func (p *SQLitePublisher) Publish(ctx context.Context, record crawler.GameRecord) error {
	tags, err := json.Marshal(record.TagList)
	if err != nil {
		return err
	}
	inputs, err := json.Marshal(record.VRPCInput)
	if err != nil {
		return err
	}

	var title sql.NullString
	if record.Title != nil {
		title = sql.NullString{String: *record.Title, Valid: true}
	}

	_, err = p.db.ExecContext(ctx, `
		INSERT INTO games (game_id, title, tag_list, deck, early_access, vr_only, vr_supported, vr_pcinput, crawled_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(game_id) DO UPDATE SET
			title = excluded.title,
			tag_list = excluded.tag_list,
			deck = excluded.deck,
			early_access = excluded.early_access,
			vr_only = excluded.vr_only,
			vr_supported = excluded.vr_supported,
			vr_pcinput = excluded.vr_pcinput,
			crawled_at = excluded.crawled_at`,
		record.GameID, title, string(tags), record.Deck,
		record.EarlyAccess, record.VROnly, record.VRSupported, string(inputs))
	if err != nil {
		return fmt.Errorf("failed to store game %s: %w", record.GameID, err)
	}
	return nil
}

// Get loads a stored record by game id
func (p *SQLitePublisher) Get(ctx context.Context, gameID string) (*crawler.GameRecord, error) {
	var (
		record       crawler.GameRecord
		title        sql.NullString
		tags, inputs string
	)
	err := p.db.QueryRowContext(ctx, `
		SELECT game_id, title, tag_list, deck, early_access, vr_only, vr_supported, vr_pcinput
		FROM games WHERE game_id = ?`, gameID).Scan(
		&record.GameID, &title, &tags, &record.Deck,
		&record.EarlyAccess, &record.VROnly, &record.VRSupported, &inputs)
	if err != nil {
		return nil, err
	}

	if title.Valid {
		record.Title = &title.String
	}
	if err := json.Unmarshal([]byte(tags), &record.TagList); err != nil {
		return nil, fmt.Errorf("decode tag_list: %w", err)
	}
	if err := json.Unmarshal([]byte(inputs), &record.VRPCInput); err != nil {
		return nil, fmt.Errorf("decode vr_pcinput: %w", err)
	}
	return &record, nil
}

// Count returns the number of stored games
func (p *SQLitePublisher) Count(ctx context.Context) (int, error) {
	var n int
	err := p.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM games").Scan(&n)
	return n, err
}

// Close closes the database connection
func (p *SQLitePublisher) Close() error {
	return p.db.Close()
}
