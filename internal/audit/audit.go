// Package audit persists the decision trail. Every webhook delivery that
// reaches the engine gets one row, whether or not a reply was sent, so
// operators can answer "why did the bot (not) respond here" after the fact.
package audit

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lib/pq"
)

// Entry is one recorded decision.
type Entry struct {
	ID         int64     `json:"id"`
	DeliveryID string    `json:"delivery_id"`
	ThreadID   string    `json:"thread_id"`
	MessageID  string    `json:"message_id"`
	From       string    `json:"from"`
	Template   string    `json:"template"`
	Confidence float64   `json:"confidence"`
	AutoSent   bool      `json:"auto_sent"`
	Reasons    []string  `json:"reasons"`
	CreatedAt  time.Time `json:"created_at"`
}

// Recorder stores and retrieves decision entries.
type Recorder interface {
	Record(ctx context.Context, entry Entry) error
	Recent(ctx context.Context, limit int) ([]Entry, error)
}

// DBRecorder is a Postgres-backed Recorder.
type DBRecorder struct {
	db *sql.DB
}

// Open connects to Postgres and ensures the decisions table exists. An
// empty URL falls back to DATABASE_URL from the environment or a .env file.
func Open(databaseURL string) (*DBRecorder, error) {
	if databaseURL == "" {
		url, err := loadDatabaseURL()
		if err != nil {
			return nil, fmt.Errorf("failed to get database URL: %w", err)
		}
		databaseURL = url
	}

	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	recorder := &DBRecorder{db: db}
	if err := recorder.migrate(); err != nil {
		return nil, err
	}
	return recorder, nil
}

func (r *DBRecorder) migrate() error {
	_, err := r.db.Exec(`
		CREATE TABLE IF NOT EXISTS decisions (
			id BIGSERIAL PRIMARY KEY,
			delivery_id TEXT NOT NULL,
			thread_id TEXT NOT NULL,
			message_id TEXT NOT NULL,
			from_address TEXT NOT NULL,
			template TEXT NOT NULL,
			confidence DOUBLE PRECISION NOT NULL,
			auto_sent BOOLEAN NOT NULL,
			reasons TEXT[] NOT NULL DEFAULT '{}',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create decisions table: %w", err)
	}
	return nil
}

// Record inserts one decision row.
func (r *DBRecorder) Record(ctx context.Context, entry Entry) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO decisions (delivery_id, thread_id, message_id, from_address, template, confidence, auto_sent, reasons)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, entry.DeliveryID, entry.ThreadID, entry.MessageID, entry.From,
		entry.Template, entry.Confidence, entry.AutoSent, pq.Array(entry.Reasons))
	if err != nil {
		return fmt.Errorf("failed to insert decision: %w", err)
	}
	return nil
}

// Recent returns the latest decisions, newest first.
func (r *DBRecorder) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, delivery_id, thread_id, message_id, from_address, template, confidence, auto_sent, reasons, created_at
		FROM decisions ORDER BY id DESC LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query decisions: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.DeliveryID, &e.ThreadID, &e.MessageID, &e.From,
			&e.Template, &e.Confidence, &e.AutoSent, pq.Array(&e.Reasons), &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan decision row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close releases the underlying connection pool.
func (r *DBRecorder) Close() error {
	return r.db.Close()
}

// NopRecorder drops entries. Used when no database is configured.
type NopRecorder struct{}

func (NopRecorder) Record(ctx context.Context, entry Entry) error { return nil }

func (NopRecorder) Recent(ctx context.Context, limit int) ([]Entry, error) { return nil, nil }

func loadDatabaseURL() (string, error) {
	if direct := strings.TrimSpace(os.Getenv("DATABASE_URL")); direct != "" {
		return direct, nil
	}

	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}

	envPath, err := findEnvFile(wd)
	if err != nil {
		return "", err
	}

	file, err := os.Open(envPath)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", envPath, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		eqIdx := strings.IndexRune(line, '=')
		if eqIdx <= 0 {
			continue
		}

		key := strings.TrimSpace(line[:eqIdx])
		if key != "DATABASE_URL" {
			continue
		}

		value := strings.TrimSpace(line[eqIdx+1:])
		value = strings.Trim(value, "\"'")
		if value == "" {
			return "", errors.New("DATABASE_URL is empty in .env")
		}
		return value, nil
	}

	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("read %s: %w", envPath, err)
	}

	return "", errors.New("DATABASE_URL not found in environment or .env")
}

func findEnvFile(start string) (string, error) {
	dir := start
	for {
		candidate := filepath.Join(dir, ".env")
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", fmt.Errorf(".env not found starting from %s", start)
}
