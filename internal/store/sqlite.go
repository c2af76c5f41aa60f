package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	apperrors "trade-journal/internal/errors"
	"trade-journal/internal/models"
)

// Achievement audit actions.
const (
	ActionRecorded  = "recorded"
	ActionWithdrawn = "withdrawn"
)

// AchievementEvent is one row of the achievement audit trail.
type AchievementEvent struct {
	ID            int64              `json:"id"`
	Key           string             `json:"key"`
	Granularity   models.Granularity `json:"granularity"`
	ReferenceDate string             `json:"referenceDate"`
	GoalValue     float64            `json:"goalValue"`
	Action        string             `json:"action"`
	CreatedAt     time.Time          `json:"createdAt"`
}

// AuditLog is implemented by stores that keep achievement history.
type AuditLog interface {
	AchievementEvents(ctx context.Context, key string, limit int) ([]AchievementEvent, error)
}

// SQLiteStore implements DocumentStore using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite-based document store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{db: db}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates all required tables and indexes.
func (s *SQLiteStore) initSchema() error {
	schema := `
	-- One row per journal document
	CREATE TABLE IF NOT EXISTS documents (
		key TEXT PRIMARY KEY,
		body TEXT NOT NULL,
		starting_capital REAL NOT NULL DEFAULT 0,
		trade_count INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- Achievement audit trail; the live set stays in documents.body
	CREATE TABLE IF NOT EXISTS achievement_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		doc_key TEXT NOT NULL,
		granularity TEXT NOT NULL,
		reference_date TEXT NOT NULL,
		goal_value REAL NOT NULL,
		action TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_achievement_events_key ON achievement_events(doc_key, id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Backend implements DocumentStore.
func (s *SQLiteStore) Backend() string { return "sqlite" }

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Load implements DocumentStore.
func (s *SQLiteStore) Load(ctx context.Context, key string) (*models.Document, error) {
	var body string
	err := s.db.QueryRowContext(ctx, "SELECT body FROM documents WHERE key = ?", key).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(s.Backend(), key)
	}
	if err != nil {
		return nil, apperrors.NewStoreError(s.Backend(), "load", key, fmt.Errorf("%w: %v", apperrors.ErrDatabaseError, err))
	}

	doc, err := Decode([]byte(body))
	if err != nil {
		return nil, apperrors.NewStoreError(s.Backend(), "load", key, err)
	}
	return doc, nil
}

// Save implements DocumentStore. Achievement changes relative to the
// previously stored document are appended to the audit trail in the same
// transaction.
func (s *SQLiteStore) Save(ctx context.Context, key string, doc *models.Document) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	data, err := Encode(doc)
	if err != nil {
		return apperrors.NewStoreError(s.Backend(), "save", key, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return s.dbErr("save", key, err)
	}
	defer tx.Rollback()

	var previous []models.Achievement
	var oldBody string
	switch err := tx.QueryRowContext(ctx, "SELECT body FROM documents WHERE key = ?", key).Scan(&oldBody); {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return s.dbErr("save", key, err)
	default:
		if old, err := Decode([]byte(oldBody)); err == nil {
			previous = old.Achievements
		}
	}

	var current []models.Achievement
	if doc != nil {
		current = doc.Achievements
	}
	capital, trades := 0.0, 0
	if doc != nil {
		capital, trades = doc.StartingCapital, len(doc.Trades)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO documents (key, body, starting_capital, trade_count, updated_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
			body = excluded.body,
			starting_capital = excluded.starting_capital,
			trade_count = excluded.trade_count,
			updated_at = CURRENT_TIMESTAMP
	`, key, string(data), capital, trades)
	if err != nil {
		return s.dbErr("save", key, err)
	}

	now := time.Now().UTC()
	for _, ev := range DiffAchievements(previous, current) {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO achievement_events (doc_key, granularity, reference_date, goal_value, action, created_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, key, string(ev.Granularity), ev.ReferenceDate, ev.GoalValue, ev.Action, now)
		if err != nil {
			return s.dbErr("save", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return s.dbErr("save", key, err)
	}
	return nil
}

// Delete implements DocumentStore. The audit trail is kept.
func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM documents WHERE key = ?", key); err != nil {
		return s.dbErr("delete", key, err)
	}
	return nil
}

// Keys implements DocumentStore.
func (s *SQLiteStore) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT key FROM documents ORDER BY key")
	if err != nil {
		return nil, s.dbErr("keys", "", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, s.dbErr("keys", "", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// AchievementEvents returns the newest audit events for key, newest first.
// A limit of zero or less returns every event.
func (s *SQLiteStore) AchievementEvents(ctx context.Context, key string, limit int) ([]AchievementEvent, error) {
	query := `SELECT id, doc_key, granularity, reference_date, goal_value, action, created_at
		FROM achievement_events WHERE doc_key = ? ORDER BY id DESC`
	args := []interface{}{key}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, s.dbErr("events", key, err)
	}
	defer rows.Close()

	var events []AchievementEvent
	for rows.Next() {
		var ev AchievementEvent
		var gran string
		if err := rows.Scan(&ev.ID, &ev.Key, &gran, &ev.ReferenceDate, &ev.GoalValue, &ev.Action, &ev.CreatedAt); err != nil {
			return nil, s.dbErr("events", key, err)
		}
		ev.Granularity = models.Granularity(gran)
		events = append(events, ev)
	}
	return events, rows.Err()
}

func (s *SQLiteStore) dbErr(op, key string, err error) error {
	return apperrors.NewStoreError(s.Backend(), op, key, fmt.Errorf("%w: %v", apperrors.ErrDatabaseError, err))
}

// DiffAchievements lists achievements present only in next as recorded and
// those present only in prev as withdrawn.
func DiffAchievements(prev, next []models.Achievement) []AchievementEvent {
	before := make(map[string]bool, len(prev))
	for _, a := range prev {
		before[a.Key()] = true
	}
	after := make(map[string]bool, len(next))
	for _, a := range next {
		after[a.Key()] = true
	}

	var events []AchievementEvent
	for _, a := range next {
		if !before[a.Key()] {
			events = append(events, AchievementEvent{
				Granularity: a.Granularity, ReferenceDate: a.ReferenceDate, GoalValue: a.GoalValue, Action: ActionRecorded,
			})
		}
	}
	for _, a := range prev {
		if !after[a.Key()] {
			events = append(events, AchievementEvent{
				Granularity: a.Granularity, ReferenceDate: a.ReferenceDate, GoalValue: a.GoalValue, Action: ActionWithdrawn,
			})
		}
	}
	return events
}
