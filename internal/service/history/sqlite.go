package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/yeyunwen/ai-full-stack/internal/model/catalog"
	chatmodel "github.com/yeyunwen/ai-full-stack/internal/model/chat"
)

const schema = `
CREATE TABLE IF NOT EXISTS messages (
    id TEXT PRIMARY KEY,
    token TEXT NOT NULL,
    role TEXT NOT NULL CHECK(role IN ('user','assistant')),
    content TEXT NOT NULL,
    items_json TEXT,
    kind TEXT,
    created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_messages_token_created ON messages(token, created_at);
`

// SQLiteStore implements Store on a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite creates or opens the history database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// OpenSQLiteMemory opens an in-memory history database, useful for testing.
func OpenSQLiteMemory() (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("opening in-memory database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error { return s.db.Close() }

// SaveMessage appends one row to the log.
func (s *SQLiteStore) SaveMessage(ctx context.Context, message chatmodel.Message) error {
	if message.Token == "" {
		return ErrTokenRequired
	}

	if message.ID == "" {
		message.ID = uuid.NewString()
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (id, token, role, content, items_json, kind, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		message.ID, message.Token, message.Role, message.Content,
		nullable(message.ItemsJSON), nullable(string(message.Kind)),
		message.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// RecentMessages returns the newest limit rows for the token, oldest first.
func (s *SQLiteStore) RecentMessages(ctx context.Context, token string, limit int) ([]chatmodel.Message, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, token, role, content, items_json, kind, created_at
		 FROM messages WHERE token = ? ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		token, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var messages []chatmodel.Message
	for rows.Next() {
		var (
			msg       chatmodel.Message
			itemsJSON sql.NullString
			kind      sql.NullString
			createdAt string
		)
		if err := rows.Scan(&msg.ID, &msg.Token, &msg.Role, &msg.Content, &itemsJSON, &kind, &createdAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msg.ItemsJSON = itemsJSON.String
		msg.Kind = catalog.Kind(kind.String)
		if ts, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			msg.CreatedAt = ts
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}

	// Query returned newest first, restore chronological order.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// RecentEntries returns up to limit user/assistant pairs, oldest first.
func (s *SQLiteStore) RecentEntries(ctx context.Context, token string, limit int) ([]chatmodel.ConversationEntry, error) {
	messages, err := s.RecentMessages(ctx, token, limit*2)
	if err != nil {
		return nil, err
	}
	return chatmodel.PairEntries(messages), nil
}

func nullable(value string) any {
	if value == "" {
		return nil
	}
	return value
}
