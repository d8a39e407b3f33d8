package notify

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/sipeed/chatwarden/internal/detector"
	"github.com/sipeed/chatwarden/internal/logctl"
)

// SQLiteSink records every lifecycle event and decision to a local
// database for operator review. This persists decisions already
// emitted, not pipeline state: a restart still rebuilds all in-memory
// history and detector state from nothing.
type SQLiteSink struct {
	db *sql.DB
}

// NewSQLiteSink opens (creating if needed) the audit database at
// path and ensures its schema exists.
func NewSQLiteSink(path string) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("notify: opening audit db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("notify: creating audit schema: %w", err)
	}
	return &SQLiteSink{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteSink) Close() error {
	return s.db.Close()
}

const schema = `
CREATE TABLE IF NOT EXISTS chat_lifecycle (
	video_id TEXT NOT NULL,
	channel_id TEXT,
	run_id TEXT NOT NULL,
	event TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS decisions (
	video_id TEXT NOT NULL,
	run_id TEXT NOT NULL,
	user_channel_id TEXT NOT NULL,
	kind INTEGER NOT NULL,
	avg_value REAL NOT NULL
);
`

func (s *SQLiteSink) NotifyNewChat(_ context.Context, event detector.NewChat) {
	if _, err := s.db.Exec(`INSERT INTO chat_lifecycle (video_id, channel_id, run_id, event) VALUES (?, ?, ?, 'opened')`,
		string(event.VideoID), string(event.Channel), event.RunID.String()); err != nil {
		logctl.Warn(component, "audit insert failed", map[string]any{"error": err.Error()})
	}
}

func (s *SQLiteSink) NotifyResult(_ context.Context, event detector.DetectorResult) {
	for _, decision := range event.Decisions {
		if _, err := s.db.Exec(`INSERT INTO decisions (video_id, run_id, user_channel_id, kind, avg_value) VALUES (?, ?, ?, ?, ?)`,
			string(event.VideoID), event.RunID.String(), string(decision.ChannelID), int(decision.Decision.Kind), decision.Decision.AvgValue); err != nil {
			logctl.Warn(component, "audit insert failed", map[string]any{"error": err.Error()})
		}
	}
}

func (s *SQLiteSink) NotifyChatClosed(_ context.Context, event detector.ChatClosed) {
	if _, err := s.db.Exec(`INSERT INTO chat_lifecycle (video_id, channel_id, run_id, event) VALUES (?, '', ?, 'closed')`,
		string(event.VideoID), event.RunID.String()); err != nil {
		logctl.Warn(component, "audit insert failed", map[string]any{"error": err.Error()})
	}
}
