// Package storage provides utilities for data persistence: logging session
// telemetry to SQLite, exporting it back out as CSV/JSON, and saving/loading
// the preset catalogue as JSON.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"daemonfield/session"
)

// SessionLogger records session lifecycle and per-frame telemetry to an
// SQLite database, one row per session start and one row per frame.
type SessionLogger struct {
	db *sql.DB
}

// NewSessionLogger opens (recreating, if a real file path) an SQLite
// database at dataSourceName and ensures its tables exist.
func NewSessionLogger(dataSourceName string) (*SessionLogger, error) {
	if dataSourceName != ":memory:" {
		_ = os.Remove(dataSourceName)
	}

	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database at %s: %w", dataSourceName, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database at %s: %w", dataSourceName, err)
	}

	logger := &SessionLogger{db: db}
	if err := logger.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return logger, nil
}

func (sl *SessionLogger) createTables() error {
	const sessionsTableSQL = `
	CREATE TABLE IF NOT EXISTS Sessions (
		SessionID TEXT PRIMARY KEY,
		Width INTEGER NOT NULL,
		Height INTEGER NOT NULL,
		Mask TEXT NOT NULL,
		BalanceMode TEXT,
		FPS INTEGER,
		StepsPerTick INTEGER,
		CreatedAt DATETIME DEFAULT CURRENT_TIMESTAMP
	);`
	if _, err := sl.db.Exec(sessionsTableSQL); err != nil {
		return fmt.Errorf("failed to create Sessions table: %w", err)
	}

	const framesTableSQL = `
	CREATE TABLE IF NOT EXISTS Frames (
		FrameID INTEGER PRIMARY KEY AUTOINCREMENT,
		SessionID TEXT NOT NULL,
		Generation INTEGER NOT NULL,
		ActiveCells INTEGER,
		DaemonCount INTEGER,
		AvgDaemonSize REAL,
		NoiseCells INTEGER,
		Exclusion REAL,
		Stability REAL,
		Timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (SessionID) REFERENCES Sessions (SessionID) ON DELETE CASCADE
	);`
	if _, err := sl.db.Exec(framesTableSQL); err != nil {
		return fmt.Errorf("failed to create Frames table: %w", err)
	}
	return nil
}

// DBForTest exposes the underlying *sql.DB; only meant for use by tests.
func (sl *SessionLogger) DBForTest() *sql.DB {
	return sl.db
}

// LogSessionStart records a session's starting configuration. Calling it
// again for the same session id (e.g. after a full Start/Reconnect restart)
// overwrites the prior row.
func (sl *SessionLogger) LogSessionStart(sessionID string, cfg session.Config) error {
	if sl.db == nil {
		return fmt.Errorf("logger not initialized")
	}
	_, err := sl.db.Exec(`INSERT OR REPLACE INTO Sessions
		(SessionID, Width, Height, Mask, BalanceMode, FPS, StepsPerTick, CreatedAt)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sessionID, cfg.Width, cfg.Height, cfg.Mask, cfg.BalanceMode, cfg.FPS, cfg.StepsPerTick, time.Now())
	if err != nil {
		return fmt.Errorf("failed to insert into Sessions: %w", err)
	}
	return nil
}

// LogFrame appends one telemetry row for a frame emitted by a session.
func (sl *SessionLogger) LogFrame(sessionID string, frame session.Frame) error {
	if sl.db == nil {
		return fmt.Errorf("logger not initialized")
	}
	s := frame.Stats
	_, err := sl.db.Exec(`INSERT INTO Frames
		(SessionID, Generation, ActiveCells, DaemonCount, AvgDaemonSize, NoiseCells, Exclusion, Stability, Timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sessionID, frame.Generation, s.ActiveCells, s.DaemonCount, s.AvgDaemonSize, s.NoiseCells, s.Exclusion, s.Stability, time.Now())
	if err != nil {
		return fmt.Errorf("failed to insert into Frames for session %s generation %d: %w", sessionID, frame.Generation, err)
	}
	return nil
}

// Close closes the underlying database connection.
func (sl *SessionLogger) Close() error {
	if sl.db != nil {
		return sl.db.Close()
	}
	return nil
}
