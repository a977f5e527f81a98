package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"duel/internal/model"

	_ "github.com/mattn/go-sqlite3"
)

// MemoryDSN keeps the ledger in a shared in-memory database that disappears
// with the process.
const MemoryDSN = "file:duel?mode=memory&cache=shared"

var ErrUnknownSession = errors.New("database: session not found")

// Store is the live session ledger: one row per open connection, deleted
// when the connection closes.
type Store struct {
	db *sql.DB
}

func NewStore(dsn string) (*Store, error) {
	if dsn == "" {
		dsn = MemoryDSN
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("database: open: %w", err)
	}
	// A shared in-memory database lives only while a connection holds it.
	db.SetMaxOpenConns(1)

	sqlStmt := `CREATE TABLE IF NOT EXISTS sessions (id TEXT PRIMARY KEY, player_name TEXT NOT NULL, remote_addr TEXT, score INTEGER NOT NULL DEFAULT 0, done INTEGER NOT NULL DEFAULT 0, connected_at DATETIME NOT NULL);`
	sqlStmt += `DELETE FROM sessions;`
	if _, err := db.Exec(sqlStmt); err != nil {
		db.Close()
		return nil, fmt.Errorf("database: init schema: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// OpenSession records a newly connected player.
func (s *Store) OpenSession(id, playerName, remoteAddr string, at time.Time) error {
	_, err := s.db.Exec("INSERT INTO sessions (id, player_name, remote_addr, connected_at) VALUES (?, ?, ?, ?)",
		id, playerName, remoteAddr, at.UTC())
	if err != nil {
		return fmt.Errorf("database: open session %s: %w", id, err)
	}
	return nil
}

// UpdateSession stores the latest score and done flag of a session.
func (s *Store) UpdateSession(id string, score int32, done bool) error {
	res, err := s.db.Exec("UPDATE sessions SET score = ?, done = ? WHERE id = ?", score, done, id)
	if err != nil {
		return fmt.Errorf("database: update session %s: %w", id, err)
	}
	return expectRow(res, id)
}

// CloseSession forgets a session once its connection is gone.
func (s *Store) CloseSession(id string) error {
	res, err := s.db.Exec("DELETE FROM sessions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("database: close session %s: %w", id, err)
	}
	return expectRow(res, id)
}

// ListSessions returns the live sessions, oldest first.
func (s *Store) ListSessions() ([]model.SessionSummary, error) {
	list := make([]model.SessionSummary, 0)

	rows, err := s.db.Query(`SELECT id, player_name, remote_addr, score, done, connected_at FROM sessions ORDER BY connected_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("database: list sessions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var st model.SessionSummary
		var remote sql.NullString
		if err := rows.Scan(&st.ID, &st.PlayerName, &remote, &st.Score, &st.Done, &st.ConnectedAt); err != nil {
			return nil, fmt.Errorf("database: scan session: %w", err)
		}
		st.RemoteAddr = remote.String
		list = append(list, st)
	}
	return list, rows.Err()
}

func expectRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrUnknownSession, id)
	}
	return nil
}
