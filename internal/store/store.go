// Package store persists negotiation transcripts in SQLite.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/danielpatrickdp/bilateral-agent/go-agent/internal/logging"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned for unknown session IDs.
var ErrNotFound = errors.New("session not found")

// timeFormat is fixed width so stored timestamps sort as text.
const timeFormat = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string { return t.UTC().Format(timeFormat) }

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	session_id        TEXT PRIMARY KEY,
	domain            TEXT NOT NULL,
	profile_json      TEXT NOT NULL,
	config_json       TEXT,
	started_at        TEXT NOT NULL,
	ended_at          TEXT,
	outcome           TEXT,
	agreement_json    TEXT,
	agreement_utility REAL
);

CREATE TABLE IF NOT EXISTS turns (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id       TEXT NOT NULL,
	turn             INTEGER NOT NULL,
	norm_time        REAL NOT NULL,
	received_json    TEXT,
	received_utility REAL NOT NULL,
	counter_json     TEXT,
	counter_utility  REAL NOT NULL,
	target           REAL NOT NULL,
	accepted         INTEGER NOT NULL,
	created_at       TEXT NOT NULL,
	UNIQUE (session_id, turn),
	FOREIGN KEY (session_id) REFERENCES sessions(session_id)
);

CREATE TABLE IF NOT EXISTS decision_log (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id   TEXT NOT NULL,
	turn         INTEGER NOT NULL,
	trigger_type TEXT NOT NULL,
	signals_json TEXT,
	decision     TEXT NOT NULL,
	reason       TEXT,
	created_at   TEXT NOT NULL,
	FOREIGN KEY (session_id) REFERENCES sessions(session_id)
);
`

// #endregion schema

// #region store-struct
// Store manages negotiation transcripts in SQLite.
type Store struct {
	db *sql.DB
}

// #endregion store-struct

// #region constructor
// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	return newStore(db)
}

// newStore prepares db for use. db is closed if any step fails.
func newStore(db *sql.DB) (*Store, error) {
	// Pragmas are per connection; keep a single one so they hold for every query.
	db.SetMaxOpenConns(1)
	if err := initialize(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func initialize(db *sql.DB) error {
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use by other packages (e.g. logging).
func (s *Store) DB() *sql.DB {
	return s.db
}

// #endregion constructor

// #region create-session
// CreateSession inserts a new open session.
func (s *Store) CreateSession(rec SessionRecord) error {
	if rec.StartedAt.IsZero() {
		rec.StartedAt = time.Now().UTC()
	}
	_, err := s.db.Exec(
		`INSERT INTO sessions (session_id, domain, profile_json, config_json, started_at)
		 VALUES (?, ?, ?, ?, ?)`,
		rec.SessionID, rec.Domain, rec.ProfileJSON, nullIfEmpty(rec.ConfigJSON),
		formatTime(rec.StartedAt),
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// #endregion create-session

// #region record-turn
// RecordTurn stores one turn, then its decision log row.
func (s *Store) RecordTurn(rec TurnRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	accepted := 0
	decision := "counter"
	if rec.Accepted {
		accepted = 1
		decision = "accept"
	}
	trigger := "opponent_offer"
	if rec.ReceivedJSON == "" {
		trigger = "open"
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO turns (session_id, turn, norm_time, received_json, received_utility,
		                    counter_json, counter_utility, target, accepted, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.SessionID, rec.Turn, rec.Time, nullIfEmpty(rec.ReceivedJSON), rec.ReceivedUtility,
		nullIfEmpty(rec.CounterJSON), rec.CounterUtility, rec.Target, accepted,
		formatTime(rec.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert turn: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	return logging.LogDecision(s.db, logging.DecisionEntry{
		SessionID:   rec.SessionID,
		Turn:        rec.Turn,
		TriggerType: trigger,
		SignalsJSON: rec.SignalsJSON,
		Decision:    decision,
		Reason:      rec.Reason,
		CreatedAt:   rec.CreatedAt,
	})
}

// #endregion record-turn

// #region end-session
// EndSession marks a session as finished.
func (s *Store) EndSession(sessionID string, end SessionEnd) error {
	if end.EndedAt.IsZero() {
		end.EndedAt = time.Now().UTC()
	}
	res, err := s.db.Exec(
		`UPDATE sessions SET ended_at = ?, outcome = ?, agreement_json = ?, agreement_utility = ?
		 WHERE session_id = ? AND ended_at IS NULL`,
		formatTime(end.EndedAt), end.Outcome, nullIfEmpty(end.AgreementJSON),
		end.AgreementUtility, sessionID,
	)
	if err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("end session %s: %w", sessionID, ErrNotFound)
	}
	return nil
}

// #endregion end-session

// #region get-session
const sessionColumns = `session_id, domain, profile_json, config_json, started_at,
	ended_at, outcome, agreement_json, agreement_utility`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (SessionRecord, error) {
	var rec SessionRecord
	var configJSON, endedAt, outcome, agreement sql.NullString
	var agreementUtil sql.NullFloat64
	var startedAt string
	if err := row.Scan(&rec.SessionID, &rec.Domain, &rec.ProfileJSON, &configJSON, &startedAt,
		&endedAt, &outcome, &agreement, &agreementUtil); err != nil {
		return SessionRecord{}, err
	}
	rec.ConfigJSON = configJSON.String
	rec.StartedAt, _ = time.Parse(time.RFC3339Nano, startedAt)
	if endedAt.Valid {
		rec.EndedAt, _ = time.Parse(time.RFC3339Nano, endedAt.String)
	}
	rec.Outcome = outcome.String
	rec.AgreementJSON = agreement.String
	rec.AgreementUtility = agreementUtil.Float64
	return rec, nil
}

// GetSession retrieves one session by ID.
func (s *Store) GetSession(sessionID string) (SessionRecord, error) {
	rec, err := scanSession(s.db.QueryRow(
		`SELECT `+sessionColumns+` FROM sessions WHERE session_id = ?`, sessionID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return SessionRecord{}, fmt.Errorf("get session %s: %w", sessionID, ErrNotFound)
	}
	if err != nil {
		return SessionRecord{}, fmt.Errorf("get session %s: %w", sessionID, err)
	}
	return rec, nil
}

// ListSessions returns the most recently started sessions.
func (s *Store) ListSessions(limit int) ([]SessionRecord, error) {
	rows, err := s.db.Query(
		`SELECT `+sessionColumns+` FROM sessions ORDER BY started_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionRecord
	for rows.Next() {
		rec, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// #endregion get-session

// #region list-turns
// ListTurns returns a session's turns in order, joined with their decision log.
func (s *Store) ListTurns(sessionID string) ([]TurnRecord, error) {
	rows, err := s.db.Query(
		`SELECT t.session_id, t.turn, t.norm_time, t.received_json, t.received_utility,
		        t.counter_json, t.counter_utility, t.target, t.accepted, t.created_at,
		        d.reason, d.signals_json
		 FROM turns t
		 LEFT JOIN decision_log d ON d.session_id = t.session_id AND d.turn = t.turn
		 WHERE t.session_id = ? ORDER BY t.turn ASC`, sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list turns: %w", err)
	}
	defer rows.Close()

	var out []TurnRecord
	for rows.Next() {
		var rec TurnRecord
		var received, counter, reason, signals sql.NullString
		var accepted int
		var createdAt string
		if err := rows.Scan(&rec.SessionID, &rec.Turn, &rec.Time, &received, &rec.ReceivedUtility,
			&counter, &rec.CounterUtility, &rec.Target, &accepted, &createdAt,
			&reason, &signals); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		rec.ReceivedJSON = received.String
		rec.CounterJSON = counter.String
		rec.Accepted = accepted == 1
		rec.Reason = reason.String
		rec.SignalsJSON = signals.String
		rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// #endregion list-turns

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
