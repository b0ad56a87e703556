// Package store persists candidate signals, feedback events and
// per-channel learning weights in a local SQLite database.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/EslamH-coder/ContentDNA-sub003/internal/learning"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

type Store struct {
	readDB  *sql.DB
	writeDB *sql.DB

	// weightsMu serializes weight read-modify-write cycles. Learning
	// updates are per-channel last-writer-wins without it.
	weightsMu sync.Mutex
}

func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating store dir: %w", err)
	}

	writeDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening write db: %w", err)
	}
	writeDB.SetMaxOpenConns(1)

	readDB, err := sql.Open("sqlite", dbPath+"?mode=ro")
	if err != nil {
		writeDB.Close()
		return nil, fmt.Errorf("opening read db: %w", err)
	}

	s := &Store{readDB: readDB, writeDB: writeDB}
	if err := s.init(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) init() error {
	_, err := s.writeDB.Exec(`
		CREATE TABLE IF NOT EXISTS signals (
			id         TEXT PRIMARY KEY,
			channel    TEXT NOT NULL,
			title      TEXT NOT NULL,
			summary    TEXT NOT NULL DEFAULT '',
			topic_id   TEXT NOT NULL DEFAULT '',
			source     TEXT NOT NULL DEFAULT '',
			url        TEXT NOT NULL DEFAULT '',
			published  DATETIME NOT NULL,
			fetched_at DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_signals_published ON signals(published DESC);
		CREATE INDEX IF NOT EXISTS idx_signals_channel ON signals(channel);

		CREATE TABLE IF NOT EXISTS feedback_events (
			id         TEXT PRIMARY KEY,
			channel    TEXT NOT NULL,
			action     TEXT NOT NULL,
			topic      TEXT NOT NULL,
			reason     TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_feedback_channel ON feedback_events(channel);

		CREATE TABLE IF NOT EXISTS channel_weights (
			channel    TEXT PRIMARY KEY,
			weights    TEXT NOT NULL,
			updated_at DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("initializing schema: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	var errs []error
	if s.readDB != nil {
		errs = append(errs, s.readDB.Close())
	}
	if s.writeDB != nil {
		errs = append(errs, s.writeDB.Close())
	}
	for _, e := range errs {
		if e != nil {
			return e
		}
	}
	return nil
}

func (s *Store) UpsertSignals(signals []Signal) error {
	tx, err := s.writeDB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO signals (id, channel, title, summary, topic_id, source, url, published, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			summary = excluded.summary,
			url = excluded.url,
			fetched_at = excluded.fetched_at
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, sig := range signals {
		_, err := stmt.Exec(sig.ID, sig.Channel, sig.Title, sig.Summary, sig.TopicID, sig.Source, sig.URL, sig.Published, sig.FetchedAt)
		if err != nil {
			return fmt.Errorf("upserting signal %s: %w", sig.ID, err)
		}
	}

	return tx.Commit()
}

func (s *Store) GetSignals(opts QueryOpts) ([]Signal, error) {
	var (
		where []string
		args  []interface{}
	)

	if opts.Channel != "" {
		where = append(where, "channel = ?")
		args = append(args, opts.Channel)
	}
	if !opts.Since.IsZero() {
		where = append(where, "published >= ?")
		args = append(args, opts.Since)
	}
	if opts.Search != "" {
		where = append(where, "(title LIKE ? OR summary LIKE ?)")
		term := "%" + opts.Search + "%"
		args = append(args, term, term)
	}

	query := "SELECT id, channel, title, summary, topic_id, source, url, published, fetched_at FROM signals"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY published DESC"

	limit := opts.Limit
	if limit <= 0 {
		limit = 500
	}
	query += fmt.Sprintf(" LIMIT %d", limit)

	rows, err := s.readDB.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying signals: %w", err)
	}
	defer rows.Close()

	var signals []Signal
	for rows.Next() {
		var sig Signal
		if err := rows.Scan(&sig.ID, &sig.Channel, &sig.Title, &sig.Summary, &sig.TopicID, &sig.Source, &sig.URL, &sig.Published, &sig.FetchedAt); err != nil {
			return nil, fmt.Errorf("scanning signal: %w", err)
		}
		signals = append(signals, sig)
	}
	return signals, rows.Err()
}

// RecordFeedback stores one feedback event. Events are append-only;
// hide state and weights are derived from them.
func (s *Store) RecordFeedback(channel, action, topic, reason string) (string, error) {
	id := uuid.NewString()
	_, err := s.writeDB.Exec(`
		INSERT INTO feedback_events (id, channel, action, topic, reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, id, channel, action, topic, reason, time.Now())
	if err != nil {
		return "", fmt.Errorf("recording feedback: %w", err)
	}
	return id, nil
}

func (s *Store) FeedbackEvents(channel string) ([]learning.Event, error) {
	rows, err := s.readDB.Query(`
		SELECT action, topic, created_at FROM feedback_events
		WHERE channel = ? ORDER BY created_at
	`, channel)
	if err != nil {
		return nil, fmt.Errorf("querying feedback: %w", err)
	}
	defer rows.Close()

	var events []learning.Event
	for rows.Next() {
		var ev learning.Event
		if err := rows.Scan(&ev.Action, &ev.Topic, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning feedback event: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// LoadWeights returns the channel's learned weights, or a fresh empty
// set when none are stored yet.
func (s *Store) LoadWeights(channel string) (*learning.Weights, error) {
	var raw string
	err := s.readDB.QueryRow("SELECT weights FROM channel_weights WHERE channel = ?", channel).Scan(&raw)
	if err == sql.ErrNoRows {
		return learning.NewWeights(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading weights: %w", err)
	}

	w := learning.NewWeights()
	if err := json.Unmarshal([]byte(raw), w); err != nil {
		return nil, fmt.Errorf("decoding weights: %w", err)
	}
	return w, nil
}

func (s *Store) saveWeights(channel string, w *learning.Weights) error {
	raw, err := json.Marshal(w)
	if err != nil {
		return fmt.Errorf("encoding weights: %w", err)
	}
	_, err = s.writeDB.Exec(`
		INSERT INTO channel_weights (channel, weights, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(channel) DO UPDATE SET weights = excluded.weights, updated_at = excluded.updated_at
	`, channel, string(raw), time.Now())
	return err
}

// UpdateWeights runs a read-modify-write cycle on a channel's weights
// under the single-writer lock.
func (s *Store) UpdateWeights(channel string, fn func(*learning.Weights) error) error {
	s.weightsMu.Lock()
	defer s.weightsMu.Unlock()

	w, err := s.LoadWeights(channel)
	if err != nil {
		return err
	}
	if err := fn(w); err != nil {
		return err
	}
	return s.saveWeights(channel, w)
}

func (s *Store) Prune(retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	res, err := s.writeDB.Exec("DELETE FROM signals WHERE published < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("pruning signals: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if _, err := s.writeDB.Exec("VACUUM"); err != nil {
		return n, fmt.Errorf("vacuuming: %w", err)
	}
	return n, nil
}

func (s *Store) Stats(dbPath string) (int, int64, error) {
	var count int
	if err := s.readDB.QueryRow("SELECT COUNT(*) FROM signals").Scan(&count); err != nil {
		return 0, 0, err
	}
	info, err := os.Stat(dbPath)
	if err != nil {
		return count, 0, err
	}
	return count, info.Size(), nil
}

func (s *Store) NeedsRefresh(interval time.Duration) bool {
	var value string
	err := s.readDB.QueryRow("SELECT value FROM meta WHERE key = 'last_refresh'").Scan(&value)
	if err != nil {
		return true
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return true
	}
	return time.Since(t) > interval
}

func (s *Store) SetLastRefresh() error {
	_, err := s.writeDB.Exec(`
		INSERT INTO meta (key, value) VALUES ('last_refresh', ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, time.Now().Format(time.RFC3339))
	return err
}
