package snapshot

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/baitwatch/baitwatch/internal/logger"
	"github.com/baitwatch/baitwatch/internal/models"
	_ "modernc.org/sqlite"
)

// SQLiteStore persists snapshots and a detection audit log in SQLite.
// It implements Store with the same totality guarantees as MemoryStore:
// database errors on lookups are logged and surfaced as not-found.
type SQLiteStore struct {
	db   *sql.DB
	opts Options

	now func() time.Time
}

// NewSQLiteStore opens or creates the database at dbPath. An empty dbPath
// defaults to $TMPDIR/baitwatch/snapshots.db; ":memory:" is accepted for
// tests.
func NewSQLiteStore(dbPath string, opts Options) (*SQLiteStore, error) {
	if dbPath == "" {
		dbPath = filepath.Join(os.TempDir(), "baitwatch", "snapshots.db")
	}
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // single writer; WAL allows concurrent readers
	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}
	s := &SQLiteStore{db: db, opts: opts, now: time.Now}
	if err := s.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) createTables() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS snapshots (
			session_id  TEXT NOT NULL,
			product_id  TEXT NOT NULL,
			captured_at INTEGER NOT NULL,
			price       REAL NOT NULL,
			description TEXT NOT NULL,
			attributes  TEXT NOT NULL DEFAULT '{}',
			source_url  TEXT,
			agent_id    TEXT,
			PRIMARY KEY (session_id, product_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_captured_at ON snapshots(captured_at)`,
		`CREATE TABLE IF NOT EXISTS detections (
			id          TEXT PRIMARY KEY,
			session_id  TEXT NOT NULL,
			product_id  TEXT NOT NULL,
			flagged     INTEGER NOT NULL,
			changes     TEXT NOT NULL DEFAULT '{}',
			confidence  REAL NOT NULL,
			details     TEXT,
			degraded    INTEGER NOT NULL DEFAULT 0,
			detected_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_detections_session ON detections(session_id, detected_at)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) Put(sessionID, productID string, record models.ProductRecord, opts PutOptions) error {
	attrs, err := json.Marshal(record.Attributes)
	if err != nil {
		return fmt.Errorf("failed to marshal attributes: %w", err)
	}

	verb := `INSERT OR REPLACE`
	if s.opts.PreserveFirstView {
		verb = `INSERT OR IGNORE`
	}
	_, err = s.db.Exec(verb+` INTO snapshots
			(session_id, product_id, captured_at, price, description, attributes, source_url, agent_id)
		VALUES (?,?,?,?,?,?,?,?)`,
		sessionID, productID, s.now().UnixNano(),
		record.Price, record.Description, string(attrs),
		opts.SourceURL, opts.AgentID,
	)
	if err != nil {
		return fmt.Errorf("failed to store snapshot: %w", err)
	}
	logger.Info("snapshot stored: session %s, product %s", sessionID, productID)
	return nil
}

const snapshotCols = `session_id, product_id, captured_at, price, description, attributes, source_url, agent_id`

func scanSnapshot(scan func(...any) error) (*models.Snapshot, error) {
	var snap models.Snapshot
	var capturedAtNano int64
	var attrs string
	var sourceURL, agentID sql.NullString
	err := scan(
		&snap.SessionID, &snap.ProductID, &capturedAtNano,
		&snap.Record.Price, &snap.Record.Description, &attrs,
		&sourceURL, &agentID,
	)
	if err != nil {
		return nil, err
	}
	snap.Record.ProductID = snap.ProductID
	snap.CapturedAt = time.Unix(0, capturedAtNano)
	snap.SourceURL = sourceURL.String
	snap.AgentID = agentID.String
	if err := json.Unmarshal([]byte(attrs), &snap.Record.Attributes); err != nil {
		return nil, fmt.Errorf("failed to unmarshal attributes: %w", err)
	}
	return &snap, nil
}

func (s *SQLiteStore) Get(sessionID, productID string) (*models.Snapshot, bool) {
	row := s.db.QueryRow(`SELECT `+snapshotCols+` FROM snapshots WHERE session_id = ? AND product_id = ?`,
		sessionID, productID)
	snap, err := scanSnapshot(row.Scan)
	if err == sql.ErrNoRows {
		logger.Warn("snapshot not found: session %s, product %s", sessionID, productID)
		return nil, false
	}
	if err != nil {
		logger.Error("failed to load snapshot for session %s product %s: %v", sessionID, productID, err)
		return nil, false
	}
	return snap, true
}

func (s *SQLiteStore) ListForSession(sessionID string) []models.Snapshot {
	rows, err := s.db.Query(`SELECT `+snapshotCols+` FROM snapshots WHERE session_id = ?`, sessionID)
	if err != nil {
		logger.Error("failed to query snapshots for session %s: %v", sessionID, err)
		return nil
	}
	defer rows.Close()

	var out []models.Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows.Scan)
		if err != nil {
			logger.Error("failed to scan snapshot: %v", err)
			return out
		}
		out = append(out, *snap)
	}
	if err := rows.Err(); err != nil {
		logger.Error("failed to iterate snapshots: %v", err)
	}
	return out
}

func (s *SQLiteStore) Remove(sessionID, productID string) bool {
	res, err := s.db.Exec(`DELETE FROM snapshots WHERE session_id = ? AND product_id = ?`,
		sessionID, productID)
	if err != nil {
		logger.Error("failed to remove snapshot: %v", err)
		return false
	}
	n, _ := res.RowsAffected()
	return n > 0
}

func (s *SQLiteStore) SweepExpired(maxAge time.Duration) int {
	cutoff := s.now().Add(-maxAge).UnixNano()
	res, err := s.db.Exec(`DELETE FROM snapshots WHERE captured_at < ?`, cutoff)
	if err != nil {
		logger.Error("failed to sweep snapshots: %v", err)
		return 0
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		logger.Info("swept %d expired snapshots", n)
	}
	return int(n)
}

// RecordResult appends a detection verdict to the audit log.
func (s *SQLiteStore) RecordResult(result *models.DetectionResult) error {
	changes, err := json.Marshal(result.Changes)
	if err != nil {
		return fmt.Errorf("failed to marshal changes: %w", err)
	}
	_, err = s.db.Exec(`INSERT INTO detections
			(id, session_id, product_id, flagged, changes, confidence, details, degraded, detected_at)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		result.ID, result.SessionID, result.ProductID,
		boolToInt(result.IsFlagged), string(changes), result.Confidence,
		result.Details, boolToInt(result.Degraded), result.Timestamp.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert detection: %w", err)
	}
	return nil
}

// ResultsForSession returns the audited detection verdicts of a session in
// detection order.
func (s *SQLiteStore) ResultsForSession(sessionID string) ([]models.DetectionResult, error) {
	rows, err := s.db.Query(`SELECT id, session_id, product_id, flagged, changes, confidence, details, degraded, detected_at
		FROM detections WHERE session_id = ? ORDER BY detected_at`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query detections: %w", err)
	}
	defer rows.Close()

	var results []models.DetectionResult
	for rows.Next() {
		var r models.DetectionResult
		var flagged, degraded int
		var changes string
		var detectedAtNano int64
		if err := rows.Scan(&r.ID, &r.SessionID, &r.ProductID, &flagged, &changes,
			&r.Confidence, &r.Details, &degraded, &detectedAtNano); err != nil {
			return nil, fmt.Errorf("failed to scan detection: %w", err)
		}
		if err := json.Unmarshal([]byte(changes), &r.Changes); err != nil {
			return nil, fmt.Errorf("failed to unmarshal changes: %w", err)
		}
		r.IsFlagged = flagged != 0
		r.Degraded = degraded != 0
		r.Timestamp = time.Unix(0, detectedAtNano)
		results = append(results, r)
	}
	return results, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
