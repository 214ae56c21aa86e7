package store

import (
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/danielpatrickdp/symbol-drift/go-controller/internal/config"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id       TEXT PRIMARY KEY,
	parent_id    TEXT,
	seed         INTEGER NOT NULL,
	config_json  TEXT NOT NULL,
	created_at   TEXT NOT NULL,
	finished_at  TEXT,
	final_step   INTEGER,
	summary_json TEXT,
	FOREIGN KEY (parent_id) REFERENCES runs(run_id)
);

CREATE TABLE IF NOT EXISTS steps (
	run_id     TEXT NOT NULL,
	step       INTEGER NOT NULL,
	drift      REAL NOT NULL,
	alignment  REAL NOT NULL,
	decayed    INTEGER NOT NULL,
	degenerate INTEGER NOT NULL,
	PRIMARY KEY (run_id, step),
	FOREIGN KEY (run_id) REFERENCES runs(run_id)
);

CREATE TABLE IF NOT EXISTS communications (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id       TEXT NOT NULL,
	step         INTEGER NOT NULL,
	sender       INTEGER NOT NULL,
	receiver     INTEGER NOT NULL,
	sequence     TEXT NOT NULL,
	success      INTEGER NOT NULL,
	avg_distance REAL NOT NULL,
	trust_before REAL NOT NULL,
	FOREIGN KEY (run_id) REFERENCES runs(run_id)
);

CREATE TABLE IF NOT EXISTS context_shifts (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id     TEXT NOT NULL,
	step       INTEGER NOT NULL,
	kind       TEXT NOT NULL,
	symbol     TEXT,
	created_at TEXT NOT NULL,
	FOREIGN KEY (run_id) REFERENCES runs(run_id)
);

CREATE TABLE IF NOT EXISTS syntax_patterns (
	run_id      TEXT NOT NULL,
	pattern_key TEXT NOT NULL,
	sequence    TEXT NOT NULL,
	count       INTEGER NOT NULL,
	PRIMARY KEY (run_id, pattern_key),
	FOREIGN KEY (run_id) REFERENCES runs(run_id)
);

CREATE TABLE IF NOT EXISTS agent_meanings (
	run_id       TEXT NOT NULL,
	agent_id     INTEGER NOT NULL,
	agent_name   TEXT NOT NULL,
	symbol_index INTEGER NOT NULL,
	symbol       TEXT NOT NULL,
	vector       BLOB NOT NULL,
	confidence   REAL NOT NULL,
	usage_count  INTEGER NOT NULL,
	last_used    INTEGER NOT NULL,
	success_rate REAL NOT NULL,
	PRIMARY KEY (run_id, agent_id, symbol_index),
	FOREIGN KEY (run_id) REFERENCES runs(run_id)
);

CREATE INDEX IF NOT EXISTS idx_communications_run ON communications(run_id, step);
CREATE INDEX IF NOT EXISTS idx_context_shifts_run ON context_shifts(run_id, step);
`

// #endregion schema

// timeLayout is fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// #region store-struct

// Store records simulation runs in SQLite.
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
	// pragmas are per connection
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB.
func (s *Store) DB() *sql.DB {
	return s.db
}

// #endregion constructor

// #region runs

// CreateRun registers a new run and returns its id. parentID links a run
// that continues another after a reset; pass "" for a fresh run.
func (s *Store) CreateRun(cfg config.Config, parentID string) (string, error) {
	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("marshal config: %w", err)
	}
	id := uuid.New().String()

	var parent any
	if parentID != "" {
		parent = parentID
	}
	_, err = s.db.Exec(
		`INSERT INTO runs (run_id, parent_id, seed, config_json, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, parent, int64(cfg.Seed), string(cfgJSON), time.Now().UTC().Format(timeLayout),
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	return id, nil
}

const runColumns = `r.run_id, r.parent_id, r.seed, r.config_json, r.created_at, r.finished_at, r.final_step, r.summary_json,
	(SELECT COUNT(*) FROM steps st WHERE st.run_id = r.run_id)`

// GetRun loads one run.
func (s *Store) GetRun(id string) (Run, error) {
	row := s.db.QueryRow(`SELECT `+runColumns+` FROM runs r WHERE r.run_id = ?`, id)
	run, err := scanRun(row)
	if err != nil {
		return Run{}, fmt.Errorf("get run %s: %w", id, err)
	}
	return run, nil
}

// ListRuns returns the most recent runs, newest first. limit <= 0 lists all.
func (s *Store) ListRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(`SELECT `+runColumns+` FROM runs r ORDER BY r.created_at DESC, r.rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var (
		run         Run
		parentID    sql.NullString
		seed        int64
		cfgJSON     string
		createdStr  string
		finishedStr sql.NullString
		finalStep   sql.NullInt64
		summaryJSON sql.NullString
	)
	if err := row.Scan(&run.ID, &parentID, &seed, &cfgJSON, &createdStr, &finishedStr, &finalStep, &summaryJSON, &run.Steps); err != nil {
		return Run{}, err
	}
	run.ParentID = parentID.String
	run.Seed = uint64(seed)
	if err := json.Unmarshal([]byte(cfgJSON), &run.Config); err != nil {
		return Run{}, fmt.Errorf("unmarshal config: %w", err)
	}
	created, err := time.Parse(timeLayout, createdStr)
	if err != nil {
		return Run{}, fmt.Errorf("parse created_at: %w", err)
	}
	run.CreatedAt = created
	if finishedStr.Valid {
		finished, err := time.Parse(timeLayout, finishedStr.String)
		if err != nil {
			return Run{}, fmt.Errorf("parse finished_at: %w", err)
		}
		run.FinishedAt = finished
	}
	run.FinalStep = int(finalStep.Int64)
	if summaryJSON.Valid {
		run.SummaryJSON = summaryJSON.String
	}
	return run, nil
}

// #endregion runs

// #region vector-encoding

func encodeVector(v []float64) []byte {
	buf := make([]byte, len(v)*8)
	for i, f := range v {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(f))
	}
	return buf
}

func decodeVector(b []byte) []float64 {
	v := make([]float64, len(b)/8)
	for i := range v {
		v[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[i*8:]))
	}
	return v
}

// #endregion vector-encoding
