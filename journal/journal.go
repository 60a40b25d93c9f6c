// Package journal archives completed learning sessions to SQLite so an
// operator can inspect what the engine actually learned from. The pattern
// store keeps only aggregates; the journal keeps the raw action sequence.
package journal

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"understudy/pattern"
)

// Journal wraps a SQLite connection for session archiving.
type Journal struct {
	db *sqlx.DB
}

// Open opens or creates the journal database at the given path.
func Open(path string) (*Journal, error) {
	db, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}

	j := &Journal{db: db}
	if err := j.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate journal: %w", err)
	}
	return j, nil
}

// Close closes the underlying database.
func (j *Journal) Close() error { return j.db.Close() }

func (j *Journal) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		started_at TEXT NOT NULL,
		stopped_at TEXT NOT NULL,
		action_count INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS actions (
		session_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		type TEXT NOT NULL,
		offset_seconds REAL NOT NULL,
		pos_x INTEGER,
		pos_y INTEGER,
		target_x INTEGER,
		target_y INTEGER,
		resource_type TEXT NOT NULL DEFAULT '',
		ability TEXT NOT NULL DEFAULT '',
		success_rate REAL NOT NULL,
		success INTEGER NOT NULL,
		metadata_json TEXT NOT NULL DEFAULT '{}',
		PRIMARY KEY (session_id, seq)
	);`

	_, err := j.db.Exec(schema)
	return err
}

// SessionRow is one archived session header.
type SessionRow struct {
	ID          string `db:"id"`
	StartedAt   string `db:"started_at"`
	StoppedAt   string `db:"stopped_at"`
	ActionCount int    `db:"action_count"`
}

// ActionRow is one archived action. Timestamps are stored as seconds since
// session start; absolute monotonic readings are meaningless across runs.
type ActionRow struct {
	SessionID     string  `db:"session_id"`
	Seq           int     `db:"seq"`
	Type          string  `db:"type"`
	OffsetSeconds float64 `db:"offset_seconds"`
	PosX          *int    `db:"pos_x"`
	PosY          *int    `db:"pos_y"`
	TargetX       *int    `db:"target_x"`
	TargetY       *int    `db:"target_y"`
	ResourceType  string  `db:"resource_type"`
	Ability       string  `db:"ability"`
	SuccessRate   float64 `db:"success_rate"`
	Success       bool    `db:"success"`
	MetadataJSON  string  `db:"metadata_json"`
}

// Archive writes one completed session and its full action buffer.
func (j *Journal) Archive(id string, startedAt, stoppedAt time.Time, actions []pattern.ActionRecord) error {
	tx, err := j.db.Beginx()
	if err != nil {
		return fmt.Errorf("begin archive: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO sessions (id, started_at, stopped_at, action_count) VALUES (?, ?, ?, ?)`,
		id, startedAt.Format(time.RFC3339Nano), stoppedAt.Format(time.RFC3339Nano), len(actions),
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}

	for seq, a := range actions {
		row := ActionRow{
			SessionID:     id,
			Seq:           seq,
			Type:          string(a.Type),
			OffsetSeconds: a.At.Sub(startedAt).Seconds(),
			ResourceType:  a.ResourceType,
			Ability:       a.Ability,
			SuccessRate:   a.SuccessRate,
			Success:       a.Success,
			MetadataJSON:  "{}",
		}
		if a.Position != nil {
			row.PosX, row.PosY = &a.Position.X, &a.Position.Y
		}
		if a.TargetPosition != nil {
			row.TargetX, row.TargetY = &a.TargetPosition.X, &a.TargetPosition.Y
		}
		if len(a.Metadata) > 0 {
			payload, err := json.Marshal(a.Metadata)
			if err != nil {
				return fmt.Errorf("marshal metadata: %w", err)
			}
			row.MetadataJSON = string(payload)
		}

		_, err = tx.NamedExec(`INSERT INTO actions
			(session_id, seq, type, offset_seconds, pos_x, pos_y, target_x, target_y,
			 resource_type, ability, success_rate, success, metadata_json)
			VALUES
			(:session_id, :seq, :type, :offset_seconds, :pos_x, :pos_y, :target_x, :target_y,
			 :resource_type, :ability, :success_rate, :success, :metadata_json)`, row)
		if err != nil {
			return fmt.Errorf("insert action %d: %w", seq, err)
		}
	}

	return tx.Commit()
}

// Sessions lists archived session headers, most recent first.
func (j *Journal) Sessions() ([]SessionRow, error) {
	var out []SessionRow
	err := j.db.Select(&out, `SELECT id, started_at, stopped_at, action_count FROM sessions ORDER BY started_at DESC`)
	return out, err
}

// Actions returns one session's archived actions in recorded order.
func (j *Journal) Actions(sessionID string) ([]ActionRow, error) {
	var out []ActionRow
	err := j.db.Select(&out, `SELECT session_id, seq, type, offset_seconds, pos_x, pos_y,
		target_x, target_y, resource_type, ability, success_rate, success, metadata_json
		FROM actions WHERE session_id = ? ORDER BY seq`, sessionID)
	return out, err
}
