package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/faucetdb/crudgen/internal/model"
)

// ErrNotFound is returned when a session, or a value in it, does not exist.
var ErrNotFound = errors.New("not found")

// Store keeps per-visitor state in SQLite.
type Store struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewStore opens the session database. Pass an empty dataDir for an
// in-memory store; sessions then disappear on restart.
func NewStore(dataDir string) (*Store, error) {
	var dsn string
	if dataDir == "" {
		dsn = ":memory:?_pragma=foreign_keys(1)"
	} else {
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		dsn = filepath.Join(dataDir, "sessions.db") +
			"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sqlx.Connect("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open session database: %w", err)
	}

	// One connection: SQLite serializes writes, and :memory: is per connection.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, now: func() time.Time { return time.Now().UTC() }}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate session database: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// ---------------------------------------------------------------------------
// Session lifecycle
// ---------------------------------------------------------------------------

// Create starts a new empty session and returns its ID (a UUID v7).
func (s *Store) Create(ctx context.Context) (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate session id: %w", err)
	}
	now := s.now()
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO sessions (id, created_at, last_seen) VALUES (?, ?, ?)",
		id.String(), now, now)
	if err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	return id.String(), nil
}

// Touch marks the session as seen now.
func (s *Store) Touch(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "UPDATE sessions SET last_seen = ? WHERE id = ?", s.now(), id)
	if err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	return requireRow(result)
}

// Delete removes a session and everything stored in it.
func (s *Store) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return requireRow(result)
}

// Reset clears every value in a session but keeps the session itself.
func (s *Store) Reset(ctx context.Context, id string) error {
	if err := s.exists(ctx, id); err != nil {
		return err
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("reset session: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"session_slots", "history", "pending_columns", "logical_relationships"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE session_id = ?", id); err != nil {
			return fmt.Errorf("reset session (%s): %w", table, err)
		}
	}
	return tx.Commit()
}

// DeleteExpired removes sessions not seen since before.
func (s *Store) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE last_seen < ?", before.UTC())
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return result.RowsAffected()
}

// Get loads the complete state of a session.
func (s *Store) Get(ctx context.Context, id string) (*model.SessionState, error) {
	var row struct {
		ID        string    `db:"id"`
		CreatedAt time.Time `db:"created_at"`
		LastSeen  time.Time `db:"last_seen"`
	}
	if err := s.db.GetContext(ctx, &row, "SELECT id, created_at, last_seen FROM sessions WHERE id = ?", id); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	state := &model.SessionState{
		ID:            row.ID,
		CreatedAt:     row.CreatedAt,
		LastSeen:      row.LastSeen,
		Columns:       map[model.Slot]model.ColumnSet{},
		GeneratedCode: map[model.Slot]string{},
	}

	slots, err := s.slots(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, sr := range slots {
		slot := model.Slot(sr.Slot)
		if sr.TableName != "" {
			set, err := sr.columnSet()
			if err != nil {
				return nil, err
			}
			state.Columns[slot] = set
		}
		if sr.GeneratedCode != "" {
			state.GeneratedCode[slot] = sr.GeneratedCode
		}
	}

	if state.PendingColumns, err = s.PendingColumns(ctx, id); err != nil {
		return nil, err
	}
	if state.LogicalRelationships, err = s.Relationships(ctx, id); err != nil {
		return nil, err
	}
	if state.History, err = s.History(ctx, id); err != nil {
		return nil, err
	}
	return state, nil
}

// ---------------------------------------------------------------------------
// Slots: fetched columns and generated code
// ---------------------------------------------------------------------------

type slotRow struct {
	Slot              string `db:"slot"`
	TableName         string `db:"table_name"`
	ColumnsJSON       string `db:"columns_json"`
	RelationshipsJSON string `db:"relationships_json"`
	GeneratedCode     string `db:"generated_code"`
	Framework         string `db:"framework"`
}

func (r slotRow) columnSet() (model.ColumnSet, error) {
	set := model.ColumnSet{Table: r.TableName}
	if err := json.Unmarshal([]byte(r.ColumnsJSON), &set.Columns); err != nil {
		return set, fmt.Errorf("decode columns of slot %q: %w", r.Slot, err)
	}
	if err := json.Unmarshal([]byte(r.RelationshipsJSON), &set.Relationships); err != nil {
		return set, fmt.Errorf("decode relationships of slot %q: %w", r.Slot, err)
	}
	return set, nil
}

func (s *Store) slots(ctx context.Context, id string) ([]slotRow, error) {
	var rows []slotRow
	const q = `SELECT slot, table_name, columns_json, relationships_json, generated_code, framework
		FROM session_slots WHERE session_id = ? ORDER BY slot`
	if err := s.db.SelectContext(ctx, &rows, q, id); err != nil {
		return nil, fmt.Errorf("load slots: %w", err)
	}
	return rows, nil
}

// SetColumns stores the columns fetched for a slot, replacing any previous
// table in that slot.
func (s *Store) SetColumns(ctx context.Context, id string, slot model.Slot, set model.ColumnSet) error {
	if err := s.exists(ctx, id); err != nil {
		return err
	}
	cols := set.Columns
	if cols == nil {
		cols = []string{}
	}
	rel := set.Relationships
	if rel == nil {
		rel = map[string]string{}
	}
	colsJSON, err := json.Marshal(cols)
	if err != nil {
		return err
	}
	relJSON, err := json.Marshal(rel)
	if err != nil {
		return err
	}

	const q = `INSERT INTO session_slots (session_id, slot, table_name, columns_json, relationships_json)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (session_id, slot) DO UPDATE SET
			table_name = excluded.table_name,
			columns_json = excluded.columns_json,
			relationships_json = excluded.relationships_json`
	if _, err := s.db.ExecContext(ctx, q, id, string(slot), set.Table, string(colsJSON), string(relJSON)); err != nil {
		return fmt.Errorf("set columns: %w", err)
	}
	return nil
}

// Columns returns the columns fetched into a slot, or ErrNotFound when the
// slot is empty.
func (s *Store) Columns(ctx context.Context, id string, slot model.Slot) (model.ColumnSet, error) {
	row, err := s.slot(ctx, id, slot)
	if err != nil {
		return model.ColumnSet{}, err
	}
	if row.TableName == "" {
		return model.ColumnSet{}, ErrNotFound
	}
	return row.columnSet()
}

// SetGeneratedCode stores the latest generated code for a slot.
func (s *Store) SetGeneratedCode(ctx context.Context, id string, slot model.Slot, framework, code string) error {
	if err := s.exists(ctx, id); err != nil {
		return err
	}
	const q = `INSERT INTO session_slots (session_id, slot, generated_code, framework)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (session_id, slot) DO UPDATE SET
			generated_code = excluded.generated_code,
			framework = excluded.framework`
	if _, err := s.db.ExecContext(ctx, q, id, string(slot), code, framework); err != nil {
		return fmt.Errorf("set generated code: %w", err)
	}
	return nil
}

// GeneratedCode returns the latest generated code for a slot, or ErrNotFound
// when nothing has been generated there.
func (s *Store) GeneratedCode(ctx context.Context, id string, slot model.Slot) (string, error) {
	row, err := s.slot(ctx, id, slot)
	if err != nil {
		return "", err
	}
	if row.GeneratedCode == "" {
		return "", ErrNotFound
	}
	return row.GeneratedCode, nil
}

func (s *Store) slot(ctx context.Context, id string, slot model.Slot) (slotRow, error) {
	var row slotRow
	const q = `SELECT slot, table_name, columns_json, relationships_json, generated_code, framework
		FROM session_slots WHERE session_id = ? AND slot = ?`
	if err := s.db.GetContext(ctx, &row, q, id, string(slot)); err != nil {
		if err == sql.ErrNoRows {
			return row, ErrNotFound
		}
		return row, fmt.Errorf("load slot: %w", err)
	}
	return row, nil
}

// ---------------------------------------------------------------------------
// Conversation history
// ---------------------------------------------------------------------------

// AppendHistory records a generated blob. History is append-only.
func (s *Store) AppendHistory(ctx context.Context, id, framework, content string) (model.HistoryEntry, error) {
	if err := s.exists(ctx, id); err != nil {
		return model.HistoryEntry{}, err
	}
	entry := model.HistoryEntry{Framework: framework, Content: content, CreatedAt: s.now()}
	result, err := s.db.ExecContext(ctx,
		"INSERT INTO history (session_id, framework, content, created_at) VALUES (?, ?, ?, ?)",
		id, framework, content, entry.CreatedAt)
	if err != nil {
		return entry, fmt.Errorf("append history: %w", err)
	}
	entry.ID, err = result.LastInsertId()
	if err != nil {
		return entry, fmt.Errorf("append history id: %w", err)
	}
	return entry, nil
}

// History returns the session's entries, oldest first.
func (s *Store) History(ctx context.Context, id string) ([]model.HistoryEntry, error) {
	entries := []model.HistoryEntry{}
	const q = `SELECT id, framework, content, created_at FROM history WHERE session_id = ? ORDER BY id`
	if err := s.db.SelectContext(ctx, &entries, q, id); err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	return entries, nil
}

// ---------------------------------------------------------------------------
// Pending columns (schema editor)
// ---------------------------------------------------------------------------

type pendingRow struct {
	Name       string `db:"name"`
	Type       string `db:"type"`
	PrimaryKey bool   `db:"primary_key"`
}

// AddPendingColumn appends a column to the create-table list.
func (s *Store) AddPendingColumn(ctx context.Context, id string, col model.ColumnDef) error {
	if err := s.exists(ctx, id); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO pending_columns (session_id, name, type, primary_key) VALUES (?, ?, ?, ?)",
		id, col.Name, col.Type, col.PrimaryKey)
	if err != nil {
		return fmt.Errorf("add pending column: %w", err)
	}
	return nil
}

// PendingColumns returns the create-table list in insertion order.
func (s *Store) PendingColumns(ctx context.Context, id string) ([]model.ColumnDef, error) {
	var rows []pendingRow
	const q = `SELECT name, type, primary_key FROM pending_columns WHERE session_id = ? ORDER BY id`
	if err := s.db.SelectContext(ctx, &rows, q, id); err != nil {
		return nil, fmt.Errorf("load pending columns: %w", err)
	}
	cols := make([]model.ColumnDef, len(rows))
	for i, r := range rows {
		cols[i] = model.ColumnDef{Name: r.Name, Type: r.Type, PrimaryKey: r.PrimaryKey}
	}
	return cols, nil
}

// ClearPendingColumns empties the create-table list.
func (s *Store) ClearPendingColumns(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM pending_columns WHERE session_id = ?", id); err != nil {
		return fmt.Errorf("clear pending columns: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Logical relationships
// ---------------------------------------------------------------------------

type relationshipRow struct {
	FirstTable  string `db:"first_table"`
	SecondTable string `db:"second_table"`
	Type        string `db:"type"`
	Direction   string `db:"direction"`
}

// PutRelationship stores a relationship under its "first-second" key,
// replacing an earlier one for the same pair.
func (s *Store) PutRelationship(ctx context.Context, id string, rel model.LogicalRelationship) error {
	if err := s.exists(ctx, id); err != nil {
		return err
	}
	const q = `INSERT INTO logical_relationships
			(session_id, rel_key, first_table, second_table, type, direction)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (session_id, rel_key) DO UPDATE SET
			first_table = excluded.first_table,
			second_table = excluded.second_table,
			type = excluded.type,
			direction = excluded.direction`
	if _, err := s.db.ExecContext(ctx, q, id, rel.Key(), rel.FirstTable, rel.SecondTable, rel.Type, rel.Direction); err != nil {
		return fmt.Errorf("put relationship: %w", err)
	}
	return nil
}

// Relationships returns the session's logical relationships keyed by
// "first-second".
func (s *Store) Relationships(ctx context.Context, id string) (map[string]model.LogicalRelationship, error) {
	var rows []relationshipRow
	const q = `SELECT first_table, second_table, type, direction
		FROM logical_relationships WHERE session_id = ? ORDER BY rel_key`
	if err := s.db.SelectContext(ctx, &rows, q, id); err != nil {
		return nil, fmt.Errorf("load relationships: %w", err)
	}
	rels := make(map[string]model.LogicalRelationship, len(rows))
	for _, r := range rows {
		rel := model.LogicalRelationship(r)
		rels[rel.Key()] = rel
	}
	return rels, nil
}

// DeleteRelationship removes the relationship stored under key.
func (s *Store) DeleteRelationship(ctx context.Context, id, key string) error {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM logical_relationships WHERE session_id = ? AND rel_key = ?", id, key)
	if err != nil {
		return fmt.Errorf("delete relationship: %w", err)
	}
	return requireRow(result)
}

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

func (s *Store) exists(ctx context.Context, id string) error {
	var n int
	if err := s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM sessions WHERE id = ?", id); err != nil {
		return fmt.Errorf("lookup session: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func requireRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
