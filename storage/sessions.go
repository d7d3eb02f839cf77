// Package storage persists chat sessions and their turns in SQLite.
package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-runewidth"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"muhabbet/model"
)

//go:embed migrations/*.sql
var migrations embed.FS

// ErrNotFound is returned when a session or turn does not exist.
var ErrNotFound = errors.New("not found")

// MaxNameWidth is the display width session names are truncated to.
const MaxNameWidth = 40

// Session is the metadata of one conversation.
type Session struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	TurnCount int       `json:"turnCount"`
}

// Store is the SQLite-backed conversation store. It is safe for concurrent
// use; writes that read-then-modify a session are serialized.
type Store struct {
	db  *sql.DB
	mu  sync.Mutex
	now func() time.Time
}

var gooseOnce sync.Once

// Open opens (creating if needed) the database at path and runs migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection keeps writers from tripping over SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

func migrate(db *sql.DB) error {
	var setupErr error
	gooseOnce.Do(func() {
		goose.SetBaseFS(migrations)
		goose.SetLogger(goose.NopLogger())
		setupErr = goose.SetDialect("sqlite3")
	})
	if setupErr != nil {
		return fmt.Errorf("failed to set goose dialect: %w", setupErr)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("failed to run goose migrations: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateSession inserts a new, empty session.
func (s *Store) CreateSession(ctx context.Context, name string) (Session, error) {
	now := s.now()
	session := Session{
		ID:        uuid.New().String(),
		Name:      GenerateSessionName(name, now),
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, name, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		session.ID, session.Name, now.UnixNano(), now.UnixNano())
	if err != nil {
		return Session{}, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}

const sessionColumns = `s.id, s.name, s.created_at, s.updated_at,
	(SELECT COUNT(*) FROM turns t WHERE t.session_id = s.id)`

func scanSession(row interface{ Scan(...any) error }) (Session, error) {
	var (
		session          Session
		created, updated int64
	)
	if err := row.Scan(&session.ID, &session.Name, &created, &updated, &session.TurnCount); err != nil {
		return Session{}, err
	}
	session.CreatedAt = time.Unix(0, created)
	session.UpdatedAt = time.Unix(0, updated)
	return session, nil
}

// GetSession returns one session's metadata.
func (s *Store) GetSession(ctx context.Context, id string) (Session, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions s WHERE s.id = ?`, id)
	session, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Session{}, fmt.Errorf("failed to load session: %w", err)
	}
	return session, nil
}

// ListSessions returns all sessions, most recently updated first.
func (s *Store) ListSessions(ctx context.Context) ([]Session, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions s ORDER BY s.updated_at DESC, s.id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	sessions := []Session{}
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

// RenameSession updates the name of a session
func (s *Store) RenameSession(ctx context.Context, id, name string) (Session, error) {
	name = GenerateSessionName(name, s.now())
	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET name = ?, updated_at = ? WHERE id = ?`, name, s.now().UnixNano(), id)
	if err != nil {
		return Session{}, fmt.Errorf("failed to rename session: %w", err)
	}
	if err := expectRow(res, "session", id); err != nil {
		return Session{}, err
	}
	return s.GetSession(ctx, id)
}

// DeleteSession removes a session and its turns.
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM turns WHERE session_id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete turns: %w", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("failed to delete session: %w", err)
		}
		return expectRow(res, "session", id)
	})
}

// AppendTurns adds turns to the end of a session in order.
func (s *Store) AppendTurns(ctx context.Context, sessionID string, turns ...model.Turn) error {
	if len(turns) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := touchSession(ctx, tx, sessionID, s.now()); err != nil {
			return err
		}

		return insertTurns(ctx, tx, sessionID, turns)
	})
}

// insertTurns appends turns after the session's current last seq.
func insertTurns(ctx context.Context, tx *sql.Tx, sessionID string, turns []model.Turn) error {
	var next int64
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) FROM turns WHERE session_id = ?`, sessionID).Scan(&next); err != nil {
		return fmt.Errorf("failed to read turn sequence: %w", err)
	}

	for _, turn := range turns {
		next++
		content, err := model.MarshalContent(turn.Content)
		if err != nil {
			return fmt.Errorf("failed to encode turn %s: %w", turn.ID, err)
		}
		if turn.ID == "" {
			turn.ID = uuid.New().String()
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO turns (id, session_id, seq, role, content, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
			turn.ID, sessionID, next, string(turn.Role), string(content), turn.CreatedAt.UnixNano()); err != nil {
			return fmt.Errorf("failed to insert turn: %w", err)
		}
	}
	return nil
}

// Turns returns a session's turns in conversation order.
func (s *Store) Turns(ctx context.Context, sessionID string) ([]model.Turn, error) {
	if _, err := s.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, role, content, created_at FROM turns WHERE session_id = ? ORDER BY seq`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load turns: %w", err)
	}
	defer rows.Close()

	turns := []model.Turn{}
	for rows.Next() {
		var (
			turn    model.Turn
			role    string
			content string
			created int64
		)
		if err := rows.Scan(&turn.ID, &role, &content, &created); err != nil {
			return nil, fmt.Errorf("failed to scan turn: %w", err)
		}
		turn.Role = model.Role(role)
		turn.CreatedAt = time.Unix(0, created)
		turn.Content, err = model.UnmarshalContent([]byte(content))
		if err != nil {
			return nil, fmt.Errorf("failed to decode turn %s: %w", turn.ID, err)
		}
		turns = append(turns, turn)
	}
	return turns, rows.Err()
}

// DeleteTurn removes a single turn from a session.
func (s *Store) DeleteTurn(ctx context.Context, sessionID, turnID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM turns WHERE session_id = ? AND id = ?`, sessionID, turnID)
		if err != nil {
			return fmt.Errorf("failed to delete turn: %w", err)
		}
		if err := expectRow(res, "turn", turnID); err != nil {
			return err
		}
		return touchSession(ctx, tx, sessionID, s.now())
	})
}

// ReplaceAfter deletes every turn that follows turnID and appends turns in
// its place, in one transaction. It returns how many turns were removed.
func (s *Store) ReplaceAfter(ctx context.Context, sessionID, turnID string, turns ...model.Turn) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var seq int64
		err := tx.QueryRowContext(ctx,
			`SELECT seq FROM turns WHERE session_id = ? AND id = ?`, sessionID, turnID).Scan(&seq)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("turn %s: %w", turnID, ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to locate turn: %w", err)
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM turns WHERE session_id = ? AND seq > ?`, sessionID, seq)
		if err != nil {
			return fmt.Errorf("failed to truncate turns: %w", err)
		}
		removed, _ = res.RowsAffected()
		if err := touchSession(ctx, tx, sessionID, s.now()); err != nil {
			return err
		}
		return insertTurns(ctx, tx, sessionID, turns)
	})
	if err != nil {
		return 0, err
	}
	return int(removed), nil
}

// ClearTurns deletes all turns of a session, keeping the session itself.
func (s *Store) ClearTurns(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := touchSession(ctx, tx, sessionID, s.now()); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM turns WHERE session_id = ?`, sessionID); err != nil {
			return fmt.Errorf("failed to clear turns: %w", err)
		}
		return nil
	})
}

func touchSession(ctx context.Context, tx *sql.Tx, id string, now time.Time) error {
	res, err := tx.ExecContext(ctx, `UPDATE sessions SET updated_at = ? WHERE id = ?`, now.UnixNano(), id)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	return expectRow(res, "session", id)
}

func expectRow(res sql.Result, what, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", what, id, ErrNotFound)
	}
	return nil
}

func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// GenerateSessionName normalizes a session name to a single line no wider
// than MaxNameWidth. An empty name becomes a dated default.
func GenerateSessionName(name string, now time.Time) string {
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return "Sohbet " + now.Format("02.01.2006 15:04")
	}
	return runewidth.Truncate(name, MaxNameWidth, "...")
}
