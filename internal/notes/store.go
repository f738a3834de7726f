package notes

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "embed"

	_ "github.com/mattn/go-sqlite3"

	"github.com/tmorelle/pourover/internal/events"
)

//go:embed migrations_sqlite.sql
var sqliteMigrations string

// sqliteDSN appends the driver parameters the store depends on. The journal
// shares the inventory database file, and that package's cascades rely on
// foreign keys being on for every connection touching the file.
func sqliteDSN(path string) string {
	if strings.Contains(path, "?") {
		return path + "&_foreign_keys=on"
	}
	return path + "?_foreign_keys=on"
}

// Opts holds store construction options.
type Opts struct {
	DSN    string
	Router *events.Router
	Logger *slog.Logger
}

// Option configures the store.
type Option func(*Opts)

// WithDSN sets the SQLite database file path. The journal shares the
// inventory database file; each package runs its own idempotent
// migrations.
func WithDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// WithRouter sets the event router for journal events.
func WithRouter(router *events.Router) Option {
	return func(o *Opts) { o.Router = router }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Opts) { o.Logger = logger }
}

// Store is the SQLite-backed brew journal.
type Store struct {
	db     *sql.DB
	router *events.Router
	logger *slog.Logger
}

// NewStore opens the journal database and runs migrations.
func NewStore(opts ...Option) (*Store, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database DSN not set")
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DSN), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", sqliteDSN(cfg.DSN))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.Exec(sqliteMigrations); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	cfg.Logger.Debug("notes store opened", "dsn", cfg.DSN)

	return &Store{db: db, router: cfg.Router, logger: cfg.Logger}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Add saves a note and returns its assigned ID. Ratings clamp to 0..5.
func (s *Store) Add(note BrewNote) (int64, error) {
	if note.MethodID == "" {
		return 0, fmt.Errorf("note method id is required")
	}
	if note.Rating < 0 {
		note.Rating = 0
	}
	if note.Rating > 5 {
		note.Rating = 5
	}
	if note.CreatedAt.IsZero() {
		note.CreatedAt = time.Now()
	}

	res, err := s.db.Exec(
		`INSERT INTO brew_notes (method_id, method_name, bean_id, rating, note, elapsed_s, completed, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		note.MethodID, note.MethodName, note.BeanID, note.Rating, note.Text,
		note.ElapsedSeconds, note.Completed, note.CreatedAt,
	)
	if err != nil {
		s.logger.Error("add note failed", "method", note.MethodID, "error", err)
		return 0, fmt.Errorf("insert note for %s: %w", note.MethodID, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("note id for %s: %w", note.MethodID, err)
	}

	s.logger.Info("note recorded", "note", id, "method", note.MethodID, "rating", note.Rating)
	if s.router != nil {
		s.router.Emit(&events.NoteRecordedEvent{
			BaseEvent: events.NewInternalEvent(events.EventNoteRecorded),
			NoteID:    id,
			MethodID:  note.MethodID,
			Rating:    note.Rating,
		})
	}
	return id, nil
}

// Get looks up one note by ID.
func (s *Store) Get(id int64) (BrewNote, error) {
	row := s.db.QueryRow(selectColumns+` WHERE id = ?`, id)
	note, err := scanNote(row)
	if err == sql.ErrNoRows {
		return BrewNote{}, fmt.Errorf("%w: %d", ErrNoteNotFound, id)
	}
	if err != nil {
		return BrewNote{}, fmt.Errorf("get note %d: %w", id, err)
	}
	return note, nil
}

// List returns the most recent notes, newest first. A non-positive limit
// returns everything.
func (s *Store) List(limit int) ([]BrewNote, error) {
	query := selectColumns + ` ORDER BY created_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	return s.queryNotes(query, args...)
}

// ForMethod returns all notes for a method, newest first.
func (s *Store) ForMethod(methodID string) ([]BrewNote, error) {
	return s.queryNotes(selectColumns+` WHERE method_id = ? ORDER BY created_at DESC, id DESC`, methodID)
}

// ForBean returns all notes for a bean, newest first.
func (s *Store) ForBean(beanID string) ([]BrewNote, error) {
	return s.queryNotes(selectColumns+` WHERE bean_id = ? ORDER BY created_at DESC, id DESC`, beanID)
}

const selectColumns = `SELECT id, method_id, method_name, bean_id, rating, note, elapsed_s, completed, created_at FROM brew_notes`

func (s *Store) queryNotes(query string, args ...any) ([]BrewNote, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query notes: %w", err)
	}
	defer rows.Close()

	var out []BrewNote
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan note row: %w", err)
		}
		out = append(out, note)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate note rows: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanNote(row scanner) (BrewNote, error) {
	var note BrewNote
	err := row.Scan(&note.ID, &note.MethodID, &note.MethodName, &note.BeanID,
		&note.Rating, &note.Text, &note.ElapsedSeconds, &note.Completed, &note.CreatedAt)
	return note, err
}
