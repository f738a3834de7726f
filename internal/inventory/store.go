package inventory

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

// DefaultDirPermissions is used when creating the database directory.
const DefaultDirPermissions = 0755

// sqliteDSN appends the driver parameters the store depends on. The driver
// leaves foreign keys off per connection by default, and the consumption
// delete cascade needs them enforced.
func sqliteDSN(path string) string {
	if strings.Contains(path, "?") {
		return path + "&_foreign_keys=on"
	}
	return path + "?_foreign_keys=on"
}

//go:embed migrations_sqlite.sql
var sqliteMigrations string

// Opts holds store construction options.
type Opts struct {
	DSN    string
	Router *events.Router
	Logger *slog.Logger
}

// Option configures the store.
type Option func(*Opts)

// WithDSN sets the SQLite database file path.
func WithDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// WithRouter sets the event router for inventory events.
func WithRouter(router *events.Router) Option {
	return func(o *Opts) { o.Router = router }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Opts) { o.Logger = logger }
}

// Store is the SQLite-backed bean inventory.
type Store struct {
	db     *sql.DB
	router *events.Router
	logger *slog.Logger
}

// NewStore opens (and if needed creates) the inventory database and runs
// migrations.
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

	dir := filepath.Dir(cfg.DSN)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
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
	cfg.Logger.Debug("inventory store opened", "dsn", cfg.DSN)

	return &Store{db: db, router: cfg.Router, logger: cfg.Logger}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// AddBean inserts a new bean. A zero RemainingG defaults to the full bag
// weight, and a zero CreatedAt defaults to now.
func (s *Store) AddBean(b Bean) error {
	if b.ID == "" {
		return fmt.Errorf("bean id is required")
	}
	if b.RemainingG == 0 {
		b.RemainingG = b.WeightG
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now()
	}

	_, err := s.db.Exec(
		`INSERT INTO beans (id, name, roaster, origin, roast_date, weight_g, remaining_g, rating, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.Name, b.Roaster, b.Origin, b.RoastDate, b.WeightG, b.RemainingG, b.Rating, b.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrBeanExists, b.ID)
		}
		s.logger.Error("add bean failed", "bean", b.ID, "error", err)
		return fmt.Errorf("insert bean %s: %w", b.ID, err)
	}

	s.logger.Info("bean added", "bean", b.ID, "weight_g", b.WeightG)
	s.emit(&events.BeanAddedEvent{
		BaseEvent: events.NewInventoryEvent(events.EventBeanAdded),
		BeanID:    b.ID,
		Name:      b.Name,
		Roaster:   b.Roaster,
		WeightG:   b.WeightG,
	})
	return nil
}

// GetBean looks up one bean by ID.
func (s *Store) GetBean(id string) (Bean, error) {
	row := s.db.QueryRow(
		`SELECT id, name, roaster, origin, roast_date, weight_g, remaining_g, rating, created_at
		 FROM beans WHERE id = ?`, id)

	b, err := scanBean(row)
	if err == sql.ErrNoRows {
		return Bean{}, fmt.Errorf("%w: %s", ErrBeanNotFound, id)
	}
	if err != nil {
		return Bean{}, fmt.Errorf("get bean %s: %w", id, err)
	}
	return b, nil
}

// ListBeans returns all beans, oldest first.
func (s *Store) ListBeans() ([]Bean, error) {
	rows, err := s.db.Query(
		`SELECT id, name, roaster, origin, roast_date, weight_g, remaining_g, rating, created_at
		 FROM beans ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("query beans: %w", err)
	}
	defer rows.Close()

	var beans []Bean
	for rows.Next() {
		b, err := scanBean(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bean row: %w", err)
		}
		beans = append(beans, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bean rows: %w", err)
	}
	return beans, nil
}

// Consume deducts grams from a bean's remaining weight, clamping at zero,
// and records the consumption. Returns the updated bean.
func (s *Store) Consume(id string, grams float64) (Bean, error) {
	if grams < 0 {
		grams = 0
	}

	b, err := s.GetBean(id)
	if err != nil {
		return Bean{}, err
	}

	remaining := b.RemainingG - grams
	if remaining < 0 {
		remaining = 0
	}

	tx, err := s.db.Begin()
	if err != nil {
		return Bean{}, fmt.Errorf("begin consume: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`UPDATE beans SET remaining_g = ? WHERE id = ?`, remaining, id); err != nil {
		return Bean{}, fmt.Errorf("update bean %s: %w", id, err)
	}
	if _, err := tx.Exec(`INSERT INTO consumption (bean_id, amount_g) VALUES (?, ?)`, id, grams); err != nil {
		return Bean{}, fmt.Errorf("record consumption for %s: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return Bean{}, fmt.Errorf("commit consume: %w", err)
	}

	b.RemainingG = remaining
	s.logger.Info("bean consumed", "bean", id, "amount_g", grams, "remaining_g", remaining)
	s.emit(&events.BeanConsumedEvent{
		BaseEvent:  events.NewInventoryEvent(events.EventBeanConsumed),
		BeanID:     id,
		AmountG:    grams,
		RemainingG: remaining,
	})
	return b, nil
}

// Rate sets a bean's rating, clamped to 1..5.
func (s *Store) Rate(id string, rating int) error {
	if rating < 1 {
		rating = 1
	}
	if rating > 5 {
		rating = 5
	}

	res, err := s.db.Exec(`UPDATE beans SET rating = ? WHERE id = ?`, rating, id)
	if err != nil {
		return fmt.Errorf("rate bean %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rate bean %s: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrBeanNotFound, id)
	}
	return nil
}

// DeleteBean removes a bean and its consumption history.
func (s *Store) DeleteBean(id string) error {
	res, err := s.db.Exec(`DELETE FROM beans WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete bean %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete bean %s: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrBeanNotFound, id)
	}
	return nil
}

// LowStock returns beans with remaining weight at or below the threshold.
func (s *Store) LowStock(thresholdG float64) ([]Bean, error) {
	beans, err := s.ListBeans()
	if err != nil {
		return nil, err
	}
	var low []Bean
	for _, b := range beans {
		if b.RemainingG <= thresholdG {
			low = append(low, b)
		}
	}
	return low, nil
}

// Stats computes the inventory digest.
func (s *Store) Stats() (Stats, error) {
	var stats Stats

	row := s.db.QueryRow(`SELECT COUNT(*), COALESCE(SUM(remaining_g), 0) FROM beans`)
	if err := row.Scan(&stats.BeanCount, &stats.TotalRemainingG); err != nil {
		return Stats{}, fmt.Errorf("bean stats: %w", err)
	}

	row = s.db.QueryRow(`SELECT COALESCE(SUM(amount_g), 0) FROM consumption`)
	if err := row.Scan(&stats.TotalConsumedG); err != nil {
		return Stats{}, fmt.Errorf("consumption stats: %w", err)
	}

	row = s.db.QueryRow(`SELECT COUNT(*), COALESCE(AVG(rating), 0) FROM beans WHERE rating > 0`)
	if err := row.Scan(&stats.RatedCount, &stats.AverageRating); err != nil {
		return Stats{}, fmt.Errorf("rating stats: %w", err)
	}

	return stats, nil
}

func (s *Store) emit(event events.Event) {
	if s.router != nil {
		s.router.Emit(event)
	}
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanBean(row scanner) (Bean, error) {
	var b Bean
	var roastDate sql.NullTime
	err := row.Scan(&b.ID, &b.Name, &b.Roaster, &b.Origin, &roastDate,
		&b.WeightG, &b.RemainingG, &b.Rating, &b.CreatedAt)
	if err != nil {
		return Bean{}, err
	}
	if roastDate.Valid {
		t := roastDate.Time
		b.RoastDate = &t
	}
	return b, nil
}

// isUniqueViolation matches the sqlite unique-constraint error without
// depending on driver error types.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
