package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"ESDMMonitor/internal/config"
	"ESDMMonitor/internal/domain"
	"ESDMMonitor/internal/ports"
)

const (
	tableName       = "news"
	timestampLayout = "2006-01-02 15:04:05"
)

// SQLRepository persists classified article URLs into SQLite or Postgres.
type SQLRepository struct {
	db      *sql.DB
	driver  string
	builder sq.StatementBuilderType
	now     func() time.Time
}

var _ ports.SeenStore = (*SQLRepository)(nil)

// Open connects to the configured database and ensures the schema exists.
func Open(ctx context.Context, driver, dsn string) (*SQLRepository, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == config.DriverSQLite {
		// single writer
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	repo := NewSQLRepository(db, driver)
	if err := repo.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// NewSQLRepository wires a sql.DB implementation for the given driver.
func NewSQLRepository(db *sql.DB, driver string) *SQLRepository {
	builder := sq.StatementBuilder.PlaceholderFormat(sq.Question)
	if driver == config.DriverPostgres {
		builder = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	}
	return &SQLRepository{
		db:      db,
		driver:  driver,
		builder: builder,
		now:     time.Now,
	}
}

// Migrate creates the news table when it is missing.
func (r *SQLRepository) Migrate(ctx context.Context) error {
	query := `CREATE TABLE IF NOT EXISTS news (
		url TEXT PRIMARY KEY,
		title TEXT,
		published_date TEXT,
		processed_at TEXT
	)`
	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("create table: %w", err)
	}
	return nil
}

// IsProcessed reports whether url has already been classified.
func (r *SQLRepository) IsProcessed(ctx context.Context, url string) (bool, error) {
	query, args, err := r.builder.
		Select("1").
		From(tableName).
		Where(sq.Eq{"url": url}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build select: %w", err)
	}

	var one int
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query processed: %w", err)
	}
	return true, nil
}

// MarkProcessed inserts record unless its URL is already stored; the first
// record for a URL is never overwritten.
func (r *SQLRepository) MarkProcessed(ctx context.Context, record domain.SeenRecord) error {
	processedAt := record.ProcessedAt
	if processedAt.IsZero() {
		processedAt = r.now()
	}

	insert := r.builder.
		Insert(tableName).
		Columns("url", "title", "published_date", "processed_at").
		Values(record.URL, record.Title, record.PublishedDate, processedAt.Format(timestampLayout))

	if r.driver == config.DriverPostgres {
		insert = insert.Suffix("ON CONFLICT (url) DO NOTHING")
	} else {
		insert = insert.Options("OR IGNORE")
	}

	query, args, err := insert.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert processed: %w", err)
	}
	return nil
}

// Lookup returns the stored record for url.
func (r *SQLRepository) Lookup(ctx context.Context, url string) (domain.SeenRecord, bool, error) {
	query, args, err := r.builder.
		Select("url", "title", "published_date", "processed_at").
		From(tableName).
		Where(sq.Eq{"url": url}).
		ToSql()
	if err != nil {
		return domain.SeenRecord{}, false, fmt.Errorf("build select: %w", err)
	}

	var (
		rec         domain.SeenRecord
		processedAt string
	)
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&rec.URL, &rec.Title, &rec.PublishedDate, &processedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.SeenRecord{}, false, nil
	}
	if err != nil {
		return domain.SeenRecord{}, false, fmt.Errorf("query record: %w", err)
	}

	if ts, err := time.ParseInLocation(timestampLayout, processedAt, time.Local); err == nil {
		rec.ProcessedAt = ts
	}
	return rec, true, nil
}

// Count returns the number of stored records.
func (r *SQLRepository) Count(ctx context.Context) (int, error) {
	query, args, err := r.builder.Select("COUNT(*)").From(tableName).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count: %w", err)
	}

	var n int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}

// Close releases the underlying connection pool.
func (r *SQLRepository) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}
