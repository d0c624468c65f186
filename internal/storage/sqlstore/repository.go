package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/microsoft/go-mssqldb"
	_ "modernc.org/sqlite"

	"product-scraper/internal/observability"
	"product-scraper/internal/scraper"
)

// Repository пишет записи в таблицу products
type Repository struct {
	db             *sql.DB
	dialect        Dialect
	commandTimeout time.Duration
	batchSize      int
	logger         *observability.Logger
}

func NewRepository(dialect Dialect, dsn string, commandTimeout time.Duration, batchSize int, logger *observability.Logger) (*Repository, error) {
	db, err := sql.Open(dialect.DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Тестируем соединение
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return NewRepositoryWithDB(db, dialect, commandTimeout, batchSize, logger), nil
}

// NewRepositoryWithDB оборачивает уже открытое соединение
func NewRepositoryWithDB(db *sql.DB, dialect Dialect, commandTimeout time.Duration, batchSize int, logger *observability.Logger) *Repository {
	if batchSize <= 0 {
		batchSize = 1
	}
	return &Repository{
		db:             db,
		dialect:        dialect,
		commandTimeout: commandTimeout,
		batchSize:      batchSize,
		logger:         logger,
	}
}

func (r *Repository) Name() string {
	return r.dialect.Name
}

// EnsureTable создаёт таблицу products, если её ещё нет
func (r *Repository) EnsureTable(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.commandTimeout)
	defer cancel()

	if _, err := r.db.ExecContext(ctx, r.dialect.CreateTable); err != nil {
		return fmt.Errorf("failed to create products table: %w", err)
	}
	return nil
}

// Save добавляет по строке на запись одной транзакцией, пачками по batchSize
func (r *Repository) Save(ctx context.Context, dataset scraper.Dataset) error {
	if err := r.EnsureTable(ctx); err != nil {
		return err
	}
	if len(dataset) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.commandTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		// после Commit возвращает sql.ErrTxDone, это нормально
		_ = tx.Rollback()
	}()

	for start := 0; start < len(dataset); start += r.batchSize {
		end := min(start+r.batchSize, len(dataset))
		if err := r.insertBatch(ctx, tx, dataset[start:end]); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	r.logger.Info("Records saved",
		"sink", r.dialect.Name,
		"rows", len(dataset),
	)
	return nil
}

func (r *Repository) insertBatch(ctx context.Context, tx *sql.Tx, batch scraper.Dataset) error {
	stmt, err := tx.PrepareContext(ctx, r.dialect.insertQuery(len(batch)))
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() {
		if err := stmt.Close(); err != nil {
			r.logger.Error("Failed to close statement", "error", err.Error())
		}
	}()

	args := make([]interface{}, 0, len(batch)*3)
	for _, rec := range batch {
		args = append(args, rec.Title, rec.Price, rec.Rating)
	}

	if _, err := stmt.ExecContext(ctx, args...); err != nil {
		return fmt.Errorf("failed to execute insert: %w", err)
	}
	return nil
}

// Count возвращает число строк в таблице products
func (r *Repository) Count(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, r.commandTimeout)
	defer cancel()

	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to query database: %w", err)
	}
	return count, nil
}

// Close закрывает соединение с БД
func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}
