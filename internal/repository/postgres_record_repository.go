package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/maynagashev/lookbook/models"
)

// Запросы к таблице записей. Имя таблицы подставляется через fmt, т.к. плейсхолдеры для идентификаторов не работают.
const (
	createRecordsTableQuery = `CREATE TABLE IF NOT EXISTS %s (
	request_id      TEXT PRIMARY KEY,
	url             TEXT NOT NULL,
	label           TEXT NOT NULL,
	type            TEXT NOT NULL,
	season          TEXT NOT NULL,
	show_name       TEXT NOT NULL,
	designer        TEXT NOT NULL,
	description     TEXT NOT NULL,
	final_image_key TEXT NOT NULL DEFAULT ''
)`
	upsertRecordQuery = `INSERT INTO %s
	(request_id, url, label, type, season, show_name, designer, description, final_image_key)
	VALUES (:request_id, :url, :label, :type, :season, :show_name, :designer, :description, :final_image_key)
	ON CONFLICT (request_id) DO UPDATE SET
	url = EXCLUDED.url, label = EXCLUDED.label, type = EXCLUDED.type, season = EXCLUDED.season,
	show_name = EXCLUDED.show_name, designer = EXCLUDED.designer, description = EXCLUDED.description,
	final_image_key = EXCLUDED.final_image_key`
	selectRecordQuery = `SELECT request_id, url, label, type, season, show_name, designer, description, final_image_key
	FROM %s WHERE request_id=$1`
)

// postgresRecordRepository реализует RecordRepository для PostgreSQL.
type postgresRecordRepository struct {
	db        *sqlx.DB
	tableName string
	logger    *slog.Logger
}

// NewPostgresRecordRepository создает новый экземпляр репозитория записей для PostgreSQL.
// Имя таблицы берется из конфигурации и не должно приходить от клиента.
func NewPostgresRecordRepository(db *sqlx.DB, tableName string, logger *slog.Logger) RecordRepository {
	return &postgresRecordRepository{
		db:        db,
		tableName: pq.QuoteIdentifier(tableName),
		logger:    logger.With("component", "PostgresRecordRepo", "table", tableName),
	}
}

// EnsureRecordsTable создает таблицу записей, если ее нет.
func EnsureRecordsTable(ctx context.Context, db *sqlx.DB, tableName string) error {
	if _, err := db.ExecContext(ctx, fmt.Sprintf(createRecordsTableQuery, pq.QuoteIdentifier(tableName))); err != nil {
		return fmt.Errorf("ошибка создания таблицы записей: %w", err)
	}
	return nil
}

// PutRecord выполняет INSERT ... ON CONFLICT DO UPDATE: последняя запись побеждает.
func (r *postgresRecordRepository) PutRecord(ctx context.Context, record *models.ResolvedRecord) error {
	_, err := r.db.NamedExecContext(ctx, fmt.Sprintf(upsertRecordQuery, r.tableName), record)
	if err != nil {
		r.logger.Error("Ошибка записи", "request_id", record.RequestID, "error", err)
		return fmt.Errorf("ошибка выполнения запроса на запись: %w", err)
	}

	r.logger.Debug("Запись сохранена", "request_id", record.RequestID)
	return nil
}

// GetRecord находит запись по request_id.
func (r *postgresRecordRepository) GetRecord(ctx context.Context, requestID string) (*models.ResolvedRecord, error) {
	var record models.ResolvedRecord

	err := r.db.GetContext(ctx, &record, fmt.Sprintf(selectRecordQuery, r.tableName), requestID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.logger.Debug("Запись не найдена", "request_id", requestID)
			return nil, ErrRecordNotFound
		}
		r.logger.Error("Ошибка чтения", "request_id", requestID, "error", err)
		return nil, fmt.Errorf("ошибка выполнения запроса на чтение: %w", err)
	}
	return &record, nil
}
