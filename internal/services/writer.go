package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/maynagashev/lookbook/internal/metrics"
	"github.com/maynagashev/lookbook/internal/repository"
	"github.com/maynagashev/lookbook/models"
)

// RecordWriter сохраняет готовую запись в хранилище ключ-значение.
type RecordWriter interface {
	Persist(ctx context.Context, record *models.ResolvedRecord) error
}

var _ RecordWriter = (*recordWriter)(nil)

type recordWriter struct {
	repo    repository.RecordRepository
	metrics metrics.Recorder
	logger  *slog.Logger
}

// NewRecordWriter создает писатель записей. Повторов при ошибке нет.
func NewRecordWriter(repo repository.RecordRepository, rec metrics.Recorder, logger *slog.Logger) RecordWriter {
	if rec == nil {
		rec = metrics.NopRecorder{}
	}
	return &recordWriter{
		repo:    repo,
		metrics: rec,
		logger:  logger.With("component", "RecordWriter"),
	}
}

// Persist выполняет одну безусловную запись. Запись либо сохраняется целиком, либо возвращается ErrWrite.
func (w *recordWriter) Persist(ctx context.Context, record *models.ResolvedRecord) error {
	start := time.Now()
	err := w.repo.PutRecord(ctx, record)
	w.metrics.ObserveWrite(time.Since(start), err)
	if err != nil {
		w.logger.Error("Не удалось записать метаданные", "request_id", record.RequestID, "error", err)
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}

	w.logger.Info("Метаданные успешно записаны",
		"request_id", record.RequestID,
		"final_image_key", record.FinalImageKey,
	)
	return nil
}
