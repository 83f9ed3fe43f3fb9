package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/maynagashev/lookbook/internal/metrics"
	"github.com/maynagashev/lookbook/internal/repository"
	"github.com/maynagashev/lookbook/models"
)

// IngestService определяет интерфейс конвейера "резолв -> слияние -> запись".
type IngestService interface {
	// Handle находит ключ изображения, объединяет его с метаданными и сохраняет запись.
	Handle(ctx context.Context, in models.InboundMetadata) (*models.ResolvedRecord, error)
	// GetRecord возвращает ранее сохраненную запись.
	GetRecord(ctx context.Context, requestID string) (*models.ResolvedRecord, error)
}

// IngestOptions - настройки конвейера.
type IngestOptions struct {
	// ResolveFallback включает прежнее поведение: ошибка резолва заменяется пустым ключом,
	// и запись все равно сохраняется. По умолчанию ошибка резолва возвращается вызывающему.
	ResolveFallback bool
}

var _ IngestService = (*ingestService)(nil)

type ingestService struct {
	resolver KeyResolver
	writer   RecordWriter
	repo     repository.RecordRepository
	opts     IngestOptions
	metrics  metrics.Recorder
	logger   *slog.Logger
}

// NewIngestService создает сервис. Все зависимости передаются явно и разделяются между запросами.
func NewIngestService(
	resolver KeyResolver,
	writer RecordWriter,
	repo repository.RecordRepository,
	opts IngestOptions,
	rec metrics.Recorder,
	logger *slog.Logger,
) IngestService {
	if rec == nil {
		rec = metrics.NopRecorder{}
	}
	return &ingestService{
		resolver: resolver,
		writer:   writer,
		repo:     repo,
		opts:     opts,
		metrics:  rec,
		logger:   logger.With("component", "IngestService"),
	}
}

// Handle выполняет received -> resolving -> resolved/unresolved -> writing -> committed/failed.
func (s *ingestService) Handle(ctx context.Context, in models.InboundMetadata) (*models.ResolvedRecord, error) {
	logger := s.logger.With("request_id", in.RequestID)
	logger.Debug("Получены метаданные", "label", in.Label, "designer", in.Designer)

	res := s.resolver.Resolve(ctx, in.RequestID)

	var finalImageKey string
	switch res.Status {
	case ResolutionFound:
		finalImageKey = res.Key
	case ResolutionNotFound:
		finalImageKey = ""
	case ResolutionFailed:
		if !s.opts.ResolveFallback {
			logger.Error("Ключ изображения не определен, запись отменена", "error", res.Err)
			return nil, res.Err
		}
		logger.Warn("Ошибка резолва подменена пустым ключом", "error", res.Err)
		s.metrics.ObserveFallback()
		finalImageKey = ""
	default:
		return nil, fmt.Errorf("%w: неизвестный исход резолва %v", ErrResolution, res.Status)
	}

	record := models.NewResolvedRecord(in, finalImageKey)
	if err := s.writer.Persist(ctx, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// GetRecord читает запись из хранилища ключ-значение.
func (s *ingestService) GetRecord(ctx context.Context, requestID string) (*models.ResolvedRecord, error) {
	record, err := s.repo.GetRecord(ctx, requestID)
	if err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		s.logger.Error("Ошибка чтения записи", "request_id", requestID, "error", err)
		return nil, fmt.Errorf("ошибка чтения записи: %w", err)
	}
	return record, nil
}
