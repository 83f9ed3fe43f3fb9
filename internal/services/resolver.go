package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/maynagashev/lookbook/internal/metrics"
	"github.com/maynagashev/lookbook/internal/storage"
)

const (
	// imagePrefixRoot - корень, под которым загрузчик складывает изображения: images/<request_id>/.
	imagePrefixRoot = "images/"
	// objectScheme - схема полной ссылки на объект.
	objectScheme = "s3"
)

// ResolutionStatus - исход поиска ключа.
type ResolutionStatus int

// Три исхода резолва; вызывающий код обязан обработать каждый.
const (
	ResolutionNotFound ResolutionStatus = iota
	ResolutionFound
	ResolutionFailed
)

func (s ResolutionStatus) String() string {
	switch s {
	case ResolutionFound:
		return metrics.OutcomeFound
	case ResolutionNotFound:
		return metrics.OutcomeNotFound
	case ResolutionFailed:
		return metrics.OutcomeFailed
	default:
		return fmt.Sprintf("ResolutionStatus(%d)", int(s))
	}
}

// Resolution - результат резолва.
// Key заполнен только для ResolutionFound, Err - только для ResolutionFailed (и оборачивает ErrResolution).
type Resolution struct {
	Status ResolutionStatus
	Key    string
	Err    error
}

// KeyResolver находит ключ итогового изображения по идентификатору корреляции.
type KeyResolver interface {
	Resolve(ctx context.Context, requestID string) Resolution
}

var _ KeyResolver = (*keyResolver)(nil)

type keyResolver struct {
	lister  storage.ObjectLister
	metrics metrics.Recorder
	logger  *slog.Logger
}

// NewKeyResolver создает резолвер поверх объектного хранилища.
func NewKeyResolver(lister storage.ObjectLister, rec metrics.Recorder, logger *slog.Logger) KeyResolver {
	if rec == nil {
		rec = metrics.NopRecorder{}
	}
	return &keyResolver{
		lister:  lister,
		metrics: rec,
		logger:  logger.With("component", "KeyResolver"),
	}
}

// ImagePrefix возвращает префикс объектов для идентификатора корреляции.
func ImagePrefix(requestID string) string {
	return imagePrefixRoot + requestID + "/"
}

// Resolve выполняет один листинг под images/<requestID>/ и выбирает самый свежий объект.
func (r *keyResolver) Resolve(ctx context.Context, requestID string) Resolution {
	start := time.Now()
	res := r.resolve(ctx, requestID)
	r.metrics.ObserveResolution(res.Status.String(), time.Since(start))
	return res
}

func (r *keyResolver) resolve(ctx context.Context, requestID string) Resolution {
	if requestID == "" {
		return failed(errors.New("пустой идентификатор корреляции"))
	}

	prefix := ImagePrefix(requestID)
	objects, err := r.lister.ListObjects(ctx, prefix)
	if err != nil {
		r.logger.Error("Листинг не удался", "prefix", prefix, "error", err)
		return failed(err)
	}

	latest, ok := SelectLatest(objects)
	if !ok {
		r.logger.Info("Объекты не найдены", "prefix", prefix)
		return Resolution{Status: ResolutionNotFound}
	}
	if latest.Key == "" {
		r.logger.Error("Запись листинга без ключа", "prefix", prefix)
		return failed(errors.New("в ответе хранилища нет ключа объекта"))
	}

	key := ObjectURI(r.lister.Bucket(), latest.Key)
	r.logger.Info("Ключ изображения найден", "prefix", prefix, "final_image_key", key)
	return Resolution{Status: ResolutionFound, Key: key}
}

// SelectLatest выбирает объект с максимальным LastModified.
// При равенстве (в том числе когда хранилище не отдает время) побеждает более поздняя позиция в листинге,
// поэтому без временных меток выбирается последняя запись ответа.
func SelectLatest(objects []storage.ObjectInfo) (storage.ObjectInfo, bool) {
	if len(objects) == 0 {
		return storage.ObjectInfo{}, false
	}
	latest := objects[0]
	for _, obj := range objects[1:] {
		if !obj.LastModified.Before(latest.LastModified) {
			latest = obj
		}
	}
	return latest, true
}

// ObjectURI формирует полную ссылку вида s3://<bucket>/<key>.
func ObjectURI(bucket, key string) string {
	return objectScheme + "://" + bucket + "/" + key
}

func failed(cause error) Resolution {
	return Resolution{Status: ResolutionFailed, Err: fmt.Errorf("%w: %w", ErrResolution, cause)}
}
