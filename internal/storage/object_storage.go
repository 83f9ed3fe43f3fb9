package storage

import (
	"context"
	"errors"
	"time"
)

// ObjectInfo - запись листинга объектного хранилища.
type ObjectInfo struct {
	Key          string    // Ключ объекта; пустой ключ означает некорректный ответ хранилища
	Size         int64     // Размер в байтах (если хранилище его вернуло)
	LastModified time.Time // Время последней записи; нулевое, если хранилище его не вернуло
}

// ObjectLister определяет интерфейс чтения листинга объектного хранилища.
// Реализации только читают данные и безопасны для конкурентного использования.
type ObjectLister interface {
	// ListObjects возвращает все объекты бакета под префиксом в порядке ответа хранилища.
	ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, error)
	// Bucket возвращает имя бакета, с которым работает клиент.
	Bucket() string
}

// Драйверы объектного хранилища.
const (
	DriverMinio = "minio"
	DriverS3    = "s3"
)

// Кастомные ошибки хранилища.
var (
	ErrListObjects   = errors.New("ошибка получения листинга объектов")
	ErrUnknownDriver = errors.New("неизвестный драйвер объектного хранилища")
)
