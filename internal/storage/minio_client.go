package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioAPI - подмножество методов *minio.Client, которое нужно резолверу.
// Выделено в интерфейс, чтобы клиент можно было подменить в тестах.
type MinioAPI interface {
	ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo
	BucketExists(ctx context.Context, bucketName string) (bool, error)
}

// MinioClient реализует ObjectLister для MinIO и S3-совместимых хранилищ.
type MinioClient struct {
	client     MinioAPI
	bucketName string
	logger     *slog.Logger
}

var _ ObjectLister = (*MinioClient)(nil)

// MinioConfig содержит параметры для подключения к MinIO.
type MinioConfig struct {
	Endpoint        string // Адрес хранилища (например, "localhost:9000" или "s3.amazonaws.com")
	AccessKeyID     string // Логин
	SecretAccessKey string // Пароль
	UseSSL          bool   // Использовать SSL
	BucketName      string // Имя бакета с изображениями
	Region          string // Регион (для AWS обязателен, для MinIO нет)
}

// NewMinioClient создает новый клиент MinIO.
// Бакет не создается: резолвер только читает листинг, отсутствие бакета лишь логируется.
func NewMinioClient(ctx context.Context, cfg MinioConfig, logger *slog.Logger) (*MinioClient, error) {
	log := logger.With("component", "MinioClient")
	log.Info("Инициализация клиента MinIO", "endpoint", cfg.Endpoint)

	minioClient, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации клиента MinIO: %w", err)
	}

	c := NewMinioClientWithAPI(minioClient, cfg.BucketName, logger)

	// Проверка доступности бакета.
	// Не возвращаем ошибку, чтобы сервер мог запуститься, даже если хранилище временно недоступно.
	exists, err := minioClient.BucketExists(ctx, cfg.BucketName)
	switch {
	case err != nil:
		log.Warn("Не удалось проверить существование бакета", "bucket", cfg.BucketName, "error", err)
	case !exists:
		log.Warn("Бакет не найден, листинг будет пустым или завершится ошибкой", "bucket", cfg.BucketName)
	default:
		log.Info("Бакет доступен", "bucket", cfg.BucketName)
	}

	return c, nil
}

// NewMinioClientWithAPI оборачивает готовый клиент.
func NewMinioClientWithAPI(api MinioAPI, bucketName string, logger *slog.Logger) *MinioClient {
	return &MinioClient{
		client:     api,
		bucketName: bucketName,
		logger:     logger.With("component", "MinioClient"),
	}
}

// Bucket возвращает имя бакета.
func (c *MinioClient) Bucket() string {
	return c.bucketName
}

// ListObjects читает весь листинг под префиксом.
// Порядок записей совпадает с порядком ответа хранилища.
func (c *MinioClient) ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	c.logger.Debug("Запрос листинга", "bucket", c.bucketName, "prefix", prefix)

	// Канал закрывается клиентом; отмена ctx останавливает листинг.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var result []ObjectInfo
	for obj := range c.client.ListObjects(ctx, c.bucketName, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			c.logger.Error("Ошибка листинга", "bucket", c.bucketName, "prefix", prefix, "error", obj.Err)
			return nil, fmt.Errorf("%w: %w", ErrListObjects, obj.Err)
		}
		result = append(result, ObjectInfo{
			Key:          obj.Key,
			Size:         obj.Size,
			LastModified: obj.LastModified,
		})
	}

	c.logger.Debug("Листинг получен", "prefix", prefix, "count", len(result))
	return result, nil
}
