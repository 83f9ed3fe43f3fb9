package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Client реализует ObjectLister поверх AWS SDK v2.
type S3Client struct {
	client     s3.ListObjectsV2APIClient
	bucketName string
	logger     *slog.Logger
}

var _ ObjectLister = (*S3Client)(nil)

// S3Config содержит параметры клиента S3.
type S3Config struct {
	Endpoint     string // Необязательный адрес S3-совместимого хранилища
	BucketName   string
	UsePathStyle bool // Path-style адресация (нужна для MinIO/LocalStack)
}

// NewS3Client создает клиент S3 из готовой конфигурации AWS.
func NewS3Client(awsCfg aws.Config, cfg S3Config, logger *slog.Logger) *S3Client {
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})
	return NewS3ClientWithAPI(client, cfg.BucketName, logger)
}

// NewS3ClientWithAPI оборачивает готовый клиент листинга.
func NewS3ClientWithAPI(api s3.ListObjectsV2APIClient, bucketName string, logger *slog.Logger) *S3Client {
	return &S3Client{
		client:     api,
		bucketName: bucketName,
		logger:     logger.With("component", "S3Client"),
	}
}

// Bucket возвращает имя бакета.
func (c *S3Client) Bucket() string {
	return c.bucketName
}

// ListObjects проходит все страницы ListObjectsV2 под префиксом.
// Запись без ключа передается дальше с пустым Key, решение принимает резолвер.
func (c *S3Client) ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	c.logger.Debug("Запрос листинга", "bucket", c.bucketName, "prefix", prefix)

	paginator := s3.NewListObjectsV2Paginator(c.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(c.bucketName),
		Prefix: aws.String(prefix),
	})

	var result []ObjectInfo
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			c.logger.Error("Ошибка листинга", "bucket", c.bucketName, "prefix", prefix, "error", err)
			return nil, fmt.Errorf("%w: %w", ErrListObjects, err)
		}
		for _, obj := range page.Contents {
			result = append(result, ObjectInfo{
				Key:          aws.ToString(obj.Key),
				Size:         aws.ToInt64(obj.Size),
				LastModified: aws.ToTime(obj.LastModified),
			})
		}
	}

	c.logger.Debug("Листинг получен", "prefix", prefix, "count", len(result))
	return result, nil
}
