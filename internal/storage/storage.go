package storage

import (
	"context"
	"fmt"
	"log/slog"
)

// Config описывает выбор и параметры объектного хранилища.
type Config struct {
	Driver       string // DriverMinio или DriverS3
	Endpoint     string
	BucketName   string
	UseSSL       bool
	UsePathStyle bool
	AWS          AWSConfig
}

// New создает ObjectLister по выбранному драйверу.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (ObjectLister, error) {
	switch cfg.Driver {
	case DriverMinio, "":
		return NewMinioClient(ctx, MinioConfig{
			Endpoint:        cfg.Endpoint,
			AccessKeyID:     cfg.AWS.AccessKeyID,
			SecretAccessKey: cfg.AWS.SecretAccessKey,
			UseSSL:          cfg.UseSSL,
			BucketName:      cfg.BucketName,
			Region:          cfg.AWS.Region,
		}, logger)
	case DriverS3:
		awsCfg, err := LoadAWSConfig(ctx, cfg.AWS)
		if err != nil {
			return nil, err
		}
		return NewS3Client(awsCfg, S3Config{
			Endpoint:     cfg.Endpoint,
			BucketName:   cfg.BucketName,
			UsePathStyle: cfg.UsePathStyle,
		}, logger), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}
