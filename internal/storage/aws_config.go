package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
)

// AWSConfig содержит общие параметры подключения к сервисам AWS (S3, DynamoDB).
type AWSConfig struct {
	Region          string // Регион AWS, обязателен
	AccessKeyID     string // Если пусто, используется стандартная цепочка провайдеров
	SecretAccessKey string
	SessionToken    string
}

// LoadAWSConfig собирает aws.Config из параметров.
// Статические креды применяются, только если заданы оба ключа.
func LoadAWSConfig(ctx context.Context, cfg AWSConfig) (aws.Config, error) {
	if cfg.Region == "" {
		return aws.Config{}, errors.New("не указан регион AWS")
	}

	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			cfg.SessionToken,
		)))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("ошибка загрузки конфигурации AWS: %w", err)
	}
	return awsCfg, nil
}
