package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/maynagashev/lookbook/internal/repository"
	"github.com/maynagashev/lookbook/internal/storage"
)

const (
	// Значения по умолчанию.
	defaultServerPort   = "3033"
	defaultBucket       = "team-3-project-3"
	defaultTable        = "project-3-testing"
	defaultRegion       = "us-east-1"
	defaultStoreDriver  = storage.DriverMinio
	defaultMinioHost    = "s3.amazonaws.com"
	defaultRecordDriver = repository.DriverDynamoDB
	defaultLogLevel     = "info"
	defaultLogFormat    = logFormatText

	logFormatText = "text"
	logFormatJSON = "json"

	// Переменные окружения.
	envServerPort     = "SERVER_PORT"
	envTLSCertFile    = "TLS_CERT_FILE"
	envTLSKeyFile     = "TLS_KEY_FILE"
	envStorageDriver  = "STORAGE_DRIVER"
	envStorageURL     = "STORAGE_ENDPOINT"
	envStorageSSL     = "STORAGE_USE_SSL"
	envPathStyle      = "STORAGE_PATH_STYLE"
	envBucket         = "BUCKET_NAME"
	envAccessKey      = "AWS_ACCESS_KEY_ID"
	envSecretKey      = "AWS_SECRET_ACCESS_KEY" //nolint:gosec // Это имя переменной окружения
	envSessionToken   = "AWS_SESSION_TOKEN"     //nolint:gosec // Это имя переменной окружения
	envRegion         = "AWS_REGION"
	envRecordDriver   = "RECORD_STORE"
	envTableName      = "TABLE_NAME"
	envDynamoEndpoint = "DYNAMODB_ENDPOINT"
	envDatabaseDSN    = "DATABASE_DSN"
	envFallback       = "RESOLVE_FALLBACK"
	envLogLevel       = "LOG_LEVEL"
	envLogFormat      = "LOG_FORMAT"
)

// config хранит конфигурацию сервера.
type config struct {
	Port     string
	CertFile string
	KeyFile  string

	StorageDriver   string
	StorageEndpoint string
	UseSSL          bool
	UsePathStyle    bool
	BucketName      string
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	Region          string

	RecordDriver   string
	TableName      string
	DynamoEndpoint string
	DatabaseDSN    string

	ResolveFallback bool
	LogLevel        string
	LogFormat       string
}

// TLSEnabled сообщает, заданы ли сертификат и ключ.
func (c *config) TLSEnabled() bool {
	return c.CertFile != "" && c.KeyFile != ""
}

// parseFlags разбирает флаги и переменные окружения, возвращает config или ошибку.
// Приоритет: флаг, затем переменная окружения, затем значение по умолчанию.
func parseFlags() (*config, error) {
	cfg := &config{}

	// Определяем флаги
	flag.StringVar(&cfg.Port, "port", "",
		fmt.Sprintf("Порт HTTP-сервера (env: %s, default: %s)", envServerPort, defaultServerPort))
	flag.StringVar(&cfg.CertFile, "cert-file", "",
		fmt.Sprintf("Путь к файлу TLS-сертификата, без него сервер работает по HTTP (env: %s)", envTLSCertFile))
	flag.StringVar(&cfg.KeyFile, "key-file", "",
		fmt.Sprintf("Путь к файлу TLS-ключа (env: %s)", envTLSKeyFile))

	flag.StringVar(&cfg.StorageDriver, "storage", "",
		fmt.Sprintf("Драйвер объектного хранилища: s3 или minio (env: %s, default: %s)", envStorageDriver, defaultStoreDriver))
	flag.StringVar(&cfg.StorageEndpoint, "storage-endpoint", "",
		fmt.Sprintf("Адрес объектного хранилища (env: %s, default для minio: %s)", envStorageURL, defaultMinioHost))
	flag.BoolVar(&cfg.UseSSL, "storage-ssl", true,
		fmt.Sprintf("Использовать SSL для MinIO (env: %s)", envStorageSSL))
	flag.BoolVar(&cfg.UsePathStyle, "storage-path-style", false,
		fmt.Sprintf("Адресация бакета в пути для S3 (env: %s)", envPathStyle))
	flag.StringVar(&cfg.BucketName, "bucket", "",
		fmt.Sprintf("Бакет с изображениями (env: %s, default: %s)", envBucket, defaultBucket))
	flag.StringVar(&cfg.AccessKeyID, "access-key", "",
		fmt.Sprintf("Ключ доступа (env: %s)", envAccessKey))
	flag.StringVar(&cfg.SecretAccessKey, "secret-key", "",
		fmt.Sprintf("Секретный ключ (env: %s)", envSecretKey))
	flag.StringVar(&cfg.Region, "region", "",
		fmt.Sprintf("Регион (env: %s, default: %s)", envRegion, defaultRegion))

	flag.StringVar(&cfg.RecordDriver, "record-store", "",
		fmt.Sprintf("Хранилище записей: dynamodb или postgres (env: %s, default: %s)", envRecordDriver, defaultRecordDriver))
	flag.StringVar(&cfg.TableName, "table", "",
		fmt.Sprintf("Таблица записей (env: %s, default: %s)", envTableName, defaultTable))
	flag.StringVar(&cfg.DynamoEndpoint, "dynamodb-endpoint", "",
		fmt.Sprintf("Адрес DynamoDB, например для DynamoDB Local (env: %s)", envDynamoEndpoint))
	flag.StringVar(&cfg.DatabaseDSN, "database-dsn", "",
		fmt.Sprintf("Строка подключения к базе данных (env: %s)", envDatabaseDSN))

	flag.BoolVar(&cfg.ResolveFallback, "resolve-fallback", false,
		fmt.Sprintf("Записывать пустой ключ при ошибке резолва (env: %s)", envFallback))
	flag.StringVar(&cfg.LogLevel, "log-level", "",
		fmt.Sprintf("Уровень логирования: debug, info, warn, error (env: %s, default: %s)", envLogLevel, defaultLogLevel))
	flag.StringVar(&cfg.LogFormat, "log-format", "",
		fmt.Sprintf("Формат логов: text или json (env: %s, default: %s)", envLogFormat, defaultLogFormat))

	// Парсим флаги
	flag.Parse()

	// Применяем переменные окружения, если флаги не заданы
	stringFromEnv(&cfg.Port, envServerPort, defaultServerPort)
	stringFromEnv(&cfg.CertFile, envTLSCertFile, "")
	stringFromEnv(&cfg.KeyFile, envTLSKeyFile, "")
	stringFromEnv(&cfg.StorageDriver, envStorageDriver, defaultStoreDriver)
	stringFromEnv(&cfg.StorageEndpoint, envStorageURL, "")
	stringFromEnv(&cfg.BucketName, envBucket, defaultBucket)
	stringFromEnv(&cfg.AccessKeyID, envAccessKey, "")
	stringFromEnv(&cfg.SecretAccessKey, envSecretKey, "")
	stringFromEnv(&cfg.SessionToken, envSessionToken, "")
	stringFromEnv(&cfg.Region, envRegion, defaultRegion)
	stringFromEnv(&cfg.RecordDriver, envRecordDriver, defaultRecordDriver)
	stringFromEnv(&cfg.TableName, envTableName, defaultTable)
	stringFromEnv(&cfg.DynamoEndpoint, envDynamoEndpoint, "")
	stringFromEnv(&cfg.DatabaseDSN, envDatabaseDSN, "")
	stringFromEnv(&cfg.LogLevel, envLogLevel, defaultLogLevel)
	stringFromEnv(&cfg.LogFormat, envLogFormat, defaultLogFormat)

	set := explicitFlags()
	for name, target := range map[string]struct {
		env string
		dst *bool
	}{
		"storage-ssl":        {envStorageSSL, &cfg.UseSSL},
		"storage-path-style": {envPathStyle, &cfg.UsePathStyle},
		"resolve-fallback":   {envFallback, &cfg.ResolveFallback},
	} {
		if set[name] {
			continue
		}
		if err := boolFromEnv(target.dst, target.env); err != nil {
			return nil, err
		}
	}

	cfg.StorageDriver = strings.ToLower(cfg.StorageDriver)
	cfg.RecordDriver = strings.ToLower(cfg.RecordDriver)
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	if cfg.StorageDriver == storage.DriverMinio && cfg.StorageEndpoint == "" {
		cfg.StorageEndpoint = defaultMinioHost
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate проверяет согласованность параметров.
func (c *config) validate() error {
	switch c.StorageDriver {
	case storage.DriverS3, storage.DriverMinio:
	default:
		return fmt.Errorf("неизвестный драйвер объектного хранилища %q (--storage или %s)", c.StorageDriver, envStorageDriver)
	}

	switch c.RecordDriver {
	case repository.DriverDynamoDB:
	case repository.DriverPostgres:
		if c.DatabaseDSN == "" {
			return errors.New("не указана строка подключения к БД (--database-dsn или " + envDatabaseDSN + ")")
		}
	default:
		return fmt.Errorf("неизвестное хранилище записей %q (--record-store или %s)", c.RecordDriver, envRecordDriver)
	}

	if (c.CertFile == "") != (c.KeyFile == "") {
		return errors.New("для TLS нужно указать и сертификат, и ключ (--cert-file и --key-file)")
	}

	switch c.LogFormat {
	case logFormatText, logFormatJSON:
	default:
		return fmt.Errorf("неизвестный формат логов %q", c.LogFormat)
	}
	if _, err := parseLogLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// stringFromEnv подставляет значение из окружения или по умолчанию, если флаг пуст.
func stringFromEnv(dst *string, env, fallback string) {
	if *dst != "" {
		return
	}
	if value, ok := os.LookupEnv(env); ok && value != "" {
		*dst = value
		return
	}
	*dst = fallback
}

// boolFromEnv читает булево значение из окружения, если оно задано.
func boolFromEnv(dst *bool, env string) error {
	value, ok := os.LookupEnv(env)
	if !ok || value == "" {
		return nil
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("некорректное значение %s=%q: %w", env, value, err)
	}
	*dst = parsed
	return nil
}

// explicitFlags возвращает имена флагов, явно указанных в командной строке.
func explicitFlags() map[string]bool {
	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) {
		set[f.Name] = true
	})
	return set
}
