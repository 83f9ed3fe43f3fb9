package repository

import (
	"context"
	"errors"

	"github.com/maynagashev/lookbook/models"
)

// RecordRepository определяет методы хранилища ключ-значение для записей об изображениях.
// Первичный ключ - request_id; его объявляет схема таблицы, а не репозиторий.
type RecordRepository interface {
	// PutRecord безусловно записывает запись целиком (upsert, последняя запись побеждает).
	PutRecord(ctx context.Context, record *models.ResolvedRecord) error
	// GetRecord читает запись по request_id.
	GetRecord(ctx context.Context, requestID string) (*models.ResolvedRecord, error)
}

// Драйверы хранилища записей.
const (
	DriverDynamoDB = "dynamodb"
	DriverPostgres = "postgres"
)

// Кастомные ошибки репозитория.
var (
	ErrRecordNotFound = errors.New("запись не найдена")
)
