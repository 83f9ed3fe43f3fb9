package repository

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/maynagashev/lookbook/models"
)

// DynamoAPI - подмножество методов *dynamodb.Client, которое использует репозиторий.
type DynamoAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
}

// dynamoRecordRepository реализует RecordRepository для DynamoDB.
type dynamoRecordRepository struct {
	client    DynamoAPI
	tableName string
	logger    *slog.Logger
}

// NewDynamoRecordRepository создает репозиторий записей поверх клиента DynamoDB.
func NewDynamoRecordRepository(client DynamoAPI, tableName string, logger *slog.Logger) RecordRepository {
	return &dynamoRecordRepository{
		client:    client,
		tableName: tableName,
		logger:    logger.With("component", "DynamoRecordRepo", "table", tableName),
	}
}

// NewDynamoClient создает клиент DynamoDB. Пустой endpoint означает адрес AWS по умолчанию.
func NewDynamoClient(awsCfg aws.Config, endpoint string) *dynamodb.Client {
	return dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
}

// PutRecord выполняет PutItem без условий: существующая запись перезаписывается целиком.
func (r *dynamoRecordRepository) PutRecord(ctx context.Context, record *models.ResolvedRecord) error {
	attrs := record.Attributes()
	item := make(map[string]types.AttributeValue, len(attrs))
	for name, value := range attrs {
		item[name] = &types.AttributeValueMemberS{Value: value}
	}

	_, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	if err != nil {
		r.logger.Error("Ошибка записи", "request_id", record.RequestID, "error", err)
		return fmt.Errorf("ошибка выполнения PutItem: %w", err)
	}

	r.logger.Debug("Запись сохранена", "request_id", record.RequestID)
	return nil
}

// GetRecord выполняет строго согласованное чтение по request_id.
func (r *dynamoRecordRepository) GetRecord(ctx context.Context, requestID string) (*models.ResolvedRecord, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"request_id": &types.AttributeValueMemberS{Value: requestID},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		r.logger.Error("Ошибка чтения", "request_id", requestID, "error", err)
		return nil, fmt.Errorf("ошибка выполнения GetItem: %w", err)
	}
	if len(out.Item) == 0 {
		r.logger.Debug("Запись не найдена", "request_id", requestID)
		return nil, ErrRecordNotFound
	}

	var record models.ResolvedRecord
	if err = attributevalue.UnmarshalMap(out.Item, &record); err != nil {
		return nil, fmt.Errorf("ошибка разбора записи DynamoDB: %w", err)
	}
	return &record, nil
}
