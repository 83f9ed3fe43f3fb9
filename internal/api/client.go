package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/maynagashev/lookbook/models"
)

// defaultTimeout ограничивает один запрос к серверу.
const defaultTimeout = 30 * time.Second

// maxErrorBody ограничивает чтение тела ответа с ошибкой.
const maxErrorBody = 64 << 10

// Client определяет интерфейс для взаимодействия с API сервера Lookbook.
type Client interface {
	// Upload отправляет метаданные изображения на POST /upload.
	Upload(ctx context.Context, in models.InboundMetadata) error
	// GetRecord получает сохраненную запись по request_id.
	GetRecord(ctx context.Context, requestID string) (*models.ResolvedRecord, error)
}

// ServerError описывает структурированную ошибку сервера.
type ServerError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *ServerError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("ошибка сервера: статус %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("ошибка сервера: статус %d (%s): %s", e.StatusCode, e.Code, e.Message)
}

// Is позволяет сравнивать ServerError с сентинелами через errors.Is.
func (e *ServerError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrInvalidMetadata:
		return e.StatusCode == http.StatusBadRequest
	case ErrUpstream:
		return e.StatusCode == http.StatusBadGateway || e.StatusCode == http.StatusGatewayTimeout
	default:
		return false
	}
}

// httpClient реализует интерфейс Client для взаимодействия с сервером по HTTP.
type httpClient struct {
	baseURL    string       // Базовый URL сервера, например "http://localhost:3033"
	httpClient *http.Client // HTTP клиент для выполнения запросов
}

// NewHTTPClient создает новый экземпляр API клиента.
func NewHTTPClient(baseURL string) Client {
	return &httpClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

// Upload отправляет метаданные на сервер.
func (c *httpClient) Upload(ctx context.Context, in models.InboundMetadata) error {
	uploadURL, err := url.JoinPath(c.baseURL, "/upload")
	if err != nil {
		return fmt.Errorf("ошибка формирования URL для загрузки: %w", err)
	}

	jsonData, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("ошибка кодирования метаданных: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uploadURL, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("ошибка создания запроса на загрузку: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ошибка выполнения запроса на загрузку: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeServerError(resp)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// GetRecord получает запись с сервера.
func (c *httpClient) GetRecord(ctx context.Context, requestID string) (*models.ResolvedRecord, error) {
	if requestID == "" {
		return nil, errors.New("не указан request_id")
	}
	recordURL, err := url.JoinPath(c.baseURL, "/records", url.PathEscape(requestID))
	if err != nil {
		return nil, fmt.Errorf("ошибка формирования URL для записи: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, recordURL, nil)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания запроса на получение записи: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ошибка выполнения запроса на получение записи: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeServerError(resp)
	}

	var record models.ResolvedRecord
	if err = json.NewDecoder(resp.Body).Decode(&record); err != nil {
		return nil, fmt.Errorf("ошибка декодирования записи: %w", err)
	}
	return &record, nil
}

// decodeServerError читает тело ответа с ошибкой. Если тело не JSON, сообщением становится сам текст.
func decodeServerError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	serverErr := &ServerError{StatusCode: resp.StatusCode}

	var payload models.ErrorResponse
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		serverErr.Code = payload.Code
		serverErr.Message = payload.Error
	} else {
		serverErr.Message = string(bytes.TrimSpace(body))
	}
	return serverErr
}

// Ошибки клиента.
var (
	ErrNotFound        = errors.New("запись не найдена")
	ErrInvalidMetadata = errors.New("сервер отклонил метаданные")
	ErrUpstream        = errors.New("ошибка внешнего хранилища")
)
