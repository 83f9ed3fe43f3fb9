package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/maynagashev/lookbook/internal/handlers"
	"github.com/maynagashev/lookbook/internal/services"
	"github.com/maynagashev/lookbook/models"
)

// MockIngestService is a mock implementation of IngestService interface.
type MockIngestService struct {
	mock.Mock
}

func (m *MockIngestService) Handle(ctx context.Context, in models.InboundMetadata) (*models.ResolvedRecord, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ResolvedRecord), args.Error(1) //nolint:errcheck // Acceptable for mocks
}

func (m *MockIngestService) GetRecord(ctx context.Context, requestID string) (*models.ResolvedRecord, error) {
	args := m.Called(ctx, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ResolvedRecord), args.Error(1) //nolint:errcheck // Acceptable for mocks
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func validInput() models.InboundMetadata {
	return models.InboundMetadata{
		URL:         "u",
		Label:       "Number Nine",
		Type:        "pant",
		Season:      "FW/04",
		ShowName:    "The High Streets",
		Designer:    "Takahiro Miyashita",
		Description: "d",
		RequestID:   "42",
	}
}

const validBody = `{"url":"u","label":"Number Nine","type":"pant","season":"FW/04",` +
	`"show_name":"The High Streets","designer":"Takahiro Miyashita","description":"d","request_id":"42"}`

func newRouter(svc services.IngestService) http.Handler {
	h := handlers.NewUploadHandler(svc, discardLogger())
	r := chi.NewRouter()
	r.Post("/upload", h.Upload)
	r.Get("/records/{requestID}", h.GetRecord)
	return r
}

func TestUploadHandler_Upload(t *testing.T) {
	resolved := models.NewResolvedRecord(validInput(), "s3://team-3-project-3/images/42/final.jpg")

	tests := []struct {
		name           string
		body           string
		mockSetup      func(svc *MockIngestService)
		expectedStatus int
		expectedCode   string
		expectedBody   string
		expectedError  string
	}{
		{
			name: "Успешный прием",
			body: validBody,
			mockSetup: func(svc *MockIngestService) {
				svc.On("Handle", mock.Anything, validInput()).Return(&resolved, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   models.UploadResponse + "\n",
		},
		{
			name:           "Некорректный JSON",
			body:           `{"url":`,
			mockSetup:      func(_ *MockIngestService) {},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   handlers.CodeValidation,
		},
		{
			name:           "Не хватает поля",
			body:           `{"url":"u","label":"l","type":"t","season":"s","show_name":"n","designer":"d","description":"x"}`,
			mockSetup:      func(_ *MockIngestService) {},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   handlers.CodeValidation,
		},
		{
			name: "Ошибка резолва",
			body: validBody,
			mockSetup: func(svc *MockIngestService) {
				svc.On("Handle", mock.Anything, mock.Anything).
					Return(nil, fmt.Errorf("%w: connection refused", services.ErrResolution))
			},
			expectedStatus: http.StatusBadGateway,
			expectedCode:   handlers.CodeResolution,
			expectedError:  services.ErrResolution.Error(),
		},
		{
			name: "Ошибка записи",
			body: validBody,
			mockSetup: func(svc *MockIngestService) {
				svc.On("Handle", mock.Anything, mock.Anything).
					Return(nil, fmt.Errorf("%w: ResourceNotFoundException: table missing", services.ErrWrite))
			},
			expectedStatus: http.StatusBadGateway,
			expectedCode:   handlers.CodeWrite,
			expectedError:  services.ErrWrite.Error(),
		},
		{
			name: "Истек таймаут",
			body: validBody,
			mockSetup: func(svc *MockIngestService) {
				svc.On("Handle", mock.Anything, mock.Anything).
					Return(nil, fmt.Errorf("%w: %w", services.ErrResolution, context.DeadlineExceeded))
			},
			expectedStatus: http.StatusGatewayTimeout,
			expectedCode:   handlers.CodeTimeout,
		},
		{
			name: "Неизвестная ошибка",
			body: validBody,
			mockSetup: func(svc *MockIngestService) {
				svc.On("Handle", mock.Anything, mock.Anything).Return(nil, errors.New("boom"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   handlers.CodeInternal,
			expectedError:  http.StatusText(http.StatusInternalServerError),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockIngestService)
			tt.mockSetup(svc)

			req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rr := httptest.NewRecorder()

			newRouter(svc).ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			if tt.expectedBody != "" {
				assert.Equal(t, tt.expectedBody, rr.Body.String())
			}
			if tt.expectedCode != "" {
				var resp models.ErrorResponse
				require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
				assert.Equal(t, tt.expectedCode, resp.Code)
				assert.NotEmpty(t, resp.Error)
				if tt.expectedError != "" {
					assert.Equal(t, tt.expectedError, resp.Error, "детали хранилища не должны уходить клиенту")
				}
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestUploadHandler_Upload_MissingFieldsNamed(t *testing.T) {
	svc := new(MockIngestService)
	req := httptest.NewRequest(http.MethodPost, "/upload",
		strings.NewReader(`{"url":"u","label":"l","type":"t","season":"s","designer":"d","description":"x"}`))
	rr := httptest.NewRecorder()

	newRouter(svc).ServeHTTP(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Contains(t, resp.Error, "show_name")
	assert.Contains(t, resp.Error, "request_id")
	svc.AssertNotCalled(t, "Handle", mock.Anything, mock.Anything)
}

func TestUploadHandler_GetRecord(t *testing.T) {
	record := models.NewResolvedRecord(validInput(), "")

	tests := []struct {
		name           string
		mockSetup      func(svc *MockIngestService)
		expectedStatus int
		expectedCode   string
	}{
		{
			name: "Запись найдена",
			mockSetup: func(svc *MockIngestService) {
				svc.On("GetRecord", mock.Anything, "42").Return(&record, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "Запись не найдена",
			mockSetup: func(svc *MockIngestService) {
				svc.On("GetRecord", mock.Anything, "42").Return(nil, services.ErrRecordNotFound)
			},
			expectedStatus: http.StatusNotFound,
			expectedCode:   handlers.CodeNotFound,
		},
		{
			name: "Ошибка хранилища",
			mockSetup: func(svc *MockIngestService) {
				svc.On("GetRecord", mock.Anything, "42").Return(nil, errors.New("ошибка чтения записи: boom"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   handlers.CodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockIngestService)
			tt.mockSetup(svc)

			req := httptest.NewRequest(http.MethodGet, "/records/42", nil)
			rr := httptest.NewRecorder()

			newRouter(svc).ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			if tt.expectedCode == "" {
				var got models.ResolvedRecord
				require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
				assert.Equal(t, record, got)
				assert.Equal(t, "", got.FinalImageKey)
				assert.Contains(t, rr.Body.String(), `"final_image_key":""`)
			} else {
				var resp models.ErrorResponse
				require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
				assert.Equal(t, tt.expectedCode, resp.Code)
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestUploadHandler_GetRecord_EscapedRequestID(t *testing.T) {
	tests := []struct {
		name   string
		target string
		wantID string
	}{
		{name: "Слэш в идентификаторе", target: "/records/sess%2F42", wantID: "sess/42"},
		{name: "Процент в идентификаторе", target: "/records/100%25", wantID: "100%"},
		{name: "Пробел в идентификаторе", target: "/records/a%20b", wantID: "a b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := models.NewResolvedRecord(models.InboundMetadata{RequestID: tt.wantID}, "")
			svc := new(MockIngestService)
			svc.On("GetRecord", mock.Anything, tt.wantID).Return(&record, nil)

			rr := httptest.NewRecorder()
			newRouter(svc).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, tt.target, nil))

			assert.Equal(t, http.StatusOK, rr.Code)
			svc.AssertExpectations(t)
		})
	}

	t.Run("Некорректное экранирование", func(t *testing.T) {
		svc := new(MockIngestService)
		req := httptest.NewRequest(http.MethodGet, "/records/x", nil)
		req.URL.RawPath = "/records/bad%zz"
		rr := httptest.NewRecorder()

		newRouter(svc).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		svc.AssertNotCalled(t, "GetRecord", mock.Anything, mock.Anything)
	})
}
