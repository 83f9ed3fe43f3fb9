package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/maynagashev/lookbook/internal/services"
	"github.com/maynagashev/lookbook/models"
)

// maxBodyBytes ограничивает размер тела запроса с метаданными.
const maxBodyBytes = 1 << 20

// Коды ошибок в теле ответа.
const (
	CodeValidation = "validation_error"
	CodeResolution = "resolution_error"
	CodeWrite      = "write_error"
	CodeTimeout    = "timeout"
	CodeNotFound   = "not_found"
	CodeInternal   = "internal_error"
)

// UploadHandler обрабатывает HTTP-запросы приема метаданных изображений.
type UploadHandler struct {
	ingestService services.IngestService
	validate      *validator.Validate
	logger        *slog.Logger
}

// NewUploadHandler создает новый экземпляр UploadHandler.
func NewUploadHandler(svc services.IngestService, logger *slog.Logger) *UploadHandler {
	return &UploadHandler{
		ingestService: svc,
		validate:      newValidator(),
		logger:        logger.With("component", "UploadHandler"),
	}
}

// Upload обрабатывает POST /upload.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	in, err := h.decode(w, r)
	if err != nil {
		h.logger.Warn("Некорректное тело запроса", "error", err)
		writeError(w, http.StatusBadRequest, CodeValidation, err.Error())
		return
	}

	logger := h.logger.With("request_id", in.RequestID)
	logger.Info("Запрос на прием метаданных")

	record, err := h.ingestService.Handle(r.Context(), in)
	if err != nil {
		status, code := statusFor(err)
		logger.Error("Ошибка обработки метаданных", "status", status, "error", err)
		writeError(w, status, code, publicMessage(err))
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(models.UploadResponse + "\n"))
	logger.Info("Метаданные приняты", "final_image_key", record.FinalImageKey)
}

// GetRecord обрабатывает GET /records/{requestID}.
func (h *UploadHandler) GetRecord(w http.ResponseWriter, r *http.Request) {
	requestID, err := requestIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidation, "некорректный request_id")
		return
	}
	if strings.TrimSpace(requestID) == "" {
		writeError(w, http.StatusBadRequest, CodeValidation, "не указан request_id")
		return
	}

	record, err := h.ingestService.GetRecord(r.Context(), requestID)
	if err != nil {
		status, code := statusFor(err)
		if status != http.StatusNotFound {
			h.logger.Error("Ошибка чтения записи", "request_id", requestID, "error", err)
		}
		writeError(w, status, code, publicMessage(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err = json.NewEncoder(w).Encode(record); err != nil {
		h.logger.Error("Ошибка кодирования ответа", "request_id", requestID, "error", err)
	}
}

// requestIDParam извлекает request_id из пути.
// Если в пути есть экранированные символы (например, %2F), chi маршрутизирует по RawPath
// и отдает параметр в экранированном виде.
func requestIDParam(r *http.Request) (string, error) {
	param := chi.URLParam(r, "requestID")
	if r.URL.RawPath == "" {
		return param, nil
	}
	return url.PathUnescape(param)
}

// decode разбирает тело запроса и проверяет наличие всех полей.
func (h *UploadHandler) decode(w http.ResponseWriter, r *http.Request) (models.InboundMetadata, error) {
	var in models.InboundMetadata

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&in); err != nil {
		return in, fmt.Errorf("%w: неверный формат JSON: %w", services.ErrValidation, err)
	}

	if err := h.validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fe.Field())
			}
			return in, fmt.Errorf("%w: не заполнены поля: %s", services.ErrValidation, strings.Join(fields, ", "))
		}
		return in, fmt.Errorf("%w: %w", services.ErrValidation, err)
	}
	return in, nil
}

// statusFor сопоставляет ошибку сервиса с HTTP-статусом и кодом.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest, CodeValidation
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, CodeTimeout
	case errors.Is(err, services.ErrResolution):
		return http.StatusBadGateway, CodeResolution
	case errors.Is(err, services.ErrWrite):
		return http.StatusBadGateway, CodeWrite
	case errors.Is(err, services.ErrRecordNotFound):
		return http.StatusNotFound, CodeNotFound
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

// publicMessage возвращает текст ошибки для клиента.
// Подробности от хранилищ (тексты исключений AWS, сетевые ошибки) остаются только в логах.
func publicMessage(err error) string {
	for _, sentinel := range []error{
		services.ErrValidation,
		context.DeadlineExceeded,
		services.ErrResolution,
		services.ErrWrite,
		services.ErrRecordNotFound,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return http.StatusText(http.StatusInternalServerError)
}

// writeError отправляет структурированную ошибку в JSON.
func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(models.ErrorResponse{Error: message, Code: code})
}

// newValidator создает валидатор, который называет поля по их JSON-именам.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		return name
	})
	return v
}
