package models

// InboundMetadata представляет тело запроса POST /upload.
// Ключа итогового изображения здесь еще нет, его находит резолвер по RequestID.
// Тэги `validate` проверяются валидатором в обработчике: все поля обязательны.
type InboundMetadata struct {
	URL         string `json:"url" validate:"required"`
	Label       string `json:"label" validate:"required"`
	Type        string `json:"type" validate:"required"`
	Season      string `json:"season" validate:"required"`
	ShowName    string `json:"show_name" validate:"required"`
	Designer    string `json:"designer" validate:"required"`
	Description string `json:"description" validate:"required"`
	RequestID   string `json:"request_id" validate:"required"` // Идентификатор корреляции, формат задает загрузчик
}

// ResolvedRecord представляет запись, готовую к сохранению в хранилище ключ-значение.
// Тэги `dynamodbav` задают имена атрибутов DynamoDB, `db` - колонки PostgreSQL.
// FinalImageKey всегда присутствует; пустая строка означает "ключ не найден".
type ResolvedRecord struct {
	URL           string `json:"url" dynamodbav:"url" db:"url"`
	Label         string `json:"label" dynamodbav:"label" db:"label"`
	Type          string `json:"type" dynamodbav:"type" db:"type"`
	Season        string `json:"season" dynamodbav:"season" db:"season"`
	ShowName      string `json:"show_name" dynamodbav:"show_name" db:"show_name"`
	Designer      string `json:"designer" dynamodbav:"designer" db:"designer"`
	Description   string `json:"description" dynamodbav:"description" db:"description"`
	RequestID     string `json:"request_id" dynamodbav:"request_id" db:"request_id"`
	FinalImageKey string `json:"final_image_key" dynamodbav:"final_image_key" db:"final_image_key"`
}

// NewResolvedRecord объединяет входные метаданные с найденным ключом изображения.
// Пустой finalImageKey сохраняется как есть (поле не опускается).
func NewResolvedRecord(in InboundMetadata, finalImageKey string) ResolvedRecord {
	return ResolvedRecord{
		URL:           in.URL,
		Label:         in.Label,
		Type:          in.Type,
		Season:        in.Season,
		ShowName:      in.ShowName,
		Designer:      in.Designer,
		Description:   in.Description,
		RequestID:     in.RequestID,
		FinalImageKey: finalImageKey,
	}
}

// Resolved сообщает, удалось ли найти ключ итогового изображения.
func (r ResolvedRecord) Resolved() bool {
	return r.FinalImageKey != ""
}

// Attributes возвращает все атрибуты записи в виде строковой карты.
// Используется хранилищами, которые пишут атрибуты поштучно.
func (r ResolvedRecord) Attributes() map[string]string {
	return map[string]string{
		"url":             r.URL,
		"label":           r.Label,
		"type":            r.Type,
		"season":          r.Season,
		"show_name":       r.ShowName,
		"designer":        r.Designer,
		"description":     r.Description,
		"request_id":      r.RequestID,
		"final_image_key": r.FinalImageKey,
	}
}

// UploadResponse - текст подтверждения успешной записи.
const UploadResponse = "Метаданные получены и записаны в хранилище"

// ErrorResponse представляет тело ответа при ошибке.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}
