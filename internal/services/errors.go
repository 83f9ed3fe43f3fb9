package services

import "errors"

// Кастомные ошибки сервиса.
// Обработчики различают их через errors.Is и выбирают HTTP-статус.
var (
	// ErrValidation - тело запроса не разбирается во входные метаданные или пропущено поле.
	ErrValidation = errors.New("некорректные входные метаданные")
	// ErrResolution - объектное хранилище недоступно или вернуло запись без ключа.
	ErrResolution = errors.New("ошибка поиска ключа изображения")
	// ErrWrite - хранилище ключ-значение не приняло запись.
	ErrWrite = errors.New("ошибка записи метаданных")
	// ErrRecordNotFound - запись с таким request_id не сохранялась.
	ErrRecordNotFound = errors.New("запись не найдена")
)
