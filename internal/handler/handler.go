package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/GoArmGo/foodgram/internal/validation"
)

// максимальный размер тела запроса: картинка в base64 плюс состав рецепта
const maxBodyBytes = 10 << 20

// respondWithJSON — отправляет JSON-ответ клиенту.
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}, logger *slog.Logger) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		logger.Error("failed to marshal JSON response", "error", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err = w.Write(response); err != nil {
		logger.Error("failed to write HTTP response", "error", err)
	}
}

// respondWithDetail — отправляет ошибку в виде {"detail": "..."}.
func respondWithDetail(w http.ResponseWriter, code int, message string, logger *slog.Logger) {
	respondWithJSON(w, code, map[string]string{"detail": message}, logger)
}

// decodeJSON читает тело запроса и проверяет его теги validate.
// Ошибка разбора возвращается как FieldErrors, чтобы ответ был в общем формате.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer body.Close()

	if err := json.NewDecoder(body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return validation.FieldErrors{"non_field_errors": {"Пустое тело запроса."}}
		}
		return validation.FieldErrors{"non_field_errors": {fmt.Sprintf("Некорректный JSON: %v", err)}}
	}
	return validation.Struct(dst)
}

// pathUUID достает идентификатор из параметра маршрута
func pathUUID(r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// acquire занимает слот в ограничителе параллельных загрузок файлов.
// Возвращает функцию освобождения либо ошибку, если запрос отменен раньше.
func acquire(ctx context.Context, limiter chan struct{}) (func(), error) {
	if limiter == nil {
		return func() {}, nil
	}
	select {
	case limiter <- struct{}{}:
		return func() { <-limiter }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
