package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/GoArmGo/foodgram/internal/domain"
	"github.com/GoArmGo/foodgram/internal/usecase"
	"github.com/GoArmGo/foodgram/internal/validation"
)

// сообщения для ошибок отношений по видам
var relationMessages = map[domain.RelationKind]struct{ exists, missing string }{
	domain.RelationFavorite:     {"Рецепт уже в избранном.", "Рецепта нет в избранном."},
	domain.RelationShoppingCart: {"Рецепт уже в списке покупок.", "Рецепта нет в списке покупок."},
	domain.RelationFollow:       {"Вы уже подписаны на этого пользователя.", "Вы не подписаны на этого пользователя."},
}

// respondWithError переводит ошибку бизнес-логики в HTTP-ответ.
// Неизвестные ошибки логируются и отдаются как 500 без подробностей.
func respondWithError(w http.ResponseWriter, r *http.Request, err error, logger *slog.Logger) {
	var (
		compErr   *domain.CompositionError
		fieldErrs validation.FieldErrors
	)

	switch {
	case errors.As(err, &compErr):
		respondWithJSON(w, http.StatusBadRequest, map[string][]string{compErr.Field: {compErr.Error()}}, logger)
	case errors.As(err, &fieldErrs):
		respondWithJSON(w, http.StatusBadRequest, fieldErrs, logger)
	case errors.Is(err, domain.ErrMembershipNotFound):
		respondWithDetail(w, http.StatusBadRequest, "Запись не найдена.", logger)
	case errors.Is(err, domain.ErrNotFound):
		respondWithDetail(w, http.StatusNotFound, "Страница не найдена.", logger)
	case errors.Is(err, domain.ErrAlreadyExists):
		respondWithDetail(w, http.StatusBadRequest, "Запись уже существует.", logger)
	case errors.Is(err, domain.ErrSelfReferenceNotAllowed):
		respondWithDetail(w, http.StatusBadRequest, "Нельзя подписаться на самого себя.", logger)
	case errors.Is(err, domain.ErrShoppingCartEmpty):
		respondWithDetail(w, http.StatusBadRequest, "Список покупок пуст.", logger)
	case errors.Is(err, domain.ErrInvalidImage):
		respondWithJSON(w, http.StatusBadRequest, map[string][]string{domain.FieldImage: {"Загрузите корректное изображение."}}, logger)
	case errors.Is(err, domain.ErrInvalidCredentials):
		respondWithJSON(w, http.StatusBadRequest, map[string][]string{"non_field_errors": {"Невозможно войти с предоставленными учетными данными."}}, logger)
	case errors.Is(err, domain.ErrUnauthorized):
		respondWithDetail(w, http.StatusUnauthorized, "Учетные данные не были предоставлены.", logger)
	case errors.Is(err, domain.ErrForbidden):
		respondWithDetail(w, http.StatusForbidden, "У вас недостаточно прав для выполнения данного действия.", logger)
	case errors.Is(err, usecase.ErrExportUnavailable):
		respondWithDetail(w, http.StatusServiceUnavailable, "Выгрузка списка покупок недоступна.", logger)
	case errors.Is(err, context.DeadlineExceeded):
		respondWithDetail(w, http.StatusGatewayTimeout, "Превышено время обработки запроса.", logger)
	default:
		logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		respondWithDetail(w, http.StatusInternalServerError, "Внутренняя ошибка сервера.", logger)
	}
}

// respondWithRelationError уточняет сообщение для ошибок избранного, корзины и подписок
func respondWithRelationError(w http.ResponseWriter, r *http.Request, kind domain.RelationKind, err error, logger *slog.Logger) {
	msgs, ok := relationMessages[kind]
	switch {
	case ok && errors.Is(err, domain.ErrMembershipNotFound):
		respondWithDetail(w, http.StatusBadRequest, msgs.missing, logger)
	case ok && errors.Is(err, domain.ErrAlreadyExists):
		respondWithDetail(w, http.StatusBadRequest, msgs.exists, logger)
	default:
		respondWithError(w, r, err, logger)
	}
}
