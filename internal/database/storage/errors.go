package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/GoArmGo/foodgram/internal/domain"
	"github.com/lib/pq"
)

// Коды ошибок PostgreSQL
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// translateError переводит ошибки драйвера в доменные
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}

	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}

	switch pqErr.Code {
	case pgUniqueViolation:
		if pqErr.Constraint == "recipe_ingredients_pkey" || pqErr.Constraint == "recipe_tags_pkey" {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateReference, pqErr.Constraint)
		}
		return fmt.Errorf("%w: %s", domain.ErrAlreadyExists, pqErr.Constraint)
	case pgForeignKeyViolation:
		return fmt.Errorf("%w: %s", domain.ErrNotFound, pqErr.Constraint)
	case pgCheckViolation:
		if pqErr.Constraint == "follows_no_self_follow" {
			return domain.ErrSelfReferenceNotAllowed
		}
		return fmt.Errorf("%w: %s", domain.ErrInvalidQuantity, pqErr.Constraint)
	}
	return err
}

// queryError переводит ошибку запроса и логирует всё, кроме отсутствия строк
func queryError(logger *slog.Logger, op string, err error) error {
	err = translateError(err)
	if !errors.Is(err, domain.ErrNotFound) {
		logger.Error("storage query failed", "operation", op, "error", err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// expectAffected возвращает ErrNotFound, если запрос не затронул ни одной строки
func expectAffected(logger *slog.Logger, op string, res sql.Result, err error) error {
	if err != nil {
		return queryError(logger, op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return queryError(logger, op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	return nil
}
