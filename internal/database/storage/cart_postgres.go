package storage

import (
	"context"
	"log/slog"
	"time"

	"github.com/GoArmGo/foodgram/internal/domain"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// CartStorage отдаёт состав рецептов из корзины, суммирование делает usecase
type CartStorage struct {
	db     sqlx.ExtContext
	logger *slog.Logger
}

func NewCartStorage(db sqlx.ExtContext, logger *slog.Logger) *CartStorage {
	return &CartStorage{db: db, logger: logger}
}

func (s *CartStorage) ListCartLines(ctx context.Context, userID uuid.UUID) ([]domain.CartLine, error) {
	start := time.Now()
	defer observe("list_cart_lines", start)

	query := `
	SELECT ri.recipe_id, ri.ingredient_id, i.name, i.measurement_unit, ri.amount
	FROM shopping_cart sc
	JOIN recipe_ingredients ri ON ri.recipe_id = sc.recipe_id
	JOIN ingredients i ON i.id = ri.ingredient_id
	WHERE sc.user_id = $1
	`
	lines := []domain.CartLine{}
	if err := sqlx.SelectContext(ctx, s.db, &lines, query, userID); err != nil {
		return nil, queryError(s.logger, "list cart lines", err)
	}

	s.logger.Debug("cart lines loaded",
		"user_id", userID,
		"lines", len(lines),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return lines, nil
}

// HasCartLines проверяет, что в корзине есть хотя бы одна строка состава
func (s *CartStorage) HasCartLines(ctx context.Context, userID uuid.UUID) (bool, error) {
	defer observe("has_cart_lines", time.Now())

	query := `
	SELECT EXISTS(
		SELECT 1
		FROM shopping_cart sc
		JOIN recipe_ingredients ri ON ri.recipe_id = sc.recipe_id
		WHERE sc.user_id = $1
	)`
	var exists bool
	if err := sqlx.GetContext(ctx, s.db, &exists, query, userID); err != nil {
		return false, queryError(s.logger, "check cart lines", err)
	}
	return exists, nil
}
