package storage

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/GoArmGo/foodgram/internal/domain"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// CatalogStorage — справочники тегов и ингредиентов на sqlx
type CatalogStorage struct {
	db     sqlx.ExtContext
	logger *slog.Logger
}

func NewCatalogStorage(db sqlx.ExtContext, logger *slog.Logger) *CatalogStorage {
	return &CatalogStorage{db: db, logger: logger}
}

func (s *CatalogStorage) ListTags(ctx context.Context) ([]domain.Tag, error) {
	defer observe("list_tags", time.Now())

	tags := []domain.Tag{}
	if err := sqlx.SelectContext(ctx, s.db, &tags, `SELECT id, name, slug FROM tags ORDER BY name`); err != nil {
		return nil, queryError(s.logger, "list tags", err)
	}
	return tags, nil
}

func (s *CatalogStorage) GetTag(ctx context.Context, id uuid.UUID) (*domain.Tag, error) {
	defer observe("get_tag", time.Now())

	var tag domain.Tag
	if err := sqlx.GetContext(ctx, s.db, &tag, `SELECT id, name, slug FROM tags WHERE id = $1`, id); err != nil {
		return nil, queryError(s.logger, "get tag", err)
	}
	return &tag, nil
}

// SearchIngredients ищет ингредиенты, имя которых содержит term.
// Спецсимволы LIKE в term экранируются; ранжирование делает вызывающий код.
func (s *CatalogStorage) SearchIngredients(ctx context.Context, term string) ([]domain.Ingredient, error) {
	start := time.Now()
	defer observe("search_ingredients", start)

	ingredients := []domain.Ingredient{}
	var err error
	if term == "" {
		err = sqlx.SelectContext(ctx, s.db, &ingredients,
			`SELECT id, name, measurement_unit FROM ingredients ORDER BY name`)
	} else {
		err = sqlx.SelectContext(ctx, s.db, &ingredients,
			`SELECT id, name, measurement_unit FROM ingredients WHERE name ILIKE $1 ESCAPE '\' ORDER BY name`,
			"%"+likeEscaper.Replace(term)+"%")
	}
	if err != nil {
		return nil, queryError(s.logger, "search ingredients", err)
	}

	s.logger.Debug("ingredients searched",
		"term", term,
		"found", len(ingredients),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return ingredients, nil
}

func (s *CatalogStorage) GetIngredient(ctx context.Context, id uuid.UUID) (*domain.Ingredient, error) {
	defer observe("get_ingredient", time.Now())

	var ing domain.Ingredient
	if err := sqlx.GetContext(ctx, s.db, &ing, `SELECT id, name, measurement_unit FROM ingredients WHERE id = $1`, id); err != nil {
		return nil, queryError(s.logger, "get ingredient", err)
	}
	return &ing, nil
}

func (s *CatalogStorage) MissingIngredients(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	return s.missing(ctx, "ingredients", ids)
}

func (s *CatalogStorage) MissingTags(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	return s.missing(ctx, "tags", ids)
}

// missing возвращает идентификаторы из ids, которых нет в таблице, в исходном порядке
func (s *CatalogStorage) missing(ctx context.Context, table string, ids []uuid.UUID) ([]uuid.UUID, error) {
	defer observe("missing_"+table, time.Now())

	if len(ids) == 0 {
		return nil, nil
	}

	var found []uuid.UUID
	query := `SELECT id FROM ` + table + ` WHERE id = ANY($1::uuid[])`
	if err := sqlx.SelectContext(ctx, s.db, &found, query, uuidArray(ids)); err != nil {
		return nil, queryError(s.logger, "check "+table, err)
	}

	present := make(map[uuid.UUID]struct{}, len(found))
	for _, id := range found {
		present[id] = struct{}{}
	}

	var missing []uuid.UUID
	for _, id := range ids {
		if _, ok := present[id]; !ok {
			missing = append(missing, id)
			present[id] = struct{}{}
		}
	}
	return missing, nil
}
