package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/GoArmGo/foodgram/internal/domain"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// recipeViewSelect — проекция рецепта вместе с автором.
// $1 — зритель; для uuid.Nil все флаги EXISTS дают false.
const recipeViewSelect = `
	SELECT r.id, r.author_id, r.name, r.text, r.image, r.cooking_time, r.created_at,
	       u.email AS author_email, u.username AS author_username,
	       u.first_name AS author_first_name, u.last_name AS author_last_name, u.avatar AS author_avatar,
	       EXISTS(SELECT 1 FROM follows f WHERE f.user_id = $1 AND f.following_id = r.author_id) AS author_is_subscribed,
	       EXISTS(SELECT 1 FROM favorites fv WHERE fv.user_id = $1 AND fv.recipe_id = r.id) AS is_favorited,
	       EXISTS(SELECT 1 FROM shopping_cart sc WHERE sc.user_id = $1 AND sc.recipe_id = r.id) AS is_in_shopping_cart
	FROM recipes r
	JOIN users u ON u.id = r.author_id`

type recipeViewRow struct {
	ID                 uuid.UUID `db:"id"`
	AuthorID           uuid.UUID `db:"author_id"`
	Name               string    `db:"name"`
	Text               string    `db:"text"`
	Image              *string   `db:"image"`
	CookingTime        int       `db:"cooking_time"`
	CreatedAt          time.Time `db:"created_at"`
	AuthorEmail        string    `db:"author_email"`
	AuthorUsername     string    `db:"author_username"`
	AuthorFirstName    string    `db:"author_first_name"`
	AuthorLastName     string    `db:"author_last_name"`
	AuthorAvatar       *string   `db:"author_avatar"`
	AuthorIsSubscribed bool      `db:"author_is_subscribed"`
	IsFavorited        bool      `db:"is_favorited"`
	IsInShoppingCart   bool      `db:"is_in_shopping_cart"`
}

func (r recipeViewRow) view() domain.RecipeView {
	return domain.RecipeView{
		ID: r.ID,
		Author: domain.UserView{
			User: domain.User{
				ID:        r.AuthorID,
				Email:     r.AuthorEmail,
				Username:  r.AuthorUsername,
				FirstName: r.AuthorFirstName,
				LastName:  r.AuthorLastName,
				Avatar:    r.AuthorAvatar,
			},
			IsSubscribed: r.AuthorIsSubscribed,
		},
		Name:             r.Name,
		Image:            r.Image,
		Text:             r.Text,
		CookingTime:      r.CookingTime,
		IsFavorited:      r.IsFavorited,
		IsInShoppingCart: r.IsInShoppingCart,
		CreatedAt:        r.CreatedAt,
		Tags:             []domain.Tag{},
		Ingredients:      []domain.RecipeIngredient{},
	}
}

type recipeTagRow struct {
	RecipeID uuid.UUID `db:"recipe_id"`
	domain.Tag
}

type recipeIngredientRow struct {
	RecipeID uuid.UUID `db:"recipe_id"`
	domain.RecipeIngredient
}

// RecipeStorage реализует ports.RecipeStorage на sqlx
type RecipeStorage struct {
	db     sqlx.ExtContext
	logger *slog.Logger
}

func NewRecipeStorage(db sqlx.ExtContext, logger *slog.Logger) *RecipeStorage {
	return &RecipeStorage{db: db, logger: logger}
}

// CreateRecipe сохраняет рецепт без состава
func (s *RecipeStorage) CreateRecipe(ctx context.Context, recipe *domain.Recipe) error {
	start := time.Now()
	defer observe("create_recipe", start)

	if recipe.ID == uuid.Nil {
		recipe.ID = uuid.New()
	}

	query := `
	INSERT INTO recipes (id, author_id, name, text, image, cooking_time, created_at, updated_at)
	VALUES (:id, :author_id, :name, :text, :image, :cooking_time, :created_at, :updated_at)
	`
	if _, err := sqlx.NamedExecContext(ctx, s.db, query, recipe); err != nil {
		return queryError(s.logger, "create recipe", err)
	}

	s.logger.Info("recipe saved successfully",
		"id", recipe.ID,
		"author_id", recipe.AuthorID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

func (s *RecipeStorage) UpdateRecipe(ctx context.Context, recipe *domain.Recipe) error {
	defer observe("update_recipe", time.Now())

	query := `
	UPDATE recipes
	SET name = :name, text = :text, image = :image, cooking_time = :cooking_time, updated_at = :updated_at
	WHERE id = :id
	`
	res, err := sqlx.NamedExecContext(ctx, s.db, query, recipe)
	return expectAffected(s.logger, "update recipe", res, err)
}

// DeleteRecipe удаляет рецепт; состав, теги, избранное и корзина удаляются каскадом
func (s *RecipeStorage) DeleteRecipe(ctx context.Context, id uuid.UUID) error {
	defer observe("delete_recipe", time.Now())

	res, err := s.db.ExecContext(ctx, `DELETE FROM recipes WHERE id = $1`, id)
	return expectAffected(s.logger, "delete recipe", res, err)
}

func (s *RecipeStorage) GetRecipe(ctx context.Context, id uuid.UUID) (*domain.Recipe, error) {
	defer observe("get_recipe", time.Now())

	var recipe domain.Recipe
	query := `
	SELECT id, author_id, name, text, image, cooking_time, created_at, updated_at
	FROM recipes WHERE id = $1
	`
	if err := sqlx.GetContext(ctx, s.db, &recipe, query, id); err != nil {
		return nil, queryError(s.logger, "get recipe", err)
	}
	return &recipe, nil
}

func (s *RecipeStorage) RecipeExists(ctx context.Context, id uuid.UUID) (bool, error) {
	defer observe("recipe_exists", time.Now())

	var exists bool
	if err := sqlx.GetContext(ctx, s.db, &exists, `SELECT EXISTS(SELECT 1 FROM recipes WHERE id = $1)`, id); err != nil {
		return false, queryError(s.logger, "check recipe exists", err)
	}
	return exists, nil
}

// ReplaceIngredients заменяет состав рецепта целиком.
// Повтор ингредиента нарушает первичный ключ и даёт ErrDuplicateReference.
func (s *RecipeStorage) ReplaceIngredients(ctx context.Context, recipeID uuid.UUID, lines []domain.IngredientAmount) error {
	defer observe("replace_recipe_ingredients", time.Now())

	if _, err := s.db.ExecContext(ctx, `DELETE FROM recipe_ingredients WHERE recipe_id = $1`, recipeID); err != nil {
		return queryError(s.logger, "clear recipe ingredients", err)
	}
	if len(lines) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, len(lines))
	amounts := make([]int64, len(lines))
	for i, line := range lines {
		ids[i] = line.IngredientID
		amounts[i] = int64(line.Amount)
	}

	query := `
	INSERT INTO recipe_ingredients (recipe_id, ingredient_id, amount)
	SELECT $1, t.ingredient_id, t.amount
	FROM UNNEST($2::uuid[], $3::int[]) AS t(ingredient_id, amount)
	`
	if _, err := s.db.ExecContext(ctx, query, recipeID, uuidArray(ids), pq.Array(amounts)); err != nil {
		return queryError(s.logger, "insert recipe ingredients", err)
	}
	return nil
}

// ReplaceTags устанавливает набор тегов рецепта ровно в tagIDs
func (s *RecipeStorage) ReplaceTags(ctx context.Context, recipeID uuid.UUID, tagIDs []uuid.UUID) error {
	defer observe("replace_recipe_tags", time.Now())

	if _, err := s.db.ExecContext(ctx, `DELETE FROM recipe_tags WHERE recipe_id = $1`, recipeID); err != nil {
		return queryError(s.logger, "clear recipe tags", err)
	}
	if len(tagIDs) == 0 {
		return nil
	}

	query := `
	INSERT INTO recipe_tags (recipe_id, tag_id)
	SELECT $1, UNNEST($2::uuid[])
	`
	if _, err := s.db.ExecContext(ctx, query, recipeID, uuidArray(tagIDs)); err != nil {
		return queryError(s.logger, "insert recipe tags", err)
	}
	return nil
}

// GetRecipeView возвращает рецепт с автором, тегами, составом и флагами зрителя
func (s *RecipeStorage) GetRecipeView(ctx context.Context, viewer, id uuid.UUID) (*domain.RecipeView, error) {
	defer observe("get_recipe_view", time.Now())

	var row recipeViewRow
	if err := sqlx.GetContext(ctx, s.db, &row, recipeViewSelect+` WHERE r.id = $2`, viewer, id); err != nil {
		return nil, queryError(s.logger, "get recipe view", err)
	}

	views := []domain.RecipeView{row.view()}
	if err := s.attachComposition(ctx, views); err != nil {
		return nil, err
	}
	return &views[0], nil
}

// ListRecipeViews возвращает страницу рецептов по фильтру, новые первыми
func (s *RecipeStorage) ListRecipeViews(ctx context.Context, filter domain.RecipeFilter) ([]domain.RecipeView, int, error) {
	start := time.Now()
	defer observe("list_recipes", start)

	countWhere, countArgs := buildRecipeFilter(filter, 1)
	var total int
	if err := sqlx.GetContext(ctx, s.db, &total, `SELECT COUNT(*) FROM recipes r`+countWhere, countArgs...); err != nil {
		return nil, 0, queryError(s.logger, "count recipes", err)
	}

	where, args := buildRecipeFilter(filter, 2)
	args = append([]interface{}{filter.Viewer}, args...)
	query := fmt.Sprintf("%s%s\n\tORDER BY r.created_at DESC, r.id\n\tLIMIT $%d OFFSET $%d",
		recipeViewSelect, where, len(args)+1, len(args)+2)
	args = append(args, filter.Limit, filter.Offset)

	rows := []recipeViewRow{}
	if err := sqlx.SelectContext(ctx, s.db, &rows, query, args...); err != nil {
		return nil, 0, queryError(s.logger, "list recipes", err)
	}

	views := make([]domain.RecipeView, len(rows))
	for i, row := range rows {
		views[i] = row.view()
	}
	if err := s.attachComposition(ctx, views); err != nil {
		return nil, 0, err
	}

	s.logger.Debug("recipes listed",
		"count", len(views),
		"total", total,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return views, total, nil
}

// buildRecipeFilter строит WHERE для списка рецептов.
// Плейсхолдеры нумеруются с first; зритель добавляется отдельным аргументом,
// только если нужен фильтрам по избранному или корзине.
func buildRecipeFilter(filter domain.RecipeFilter, first int) (string, []interface{}) {
	var (
		conds []string
		args  []interface{}
	)
	next := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", first+len(args)-1)
	}

	if filter.AuthorID != nil {
		conds = append(conds, "r.author_id = "+next(*filter.AuthorID))
	}
	if len(filter.Tags) > 0 {
		conds = append(conds, fmt.Sprintf(
			"EXISTS(SELECT 1 FROM recipe_tags rt JOIN tags t ON t.id = rt.tag_id WHERE rt.recipe_id = r.id AND t.slug = ANY(%s))",
			next(pq.Array(filter.Tags))))
	}
	if filter.Viewer != uuid.Nil && (filter.IsFavorited || filter.IsInShoppingCart) {
		viewer := next(filter.Viewer)
		if filter.IsFavorited {
			conds = append(conds, "EXISTS(SELECT 1 FROM favorites fv2 WHERE fv2.user_id = "+viewer+" AND fv2.recipe_id = r.id)")
		}
		if filter.IsInShoppingCart {
			conds = append(conds, "EXISTS(SELECT 1 FROM shopping_cart sc2 WHERE sc2.user_id = "+viewer+" AND sc2.recipe_id = r.id)")
		}
	}

	if len(conds) == 0 {
		return "", nil
	}
	return "\n\tWHERE " + strings.Join(conds, " AND "), args
}

// attachComposition догружает теги и состав для пачки рецептов двумя запросами
func (s *RecipeStorage) attachComposition(ctx context.Context, views []domain.RecipeView) error {
	if len(views) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, len(views))
	index := make(map[uuid.UUID]int, len(views))
	for i, v := range views {
		ids[i] = v.ID
		index[v.ID] = i
	}

	var tags []recipeTagRow
	tagQuery := `
	SELECT rt.recipe_id, t.id, t.name, t.slug
	FROM recipe_tags rt
	JOIN tags t ON t.id = rt.tag_id
	WHERE rt.recipe_id = ANY($1::uuid[])
	ORDER BY t.name
	`
	if err := sqlx.SelectContext(ctx, s.db, &tags, tagQuery, uuidArray(ids)); err != nil {
		return queryError(s.logger, "load recipe tags", err)
	}
	for _, row := range tags {
		i := index[row.RecipeID]
		views[i].Tags = append(views[i].Tags, row.Tag)
	}

	var lines []recipeIngredientRow
	lineQuery := `
	SELECT ri.recipe_id, i.id, i.name, i.measurement_unit, ri.amount
	FROM recipe_ingredients ri
	JOIN ingredients i ON i.id = ri.ingredient_id
	WHERE ri.recipe_id = ANY($1::uuid[])
	ORDER BY i.name
	`
	if err := sqlx.SelectContext(ctx, s.db, &lines, lineQuery, uuidArray(ids)); err != nil {
		return queryError(s.logger, "load recipe ingredients", err)
	}
	for _, row := range lines {
		i := index[row.RecipeID]
		views[i].Ingredients = append(views[i].Ingredients, row.RecipeIngredient)
	}
	return nil
}

type authorRecipeRow struct {
	AuthorID uuid.UUID `db:"author_id"`
	domain.RecipeShort
}

// ListRecipesByAuthors возвращает короткие карточки рецептов сразу нескольких авторов,
// новые первыми; limit <= 0 — все рецепты каждого автора
func (s *RecipeStorage) ListRecipesByAuthors(ctx context.Context, authorIDs []uuid.UUID, limit int) (map[uuid.UUID][]domain.RecipeShort, error) {
	defer observe("list_recipes_by_authors", time.Now())

	out := make(map[uuid.UUID][]domain.RecipeShort, len(authorIDs))
	if len(authorIDs) == 0 {
		return out, nil
	}

	query := `
	SELECT author_id, id, name, image, cooking_time
	FROM (
		SELECT author_id, id, name, image, cooking_time,
		       ROW_NUMBER() OVER (PARTITION BY author_id ORDER BY created_at DESC) AS rn
		FROM recipes
		WHERE author_id = ANY($1::uuid[])
	) ranked`
	args := []interface{}{uuidArray(authorIDs)}
	if limit > 0 {
		query += `
	WHERE rn <= $2`
		args = append(args, limit)
	}
	query += `
	ORDER BY author_id, rn`

	var rows []authorRecipeRow
	if err := sqlx.SelectContext(ctx, s.db, &rows, query, args...); err != nil {
		return nil, queryError(s.logger, "list recipes by authors", err)
	}
	for _, row := range rows {
		out[row.AuthorID] = append(out[row.AuthorID], row.RecipeShort)
	}
	return out, nil
}

// CountRecipesByAuthors считает рецепты авторов; автора без рецептов в ответе нет
func (s *RecipeStorage) CountRecipesByAuthors(ctx context.Context, authorIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	defer observe("count_recipes_by_authors", time.Now())

	out := make(map[uuid.UUID]int, len(authorIDs))
	if len(authorIDs) == 0 {
		return out, nil
	}

	var rows []struct {
		AuthorID uuid.UUID `db:"author_id"`
		N        int       `db:"n"`
	}
	query := `
	SELECT author_id, COUNT(*) AS n
	FROM recipes
	WHERE author_id = ANY($1::uuid[])
	GROUP BY author_id`
	if err := sqlx.SelectContext(ctx, s.db, &rows, query, uuidArray(authorIDs)); err != nil {
		return nil, queryError(s.logger, "count recipes by authors", err)
	}
	for _, row := range rows {
		out[row.AuthorID] = row.N
	}
	return out, nil
}
