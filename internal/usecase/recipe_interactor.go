package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/GoArmGo/foodgram/internal/core/ports"
	"github.com/GoArmGo/foodgram/internal/domain"
	"github.com/google/uuid"
)

const recipeImagePrefix = "recipes/images"

// recipeUseCase implements RecipeUseCase
type recipeUseCase struct {
	store       ports.Store
	fileStorage ports.FileStorage
	logger      *slog.Logger
	now         func() time.Time
}

// NewRecipeUseCase создает новый экземпляр RecipeUseCase
// принимает хранилище рецептов и файловое хранилище для картинок
func NewRecipeUseCase(store ports.Store, fileStorage ports.FileStorage, logger *slog.Logger) RecipeUseCase {
	return &recipeUseCase{
		store:       store,
		fileStorage: fileStorage,
		logger:      logger,
		now:         time.Now,
	}
}

// CreateRecipe создает рецепт вместе с составом и тегами.
// Если хоть одна проверка не прошла, в хранилище ничего не пишется.
func (uc *recipeUseCase) CreateRecipe(ctx context.Context, authorID uuid.UUID, in RecipeInput) (*domain.RecipeView, error) {
	// 1. Проверяем состав до любой записи
	if err := ValidateComposition(in.Ingredients, in.Tags, in.CookingTime); err != nil {
		return nil, err
	}
	if in.Image == "" {
		return nil, domain.ErrInvalidImage
	}
	img, err := DecodeImage(in.Image)
	if err != nil {
		return nil, err
	}

	// 2. Загружаем картинку в хранилище
	imageURL, err := uc.uploadImage(ctx, img)
	if err != nil {
		return nil, err
	}

	now := uc.now().UTC()
	recipe := &domain.Recipe{
		ID:          uuid.New(),
		AuthorID:    authorID,
		Name:        strings.TrimSpace(in.Name),
		Text:        in.Text,
		Image:       &imageURL,
		CookingTime: in.CookingTime,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	// 3. Рецепт, состав и теги пишем одной транзакцией
	err = uc.store.WithinTx(ctx, func(ctx context.Context, repos ports.Repositories) error {
		if err := checkReferences(ctx, repos.Catalog(), in); err != nil {
			return err
		}
		if err := repos.Recipes().CreateRecipe(ctx, recipe); err != nil {
			return fmt.Errorf("usecase: ошибка сохранения рецепта: %w", err)
		}
		return writeComposition(ctx, repos.Recipes(), recipe.ID, in)
	})
	if err != nil {
		uc.deleteImage(ctx, imageURL)
		return nil, err
	}

	uc.logger.Info("usecase: рецепт создан",
		slog.String("recipe_id", recipe.ID.String()),
		slog.String("author_id", authorID.String()),
	)
	return uc.store.Recipes().GetRecipeView(ctx, authorID, recipe.ID)
}

// UpdateRecipe заменяет поля и состав рецепта.
// Пустая картинка означает, что текущая картинка сохраняется.
func (uc *recipeUseCase) UpdateRecipe(ctx context.Context, userID, recipeID uuid.UUID, in RecipeInput) (*domain.RecipeView, error) {
	recipe, err := uc.store.Recipes().GetRecipe(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	if recipe.AuthorID != userID {
		return nil, domain.ErrForbidden
	}

	if err := ValidateComposition(in.Ingredients, in.Tags, in.CookingTime); err != nil {
		return nil, err
	}

	var newImageURL string
	if in.Image != "" {
		img, err := DecodeImage(in.Image)
		if err != nil {
			return nil, err
		}
		if newImageURL, err = uc.uploadImage(ctx, img); err != nil {
			return nil, err
		}
	}

	oldImage := recipe.Image
	recipe.Name = strings.TrimSpace(in.Name)
	recipe.Text = in.Text
	recipe.CookingTime = in.CookingTime
	recipe.UpdatedAt = uc.now().UTC()
	if newImageURL != "" {
		recipe.Image = &newImageURL
	}

	err = uc.store.WithinTx(ctx, func(ctx context.Context, repos ports.Repositories) error {
		if err := checkReferences(ctx, repos.Catalog(), in); err != nil {
			return err
		}
		if err := repos.Recipes().UpdateRecipe(ctx, recipe); err != nil {
			return fmt.Errorf("usecase: ошибка обновления рецепта %s: %w", recipeID, err)
		}
		return writeComposition(ctx, repos.Recipes(), recipe.ID, in)
	})
	if err != nil {
		if newImageURL != "" {
			uc.deleteImage(ctx, newImageURL)
		}
		return nil, err
	}

	if newImageURL != "" && oldImage != nil {
		uc.deleteImage(ctx, *oldImage)
	}

	return uc.store.Recipes().GetRecipeView(ctx, userID, recipe.ID)
}

// DeleteRecipe удаляет рецепт; состав, теги и все отношения удаляются каскадом
func (uc *recipeUseCase) DeleteRecipe(ctx context.Context, userID, recipeID uuid.UUID) error {
	recipe, err := uc.store.Recipes().GetRecipe(ctx, recipeID)
	if err != nil {
		return err
	}
	if recipe.AuthorID != userID {
		return domain.ErrForbidden
	}

	if err := uc.store.Recipes().DeleteRecipe(ctx, recipeID); err != nil {
		return fmt.Errorf("usecase: ошибка удаления рецепта %s: %w", recipeID, err)
	}
	if recipe.Image != nil {
		uc.deleteImage(ctx, *recipe.Image)
	}

	uc.logger.Info("usecase: рецепт удалён", slog.String("recipe_id", recipeID.String()))
	return nil
}

func (uc *recipeUseCase) GetRecipe(ctx context.Context, viewer, recipeID uuid.UUID) (*domain.RecipeView, error) {
	return uc.store.Recipes().GetRecipeView(ctx, viewer, recipeID)
}

// ListRecipes возвращает страницу рецептов, новые первыми.
// Для анонимного зрителя флаги is_favorited и is_in_shopping_cart игнорируются.
func (uc *recipeUseCase) ListRecipes(ctx context.Context, filter domain.RecipeFilter) (domain.Page[domain.RecipeView], error) {
	if filter.Viewer == uuid.Nil {
		filter.IsFavorited = false
		filter.IsInShoppingCart = false
	}

	recipes, total, err := uc.store.Recipes().ListRecipeViews(ctx, filter)
	if err != nil {
		return domain.Page[domain.RecipeView]{}, fmt.Errorf("usecase: ошибка получения списка рецептов: %w", err)
	}
	if recipes == nil {
		recipes = []domain.RecipeView{}
	}
	return domain.Page[domain.RecipeView]{Count: total, Results: recipes}, nil
}

// checkReferences проверяет, что все ингредиенты и теги есть в справочниках
func checkReferences(ctx context.Context, catalog ports.CatalogStorage, in RecipeInput) error {
	ids := make([]uuid.UUID, len(in.Ingredients))
	for i, item := range in.Ingredients {
		ids[i] = item.IngredientID
	}

	missing, err := catalog.MissingIngredients(ctx, ids)
	if err != nil {
		return fmt.Errorf("usecase: ошибка проверки ингредиентов: %w", err)
	}
	if len(missing) > 0 {
		return &domain.CompositionError{Kind: domain.ErrNotFound, Field: domain.FieldIngredients, IDs: missing}
	}

	missing, err = catalog.MissingTags(ctx, in.Tags)
	if err != nil {
		return fmt.Errorf("usecase: ошибка проверки тегов: %w", err)
	}
	if len(missing) > 0 {
		return &domain.CompositionError{Kind: domain.ErrNotFound, Field: domain.FieldTags, IDs: missing}
	}
	return nil
}

func writeComposition(ctx context.Context, recipes ports.RecipeStorage, recipeID uuid.UUID, in RecipeInput) error {
	if err := recipes.ReplaceIngredients(ctx, recipeID, in.Ingredients); err != nil {
		return fmt.Errorf("usecase: ошибка сохранения состава рецепта %s: %w", recipeID, err)
	}
	if err := recipes.ReplaceTags(ctx, recipeID, in.Tags); err != nil {
		return fmt.Errorf("usecase: ошибка сохранения тегов рецепта %s: %w", recipeID, err)
	}
	return nil
}

func (uc *recipeUseCase) uploadImage(ctx context.Context, img *Image) (string, error) {
	url, err := uc.fileStorage.UploadFile(ctx, img.Key(recipeImagePrefix), img.Reader(), img.ContentType)
	if err != nil {
		return "", fmt.Errorf("usecase: ошибка загрузки картинки рецепта: %w", err)
	}
	return url, nil
}

func (uc *recipeUseCase) deleteImage(ctx context.Context, url string) {
	deleteObjectByURL(ctx, uc.fileStorage, uc.logger, url)
}
