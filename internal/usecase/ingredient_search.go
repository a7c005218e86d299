package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/GoArmGo/foodgram/internal/core/ports"
	"github.com/GoArmGo/foodgram/internal/domain"
	"github.com/google/uuid"
)

// RankIngredients упорядочивает результаты поиска по term:
// сначала имена, начинающиеся с term, затем имена, лишь содержащие его.
// Внутри каждой группы — по имени без учёта регистра. Кандидаты, не содержащие
// term, отбрасываются. Пустой term возвращает всех кандидатов по алфавиту.
func RankIngredients(term string, candidates []domain.Ingredient) []domain.Ingredient {
	needle := strings.ToLower(strings.TrimSpace(term))

	var prefix, contains []domain.Ingredient
	for _, ing := range candidates {
		name := strings.ToLower(ing.Name)
		switch {
		case strings.HasPrefix(name, needle):
			prefix = append(prefix, ing)
		case strings.Contains(name, needle):
			contains = append(contains, ing)
		}
	}

	sortByName(prefix)
	sortByName(contains)

	out := make([]domain.Ingredient, 0, len(prefix)+len(contains))
	out = append(out, prefix...)
	return append(out, contains...)
}

func sortByName(items []domain.Ingredient) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := strings.ToLower(items[i].Name), strings.ToLower(items[j].Name)
		if a != b {
			return a < b
		}
		if items[i].Name != items[j].Name {
			return items[i].Name < items[j].Name
		}
		return items[i].MeasurementUnit < items[j].MeasurementUnit
	})
}

// catalogUseCase implements CatalogUseCase
type catalogUseCase struct {
	catalog ports.CatalogStorage
	logger  *slog.Logger
}

// NewCatalogUseCase создает сервис справочников
func NewCatalogUseCase(catalog ports.CatalogStorage, logger *slog.Logger) CatalogUseCase {
	return &catalogUseCase{catalog: catalog, logger: logger}
}

func (uc *catalogUseCase) ListTags(ctx context.Context) ([]domain.Tag, error) {
	tags, err := uc.catalog.ListTags(ctx)
	if err != nil {
		return nil, fmt.Errorf("usecase: ошибка получения тегов: %w", err)
	}
	return tags, nil
}

func (uc *catalogUseCase) GetTag(ctx context.Context, id uuid.UUID) (*domain.Tag, error) {
	return uc.catalog.GetTag(ctx, id)
}

// SearchIngredients ищет ингредиенты по подстроке и ранжирует префиксные совпадения выше
func (uc *catalogUseCase) SearchIngredients(ctx context.Context, term string) ([]domain.Ingredient, error) {
	candidates, err := uc.catalog.SearchIngredients(ctx, strings.TrimSpace(term))
	if err != nil {
		return nil, fmt.Errorf("usecase: ошибка поиска ингредиентов по '%s': %w", term, err)
	}

	ranked := RankIngredients(term, candidates)
	uc.logger.Debug("usecase: поиск ингредиентов",
		slog.String("term", term),
		slog.Int("found", len(ranked)),
	)
	return ranked, nil
}

func (uc *catalogUseCase) GetIngredient(ctx context.Context, id uuid.UUID) (*domain.Ingredient, error) {
	return uc.catalog.GetIngredient(ctx, id)
}
