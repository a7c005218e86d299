package usecase

import (
	"github.com/GoArmGo/foodgram/internal/domain"
	"github.com/google/uuid"
)

// ValidateComposition проверяет состав рецепта до любой записи в хранилище.
// Порядок проверок: пустые списки, дубликаты, количества, время приготовления.
func ValidateComposition(ingredients []domain.IngredientAmount, tags []uuid.UUID, cookingTime int) error {
	if len(ingredients) == 0 {
		return &domain.CompositionError{Kind: domain.ErrEmptyCollection, Field: domain.FieldIngredients}
	}
	if len(tags) == 0 {
		return &domain.CompositionError{Kind: domain.ErrEmptyCollection, Field: domain.FieldTags}
	}

	ids := make([]uuid.UUID, len(ingredients))
	for i, item := range ingredients {
		ids[i] = item.IngredientID
	}
	if dups := duplicates(ids); len(dups) > 0 {
		return &domain.CompositionError{Kind: domain.ErrDuplicateReference, Field: domain.FieldIngredients, IDs: dups}
	}
	if dups := duplicates(tags); len(dups) > 0 {
		return &domain.CompositionError{Kind: domain.ErrDuplicateReference, Field: domain.FieldTags, IDs: dups}
	}

	var invalid []uuid.UUID
	for _, item := range ingredients {
		if item.Amount < 1 {
			invalid = append(invalid, item.IngredientID)
		}
	}
	if len(invalid) > 0 {
		return &domain.CompositionError{Kind: domain.ErrInvalidQuantity, Field: domain.FieldIngredients, IDs: invalid}
	}

	if cookingTime < 1 {
		return &domain.CompositionError{Kind: domain.ErrInvalidQuantity, Field: domain.FieldCookingTime}
	}
	return nil
}

// duplicates возвращает повторяющиеся идентификаторы в порядке первого повтора
func duplicates(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]int, len(ids))
	var out []uuid.UUID
	for _, id := range ids {
		seen[id]++
		if seen[id] == 2 {
			out = append(out, id)
		}
	}
	return out
}
