package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrEmptyCollection         = errors.New("empty collection")
	ErrDuplicateReference      = errors.New("duplicate reference")
	ErrInvalidQuantity         = errors.New("invalid quantity")
	ErrAlreadyExists           = errors.New("already exists")
	ErrNotFound                = errors.New("not found")
	ErrSelfReferenceNotAllowed = errors.New("self reference not allowed")

	ErrShoppingCartEmpty  = errors.New("shopping cart is empty")
	ErrForbidden          = errors.New("forbidden")
	ErrUnauthorized       = errors.New("authentication required")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidImage       = errors.New("invalid image")

	// ErrMembershipNotFound — цель существует, но пары (user, target) нет.
	// Является частным случаем ErrNotFound.
	ErrMembershipNotFound = fmt.Errorf("membership %w", ErrNotFound)
)

// Поля состава рецепта, к которым относится ошибка
const (
	FieldIngredients = "ingredients"
	FieldTags        = "tags"
	FieldCookingTime = "cooking_time"
	FieldImage       = "image"
)

// CompositionError — отказ валидации состава рецепта.
// Kind — одна из ошибок ErrEmptyCollection, ErrDuplicateReference,
// ErrInvalidQuantity или ErrNotFound; IDs — проблемные идентификаторы.
type CompositionError struct {
	Kind  error
	Field string
	IDs   []uuid.UUID
}

func (e *CompositionError) Error() string {
	subject := "ингредиенты"
	if e.Field == FieldTags {
		subject = "теги"
	}

	switch {
	case errors.Is(e.Kind, ErrEmptyCollection):
		if e.Field == FieldTags {
			return "Список тегов не может быть пустым."
		}
		return "Список ингредиентов не может быть пустым."
	case errors.Is(e.Kind, ErrDuplicateReference):
		return fmt.Sprintf("Дублируются %s с ID: %s", subject, joinIDs(e.IDs))
	case errors.Is(e.Kind, ErrInvalidQuantity):
		if e.Field == FieldCookingTime {
			return "Минимальное время приготовления - 1 минута."
		}
		return fmt.Sprintf("Минимальное количество - 1. Неверные ингредиенты: %s", joinIDs(e.IDs))
	case errors.Is(e.Kind, ErrNotFound):
		return fmt.Sprintf("Не найдены %s с ID: %s", subject, joinIDs(e.IDs))
	default:
		return fmt.Sprintf("%s: %v", e.Field, e.Kind)
	}
}

func (e *CompositionError) Unwrap() error {
	return e.Kind
}

func joinIDs(ids []uuid.UUID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = id.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
