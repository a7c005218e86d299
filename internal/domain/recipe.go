package domain

import (
	"time"

	"github.com/google/uuid"
)

// Recipe представляет модель рецепта,
// соответствует таблице recipes в бд
type Recipe struct {
	ID          uuid.UUID `json:"id" db:"id"`
	AuthorID    uuid.UUID `json:"author_id" db:"author_id"`
	Name        string    `json:"name" db:"name"`
	Text        string    `json:"text" db:"text"`
	Image       *string   `json:"image" db:"image"`
	CookingTime int       `json:"cooking_time" db:"cooking_time"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// IngredientAmount — строка состава рецепта при записи
type IngredientAmount struct {
	IngredientID uuid.UUID `json:"id" db:"ingredient_id"`
	Amount       int       `json:"amount" db:"amount"`
}

// RecipeIngredient — строка состава рецепта при чтении
type RecipeIngredient struct {
	ID              uuid.UUID `json:"id" db:"id"`
	Name            string    `json:"name" db:"name"`
	MeasurementUnit string    `json:"measurement_unit" db:"measurement_unit"`
	Amount          int       `json:"amount" db:"amount"`
}

// RecipeView — полная проекция рецепта для чтения.
// Флаги IsFavorited и IsInShoppingCart вычисляются в запросе (EXISTS),
// для анонимного зрителя они всегда false.
type RecipeView struct {
	ID               uuid.UUID          `json:"id"`
	Author           UserView           `json:"author"`
	Name             string             `json:"name"`
	Image            *string            `json:"image"`
	Text             string             `json:"text"`
	Tags             []Tag              `json:"tags"`
	Ingredients      []RecipeIngredient `json:"ingredients"`
	CookingTime      int                `json:"cooking_time"`
	IsFavorited      bool               `json:"is_favorited"`
	IsInShoppingCart bool               `json:"is_in_shopping_cart"`
	CreatedAt        time.Time          `json:"-"`
}

// RecipeShort — короткая проекция для вложенных списков и ответов на добавление
type RecipeShort struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Image       *string   `json:"image" db:"image"`
	CookingTime int       `json:"cooking_time" db:"cooking_time"`
}

// RecipeFilter описывает фильтры и пагинацию списка рецептов.
// Viewer == uuid.Nil означает анонимного пользователя: флаги IsFavorited
// и IsInShoppingCart для него игнорируются.
type RecipeFilter struct {
	Viewer           uuid.UUID
	Tags             []string
	AuthorID         *uuid.UUID
	IsFavorited      bool
	IsInShoppingCart bool
	Limit            int
	Offset           int
}
