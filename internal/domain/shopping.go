package domain

import "github.com/google/uuid"

// CartLine — строка состава одного рецепта из корзины пользователя
type CartLine struct {
	RecipeID        uuid.UUID `db:"recipe_id"`
	IngredientID    uuid.UUID `db:"ingredient_id"`
	Name            string    `db:"name"`
	MeasurementUnit string    `db:"measurement_unit"`
	Amount          int       `db:"amount"`
}

// ShoppingListItem — итоговая позиция списка покупок
type ShoppingListItem struct {
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	Amount          int    `json:"amount"`
}
