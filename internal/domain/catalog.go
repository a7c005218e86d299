package domain

import "github.com/google/uuid"

// Ingredient — справочный ингредиент, уникален по паре (name, measurement_unit)
type Ingredient struct {
	ID              uuid.UUID `json:"id" db:"id"`
	Name            string    `json:"name" db:"name"`
	MeasurementUnit string    `json:"measurement_unit" db:"measurement_unit"`
}

func (Ingredient) TableName() string {
	return "ingredients"
}

// Tag — справочный тег, name и slug уникальны
type Tag struct {
	ID   uuid.UUID `json:"id" db:"id"`
	Name string    `json:"name" db:"name"`
	Slug string    `json:"slug" db:"slug"`
}

func (Tag) TableName() string {
	return "tags"
}
