package postgres

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCatalogIngredientArray(t *testing.T) {
	input := `[
		{"name": "абрикосовое варенье", "measurement_unit": "г"},
		{"name": "  абрикосы ", "measurement_unit": "г"},
		{"name": "абрикосовое варенье", "measurement_unit": "г"},
		{"name": "", "measurement_unit": "г"}
	]`

	data, err := LoadCatalog(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []IngredientRecord{
		{Name: "абрикосовое варенье", MeasurementUnit: "г"},
		{Name: "абрикосы", MeasurementUnit: "г"},
	}, data.Ingredients)
	assert.Equal(t, DefaultTags, data.Tags)
}

func TestLoadCatalogObject(t *testing.T) {
	input := `{
		"tags": [{"name": "Десерт", "slug": "Dessert"}, {"name": "Сладкое", "slug": "dessert"}],
		"ingredients": [{"name": "сахар", "measurement_unit": "г"}, {"name": "сахар", "measurement_unit": "ст. л."}]
	}`

	data, err := LoadCatalog(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []TagRecord{{Name: "Десерт", Slug: "dessert"}}, data.Tags)
	assert.Len(t, data.Ingredients, 2)
}

func TestLoadCatalogErrors(t *testing.T) {
	_, err := LoadCatalog(strings.NewReader("   "))
	assert.Error(t, err)

	_, err = LoadCatalog(strings.NewReader(`{"ingredients": 42}`))
	assert.Error(t, err)
}
