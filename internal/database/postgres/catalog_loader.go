package postgres

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-json"
)

// TagRecord — тег во входном файле
type TagRecord struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// IngredientRecord — ингредиент во входном файле
type IngredientRecord struct {
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
}

// CatalogData — содержимое файла импорта
type CatalogData struct {
	Tags        []TagRecord        `json:"tags"`
	Ingredients []IngredientRecord `json:"ingredients"`
}

// DefaultTags — теги, которые создаются, если во входном файле их нет
var DefaultTags = []TagRecord{
	{Name: "Завтрак", Slug: "breakfast"},
	{Name: "Обед", Slug: "lunch"},
	{Name: "Ужин", Slug: "dinner"},
	{Name: "Закуски", Slug: "snacks"},
}

// LoadCatalog читает файл импорта. Поддерживаются два формата:
// объект {"tags": [...], "ingredients": [...]} и голый массив ингредиентов.
// Пустые и повторяющиеся записи отбрасываются, пробелы по краям обрезаются.
func LoadCatalog(r io.Reader) (CatalogData, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return CatalogData{}, fmt.Errorf("ошибка чтения файла импорта: %w", err)
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return CatalogData{}, fmt.Errorf("файл импорта пуст")
	}

	var data CatalogData
	if raw[0] == '[' {
		if err := json.Unmarshal(raw, &data.Ingredients); err != nil {
			return CatalogData{}, fmt.Errorf("ошибка разбора списка ингредиентов: %w", err)
		}
	} else if err := json.Unmarshal(raw, &data); err != nil {
		return CatalogData{}, fmt.Errorf("ошибка разбора файла импорта: %w", err)
	}

	if len(data.Tags) == 0 {
		data.Tags = DefaultTags
	}
	return data.normalized(), nil
}

func (d CatalogData) normalized() CatalogData {
	out := CatalogData{}

	seenTags := make(map[string]struct{}, len(d.Tags))
	for _, t := range d.Tags {
		t.Name = strings.TrimSpace(t.Name)
		t.Slug = strings.ToLower(strings.TrimSpace(t.Slug))
		if t.Name == "" || t.Slug == "" {
			continue
		}
		if _, ok := seenTags[t.Slug]; ok {
			continue
		}
		seenTags[t.Slug] = struct{}{}
		out.Tags = append(out.Tags, t)
	}

	type key struct{ name, unit string }
	seen := make(map[key]struct{}, len(d.Ingredients))
	for _, ing := range d.Ingredients {
		ing.Name = strings.TrimSpace(ing.Name)
		ing.MeasurementUnit = strings.TrimSpace(ing.MeasurementUnit)
		if ing.Name == "" || ing.MeasurementUnit == "" {
			continue
		}
		k := key{ing.Name, ing.MeasurementUnit}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out.Ingredients = append(out.Ingredients, ing)
	}
	return out
}
