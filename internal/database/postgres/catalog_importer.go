package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/GoArmGo/foodgram/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ImportResult — итог импорта справочников
type ImportResult struct {
	TagsCreated        int
	IngredientsCreated int
	Skipped            int
}

// CatalogImporter заполняет справочники тегов и ингредиентов.
// Импорт идемпотентен: существующие записи не меняются.
type CatalogImporter struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewCatalogImporter(db *gorm.DB, logger *slog.Logger) *CatalogImporter {
	return &CatalogImporter{db: db, logger: logger}
}

// Import загружает теги и ингредиенты одной транзакцией
func (i *CatalogImporter) Import(ctx context.Context, data CatalogData) (ImportResult, error) {
	start := time.Now()
	var result ImportResult

	err := i.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, rec := range data.Tags {
			tag := domain.Tag{}
			res := tx.Where(domain.Tag{Slug: rec.Slug}).
				Attrs(domain.Tag{ID: uuid.New(), Name: rec.Name}).
				FirstOrCreate(&tag)
			if res.Error != nil {
				return fmt.Errorf("ошибка импорта тега %s: %w", rec.Slug, res.Error)
			}
			if res.RowsAffected > 0 {
				result.TagsCreated++
			} else {
				result.Skipped++
			}
		}

		for _, rec := range data.Ingredients {
			ing := domain.Ingredient{}
			res := tx.Where(domain.Ingredient{Name: rec.Name, MeasurementUnit: rec.MeasurementUnit}).
				Attrs(domain.Ingredient{ID: uuid.New()}).
				FirstOrCreate(&ing)
			if res.Error != nil {
				return fmt.Errorf("ошибка импорта ингредиента %s: %w", rec.Name, res.Error)
			}
			if res.RowsAffected > 0 {
				result.IngredientsCreated++
			} else {
				result.Skipped++
			}
		}
		return nil
	})
	if err != nil {
		i.logger.Error("catalog import failed", "error", err)
		return ImportResult{}, err
	}

	i.logger.Info("catalog imported",
		"tags_created", result.TagsCreated,
		"ingredients_created", result.IngredientsCreated,
		"skipped", result.Skipped,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}
