package handler

import (
	"log/slog"
	"net/http"

	"github.com/GoArmGo/foodgram/internal/domain"
	"github.com/GoArmGo/foodgram/internal/usecase"
)

// CatalogHandler отдаёт справочники тегов и ингредиентов, без пагинации
type CatalogHandler struct {
	catalog usecase.CatalogUseCase
	logger  *slog.Logger
}

func NewCatalogHandler(catalog usecase.CatalogUseCase, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, logger: logger}
}

func (h *CatalogHandler) ListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.catalog.ListTags(r.Context())
	if err != nil {
		respondWithError(w, r, err, h.logger)
		return
	}
	if tags == nil {
		tags = []domain.Tag{}
	}
	respondWithJSON(w, http.StatusOK, tags, h.logger)
}

func (h *CatalogHandler) GetTag(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(r, "id")
	if !ok {
		respondWithError(w, r, domain.ErrNotFound, h.logger)
		return
	}
	tag, err := h.catalog.GetTag(r.Context(), id)
	if err != nil {
		respondWithError(w, r, err, h.logger)
		return
	}
	respondWithJSON(w, http.StatusOK, tag, h.logger)
}

// SearchIngredients — GET /ingredients/?name=. Совпадения по началу имени идут первыми.
func (h *CatalogHandler) SearchIngredients(w http.ResponseWriter, r *http.Request) {
	found, err := h.catalog.SearchIngredients(r.Context(), r.URL.Query().Get("name"))
	if err != nil {
		respondWithError(w, r, err, h.logger)
		return
	}
	if found == nil {
		found = []domain.Ingredient{}
	}
	respondWithJSON(w, http.StatusOK, found, h.logger)
}

func (h *CatalogHandler) GetIngredient(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(r, "id")
	if !ok {
		respondWithError(w, r, domain.ErrNotFound, h.logger)
		return
	}
	ing, err := h.catalog.GetIngredient(r.Context(), id)
	if err != nil {
		respondWithError(w, r, err, h.logger)
		return
	}
	respondWithJSON(w, http.StatusOK, ing, h.logger)
}
