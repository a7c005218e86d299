package handler

import (
	"bytes"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/GoArmGo/foodgram/internal/auth"
	"github.com/GoArmGo/foodgram/internal/domain"
	"github.com/GoArmGo/foodgram/internal/usecase"
)

// RecipeHandler — обработчик HTTP-запросов для рецептов, избранного и корзины.
type RecipeHandler struct {
	recipes       usecase.RecipeUseCase
	relations     usecase.RelationUseCase
	shoppingList  usecase.ShoppingListUseCase
	users         usecase.UserUseCase
	uploadLimiter chan struct{}
	pageSize      int
	logger        *slog.Logger
	now           func() time.Time
}

// NewRecipeHandler создаёт новый экземпляр RecipeHandler.
func NewRecipeHandler(
	recipes usecase.RecipeUseCase,
	relations usecase.RelationUseCase,
	shoppingList usecase.ShoppingListUseCase,
	users usecase.UserUseCase,
	limiter chan struct{},
	pageSize int,
	logger *slog.Logger,
) *RecipeHandler {
	return &RecipeHandler{
		recipes:       recipes,
		relations:     relations,
		shoppingList:  shoppingList,
		users:         users,
		uploadLimiter: limiter,
		pageSize:      pageSize,
		logger:        logger,
		now:           time.Now,
	}
}

// ListRecipes — GET /recipes/ с фильтрами и пагинацией.
func (h *RecipeHandler) ListRecipes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p := parsePage(r, h.pageSize)
	viewer, _ := auth.UserID(r.Context())

	filter := domain.RecipeFilter{
		Viewer:           viewer,
		Tags:             q["tags"],
		IsFavorited:      flagParam(q.Get("is_favorited")),
		IsInShoppingCart: flagParam(q.Get("is_in_shopping_cart")),
		Limit:            p.Limit,
		Offset:           p.Offset(),
	}
	if raw := q.Get("author"); raw != "" {
		authorID, err := uuid.Parse(raw)
		if err != nil {
			respondWithJSON(w, http.StatusBadRequest, map[string][]string{"author": {"Некорректный идентификатор."}}, h.logger)
			return
		}
		filter.AuthorID = &authorID
	}

	page, err := h.recipes.ListRecipes(r.Context(), filter)
	if err != nil {
		respondWithError(w, r, err, h.logger)
		return
	}
	respondWithJSON(w, http.StatusOK, newPaginated(r, p, page), h.logger)
}

// GetRecipe — GET /recipes/{id}/.
func (h *RecipeHandler) GetRecipe(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(r, "id")
	if !ok {
		respondWithError(w, r, domain.ErrNotFound, h.logger)
		return
	}
	viewer, _ := auth.UserID(r.Context())

	recipe, err := h.recipes.GetRecipe(r.Context(), viewer, id)
	if err != nil {
		respondWithError(w, r, err, h.logger)
		return
	}
	respondWithJSON(w, http.StatusOK, recipe, h.logger)
}

// CreateRecipe — POST /recipes/.
func (h *RecipeHandler) CreateRecipe(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())

	var req recipeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, r, err, h.logger)
		return
	}

	release, err := acquire(r.Context(), h.uploadLimiter)
	if err != nil {
		respondWithError(w, r, err, h.logger)
		return
	}
	defer release()

	recipe, err := h.recipes.CreateRecipe(r.Context(), userID, req.input())
	if err != nil {
		respondWithError(w, r, err, h.logger)
		return
	}

	h.logger.Info("recipe created", "recipe_id", recipe.ID, "author_id", userID)
	respondWithJSON(w, http.StatusCreated, recipe, h.logger)
}

// UpdateRecipe — PATCH /recipes/{id}/, только для автора.
func (h *RecipeHandler) UpdateRecipe(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())
	id, ok := pathUUID(r, "id")
	if !ok {
		respondWithError(w, r, domain.ErrNotFound, h.logger)
		return
	}

	var req recipeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, r, err, h.logger)
		return
	}

	release, err := acquire(r.Context(), h.uploadLimiter)
	if err != nil {
		respondWithError(w, r, err, h.logger)
		return
	}
	defer release()

	recipe, err := h.recipes.UpdateRecipe(r.Context(), userID, id, req.input())
	if err != nil {
		respondWithError(w, r, err, h.logger)
		return
	}
	respondWithJSON(w, http.StatusOK, recipe, h.logger)
}

// DeleteRecipe — DELETE /recipes/{id}/, только для автора.
func (h *RecipeHandler) DeleteRecipe(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())
	id, ok := pathUUID(r, "id")
	if !ok {
		respondWithError(w, r, domain.ErrNotFound, h.logger)
		return
	}

	if err := h.recipes.DeleteRecipe(r.Context(), userID, id); err != nil {
		respondWithError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddFavorite — POST /recipes/{id}/favorite/.
func (h *RecipeHandler) AddFavorite(w http.ResponseWriter, r *http.Request) {
	h.addRelation(w, r, domain.RelationFavorite)
}

// RemoveFavorite — DELETE /recipes/{id}/favorite/.
func (h *RecipeHandler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	h.removeRelation(w, r, domain.RelationFavorite)
}

// AddToShoppingCart — POST /recipes/{id}/shopping_cart/.
func (h *RecipeHandler) AddToShoppingCart(w http.ResponseWriter, r *http.Request) {
	h.addRelation(w, r, domain.RelationShoppingCart)
}

// RemoveFromShoppingCart — DELETE /recipes/{id}/shopping_cart/.
func (h *RecipeHandler) RemoveFromShoppingCart(w http.ResponseWriter, r *http.Request) {
	h.removeRelation(w, r, domain.RelationShoppingCart)
}

func (h *RecipeHandler) addRelation(w http.ResponseWriter, r *http.Request, kind domain.RelationKind) {
	userID, _ := auth.UserID(r.Context())
	id, ok := pathUUID(r, "id")
	if !ok {
		respondWithError(w, r, domain.ErrNotFound, h.logger)
		return
	}

	if _, err := h.relations.Add(r.Context(), kind, userID, id); err != nil {
		respondWithRelationError(w, r, kind, err, h.logger)
		return
	}

	recipe, err := h.recipes.GetRecipe(r.Context(), userID, id)
	if err != nil {
		respondWithError(w, r, err, h.logger)
		return
	}
	respondWithJSON(w, http.StatusCreated, shortRecipe(recipe), h.logger)
}

func (h *RecipeHandler) removeRelation(w http.ResponseWriter, r *http.Request, kind domain.RelationKind) {
	userID, _ := auth.UserID(r.Context())
	id, ok := pathUUID(r, "id")
	if !ok {
		respondWithError(w, r, domain.ErrNotFound, h.logger)
		return
	}

	if err := h.relations.Remove(r.Context(), kind, userID, id); err != nil {
		respondWithRelationError(w, r, kind, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DownloadShoppingCart — GET /recipes/download_shopping_cart/, отдаёт текстовый файл.
func (h *RecipeHandler) DownloadShoppingCart(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())

	items, err := h.shoppingList.BuildShoppingList(r.Context(), userID)
	if err != nil {
		respondWithError(w, r, err, h.logger)
		return
	}

	user, err := h.users.GetUser(r.Context(), userID, userID)
	if err != nil {
		respondWithError(w, r, err, h.logger)
		return
	}

	var buf bytes.Buffer
	if err := usecase.RenderShoppingList(&buf, user.Username, h.now(), items); err != nil {
		respondWithError(w, r, err, h.logger)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="shopping_list.txt"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logger.Error("failed to write shopping list", "error", err)
	}
}

// ExportShoppingCart — POST /recipes/download_shopping_cart/export/.
// Файл собирает воркер, клиент сразу получает будущий адрес.
func (h *RecipeHandler) ExportShoppingCart(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())

	url, err := h.shoppingList.RequestExport(r.Context(), userID)
	if err != nil {
		respondWithError(w, r, err, h.logger)
		return
	}
	respondWithJSON(w, http.StatusAccepted, exportResponse{URL: url}, h.logger)
}

// flagParam понимает 1/0 и true/false
func flagParam(v string) bool {
	return v == "1" || v == "true" || v == "True"
}
