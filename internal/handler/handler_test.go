package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoArmGo/foodgram/internal/domain"
	"github.com/GoArmGo/foodgram/internal/logger"
	"github.com/GoArmGo/foodgram/internal/usecase"
)

type stubTokens map[string]uuid.UUID

func (s stubTokens) Parse(token string) (uuid.UUID, error) {
	id, ok := s[token]
	if !ok {
		return uuid.Nil, errors.New("bad token")
	}
	return id, nil
}

type stubRecipes struct {
	usecase.RecipeUseCase
	recipe     *domain.RecipeView
	createErr  error
	lastFilter domain.RecipeFilter
	page       domain.Page[domain.RecipeView]
}

func (s *stubRecipes) GetRecipe(_ context.Context, _, id uuid.UUID) (*domain.RecipeView, error) {
	if s.recipe == nil || s.recipe.ID != id {
		return nil, domain.ErrNotFound
	}
	return s.recipe, nil
}

func (s *stubRecipes) CreateRecipe(_ context.Context, _ uuid.UUID, _ usecase.RecipeInput) (*domain.RecipeView, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	return s.recipe, nil
}

func (s *stubRecipes) ListRecipes(_ context.Context, f domain.RecipeFilter) (domain.Page[domain.RecipeView], error) {
	s.lastFilter = f
	return s.page, nil
}

type stubRelations struct {
	addErr    error
	removeErr error
	added     []domain.RelationKind
}

func (s *stubRelations) Add(_ context.Context, kind domain.RelationKind, userID, targetID uuid.UUID) (*domain.Membership, error) {
	if s.addErr != nil {
		return nil, s.addErr
	}
	s.added = append(s.added, kind)
	return &domain.Membership{Kind: kind, UserID: userID, TargetID: targetID}, nil
}

func (s *stubRelations) Remove(context.Context, domain.RelationKind, uuid.UUID, uuid.UUID) error {
	return s.removeErr
}

type stubShopping struct {
	items []domain.ShoppingListItem
	err   error
}

func (s *stubShopping) BuildShoppingList(context.Context, uuid.UUID) ([]domain.ShoppingListItem, error) {
	return s.items, s.err
}

func (s *stubShopping) RequestExport(_ context.Context, userID uuid.UUID) (string, error) {
	return "http://files.test/foodgram/" + usecase.ShoppingListObjectKey(userID), s.err
}

type stubUsers struct {
	usecase.UserUseCase
	user domain.UserView
}

func (s *stubUsers) GetUser(_ context.Context, _, id uuid.UUID) (*domain.UserView, error) {
	if s.user.ID != id {
		return nil, domain.ErrNotFound
	}
	return &s.user, nil
}

type stubCatalog struct {
	usecase.CatalogUseCase
	lastTerm string
}

func (s *stubCatalog) SearchIngredients(_ context.Context, term string) ([]domain.Ingredient, error) {
	s.lastTerm = term
	return usecase.RankIngredients(term, []domain.Ingredient{
		{ID: uuid.New(), Name: "Сгущенное молоко", MeasurementUnit: "г"},
		{ID: uuid.New(), Name: "Молоко", MeasurementUnit: "мл"},
	}), nil
}

type fixture struct {
	router    http.Handler
	userID    uuid.UUID
	token     string
	recipe    *domain.RecipeView
	recipes   *stubRecipes
	relations *stubRelations
	shopping  *stubShopping
	catalog   *stubCatalog
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	userID := uuid.New()
	img := "http://files.test/foodgram/recipes/images/a.png"
	recipe := &domain.RecipeView{ID: uuid.New(), Name: "Омлет", Image: &img, CookingTime: 10}

	f := &fixture{
		userID:    userID,
		token:     "valid-token",
		recipe:    recipe,
		recipes:   &stubRecipes{recipe: recipe},
		relations: &stubRelations{},
		shopping:  &stubShopping{},
		catalog:   &stubCatalog{},
	}
	users := &stubUsers{user: domain.UserView{User: domain.User{ID: userID, Username: "chef"}}}

	log := logger.Discard()
	recipeHandler := NewRecipeHandler(f.recipes, f.relations, f.shopping, users, make(chan struct{}, 2), 6, log)
	recipeHandler.now = func() time.Time { return time.Date(2024, 3, 8, 12, 0, 0, 0, time.UTC) }

	f.router = NewRouter(
		RouterConfig{RequestTimeout: 5 * time.Second, RateLimitRPS: 1000, CORSAllowedOrigins: []string{"*"}},
		stubTokens{f.token: userID},
		NewUserHandler(users, make(chan struct{}, 2), 6, log),
		NewCatalogHandler(f.catalog, log),
		recipeHandler,
		log,
	)
	return f
}

func (f *fixture) do(method, target, body string, authed bool) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if authed {
		req.Header.Set("Authorization", "Token "+f.token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestFavoriteRequiresAuth(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/api/recipes/"+f.recipe.ID.String()+"/favorite/", "", false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, f.relations.added)
}

func TestInvalidTokenRejected(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/recipes/", nil)
	req.Header.Set("Authorization", "Token forged")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAddFavoriteReturnsShortRecipe(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/api/recipes/"+f.recipe.ID.String()+"/favorite/", "", true)
	require.Equal(t, http.StatusCreated, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, f.recipe.ID.String(), body["id"])
	assert.Equal(t, "Омлет", body["name"])
	assert.EqualValues(t, 10, body["cooking_time"])
	assert.NotContains(t, body, "ingredients")
	assert.Equal(t, []domain.RelationKind{domain.RelationFavorite}, f.relations.added)
}

func TestRelationErrors(t *testing.T) {
	f := newFixture(t)
	target := "/api/recipes/" + f.recipe.ID.String()

	f.relations.addErr = domain.ErrAlreadyExists
	rec := f.do(http.MethodPost, target+"/shopping_cart/", "", true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Рецепт уже в списке покупок.", decodeBody(t, rec)["detail"])

	f.relations.removeErr = domain.ErrMembershipNotFound
	rec = f.do(http.MethodDelete, target+"/favorite/", "", true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Рецепта нет в избранном.", decodeBody(t, rec)["detail"])

	f.relations.addErr = domain.ErrNotFound
	rec = f.do(http.MethodPost, target+"/favorite/", "", true)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	f.relations.removeErr = nil
	rec = f.do(http.MethodDelete, target+"/shopping_cart/", "", true)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestCreateRecipeCompositionError(t *testing.T) {
	f := newFixture(t)
	dup := uuid.New()
	f.recipes.createErr = &domain.CompositionError{
		Kind:  domain.ErrDuplicateReference,
		Field: domain.FieldIngredients,
		IDs:   []uuid.UUID{dup},
	}

	body := `{"name":"Омлет","text":"Взбить","cooking_time":5,"image":"data:image/png;base64,AA==",
		"ingredients":[{"id":"` + dup.String() + `","amount":1},{"id":"` + dup.String() + `","amount":2}],
		"tags":["` + uuid.NewString() + `"]}`
	rec := f.do(http.MethodPost, "/api/recipes/", body, true)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	out := decodeBody(t, rec)
	require.Contains(t, out, "ingredients")
	assert.Contains(t, out["ingredients"].([]interface{})[0], dup.String())
}

func TestCreateRecipeValidatesRequestBody(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/api/recipes/", `{"text":"без названия"}`, true)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody(t, rec), "name")

	rec = f.do(http.MethodPost, "/api/recipes/", `{not json`, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListRecipesPagination(t *testing.T) {
	f := newFixture(t)
	author := uuid.New()
	f.recipes.page = domain.Page[domain.RecipeView]{Count: 13, Results: []domain.RecipeView{*f.recipe}}

	rec := f.do(http.MethodGet, "/api/recipes/?page=2&limit=6&tags=lunch&tags=dinner&author="+author.String()+"&is_favorited=1", "", true)
	require.Equal(t, http.StatusOK, rec.Code)

	filter := f.recipes.lastFilter
	assert.Equal(t, 6, filter.Limit)
	assert.Equal(t, 6, filter.Offset)
	assert.Equal(t, []string{"lunch", "dinner"}, filter.Tags)
	assert.Equal(t, &author, filter.AuthorID)
	assert.True(t, filter.IsFavorited)
	assert.False(t, filter.IsInShoppingCart)
	assert.Equal(t, f.userID, filter.Viewer)

	body := decodeBody(t, rec)
	assert.EqualValues(t, 13, body["count"])
	assert.Contains(t, body["next"], "page=3")
	assert.NotContains(t, body["previous"], "page=")
	assert.Len(t, body["results"], 1)

	rec = f.do(http.MethodGet, "/api/recipes/?author=not-a-uuid", "", false)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListRecipesAnonymousEmpty(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/api/recipes/", "", false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uuid.Nil, f.recipes.lastFilter.Viewer)

	body := decodeBody(t, rec)
	assert.Nil(t, body["next"])
	assert.Nil(t, body["previous"])
	assert.Equal(t, []interface{}{}, body["results"])
}

func TestDownloadShoppingCart(t *testing.T) {
	f := newFixture(t)
	f.shopping.items = []domain.ShoppingListItem{
		{Name: "Мука", MeasurementUnit: "г", Amount: 300},
		{Name: "Яйцо", MeasurementUnit: "шт", Amount: 3},
	}

	rec := f.do(http.MethodGet, "/api/recipes/download_shopping_cart/", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "shopping_list.txt")
	assert.Contains(t, rec.Body.String(), "Список покупок для chef от 08.03.2024")
	assert.Contains(t, rec.Body.String(), "- Мука — 300 г")

	f.shopping.err = domain.ErrShoppingCartEmpty
	rec = f.do(http.MethodGet, "/api/recipes/download_shopping_cart/", "", true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Список покупок пуст.", decodeBody(t, rec)["detail"])
}

func TestExportShoppingCart(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/api/recipes/download_shopping_cart/export/", "", true)
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t,
		"http://files.test/foodgram/shopping-lists/"+f.userID.String()+".txt",
		decodeBody(t, rec)["url"])

	f.shopping.err = usecase.ErrExportUnavailable
	rec = f.do(http.MethodPost, "/api/recipes/download_shopping_cart/export/", "", true)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSearchIngredients(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/api/ingredients/?name=мол", "", false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "мол", f.catalog.lastTerm)

	var found []domain.Ingredient
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &found))
	require.Len(t, found, 2)
	assert.Equal(t, "Молоко", found[0].Name)
	assert.Equal(t, "Сгущенное молоко", found[1].Name)
}

func TestUnknownRecipeIsNotFound(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/api/recipes/"+uuid.NewString()+"/", "", false).Code)
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/api/recipes/not-a-uuid/", "", false).Code)
}

func TestUserMeRequiresAuth(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodGet, "/api/users/me/", "", false).Code)

	rec := f.do(http.MethodGet, "/api/users/me/", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "chef", decodeBody(t, rec)["username"])
}
