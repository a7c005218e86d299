package usecase

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/GoArmGo/foodgram/internal/core/ports"
	"github.com/GoArmGo/foodgram/internal/domain"
	"github.com/GoArmGo/foodgram/internal/messaging/payloads"
	"github.com/google/uuid"
)

// memStore — хранилище в памяти для тестов бизнес-логики.
// WithinTx откатывает состояние, если fn вернула ошибку.
type memStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	state memState

	// failInsert заставляет InsertRelation вернуть ошибку
	failInsert error

	// счётчики обращений
	cartLineLoads int
	cartChecks    int
	authorQueries int
}

type pair struct {
	user   uuid.UUID
	target uuid.UUID
}

type memState struct {
	users             map[uuid.UUID]domain.User
	recipes           map[uuid.UUID]domain.Recipe
	ingredients       map[uuid.UUID]domain.Ingredient
	tags              map[uuid.UUID]domain.Tag
	recipeIngredients map[uuid.UUID][]domain.IngredientAmount
	recipeTags        map[uuid.UUID][]uuid.UUID
	relations         map[domain.RelationKind]map[pair]time.Time
}

func newMemStore() *memStore {
	return &memStore{state: memState{
		users:             map[uuid.UUID]domain.User{},
		recipes:           map[uuid.UUID]domain.Recipe{},
		ingredients:       map[uuid.UUID]domain.Ingredient{},
		tags:              map[uuid.UUID]domain.Tag{},
		recipeIngredients: map[uuid.UUID][]domain.IngredientAmount{},
		recipeTags:        map[uuid.UUID][]uuid.UUID{},
		relations: map[domain.RelationKind]map[pair]time.Time{
			domain.RelationFavorite:     {},
			domain.RelationShoppingCart: {},
			domain.RelationFollow:       {},
		},
	}}
}

func (s memState) clone() memState {
	out := memState{
		users:             make(map[uuid.UUID]domain.User, len(s.users)),
		recipes:           make(map[uuid.UUID]domain.Recipe, len(s.recipes)),
		ingredients:       make(map[uuid.UUID]domain.Ingredient, len(s.ingredients)),
		tags:              make(map[uuid.UUID]domain.Tag, len(s.tags)),
		recipeIngredients: make(map[uuid.UUID][]domain.IngredientAmount, len(s.recipeIngredients)),
		recipeTags:        make(map[uuid.UUID][]uuid.UUID, len(s.recipeTags)),
		relations:         make(map[domain.RelationKind]map[pair]time.Time, len(s.relations)),
	}
	for k, v := range s.users {
		out.users[k] = v
	}
	for k, v := range s.recipes {
		out.recipes[k] = v
	}
	for k, v := range s.ingredients {
		out.ingredients[k] = v
	}
	for k, v := range s.tags {
		out.tags[k] = v
	}
	for k, v := range s.recipeIngredients {
		out.recipeIngredients[k] = append([]domain.IngredientAmount(nil), v...)
	}
	for k, v := range s.recipeTags {
		out.recipeTags[k] = append([]uuid.UUID(nil), v...)
	}
	for kind, pairs := range s.relations {
		cp := make(map[pair]time.Time, len(pairs))
		for p, t := range pairs {
			cp[p] = t
		}
		out.relations[kind] = cp
	}
	return out
}

func (s *memStore) WithinTx(ctx context.Context, fn func(ctx context.Context, repos ports.Repositories) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snapshot := s.state.clone()
	s.mu.Unlock()

	if err := fn(ctx, s); err != nil {
		s.mu.Lock()
		s.state = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *memStore) Users() ports.UserStorage { return s }
func (s *memStore) Recipes() ports.RecipeStorage { return s }
func (s *memStore) Catalog() ports.CatalogStorage { return s }
func (s *memStore) Relations() ports.RelationStorage { return s }
func (s *memStore) Cart() ports.ShoppingCartStorage { return s }

func (s *memStore) counts() (recipes, relations int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, pairs := range s.state.relations {
		relations += len(pairs)
	}
	return len(s.state.recipes), relations
}

// --- наполнение ---

func (s *memStore) addUser(username string) domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := domain.User{ID: uuid.New(), Email: username + "@example.com", Username: username}
	s.state.users[u.ID] = u
	return u
}

func (s *memStore) addIngredient(name, unit string) domain.Ingredient {
	s.mu.Lock()
	defer s.mu.Unlock()
	ing := domain.Ingredient{ID: uuid.New(), Name: name, MeasurementUnit: unit}
	s.state.ingredients[ing.ID] = ing
	return ing
}

func (s *memStore) addTag(name, slug string) domain.Tag {
	s.mu.Lock()
	defer s.mu.Unlock()
	tag := domain.Tag{ID: uuid.New(), Name: name, Slug: slug}
	s.state.tags[tag.ID] = tag
	return tag
}

func (s *memStore) addRecipe(author uuid.UUID, name string, lines []domain.IngredientAmount, tags ...uuid.UUID) domain.Recipe {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := domain.Recipe{ID: uuid.New(), AuthorID: author, Name: name, CookingTime: 10, CreatedAt: time.Now().UTC()}
	s.state.recipes[r.ID] = r
	s.state.recipeIngredients[r.ID] = lines
	s.state.recipeTags[r.ID] = tags
	return r
}

// --- UserStorage ---

func (s *memStore) CreateUser(ctx context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.state.users {
		if u.Email == user.Email || u.Username == user.Username {
			return domain.ErrAlreadyExists
		}
	}
	s.state.users[user.ID] = *user
	return nil
}

func (s *memStore) GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.state.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &u, nil
}

func (s *memStore) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.state.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *memStore) UserExists(ctx context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.state.users[id]
	return ok, nil
}

func (s *memStore) userView(viewer uuid.UUID, u domain.User) domain.UserView {
	_, subscribed := s.state.relations[domain.RelationFollow][pair{viewer, u.ID}]
	return domain.UserView{User: u, IsSubscribed: viewer != uuid.Nil && subscribed}
}

func (s *memStore) GetUserView(ctx context.Context, viewer, id uuid.UUID) (*domain.UserView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.state.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	v := s.userView(viewer, u)
	return &v, nil
}

func (s *memStore) ListUserViews(ctx context.Context, viewer uuid.UUID, limit, offset int) ([]domain.UserView, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.UserView
	for _, u := range s.state.users {
		out = append(out, s.userView(viewer, u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return paginate(out, limit, offset), len(out), nil
}

func (s *memStore) ListSubscriptions(ctx context.Context, follower uuid.UUID, limit, offset int) ([]domain.UserView, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.UserView
	for p := range s.state.relations[domain.RelationFollow] {
		if p.user == follower {
			out = append(out, s.userView(follower, s.state.users[p.target]))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return paginate(out, limit, offset), len(out), nil
}

func (s *memStore) UpdateAvatar(ctx context.Context, id uuid.UUID, avatar *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.state.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.Avatar = avatar
	s.state.users[id] = u
	return nil
}

func (s *memStore) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.state.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.PasswordHash = hash
	s.state.users[id] = u
	return nil
}

// --- RecipeStorage ---

func (s *memStore) CreateRecipe(ctx context.Context, recipe *domain.Recipe) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.state.recipes[recipe.ID]; ok {
		return domain.ErrAlreadyExists
	}
	s.state.recipes[recipe.ID] = *recipe
	return nil
}

func (s *memStore) UpdateRecipe(ctx context.Context, recipe *domain.Recipe) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.state.recipes[recipe.ID]; !ok {
		return domain.ErrNotFound
	}
	s.state.recipes[recipe.ID] = *recipe
	return nil
}

func (s *memStore) DeleteRecipe(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.state.recipes[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.state.recipes, id)
	delete(s.state.recipeIngredients, id)
	delete(s.state.recipeTags, id)
	for _, kind := range []domain.RelationKind{domain.RelationFavorite, domain.RelationShoppingCart} {
		for p := range s.state.relations[kind] {
			if p.target == id {
				delete(s.state.relations[kind], p)
			}
		}
	}
	return nil
}

func (s *memStore) GetRecipe(ctx context.Context, id uuid.UUID) (*domain.Recipe, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.state.recipes[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &r, nil
}

func (s *memStore) RecipeExists(ctx context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.state.recipes[id]
	return ok, nil
}

func (s *memStore) ReplaceIngredients(ctx context.Context, recipeID uuid.UUID, lines []domain.IngredientAmount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := map[uuid.UUID]bool{}
	for _, l := range lines {
		if seen[l.IngredientID] {
			return domain.ErrDuplicateReference
		}
		seen[l.IngredientID] = true
	}
	s.state.recipeIngredients[recipeID] = append([]domain.IngredientAmount(nil), lines...)
	return nil
}

func (s *memStore) ReplaceTags(ctx context.Context, recipeID uuid.UUID, tagIDs []uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.recipeTags[recipeID] = append([]uuid.UUID(nil), tagIDs...)
	return nil
}

func (s *memStore) recipeView(viewer uuid.UUID, r domain.Recipe) domain.RecipeView {
	view := domain.RecipeView{
		ID:          r.ID,
		Author:      s.userView(viewer, s.state.users[r.AuthorID]),
		Name:        r.Name,
		Image:       r.Image,
		Text:        r.Text,
		CookingTime: r.CookingTime,
		CreatedAt:   r.CreatedAt,
		Tags:        []domain.Tag{},
		Ingredients: []domain.RecipeIngredient{},
	}
	for _, id := range s.state.recipeTags[r.ID] {
		view.Tags = append(view.Tags, s.state.tags[id])
	}
	for _, l := range s.state.recipeIngredients[r.ID] {
		ing := s.state.ingredients[l.IngredientID]
		view.Ingredients = append(view.Ingredients, domain.RecipeIngredient{
			ID: ing.ID, Name: ing.Name, MeasurementUnit: ing.MeasurementUnit, Amount: l.Amount,
		})
	}
	if viewer != uuid.Nil {
		_, view.IsFavorited = s.state.relations[domain.RelationFavorite][pair{viewer, r.ID}]
		_, view.IsInShoppingCart = s.state.relations[domain.RelationShoppingCart][pair{viewer, r.ID}]
	}
	return view
}

func (s *memStore) GetRecipeView(ctx context.Context, viewer, id uuid.UUID) (*domain.RecipeView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.state.recipes[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	v := s.recipeView(viewer, r)
	return &v, nil
}

func (s *memStore) ListRecipeViews(ctx context.Context, filter domain.RecipeFilter) ([]domain.RecipeView, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.RecipeView
	for _, r := range s.state.recipes {
		if filter.AuthorID != nil && r.AuthorID != *filter.AuthorID {
			continue
		}
		v := s.recipeView(filter.Viewer, r)
		if filter.IsFavorited && !v.IsFavorited {
			continue
		}
		if filter.IsInShoppingCart && !v.IsInShoppingCart {
			continue
		}
		if len(filter.Tags) > 0 && !hasAnySlug(v.Tags, filter.Tags) {
			continue
		}
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return paginate(out, filter.Limit, filter.Offset), len(out), nil
}

func hasAnySlug(tags []domain.Tag, slugs []string) bool {
	for _, t := range tags {
		for _, s := range slugs {
			if t.Slug == s {
				return true
			}
		}
	}
	return false
}

func (s *memStore) ListRecipesByAuthors(ctx context.Context, authorIDs []uuid.UUID, limit int) (map[uuid.UUID][]domain.RecipeShort, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authorQueries++
	out := make(map[uuid.UUID][]domain.RecipeShort, len(authorIDs))
	for _, authorID := range authorIDs {
		var recipes []domain.RecipeShort
		for _, r := range s.state.recipes {
			if r.AuthorID == authorID {
				recipes = append(recipes, domain.RecipeShort{ID: r.ID, Name: r.Name, Image: r.Image, CookingTime: r.CookingTime})
			}
		}
		sort.Slice(recipes, func(i, j int) bool { return recipes[i].Name < recipes[j].Name })
		if limit > 0 && len(recipes) > limit {
			recipes = recipes[:limit]
		}
		if len(recipes) > 0 {
			out[authorID] = recipes
		}
	}
	return out, nil
}

func (s *memStore) CountRecipesByAuthors(ctx context.Context, authorIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authorQueries++
	out := make(map[uuid.UUID]int, len(authorIDs))
	for _, authorID := range authorIDs {
		for _, r := range s.state.recipes {
			if r.AuthorID == authorID {
				out[authorID]++
			}
		}
	}
	return out, nil
}

// --- CatalogStorage ---

func (s *memStore) ListTags(ctx context.Context) ([]domain.Tag, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Tag, 0, len(s.state.tags))
	for _, t := range s.state.tags {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *memStore) GetTag(ctx context.Context, id uuid.UUID) (*domain.Tag, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.state.tags[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &t, nil
}

func (s *memStore) SearchIngredients(ctx context.Context, term string) ([]domain.Ingredient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Ingredient
	for _, ing := range s.state.ingredients {
		if containsFold(ing.Name, term) {
			out = append(out, ing)
		}
	}
	return out, nil
}

func containsFold(s, substr string) bool {
	return bytes.Contains(bytes.ToLower([]byte(s)), bytes.ToLower([]byte(substr)))
}

func (s *memStore) GetIngredient(ctx context.Context, id uuid.UUID) (*domain.Ingredient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ing, ok := s.state.ingredients[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &ing, nil
}

func (s *memStore) MissingIngredients(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var missing []uuid.UUID
	for _, id := range ids {
		if _, ok := s.state.ingredients[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

func (s *memStore) MissingTags(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var missing []uuid.UUID
	for _, id := range ids {
		if _, ok := s.state.tags[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

// --- RelationStorage ---

func (s *memStore) RelationExists(ctx context.Context, kind domain.RelationKind, userID, targetID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.state.relations[kind][pair{userID, targetID}]
	return ok, nil
}

func (s *memStore) InsertRelation(ctx context.Context, m *domain.Membership) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failInsert != nil {
		return s.failInsert
	}
	p := pair{m.UserID, m.TargetID}
	if _, ok := s.state.relations[m.Kind][p]; ok {
		return domain.ErrAlreadyExists
	}
	s.state.relations[m.Kind][p] = m.CreatedAt
	return nil
}

func (s *memStore) DeleteRelation(ctx context.Context, kind domain.RelationKind, userID, targetID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := pair{userID, targetID}
	if _, ok := s.state.relations[kind][p]; !ok {
		return 0, nil
	}
	delete(s.state.relations[kind], p)
	return 1, nil
}

// --- ShoppingCartStorage ---

func (s *memStore) ListCartLines(ctx context.Context, userID uuid.UUID) ([]domain.CartLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cartLineLoads++
	var out []domain.CartLine
	for p := range s.state.relations[domain.RelationShoppingCart] {
		if p.user != userID {
			continue
		}
		for _, l := range s.state.recipeIngredients[p.target] {
			ing := s.state.ingredients[l.IngredientID]
			out = append(out, domain.CartLine{
				RecipeID:        p.target,
				IngredientID:    ing.ID,
				Name:            ing.Name,
				MeasurementUnit: ing.MeasurementUnit,
				Amount:          l.Amount,
			})
		}
	}
	return out, nil
}

func (s *memStore) HasCartLines(ctx context.Context, userID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cartChecks++
	for p := range s.state.relations[domain.RelationShoppingCart] {
		if p.user == userID && len(s.state.recipeIngredients[p.target]) > 0 {
			return true, nil
		}
	}
	return false, nil
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}

// memFiles — файловое хранилище в памяти
type memFiles struct {
	mu       sync.Mutex
	objects  map[string][]byte
	failWith error
	deleted  []string
}

const memFilesBaseURL = "http://files.test/foodgram"

func newMemFiles() *memFiles {
	return &memFiles{objects: map[string][]byte{}}
}

func (f *memFiles) UploadFile(ctx context.Context, key string, reader io.Reader, contentType string) (string, error) {
	if f.failWith != nil {
		return "", f.failWith
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = data
	return f.ObjectURL(key), nil
}

func (f *memFiles) DeleteFile(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *memFiles) ObjectURL(key string) string {
	return memFilesBaseURL + "/" + key
}

func (f *memFiles) len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.objects)
}

// memPublisher запоминает опубликованные задачи
type memPublisher struct {
	published []payloads.ShoppingListExportPayload
	failWith  error
}

func (p *memPublisher) PublishShoppingListExport(ctx context.Context, payload payloads.ShoppingListExportPayload) error {
	if p.failWith != nil {
		return p.failWith
	}
	p.published = append(p.published, payload)
	return nil
}

// fakeTokens выпускает предсказуемые токены
type fakeTokens struct{}

func (fakeTokens) Issue(userID uuid.UUID) (string, error) {
	if userID == uuid.Nil {
		return "", errors.New("nil user")
	}
	return "token-" + userID.String(), nil
}
