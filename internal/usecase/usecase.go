package usecase

import (
	"context"

	"github.com/GoArmGo/foodgram/internal/domain"
	"github.com/google/uuid"
)

// RecipeInput — данные рецепта при создании и обновлении.
// Image — картинка в виде data URI (base64); на обновлении может быть пустой.
type RecipeInput struct {
	Name        string
	Text        string
	Image       string
	CookingTime int
	Ingredients []domain.IngredientAmount
	Tags        []uuid.UUID
}

// RegisterInput — данные регистрации пользователя
type RegisterInput struct {
	Email     string
	Username  string
	FirstName string
	LastName  string
	Password  string
}

// RecipeUseCase — бизнес-логика рецептов
type RecipeUseCase interface {
	// CreateRecipe проверяет состав, сохраняет картинку и создаёт рецепт в одной транзакции
	CreateRecipe(ctx context.Context, authorID uuid.UUID, in RecipeInput) (*domain.RecipeView, error)

	// UpdateRecipe полностью заменяет состав рецепта. Доступно только автору.
	UpdateRecipe(ctx context.Context, userID, recipeID uuid.UUID, in RecipeInput) (*domain.RecipeView, error)

	// DeleteRecipe удаляет рецепт. Доступно только автору.
	DeleteRecipe(ctx context.Context, userID, recipeID uuid.UUID) error

	GetRecipe(ctx context.Context, viewer, recipeID uuid.UUID) (*domain.RecipeView, error)
	ListRecipes(ctx context.Context, filter domain.RecipeFilter) (domain.Page[domain.RecipeView], error)
}

// RelationUseCase — добавление и удаление фактов членства
// (избранное, корзина, подписка) одной обобщённой операцией
type RelationUseCase interface {
	Add(ctx context.Context, kind domain.RelationKind, userID, targetID uuid.UUID) (*domain.Membership, error)
	Remove(ctx context.Context, kind domain.RelationKind, userID, targetID uuid.UUID) error
}

// ShoppingListUseCase — сводный список покупок
type ShoppingListUseCase interface {
	// BuildShoppingList возвращает domain.ErrShoppingCartEmpty, если список пуст
	BuildShoppingList(ctx context.Context, userID uuid.UUID) ([]domain.ShoppingListItem, error)

	// RequestExport ставит задачу выгрузки в очередь и возвращает будущий адрес файла
	RequestExport(ctx context.Context, userID uuid.UUID) (string, error)
}

// CatalogUseCase — справочники тегов и ингредиентов
type CatalogUseCase interface {
	ListTags(ctx context.Context) ([]domain.Tag, error)
	GetTag(ctx context.Context, id uuid.UUID) (*domain.Tag, error)
	SearchIngredients(ctx context.Context, term string) ([]domain.Ingredient, error)
	GetIngredient(ctx context.Context, id uuid.UUID) (*domain.Ingredient, error)
}

// UserUseCase — пользователи, авторизация и подписки
type UserUseCase interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	// Login возвращает токен авторизации или domain.ErrInvalidCredentials
	Login(ctx context.Context, email, password string) (string, error)

	GetUser(ctx context.Context, viewer, id uuid.UUID) (*domain.UserView, error)
	ListUsers(ctx context.Context, viewer uuid.UUID, limit, offset int) (domain.Page[domain.UserView], error)

	SetAvatar(ctx context.Context, userID uuid.UUID, dataURI string) (string, error)
	DeleteAvatar(ctx context.Context, userID uuid.UUID) error
	SetPassword(ctx context.Context, userID uuid.UUID, current, next string) error

	Subscribe(ctx context.Context, userID, authorID uuid.UUID, recipesLimit int) (*domain.Subscription, error)
	Unsubscribe(ctx context.Context, userID, authorID uuid.UUID) error
	ListSubscriptions(ctx context.Context, userID uuid.UUID, limit, offset, recipesLimit int) (domain.Page[domain.Subscription], error)
}

// TokenIssuer выпускает токены авторизации
type TokenIssuer interface {
	Issue(userID uuid.UUID) (string, error)
}
