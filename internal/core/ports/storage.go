package ports

import (
	"context"

	"github.com/GoArmGo/foodgram/internal/domain"
	"github.com/google/uuid"
)

// UserStorage определяет методы для взаимодействия с хранилищем пользователей
type UserStorage interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	UserExists(ctx context.Context, id uuid.UUID) (bool, error)

	// GetUserView возвращает пользователя с флагом подписки зрителя viewer
	GetUserView(ctx context.Context, viewer, id uuid.UUID) (*domain.UserView, error)
	ListUserViews(ctx context.Context, viewer uuid.UUID, limit, offset int) ([]domain.UserView, int, error)

	// ListSubscriptions возвращает авторов, на которых подписан follower
	ListSubscriptions(ctx context.Context, follower uuid.UUID, limit, offset int) ([]domain.UserView, int, error)

	UpdateAvatar(ctx context.Context, id uuid.UUID, avatar *string) error
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error
}

// RecipeStorage определяет методы для работы с рецептами и их составом
type RecipeStorage interface {
	CreateRecipe(ctx context.Context, recipe *domain.Recipe) error
	UpdateRecipe(ctx context.Context, recipe *domain.Recipe) error
	DeleteRecipe(ctx context.Context, id uuid.UUID) error
	GetRecipe(ctx context.Context, id uuid.UUID) (*domain.Recipe, error)
	RecipeExists(ctx context.Context, id uuid.UUID) (bool, error)

	// ReplaceIngredients удаляет все строки состава рецепта и вставляет новые
	ReplaceIngredients(ctx context.Context, recipeID uuid.UUID, lines []domain.IngredientAmount) error
	// ReplaceTags устанавливает набор тегов рецепта ровно в tagIDs
	ReplaceTags(ctx context.Context, recipeID uuid.UUID, tagIDs []uuid.UUID) error

	GetRecipeView(ctx context.Context, viewer, id uuid.UUID) (*domain.RecipeView, error)
	ListRecipeViews(ctx context.Context, filter domain.RecipeFilter) ([]domain.RecipeView, int, error)

	// рецепты и их число для страницы авторов, одним запросом на всех
	ListRecipesByAuthors(ctx context.Context, authorIDs []uuid.UUID, limit int) (map[uuid.UUID][]domain.RecipeShort, error)
	CountRecipesByAuthors(ctx context.Context, authorIDs []uuid.UUID) (map[uuid.UUID]int, error)
}

// CatalogStorage — справочники ингредиентов и тегов
type CatalogStorage interface {
	ListTags(ctx context.Context) ([]domain.Tag, error)
	GetTag(ctx context.Context, id uuid.UUID) (*domain.Tag, error)

	// SearchIngredients возвращает ингредиенты, имя которых содержит term (без учёта регистра).
	// Пустой term возвращает весь справочник.
	SearchIngredients(ctx context.Context, term string) ([]domain.Ingredient, error)
	GetIngredient(ctx context.Context, id uuid.UUID) (*domain.Ingredient, error)

	// MissingIngredients / MissingTags возвращают идентификаторы, которых нет в справочнике
	MissingIngredients(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error)
	MissingTags(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error)
}

// RelationStorage хранит факты членства, ключ — (kind, user, target)
type RelationStorage interface {
	RelationExists(ctx context.Context, kind domain.RelationKind, userID, targetID uuid.UUID) (bool, error)
	// InsertRelation возвращает domain.ErrAlreadyExists при нарушении уникальности
	InsertRelation(ctx context.Context, membership *domain.Membership) error
	// DeleteRelation возвращает количество удалённых строк
	DeleteRelation(ctx context.Context, kind domain.RelationKind, userID, targetID uuid.UUID) (int64, error)
}

// ShoppingCartStorage отдаёт строки состава всех рецептов из корзины пользователя
type ShoppingCartStorage interface {
	ListCartLines(ctx context.Context, userID uuid.UUID) ([]domain.CartLine, error)
	HasCartLines(ctx context.Context, userID uuid.UUID) (bool, error)
}

// Repositories — набор хранилищ, привязанных к одному дескриптору (БД или транзакции)
type Repositories interface {
	Users() UserStorage
	Recipes() RecipeStorage
	Catalog() CatalogStorage
	Relations() RelationStorage
	Cart() ShoppingCartStorage
}

// Store — точка входа в хранилище.
// WithinTx выполняет fn в одной транзакции: при ошибке fn все изменения откатываются.
type Store interface {
	Repositories
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}
