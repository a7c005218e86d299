package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/GoArmGo/foodgram/internal/auth"
	"github.com/GoArmGo/foodgram/internal/core/ports"
	"github.com/GoArmGo/foodgram/internal/domain"
	"github.com/GoArmGo/foodgram/internal/validation"
	"github.com/google/uuid"
)

const avatarPrefix = "users/avatars"

// userUseCase implements UserUseCase
type userUseCase struct {
	store       ports.Store
	fileStorage ports.FileStorage
	relations   RelationUseCase
	tokens      TokenIssuer
	logger      *slog.Logger
	now         func() time.Time
}

// NewUserUseCase создает сервис пользователей.
// Подписки идут через общий RelationUseCase с видом RelationFollow.
func NewUserUseCase(
	store ports.Store,
	fileStorage ports.FileStorage,
	relations RelationUseCase,
	tokens TokenIssuer,
	logger *slog.Logger,
) UserUseCase {
	return &userUseCase{
		store:       store,
		fileStorage: fileStorage,
		relations:   relations,
		tokens:      tokens,
		logger:      logger,
		now:         time.Now,
	}
}

// Register создает пользователя, email и username должны быть уникальны
func (uc *userUseCase) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("usecase: %w", err)
	}

	now := uc.now().UTC()
	user := &domain.User{
		ID:           uuid.New(),
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		Username:     strings.TrimSpace(in.Username),
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := uc.store.Users().CreateUser(ctx, user); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return nil, validation.FieldErrors{
				"email": {"Пользователь с таким email или username уже существует."},
			}
		}
		return nil, fmt.Errorf("usecase: ошибка создания пользователя: %w", err)
	}

	uc.logger.Info("usecase: пользователь зарегистрирован", slog.String("user_id", user.ID.String()))
	return user, nil
}

// Login проверяет пару email/пароль и выпускает токен
func (uc *userUseCase) Login(ctx context.Context, email, password string) (string, error) {
	user, err := uc.store.Users().GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, domain.ErrNotFound) {
		return "", domain.ErrInvalidCredentials
	}
	if err != nil {
		return "", fmt.Errorf("usecase: ошибка поиска пользователя: %w", err)
	}

	ok, err := auth.CheckPassword(user.PasswordHash, password)
	if err != nil {
		return "", fmt.Errorf("usecase: %w", err)
	}
	if !ok {
		return "", domain.ErrInvalidCredentials
	}

	return uc.tokens.Issue(user.ID)
}

func (uc *userUseCase) GetUser(ctx context.Context, viewer, id uuid.UUID) (*domain.UserView, error) {
	return uc.store.Users().GetUserView(ctx, viewer, id)
}

func (uc *userUseCase) ListUsers(ctx context.Context, viewer uuid.UUID, limit, offset int) (domain.Page[domain.UserView], error) {
	users, total, err := uc.store.Users().ListUserViews(ctx, viewer, limit, offset)
	if err != nil {
		return domain.Page[domain.UserView]{}, fmt.Errorf("usecase: ошибка получения пользователей: %w", err)
	}
	if users == nil {
		users = []domain.UserView{}
	}
	return domain.Page[domain.UserView]{Count: total, Results: users}, nil
}

// SetAvatar загружает новый аватар и возвращает его URL. Старый аватар удаляется.
func (uc *userUseCase) SetAvatar(ctx context.Context, userID uuid.UUID, dataURI string) (string, error) {
	img, err := DecodeImage(dataURI)
	if err != nil {
		return "", err
	}

	user, err := uc.store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return "", err
	}

	url, err := uc.fileStorage.UploadFile(ctx, img.Key(avatarPrefix), img.Reader(), img.ContentType)
	if err != nil {
		return "", fmt.Errorf("usecase: ошибка загрузки аватара: %w", err)
	}

	if err := uc.store.Users().UpdateAvatar(ctx, userID, &url); err != nil {
		deleteObjectByURL(ctx, uc.fileStorage, uc.logger, url)
		return "", fmt.Errorf("usecase: ошибка сохранения аватара: %w", err)
	}
	if user.Avatar != nil {
		deleteObjectByURL(ctx, uc.fileStorage, uc.logger, *user.Avatar)
	}
	return url, nil
}

func (uc *userUseCase) DeleteAvatar(ctx context.Context, userID uuid.UUID) error {
	user, err := uc.store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.Avatar == nil {
		return nil
	}

	if err := uc.store.Users().UpdateAvatar(ctx, userID, nil); err != nil {
		return fmt.Errorf("usecase: ошибка удаления аватара: %w", err)
	}
	deleteObjectByURL(ctx, uc.fileStorage, uc.logger, *user.Avatar)
	return nil
}

// SetPassword меняет пароль после проверки текущего
func (uc *userUseCase) SetPassword(ctx context.Context, userID uuid.UUID, current, next string) error {
	user, err := uc.store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	ok, err := auth.CheckPassword(user.PasswordHash, current)
	if err != nil {
		return fmt.Errorf("usecase: %w", err)
	}
	if !ok {
		return validation.FieldErrors{"current_password": {"Неверный текущий пароль."}}
	}

	hash, err := auth.HashPassword(next)
	if err != nil {
		return fmt.Errorf("usecase: %w", err)
	}
	return uc.store.Users().UpdatePasswordHash(ctx, userID, hash)
}

// Subscribe подписывает userID на автора и возвращает автора с его рецептами.
// recipesLimit <= 0 — без ограничения.
func (uc *userUseCase) Subscribe(ctx context.Context, userID, authorID uuid.UUID, recipesLimit int) (*domain.Subscription, error) {
	if _, err := uc.relations.Add(ctx, domain.RelationFollow, userID, authorID); err != nil {
		return nil, err
	}

	author, err := uc.store.Users().GetUserView(ctx, userID, authorID)
	if err != nil {
		return nil, err
	}

	subs, err := uc.subscriptions(ctx, []domain.UserView{*author}, recipesLimit)
	if err != nil {
		return nil, err
	}
	return &subs[0], nil
}

func (uc *userUseCase) Unsubscribe(ctx context.Context, userID, authorID uuid.UUID) error {
	return uc.relations.Remove(ctx, domain.RelationFollow, userID, authorID)
}

// ListSubscriptions возвращает страницу авторов, на которых подписан пользователь
func (uc *userUseCase) ListSubscriptions(ctx context.Context, userID uuid.UUID, limit, offset, recipesLimit int) (domain.Page[domain.Subscription], error) {
	authors, total, err := uc.store.Users().ListSubscriptions(ctx, userID, limit, offset)
	if err != nil {
		return domain.Page[domain.Subscription]{}, fmt.Errorf("usecase: ошибка получения подписок: %w", err)
	}

	subs, err := uc.subscriptions(ctx, authors, recipesLimit)
	if err != nil {
		return domain.Page[domain.Subscription]{}, err
	}
	return domain.Page[domain.Subscription]{Count: total, Results: subs}, nil
}

// subscriptions дополняет авторов их рецептами: два запроса на всю страницу
func (uc *userUseCase) subscriptions(ctx context.Context, authors []domain.UserView, recipesLimit int) ([]domain.Subscription, error) {
	subs := make([]domain.Subscription, 0, len(authors))
	if len(authors) == 0 {
		return subs, nil
	}

	ids := make([]uuid.UUID, len(authors))
	for i, author := range authors {
		ids[i] = author.ID
	}

	recipes, err := uc.store.Recipes().ListRecipesByAuthors(ctx, ids, recipesLimit)
	if err != nil {
		return nil, fmt.Errorf("usecase: ошибка получения рецептов авторов: %w", err)
	}
	counts, err := uc.store.Recipes().CountRecipesByAuthors(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("usecase: ошибка подсчёта рецептов авторов: %w", err)
	}

	for _, author := range authors {
		list := recipes[author.ID]
		if list == nil {
			list = []domain.RecipeShort{}
		}
		subs = append(subs, domain.Subscription{UserView: author, Recipes: list, RecipesCount: counts[author.ID]})
	}
	return subs, nil
}
