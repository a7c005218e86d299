package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/GoArmGo/foodgram/internal/domain"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const userColumns = `u.id, u.email, u.username, u.first_name, u.last_name, u.password_hash, u.avatar, u.created_at, u.updated_at`

// UserStorage реализует ports.UserStorage на sqlx
type UserStorage struct {
	db     sqlx.ExtContext
	logger *slog.Logger
}

func NewUserStorage(db sqlx.ExtContext, logger *slog.Logger) *UserStorage {
	return &UserStorage{db: db, logger: logger}
}

// CreateUser сохраняет пользователя; дубликат email или username — ErrAlreadyExists
func (s *UserStorage) CreateUser(ctx context.Context, user *domain.User) error {
	start := time.Now()
	defer observe("create_user", start)

	query := `
	INSERT INTO users (id, email, username, first_name, last_name, password_hash, avatar, created_at, updated_at)
	VALUES (:id, :email, :username, :first_name, :last_name, :password_hash, :avatar, :created_at, :updated_at)
	`
	if _, err := sqlx.NamedExecContext(ctx, s.db, query, user); err != nil {
		s.logger.Error("failed to insert user", "username", user.Username, "error", err)
		return fmt.Errorf("ошибка при создании пользователя: %w", translateError(err))
	}

	s.logger.Info("user created",
		"user_id", user.ID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

func (s *UserStorage) GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	defer observe("get_user", time.Now())

	var user domain.User
	query := `SELECT ` + userColumns + ` FROM users u WHERE u.id = $1`
	if err := sqlx.GetContext(ctx, s.db, &user, query, id); err != nil {
		return nil, queryError(s.logger, "get user by id", err)
	}
	return &user, nil
}

func (s *UserStorage) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	defer observe("get_user_by_email", time.Now())

	var user domain.User
	query := `SELECT ` + userColumns + ` FROM users u WHERE u.email = $1`
	if err := sqlx.GetContext(ctx, s.db, &user, query, email); err != nil {
		return nil, queryError(s.logger, "get user by email", err)
	}
	return &user, nil
}

func (s *UserStorage) UserExists(ctx context.Context, id uuid.UUID) (bool, error) {
	defer observe("user_exists", time.Now())

	var exists bool
	if err := sqlx.GetContext(ctx, s.db, &exists, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, id); err != nil {
		return false, queryError(s.logger, "check user exists", err)
	}
	return exists, nil
}

// GetUserView возвращает пользователя с флагом is_subscribed для зрителя viewer
func (s *UserStorage) GetUserView(ctx context.Context, viewer, id uuid.UUID) (*domain.UserView, error) {
	defer observe("get_user_view", time.Now())

	query := `
	SELECT ` + userColumns + `,
	       EXISTS(SELECT 1 FROM follows f WHERE f.user_id = $1 AND f.following_id = u.id) AS is_subscribed
	FROM users u
	WHERE u.id = $2
	`
	var view domain.UserView
	if err := sqlx.GetContext(ctx, s.db, &view, query, viewer, id); err != nil {
		return nil, queryError(s.logger, "get user view", err)
	}
	return &view, nil
}

func (s *UserStorage) ListUserViews(ctx context.Context, viewer uuid.UUID, limit, offset int) ([]domain.UserView, int, error) {
	start := time.Now()
	defer observe("list_users", start)

	var total int
	if err := sqlx.GetContext(ctx, s.db, &total, `SELECT COUNT(*) FROM users`); err != nil {
		return nil, 0, queryError(s.logger, "count users", err)
	}

	query := `
	SELECT ` + userColumns + `,
	       EXISTS(SELECT 1 FROM follows f WHERE f.user_id = $1 AND f.following_id = u.id) AS is_subscribed
	FROM users u
	ORDER BY u.username
	LIMIT $2 OFFSET $3
	`
	users := []domain.UserView{}
	if err := sqlx.SelectContext(ctx, s.db, &users, query, viewer, limit, offset); err != nil {
		return nil, 0, queryError(s.logger, "list users", err)
	}

	s.logger.Debug("users listed",
		"count", len(users),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return users, total, nil
}

// ListSubscriptions возвращает авторов, на которых подписан follower
func (s *UserStorage) ListSubscriptions(ctx context.Context, follower uuid.UUID, limit, offset int) ([]domain.UserView, int, error) {
	defer observe("list_subscriptions", time.Now())

	var total int
	if err := sqlx.GetContext(ctx, s.db, &total, `SELECT COUNT(*) FROM follows WHERE user_id = $1`, follower); err != nil {
		return nil, 0, queryError(s.logger, "count subscriptions", err)
	}

	query := `
	SELECT ` + userColumns + `, TRUE AS is_subscribed
	FROM follows f
	JOIN users u ON u.id = f.following_id
	WHERE f.user_id = $1
	ORDER BY u.username
	LIMIT $2 OFFSET $3
	`
	authors := []domain.UserView{}
	if err := sqlx.SelectContext(ctx, s.db, &authors, query, follower, limit, offset); err != nil {
		return nil, 0, queryError(s.logger, "list subscriptions", err)
	}
	return authors, total, nil
}

func (s *UserStorage) UpdateAvatar(ctx context.Context, id uuid.UUID, avatar *string) error {
	defer observe("update_avatar", time.Now())

	res, err := s.db.ExecContext(ctx, `UPDATE users SET avatar = $1, updated_at = NOW() WHERE id = $2`, avatar, id)
	return expectAffected(s.logger, "update avatar", res, err)
}

func (s *UserStorage) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	defer observe("update_password", time.Now())

	res, err := s.db.ExecContext(ctx, `UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2`, hash, id)
	return expectAffected(s.logger, "update password", res, err)
}
