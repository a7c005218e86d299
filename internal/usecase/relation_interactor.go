package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/GoArmGo/foodgram/internal/core/ports"
	"github.com/GoArmGo/foodgram/internal/domain"
	"github.com/GoArmGo/foodgram/internal/metrics"
	"github.com/google/uuid"
)

// relationUseCase implements RelationUseCase
type relationUseCase struct {
	store  ports.Store
	logger *slog.Logger
	now    func() time.Time
}

// NewRelationUseCase создает сервис переключения членства.
// Избранное, корзина и подписки обслуживаются одним кодом, различается только kind.
func NewRelationUseCase(store ports.Store, logger *slog.Logger) RelationUseCase {
	return &relationUseCase{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// Add создаёт пару (user, target) для отношения kind.
// Ошибки: ErrSelfReferenceNotAllowed, ErrNotFound (цели нет), ErrAlreadyExists.
func (uc *relationUseCase) Add(ctx context.Context, kind domain.RelationKind, userID, targetID uuid.UUID) (m *domain.Membership, err error) {
	defer func() {
		metrics.RelationToggles.WithLabelValues(kind.String(), "add", metrics.Result(err)).Inc()
	}()

	if !kind.Valid() {
		return nil, fmt.Errorf("usecase: неизвестный вид отношения %q", kind)
	}
	if kind.TargetsUser() && userID == targetID {
		return nil, domain.ErrSelfReferenceNotAllowed
	}

	membership := &domain.Membership{
		Kind:      kind,
		UserID:    userID,
		TargetID:  targetID,
		CreatedAt: uc.now().UTC(),
	}

	err = uc.store.WithinTx(ctx, func(ctx context.Context, repos ports.Repositories) error {
		if err := targetExists(ctx, repos, kind, targetID); err != nil {
			return err
		}

		exists, err := repos.Relations().RelationExists(ctx, kind, userID, targetID)
		if err != nil {
			return fmt.Errorf("usecase: ошибка проверки отношения %s: %w", kind, err)
		}
		if exists {
			return domain.ErrAlreadyExists
		}

		// уникальный индекс в бд страхует от гонки двух одновременных запросов,
		// хранилище переводит нарушение в ErrAlreadyExists
		return repos.Relations().InsertRelation(ctx, membership)
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Debug("usecase: отношение добавлено",
		slog.String("kind", kind.String()),
		slog.String("user_id", userID.String()),
		slog.String("target_id", targetID.String()),
	)
	return membership, nil
}

// Remove удаляет пару (user, target).
// Ошибки: ErrNotFound (цели нет), ErrMembershipNotFound (цель есть, пары нет).
func (uc *relationUseCase) Remove(ctx context.Context, kind domain.RelationKind, userID, targetID uuid.UUID) (err error) {
	defer func() {
		metrics.RelationToggles.WithLabelValues(kind.String(), "remove", metrics.Result(err)).Inc()
	}()

	if !kind.Valid() {
		return fmt.Errorf("usecase: неизвестный вид отношения %q", kind)
	}

	return uc.store.WithinTx(ctx, func(ctx context.Context, repos ports.Repositories) error {
		if err := targetExists(ctx, repos, kind, targetID); err != nil {
			return err
		}

		deleted, err := repos.Relations().DeleteRelation(ctx, kind, userID, targetID)
		if err != nil {
			return fmt.Errorf("usecase: ошибка удаления отношения %s: %w", kind, err)
		}
		if deleted == 0 {
			return domain.ErrMembershipNotFound
		}
		return nil
	})
}

func targetExists(ctx context.Context, repos ports.Repositories, kind domain.RelationKind, targetID uuid.UUID) error {
	var (
		exists bool
		err    error
	)
	if kind.TargetsUser() {
		exists, err = repos.Users().UserExists(ctx, targetID)
	} else {
		exists, err = repos.Recipes().RecipeExists(ctx, targetID)
	}
	if err != nil {
		return fmt.Errorf("usecase: ошибка проверки цели %s: %w", targetID, err)
	}
	if !exists {
		return domain.ErrNotFound
	}
	return nil
}
