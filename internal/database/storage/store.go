package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/GoArmGo/foodgram/internal/core/ports"
	"github.com/GoArmGo/foodgram/internal/metrics"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// repositories — набор хранилищ поверх одного дескриптора (*sqlx.DB или *sqlx.Tx)
type repositories struct {
	users     *UserStorage
	recipes   *RecipeStorage
	catalog   *CatalogStorage
	relations *RelationStorage
	cart      *CartStorage
}

func newRepositories(db sqlx.ExtContext, logger *slog.Logger) repositories {
	return repositories{
		users:     NewUserStorage(db, logger),
		recipes:   NewRecipeStorage(db, logger),
		catalog:   NewCatalogStorage(db, logger),
		relations: NewRelationStorage(db, logger),
		cart:      NewCartStorage(db, logger),
	}
}

func (r repositories) Users() ports.UserStorage { return r.users }
func (r repositories) Recipes() ports.RecipeStorage { return r.recipes }
func (r repositories) Catalog() ports.CatalogStorage { return r.catalog }
func (r repositories) Relations() ports.RelationStorage { return r.relations }
func (r repositories) Cart() ports.ShoppingCartStorage { return r.cart }

// Store реализует ports.Store поверх PostgreSQL
type Store struct {
	repositories
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore создает хранилище; вне транзакции запросы идут напрямую в пул соединений
func NewStore(db *sqlx.DB, logger *slog.Logger) *Store {
	return &Store{
		repositories: newRepositories(db, logger),
		db:           db,
		logger:       logger,
	}
}

// WithinTx выполняет fn в транзакции. Ошибка или паника в fn откатывают транзакцию.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos ports.Repositories) error) (err error) {
	start := time.Now()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		s.logger.Error("failed to begin transaction", "error", err)
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err = fn(ctx, newRepositories(tx, s.logger)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Error("failed to rollback transaction", "error", rbErr)
		}
		return err
	}

	if err = tx.Commit(); err != nil {
		s.logger.Error("failed to commit transaction", "error", err)
		return fmt.Errorf("ошибка фиксации транзакции: %w", translateError(err))
	}

	s.logger.Debug("transaction committed", "duration_ms", time.Since(start).Milliseconds())
	return nil
}

// observe пишет длительность запроса в метрики
func observe(operation string, start time.Time) {
	metrics.DBQueryDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// uuidArray готовит список идентификаторов для ANY($n::uuid[])
func uuidArray(ids []uuid.UUID) interface{} {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return pq.Array(out)
}
