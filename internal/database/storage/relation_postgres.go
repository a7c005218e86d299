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

// relationTable — таблица и колонка цели для вида отношения
type relationTable struct {
	name   string
	target string
}

var relationTables = map[domain.RelationKind]relationTable{
	domain.RelationFavorite:     {name: "favorites", target: "recipe_id"},
	domain.RelationShoppingCart: {name: "shopping_cart", target: "recipe_id"},
	domain.RelationFollow:       {name: "follows", target: "following_id"},
}

// RelationStorage хранит факты членства; ключ (kind, user, target) отображается на таблицу
type RelationStorage struct {
	db     sqlx.ExtContext
	logger *slog.Logger
}

func NewRelationStorage(db sqlx.ExtContext, logger *slog.Logger) *RelationStorage {
	return &RelationStorage{db: db, logger: logger}
}

func tableFor(kind domain.RelationKind) (relationTable, error) {
	t, ok := relationTables[kind]
	if !ok {
		return relationTable{}, fmt.Errorf("unknown relation kind %q", kind)
	}
	return t, nil
}

func (s *RelationStorage) RelationExists(ctx context.Context, kind domain.RelationKind, userID, targetID uuid.UUID) (bool, error) {
	defer observe("relation_exists", time.Now())

	t, err := tableFor(kind)
	if err != nil {
		return false, err
	}

	var exists bool
	query := fmt.Sprintf(`SELECT EXISTS(SELECT 1 FROM %s WHERE user_id = $1 AND %s = $2)`, t.name, t.target)
	if err := sqlx.GetContext(ctx, s.db, &exists, query, userID, targetID); err != nil {
		return false, queryError(s.logger, "check "+t.name, err)
	}
	return exists, nil
}

// InsertRelation вставляет пару; гонка двух вставок упирается в первичный ключ и даёт ErrAlreadyExists
func (s *RelationStorage) InsertRelation(ctx context.Context, m *domain.Membership) error {
	start := time.Now()
	defer observe("insert_relation", start)

	t, err := tableFor(m.Kind)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`INSERT INTO %s (user_id, %s, created_at) VALUES ($1, $2, $3)`, t.name, t.target)
	if _, err := s.db.ExecContext(ctx, query, m.UserID, m.TargetID, m.CreatedAt); err != nil {
		return queryError(s.logger, "insert into "+t.name, err)
	}

	s.logger.Info("relation inserted",
		"kind", m.Kind,
		"user_id", m.UserID,
		"target_id", m.TargetID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

func (s *RelationStorage) DeleteRelation(ctx context.Context, kind domain.RelationKind, userID, targetID uuid.UUID) (int64, error) {
	defer observe("delete_relation", time.Now())

	t, err := tableFor(kind)
	if err != nil {
		return 0, err
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE user_id = $1 AND %s = $2`, t.name, t.target)
	res, err := s.db.ExecContext(ctx, query, userID, targetID)
	if err != nil {
		return 0, queryError(s.logger, "delete from "+t.name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, queryError(s.logger, "delete from "+t.name, err)
	}
	return n, nil
}
