package domain

import (
	"time"

	"github.com/google/uuid"
)

// RelationKind — вид отношения-членства пользователя к цели
type RelationKind string

const (
	RelationFavorite     RelationKind = "favorite"
	RelationShoppingCart RelationKind = "shopping_cart"
	RelationFollow       RelationKind = "follow"
)

// Valid сообщает, известен ли вид отношения
func (k RelationKind) Valid() bool {
	switch k {
	case RelationFavorite, RelationShoppingCart, RelationFollow:
		return true
	}
	return false
}

// TargetsUser — цель отношения пользователь (подписка), а не рецепт
func (k RelationKind) TargetsUser() bool {
	return k == RelationFollow
}

func (k RelationKind) String() string {
	return string(k)
}

// Membership — факт членства (избранное, корзина, подписка).
// Смысл несёт только существование строки.
type Membership struct {
	Kind      RelationKind `json:"kind"`
	UserID    uuid.UUID    `json:"user_id"`
	TargetID  uuid.UUID    `json:"target_id"`
	CreatedAt time.Time    `json:"created_at"`
}
