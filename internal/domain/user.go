// internal/domain/user.go
package domain

import (
	"time"

	"github.com/google/uuid"
)

// User представляет модель пользователя в системе.
// Соответствует таблице 'users' в базе данных.
type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	Username     string    `json:"username" db:"username"`
	FirstName    string    `json:"first_name" db:"first_name"`
	LastName     string    `json:"last_name" db:"last_name"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Avatar       *string   `json:"avatar" db:"avatar"`
	CreatedAt    time.Time `json:"-" db:"created_at"`
	UpdatedAt    time.Time `json:"-" db:"updated_at"`
}

// UserView — пользователь глазами конкретного зрителя.
// IsSubscribed вычисляется запросом к хранилищу, для анонима всегда false.
type UserView struct {
	User
	IsSubscribed bool `json:"is_subscribed" db:"is_subscribed"`
}

// Subscription — автор из списка подписок вместе с его рецептами
type Subscription struct {
	UserView
	Recipes      []RecipeShort `json:"recipes"`
	RecipesCount int           `json:"recipes_count"`
}
