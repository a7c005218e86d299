package handler

import (
	"github.com/google/uuid"

	"github.com/GoArmGo/foodgram/internal/domain"
	"github.com/GoArmGo/foodgram/internal/usecase"
)

// recipeRequest — тело POST /recipes/ и PATCH /recipes/{id}/.
// Состав (ингредиенты, теги, время) проверяет usecase.ValidateComposition.
type recipeRequest struct {
	Ingredients []domain.IngredientAmount `json:"ingredients"`
	Tags        []uuid.UUID               `json:"tags"`
	Image       string                    `json:"image"`
	Name        string                    `json:"name" validate:"required,max=256"`
	Text        string                    `json:"text" validate:"required"`
	CookingTime int                       `json:"cooking_time"`
}

func (req recipeRequest) input() usecase.RecipeInput {
	return usecase.RecipeInput{
		Name:        req.Name,
		Text:        req.Text,
		Image:       req.Image,
		CookingTime: req.CookingTime,
		Ingredients: req.Ingredients,
		Tags:        req.Tags,
	}
}

type registerRequest struct {
	Email     string `json:"email" validate:"required,email,max=254"`
	Username  string `json:"username" validate:"required,max=150,username"`
	FirstName string `json:"first_name" validate:"required,max=150"`
	LastName  string `json:"last_name" validate:"required,max=150"`
	Password  string `json:"password" validate:"required,min=8,max=128"`
}

// registerResponse — пользователь после регистрации, без аватара и подписки
type registerResponse struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type tokenResponse struct {
	AuthToken string `json:"auth_token"`
}

type avatarRequest struct {
	Avatar string `json:"avatar" validate:"required"`
}

type avatarResponse struct {
	Avatar string `json:"avatar"`
}

type setPasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=128"`
}

type exportResponse struct {
	URL string `json:"url"`
}

func shortRecipe(v *domain.RecipeView) domain.RecipeShort {
	return domain.RecipeShort{
		ID:          v.ID,
		Name:        v.Name,
		Image:       v.Image,
		CookingTime: v.CookingTime,
	}
}
