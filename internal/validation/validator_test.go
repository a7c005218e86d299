package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signupRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Username string `json:"username" validate:"required,max=150,username"`
	Password string `json:"password" validate:"required,min=8"`
}

func TestStructValid(t *testing.T) {
	err := Struct(&signupRequest{Email: "vasya@yandex.ru", Username: "vasya.pupkin", Password: "Qwerty123"})
	assert.NoError(t, err)
}

func TestStructCollectsFieldErrors(t *testing.T) {
	err := Struct(&signupRequest{Email: "not-an-email", Username: "bad name!", Password: "123"})
	require.Error(t, err)

	fe, ok := err.(FieldErrors)
	require.True(t, ok)
	assert.Equal(t, []string{"Введите правильный адрес электронной почты."}, fe["email"])
	assert.Equal(t, []string{"Допустимы только буквы, цифры и символы @/./+/-/_."}, fe["username"])
	assert.Equal(t, []string{"Минимальная длина - 8 символов."}, fe["password"])
}

func TestStructRequired(t *testing.T) {
	err := Struct(&signupRequest{})
	require.Error(t, err)

	fe := err.(FieldErrors)
	assert.Contains(t, fe, "email")
	assert.Contains(t, fe, "username")
	assert.Contains(t, fe, "password")
	assert.Contains(t, fe.Error(), "validation failed")
}
