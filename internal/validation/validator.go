// Package validation проверяет входящие DTO через go-playground/validator.
//
// Валидатор создаётся один раз и переиспользуется (кэширует разбор структур).
// Ошибки переводятся в карту "поле -> сообщения" — тот же формат, что и
// остальные ответы API с ошибками валидации.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once

	usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)
)

// FieldErrors — ошибки валидации по полям, ключ — json-имя поля
type FieldErrors map[string][]string

func (fe FieldErrors) Error() string {
	parts := make([]string, 0, len(fe))
	for field, msgs := range fe {
		parts = append(parts, fmt.Sprintf("%s: %s", field, strings.Join(msgs, " ")))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Get возвращает единственный экземпляр валидатора
func Get() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		// имена полей в ошибках берём из json-тегов
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})

		_ = validate.RegisterValidation("username", func(fl validator.FieldLevel) bool {
			return usernamePattern.MatchString(fl.Field().String())
		})
	})
	return validate
}

// Struct проверяет структуру, возвращает nil или FieldErrors
func Struct(s interface{}) error {
	err := Get().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return FieldErrors{"non_field_errors": {err.Error()}}
	}

	out := FieldErrors{}
	for _, fe := range verrs {
		out[fe.Field()] = append(out[fe.Field()], translate(fe))
	}
	return out
}

var messages = map[string]string{
	"required": "Это поле обязательно.",
	"email":    "Введите правильный адрес электронной почты.",
	"username": "Допустимы только буквы, цифры и символы @/./+/-/_.",
	"uuid":     "Некорректный идентификатор.",
}

func translate(fe validator.FieldError) string {
	if msg, ok := messages[fe.Tag()]; ok {
		return msg
	}

	isString := fe.Kind() == reflect.String
	switch fe.Tag() {
	case "min":
		if isString {
			return fmt.Sprintf("Минимальная длина - %s символов.", fe.Param())
		}
		return fmt.Sprintf("Минимальное значение - %s.", fe.Param())
	case "max":
		if isString {
			return fmt.Sprintf("Максимальная длина - %s символов.", fe.Param())
		}
		return fmt.Sprintf("Максимальное значение - %s.", fe.Param())
	case "gte":
		return fmt.Sprintf("Значение должно быть не меньше %s.", fe.Param())
	default:
		return fmt.Sprintf("Не пройдена проверка %s.", fe.Tag())
	}
}
