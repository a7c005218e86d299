package domain

// Page — страница результатов вместе с общим количеством записей
type Page[T any] struct {
	Count   int
	Results []T
}
