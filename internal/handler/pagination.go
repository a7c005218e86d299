package handler

import (
	"math"
	"net/http"
	"net/url"
	"strconv"

	"github.com/GoArmGo/foodgram/internal/domain"
)

const maxPageSize = 100

// pageParams — номер страницы и размер, разобранные из ?page=&limit=
type pageParams struct {
	Page  int
	Limit int
}

func (p pageParams) Offset() int {
	return (p.Page - 1) * p.Limit
}

// parsePage читает параметры пагинации; некорректные значения заменяются умолчаниями
func parsePage(r *http.Request, defaultLimit int) pageParams {
	q := r.URL.Query()

	page, err := strconv.Atoi(q.Get("page"))
	if err != nil || page <= 0 {
		page = 1
	}
	limit, err := strconv.Atoi(q.Get("limit"))
	if err != nil || limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	// offset не должен переполниться
	if page > math.MaxInt/limit {
		page = math.MaxInt / limit
	}
	return pageParams{Page: page, Limit: limit}
}

// paginated — формат ответа для постраничных списков
type paginated[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

func newPaginated[T any](r *http.Request, p pageParams, page domain.Page[T]) paginated[T] {
	out := paginated[T]{Count: page.Count, Results: page.Results}
	if out.Results == nil {
		out.Results = []T{}
	}
	if p.Offset() < page.Count-p.Limit {
		next := pageURL(r, p.Page+1)
		out.Next = &next
	}
	if p.Page > 1 {
		prev := pageURL(r, p.Page-1)
		out.Previous = &prev
	}
	return out
}

// pageURL строит абсолютную ссылку на соседнюю страницу с теми же фильтрами
func pageURL(r *http.Request, page int) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if fwd := r.Header.Get("X-Forwarded-Proto"); fwd != "" {
		scheme = fwd
	}

	q := r.URL.Query()
	if page == 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(page))
	}

	u := url.URL{Scheme: scheme, Host: r.Host, Path: r.URL.Path, RawQuery: q.Encode()}
	return u.String()
}
