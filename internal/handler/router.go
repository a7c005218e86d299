package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterConfig — параметры HTTP-слоя
type RouterConfig struct {
	RequestTimeout     time.Duration
	RateLimitRPS       int
	CORSAllowedOrigins []string
}

// NewRouter собирает маршруты API.
// Пути принимаются как со слэшем на конце, так и без него.
func NewRouter(
	cfg RouterConfig,
	tokens TokenParser,
	users *UserHandler,
	catalog *CatalogHandler,
	recipes *RecipeHandler,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(Metrics)
		r.Use(httprate.LimitByIP(cfg.RateLimitRPS, time.Second))
		r.Use(middleware.Timeout(cfg.RequestTimeout))
		r.Use(Authenticate(tokens, logger))

		requireAuth := RequireAuth(logger)

		r.Route("/users", func(r chi.Router) {
			r.Get("/", users.ListUsers)
			r.Post("/", users.Register)
			r.Get("/{id}", users.GetUser)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Get("/me", users.Me)
				r.Put("/me/avatar", users.SetAvatar)
				r.Delete("/me/avatar", users.DeleteAvatar)
				r.Post("/set_password", users.SetPassword)
				r.Get("/subscriptions", users.Subscriptions)
				r.Post("/{id}/subscribe", users.Subscribe)
				r.Delete("/{id}/subscribe", users.Unsubscribe)
			})
		})

		r.Post("/auth/token/login", users.Login)
		r.With(requireAuth).Post("/auth/token/logout", users.Logout)

		r.Get("/tags", catalog.ListTags)
		r.Get("/tags/{id}", catalog.GetTag)
		r.Get("/ingredients", catalog.SearchIngredients)
		r.Get("/ingredients/{id}", catalog.GetIngredient)

		r.Route("/recipes", func(r chi.Router) {
			r.Get("/", recipes.ListRecipes)
			r.Get("/{id}", recipes.GetRecipe)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/", recipes.CreateRecipe)
				r.Patch("/{id}", recipes.UpdateRecipe)
				r.Delete("/{id}", recipes.DeleteRecipe)

				r.Post("/{id}/favorite", recipes.AddFavorite)
				r.Delete("/{id}/favorite", recipes.RemoveFavorite)
				r.Post("/{id}/shopping_cart", recipes.AddToShoppingCart)
				r.Delete("/{id}/shopping_cart", recipes.RemoveFromShoppingCart)

				r.Get("/download_shopping_cart", recipes.DownloadShoppingCart)
				r.Post("/download_shopping_cart/export", recipes.ExportShoppingCart)
			})
		})
	})

	return r
}
