package di

import (
	"fmt"
	"log/slog"

	"github.com/GoArmGo/foodgram/internal/adapter/storage/minio"
	"github.com/GoArmGo/foodgram/internal/app"
	"github.com/GoArmGo/foodgram/internal/auth"
	"github.com/GoArmGo/foodgram/internal/config"
	"github.com/GoArmGo/foodgram/internal/core/ports"
	"github.com/GoArmGo/foodgram/internal/database/client"
	"github.com/GoArmGo/foodgram/internal/database/postgres"
	"github.com/GoArmGo/foodgram/internal/database/storage"
	"github.com/GoArmGo/foodgram/internal/handler"
	"github.com/GoArmGo/foodgram/internal/logger"
	"github.com/GoArmGo/foodgram/internal/rabbitmq"
	"github.com/GoArmGo/foodgram/internal/usecase"
)

// максимум параллельных загрузок картинок в хранилище
const uploadConcurrency = 5

// LoadBase загружает конфигурацию и создаёт логгер
func LoadBase() (*config.Config, *slog.Logger, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	return cfg, newLogger(&cfg.BaseConfig), nil
}

// loadDatabaseOnly используется командами, которым не нужны MinIO и RabbitMQ
func loadDatabaseOnly() (*config.BaseConfig, *slog.Logger, error) {
	cfg, err := config.LoadBaseConfig()
	if err != nil {
		return nil, nil, err
	}
	return cfg, newLogger(cfg), nil
}

func newLogger(cfg *config.BaseConfig) *slog.Logger {
	slogger := logger.NewSlog(logger.SlogConfig{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})
	slogger.Info("logger initialized", "level", cfg.LogLevel, "format", cfg.LogFormat)
	return slogger
}

// BuildApp инициализирует все зависимости и возвращает готовый объект App.
// В режиме сервера недоступный RabbitMQ не мешает запуску: выгрузка
// списка покупок просто отвечает 503. Воркеру RabbitMQ обязателен.
func BuildApp(mode string) (*app.App, error) {
	cfg, slogger, err := LoadBase()
	if err != nil {
		return nil, err
	}

	var closers []func() error
	fail := func(err error) (*app.App, error) {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i]()
		}
		return nil, err
	}

	// 1. PostgreSQL
	dbClient, err := client.NewClient(&cfg.BaseConfig, slogger)
	if err != nil {
		return nil, err
	}
	closers = append(closers, dbClient.Close)

	store := storage.NewStore(dbClient.DB, slogger)

	// 2. Объектное хранилище
	fileStorage, err := minio.NewMinioClient(cfg, slogger)
	if err != nil {
		return fail(err)
	}

	// 3. RabbitMQ
	var (
		publisher ports.ShoppingListExportPublisher
		consumer  ports.ShoppingListExportConsumer
	)
	rabbitMQClient, err := rabbitmq.NewClient(cfg, slogger)
	switch {
	case err == nil:
		closers = append(closers, rabbitMQClient.Close)
		publisher, consumer = rabbitMQClient, rabbitMQClient
	case mode == app.ModeWorker:
		return fail(err)
	default:
		slogger.Warn("RabbitMQ unavailable, shopping list export disabled", "error", err)
	}

	// 4. Бизнес-логика
	tokens, err := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return fail(err)
	}

	relationUseCase := usecase.NewRelationUseCase(store, slogger)
	recipeUseCase := usecase.NewRecipeUseCase(store, fileStorage, slogger)
	catalogUseCase := usecase.NewCatalogUseCase(store.Catalog(), slogger)
	userUseCase := usecase.NewUserUseCase(store, fileStorage, relationUseCase, tokens, slogger)
	shoppingList := usecase.NewShoppingListUseCase(store, fileStorage, publisher, slogger)

	// 5. HTTP
	uploadLimiter := make(chan struct{}, uploadConcurrency)
	router := handler.NewRouter(
		handler.RouterConfig{
			RequestTimeout:     cfg.RequestTimeout,
			RateLimitRPS:       cfg.RateLimitRPS,
			CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		},
		tokens,
		handler.NewUserHandler(userUseCase, uploadLimiter, cfg.PageSize, slogger),
		handler.NewCatalogHandler(catalogUseCase, slogger),
		handler.NewRecipeHandler(recipeUseCase, relationUseCase, shoppingList, userUseCase, uploadLimiter, cfg.PageSize, slogger),
		slogger,
	)

	application := app.NewApp(cfg, slogger, router, consumer, shoppingList.HandleExport, closers...)

	slogger.Info("all dependencies initialized", "mode", mode)
	return application, nil
}

// RunMigrations применяет встроенные миграции
func RunMigrations(direction string) error {
	cfg, slogger, err := loadDatabaseOnly()
	if err != nil {
		return err
	}
	return client.ApplyMigrations(cfg.DatabaseURL, direction, slogger)
}

// BuildCatalogImporter открывает бд и создаёт импортёр справочников.
// Вызывающий обязан вызвать возвращённую функцию закрытия.
func BuildCatalogImporter() (*postgres.CatalogImporter, *slog.Logger, func() error, error) {
	cfg, slogger, err := loadDatabaseOnly()
	if err != nil {
		return nil, nil, nil, err
	}

	dbClient, err := client.NewClient(cfg, slogger)
	if err != nil {
		return nil, nil, nil, err
	}

	gdb, err := postgres.OpenGorm(dbClient.DB, slogger)
	if err != nil {
		_ = dbClient.Close()
		return nil, nil, nil, fmt.Errorf("backfill: %w", err)
	}

	return postgres.NewCatalogImporter(gdb, slogger), slogger, dbClient.Close, nil
}
