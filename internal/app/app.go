package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/GoArmGo/foodgram/internal/config"
	"github.com/GoArmGo/foodgram/internal/core/ports"
	"github.com/GoArmGo/foodgram/internal/messaging/payloads"
)

// Режимы запуска
const (
	ModeServer = "server"
	ModeWorker = "worker"
)

// ExportHandler обрабатывает одну задачу выгрузки списка покупок
type ExportHandler func(ctx context.Context, payload payloads.ShoppingListExportPayload) error

type App struct {
	Config         *config.Config
	logger         *slog.Logger
	httpHandler    http.Handler
	exportConsumer ports.ShoppingListExportConsumer
	exportHandler  ExportHandler
	closers        []func() error
}

func NewApp(cfg *config.Config,
	logger *slog.Logger,
	httpHandler http.Handler,
	exportConsumer ports.ShoppingListExportConsumer,
	exportHandler ExportHandler,
	closers ...func() error) *App {
	return &App{
		Config:         cfg,
		logger:         logger,
		httpHandler:    httpHandler,
		exportConsumer: exportConsumer,
		exportHandler:  exportHandler,
		closers:        closers,
	}
}

// LoggerIns возвращает основной логгер приложения
func (a *App) LoggerIns() *slog.Logger {
	return a.logger
}

// Run запускает приложение в выбранном режиме и блокируется до SIGINT/SIGTERM
func (a *App) Run(ctx context.Context, mode string) error {
	// канал для graceful shutdown
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a.logger.Info("starting application", "mode", mode)

	var err error
	switch mode {
	case ModeServer:
		err = runServer(ctx, a.Config, a.httpHandler, a.logger)
	case ModeWorker:
		if a.exportConsumer == nil || a.exportHandler == nil {
			err = fmt.Errorf("воркер не сконфигурирован: нет потребителя очереди")
			break
		}
		err = runWorker(ctx, a.exportConsumer, a.exportHandler, a.logger)
	default:
		err = fmt.Errorf("неизвестный режим: %s (используйте '%s' или '%s')", mode, ModeServer, ModeWorker)
	}

	// аккуратно закрываем ресурсы
	if closeErr := a.Shutdown(); closeErr != nil {
		a.logger.Error("error during shutdown", "error", closeErr)
	}
	return err
}

// Shutdown закрывает все ресурсы приложения в обратном порядке создания
func (a *App) Shutdown() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
