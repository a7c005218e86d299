package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/GoArmGo/foodgram/internal/app"
	"github.com/GoArmGo/foodgram/internal/database/client"
	"github.com/GoArmGo/foodgram/internal/database/postgres"
	"github.com/GoArmGo/foodgram/internal/di"
)

func newRootCmd(bootstrapLogger *slog.Logger) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "foodgram",
		Short:         "Foodgram: рецепты, избранное, подписки и список покупок",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newRunCmd(app.ModeServer, "serve", "Запустить HTTP API", bootstrapLogger),
		newRunCmd(app.ModeWorker, "worker", "Запустить обработчик выгрузок списка покупок", bootstrapLogger),
		newMigrateCmd(),
		newBackfillCmd(),
	)
	return rootCmd
}

// newRunCmd — долгоживущие режимы, сервер и воркер
func newRunCmd(mode, use, short string, bootstrapLogger *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			bootstrapLogger.Info("starting application", "mode", mode)

			application, err := di.BuildApp(mode)
			if err != nil {
				return fmt.Errorf("failed to build app: %w", err)
			}

			log := application.LoggerIns()
			if err := application.Run(cmd.Context(), mode); err != nil {
				return err
			}
			log.Info("application stopped gracefully")
			return nil
		},
	}
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down]",
		Short:     "Применить миграции (down откатывает один шаг)",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{client.MigrateUp, client.MigrateDown},
		RunE: func(cmd *cobra.Command, args []string) error {
			direction := client.MigrateUp
			if len(args) == 1 {
				direction = args[0]
			}
			return di.RunMigrations(direction)
		},
	}
}

func newBackfillCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backfill <ingredients.json>",
		Short: "Загрузить теги по умолчанию и справочник ингредиентов",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("не удалось открыть файл импорта: %w", err)
			}
			defer f.Close()

			data, err := postgres.LoadCatalog(f)
			if err != nil {
				return err
			}

			importer, log, closeDB, err := di.BuildCatalogImporter()
			if err != nil {
				return err
			}
			defer func() {
				if err := closeDB(); err != nil {
					log.Error("failed to close database", "error", err)
				}
			}()

			result, err := importer.Import(cmd.Context(), data)
			if err != nil {
				return err
			}
			cmd.Printf("Создано тегов: %d, ингредиентов: %d, пропущено: %d\n",
				result.TagsCreated, result.IngredientsCreated, result.Skipped)
			return nil
		},
	}
}
