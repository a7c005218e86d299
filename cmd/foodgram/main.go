package main

import (
	"log/slog"
	"os"
)

func main() {
	// bootstrap-логгер (используется только на этапе инициализации, пока нет основного)
	bootstrapLogger := slog.New(
		slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
	)

	if err := newRootCmd(bootstrapLogger).Execute(); err != nil {
		bootstrapLogger.Error("command failed", "error", err)
		os.Exit(1)
	}
}
