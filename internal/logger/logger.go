// README: Structured logger; zap production core exposed through log/slog.
package logger

import (
	"log/slog"

	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
)

// New builds the process-wide slog logger on top of a zap core.
// The handle is injected from main rather than held as package state.
func New() *slog.Logger {
	core := zap.Must(zap.NewProduction())
	return slog.New(zapslog.NewHandler(core.Core()))
}
