package batch

import (
	"log/slog"
	"os"
)

// quietLogger drops everything below error so expected warnings don't spam
// test output.
func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}
