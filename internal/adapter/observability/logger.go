package observability

import (
	"log/slog"
	"os"

	"github.com/fairyhunter13/ai-placement-coach/internal/config"
)

// SetupLogger builds the process-wide JSON logger. Dev runs at debug with
// source locations so submission flows are easy to trace locally; prod stays
// at info without them.
func SetupLogger(cfg config.Config) *slog.Logger {
	level := slog.LevelInfo
	if cfg.IsDev() {
		level = slog.LevelDebug
	}
	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:     level,
		AddSource: cfg.IsDev(),
	})
	return slog.New(h).With(
		slog.String("service", cfg.OTELServiceName),
		slog.String("env", cfg.AppEnv),
	)
}
