package middleware

import (
	"context"
	"log/slog"
	"time"

	"staybook/internal/app/commands"
	"staybook/internal/app/queries"
	"staybook/internal/domain/shared/validation"
)

// Logging records each dispatched command with its duration. Rejections with a
// reason code are logged at info, everything else that fails at error.
func Logging(logger *slog.Logger) CommandMiddleware {
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			start := time.Now()
			res, err := nextFn(ctx, cmd)
			logResult(ctx, logger, "command", cmd.Key(), time.Since(start), err)
			return res, err
		})
	}
}

func QueryLogging(logger *slog.Logger) QueryMiddleware {
	return func(next queries.Bus) queries.Bus {
		nextFn := wrapQuery(next)
		return queryFunc(func(ctx context.Context, q queries.Query) (any, error) {
			start := time.Now()
			res, err := nextFn(ctx, q)
			logResult(ctx, logger, "query", q.Key(), time.Since(start), err)
			return res, err
		})
	}
}

func logResult(ctx context.Context, logger *slog.Logger, kind, key string, elapsed time.Duration, err error) {
	if logger == nil {
		return
	}
	if err == nil {
		logger.DebugContext(ctx, kind+" handled", "key", key, "duration", elapsed)
		return
	}
	if reason, ok := validation.ReasonOf(err); ok {
		logger.InfoContext(ctx, kind+" rejected", "key", key, "reason", reason, "error", err)
		return
	}
	logger.ErrorContext(ctx, kind+" failed", "key", key, "duration", elapsed, "error", err)
}
