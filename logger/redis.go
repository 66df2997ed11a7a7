package logger

import (
	"context"
	"fmt"
	"log/slog"

	commonlog "go.ntppool.org/common/logger"
)

// RedisLogger routes go-redis internal log lines to slog.
type RedisLogger struct {
	key string
	log *slog.Logger
}

// NewRedisLogger returns a logger for redis.SetLogger. If log is nil the
// logger from the calling context is used.
func NewRedisLogger(key string, log *slog.Logger) *RedisLogger {
	return &RedisLogger{
		key: key,
		log: log,
	}
}

func (l *RedisLogger) Printf(ctx context.Context, format string, v ...interface{}) {
	log := l.log
	if log == nil {
		log = commonlog.FromContext(ctx)
	}
	log.InfoContext(ctx, l.key, "msg", fmt.Sprintf(format, v...))
}
