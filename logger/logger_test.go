package logger

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	commonlog "go.ntppool.org/common/logger"
)

func TestSetupDebug(t *testing.T) {
	ctx, l := Setup(context.Background(), true)
	assert.True(t, l.Enabled(ctx, slog.LevelDebug))
	assert.Same(t, l, commonlog.FromContext(ctx))
}

func TestRedisLogger(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(slog.NewTextHandler(&buf, nil))

	rl := NewRedisLogger("redis", l)
	rl.Printf(context.Background(), "dial %s failed: %d", "localhost:6379", 3)

	assert.Contains(t, buf.String(), "msg=redis")
	assert.Contains(t, buf.String(), `"dial localhost:6379 failed: 3"`)
}
