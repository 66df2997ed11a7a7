package nscmd

import (
	"context"
	"os"
	"time"

	"go.ntppool.org/common/logger"
	"go.ntppool.org/common/tracing"
)

// initTracing starts the trace exporter when an endpoint is configured.
// The returned function is never nil.
func (cmd *NSCmd) initTracing(ctx context.Context) (tracing.TpShutdownFunc, error) {
	noop := func(context.Context) error { return nil }

	endpoint := cmd.TraceEndpoint
	if len(endpoint) == 0 && len(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")) == 0 {
		return noop, nil
	}

	tpShutdownFn, err := tracing.InitTracer(ctx,
		&tracing.TracerConfig{
			ServiceName: "mlabns",
			Environment: os.Getenv("DEPLOYMENT_MODE"),
			EndpointURL: endpoint,
		},
	)
	if err != nil {
		return nil, err
	}

	return func(ctx context.Context) error {
		logger.FromContext(ctx).Debug("shutting down trace provider")
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return tpShutdownFn(shutdownCtx)
	}, nil
}
