package tracer

import (
	"context"

	"github.com/Aleph-Alpha/orderqueue/v1/logger"
	"go.uber.org/fx"
)

// FXModule provides the tracer client and registers a shutdown hook that
// flushes pending spans to the exporter.
//
//	app := fx.New(
//	    tracer.FXModule,
//	    // other modules...
//	)
var FXModule = fx.Module("tracer",
	fx.Provide(
		NewClient,
	),
	fx.Invoke(RegisterTracerLifecycle),
)

// RegisterTracerLifecycle registers shutdown hooks for the tracer with the FX lifecycle.
func RegisterTracerLifecycle(lc fx.Lifecycle, tracer *Tracer, log logger.Logger) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			log.Info("shutting down tracer", nil, nil)
			return tracer.Shutdown(ctx)
		},
	})
}
