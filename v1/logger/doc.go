// Package logger provides structured logging built on Uber's zap.
//
// # Architecture
//
// This package follows the "accept interfaces, return structs" design pattern:
//   - Logger interface: the contract other packages depend on
//   - LoggerClient struct: concrete zap-backed implementation
//   - NewLoggerClient constructor: returns *LoggerClient
//   - FX module: provides both *LoggerClient and Logger
//
// # Direct Usage (Without FX)
//
//	log := logger.NewLoggerClient(logger.Config{
//		Level:         "info",
//		EnableTracing: true,
//		ServiceName:   "order-worker",
//	})
//
//	log.Info("Order created", nil, map[string]interface{}{
//		"order_id": 42,
//	})
//
//	// Includes trace_id and span_id when ctx carries an active span
//	log.InfoWithContext(ctx, "Processing batch", nil, map[string]interface{}{
//		"batch_size": 10,
//	})
//
// # Configuration
//
//	ZAP_LOGGER_LEVEL=debug          # debug, info, warning, error
//	LOGGER_ENABLE_TRACING=true      # add trace_id/span_id from context
//	LOGGER_SERVICE_NAME=order-worker
//
// # Thread Safety
//
// All methods are safe for concurrent use by multiple goroutines.
package logger
