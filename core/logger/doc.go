// Package logger builds *slog.Logger instances and provides attribute helpers
// used across the module.
//
// # Basic Usage
//
//	log := logger.New(
//		logger.WithProduction("sessions"),
//		logger.WithContextValue("request_id", requestIDKey{}),
//	)
//	logger.SetAsDefault(log)
//
// Without options New logs info level text to stdout. WithDevelopment,
// WithStaging and WithProduction select level and format for an environment
// and tag every record with the service name.
//
// # Attributes
//
// Helpers keep attribute keys consistent:
//
//	log.InfoContext(ctx, "session expired",
//		logger.SessionID(id),
//		logger.Host(host),
//		logger.Component("session"))
//
// Helpers given a zero value (nil error, empty id) return an empty slog.Attr,
// which slog omits.
//
// # Context Extraction
//
// WithContextExtractors and WithContextValue wrap the handler so that the
// *Context logging methods add attributes taken from the context.
package logger
