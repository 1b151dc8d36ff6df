// Package logger builds configured slog loggers for the quota services.
//
// The factory returns a *slog.Logger wired with the output format, level,
// and static attributes the deployment asks for, plus optional context
// extractors that pull request-scoped values (request ID, principal key)
// into every record without the call sites threading them through.
//
// Usage:
//
//	log := logger.New(
//		logger.WithProduction("quotakit"),
//		logger.WithContextValue("request_id", requestIDKey),
//	)
//	log.InfoContext(ctx, "scan accounted", logger.Feature("scan_quota"))
//
// Attribute helpers keep field names consistent across packages so one
// feature or principal can be traced through resolver, accountant, and
// HTTP logs with a single query.
package logger
