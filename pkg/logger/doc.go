// Package logger builds configured slog.Logger instances and provides
// typed attribute helpers so log keys stay consistent across the SDK.
//
// Components accept a *slog.Logger and default to a discarding one;
// logging is opt-in for SDK consumers:
//
//	log := logger.New(
//	    logger.WithFormat(logger.FormatJSON),
//	    logger.WithLevel(slog.LevelDebug),
//	)
//	mgr := session.New(api, session.WithLogger(log))
package logger
