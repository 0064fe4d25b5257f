// Package logging provides structured logging for gopix.
//
// # Overview
//
// Logging package wraps Zap with:
//   - Automatic context field injection (request.id, project)
//   - Independent child loggers via With and Named
//   - Test observation helpers (TestLogger)
//
// # Usage
//
// Create logger from config:
//
//	cfg := logging.NewDefaultConfig()
//	logger, err := logging.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer logger.Sync()
//
// Log with context:
//
//	ctx := logging.WithRequestID(ctx, requestID)
//	ctx = logging.WithProject(ctx, "prj_123")
//	logger.Info(ctx, "request processed", zap.Duration("duration", d))
//
// Output includes automatic correlation:
//
//	{
//	  "ts": "2026-08-20T10:15:30Z",
//	  "level": "info",
//	  "msg": "request processed",
//	  "request.id": "9f2c...",
//	  "project": "prj_123",
//	  "duration": "45ms"
//	}
//
// Hosts that embed gopix and do not want log output pass logging.Nop().
//
// # Testing
//
// Use TestLogger for test assertions:
//
//	tl := logging.NewTestLogger()
//	tl.Info(ctx, "test message", zap.String("key", "value"))
//	tl.AssertLogged(t, zapcore.InfoLevel, "test message")
//	tl.AssertField(t, "test message", "key", "value")
//
// # Concurrency Safety
//
// Logger is safe for concurrent use. Child loggers (With, Named) are
// independent and do not affect parent or siblings.
package logging
