// Package logger provides a structured logging interface for commonsfetch.
//
// It wraps zerolog with a small interface so components can be handed a
// logger (or a TestLogger / NewNopLogger in tests) instead of reaching for
// a global:
//
//	log := logger.GetLogger().WithField("term", "lighthouse")
//	log.InfoWithFields("search finished", map[string]interface{}{
//	    "accepted": 12,
//	})
//
// Console output goes to stderr so that stdout stays free for the progress
// stream written by the ui package.
package logger
