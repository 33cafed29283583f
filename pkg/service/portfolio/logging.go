package portfolio

import (
	"time"
)

// logAction records the outcome of one ledger operation. Deferred at the
// top of each exported method so every user action leaves a log line with
// its duration and error, successful or not.
func (s *Service) logAction(op string, start time.Time, err *error, args ...any) {
	attrs := append([]any{"op", op, "duration_ms", time.Since(start).Milliseconds()}, args...)
	if err != nil && *err != nil {
		attrs = append(attrs, "error", *err)
		s.logger.Warn("ledger action failed", attrs...)
		return
	}
	s.logger.Info("ledger action", attrs...)
}
