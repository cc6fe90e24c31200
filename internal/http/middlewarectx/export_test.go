package middlewarectx

import "time"

// SetClock подменяет часы лимитера в тестах.
func (l *ClientLimiter) SetClock(now func() time.Time) {
	l.now = now
}
