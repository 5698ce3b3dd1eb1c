package reftrack

import (
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

var (
	logger atomic.Pointer[zap.Logger]
	nop    = zap.NewNop()
)

// Logger returns the reftrack package's logger.
func Logger() *zap.Logger {
	if l := logger.Load(); l != nil {
		return l
	}
	return nop
}

// SetLogger configures the reftrack package's logger. Leak and
// double-destroy reports are written to it.
func SetLogger(l *zap.Logger) {
	logger.Store(l)
}
