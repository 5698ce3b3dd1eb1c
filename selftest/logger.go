package selftest

import (
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

var (
	logger atomic.Pointer[zap.Logger]
	nop    = zap.NewNop()
)

// Logger returns the logger run progress is reported to. Defaults to no-op.
func Logger() *zap.Logger {
	if l := logger.Load(); l != nil {
		return l
	}
	return nop
}

func SetLogger(l *zap.Logger) {
	logger.Store(l)
}
