package ref

import (
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

var (
	logger atomic.Pointer[zap.Logger]
	nop    = zap.NewNop()
)

// Logger returns the logger used for destroy diagnostics.
// It is a no-op logger until SetLogger is called.
func Logger() *zap.Logger {
	if l := logger.Load(); l != nil {
		return l
	}
	return nop
}

// SetLogger replaces the ref package's logger. A nil logger restores the
// no-op default.
func SetLogger(l *zap.Logger) {
	logger.Store(l)
}
