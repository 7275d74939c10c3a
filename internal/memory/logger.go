package memory

import "sync"

var (
	logMu sync.RWMutex
	logFn func(format string, args ...interface{})
)

// SetLogger installs a debug log function for the package. A nil fn
// disables logging.
func SetLogger(fn func(format string, args ...interface{})) {
	logMu.Lock()
	defer logMu.Unlock()
	logFn = fn
}

func debugLog(format string, args ...interface{}) {
	logMu.RLock()
	fn := logFn
	logMu.RUnlock()
	if fn != nil {
		fn(format, args...)
	}
}
