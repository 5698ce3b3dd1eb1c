package selftest

import "sync"

var (
	pathMu       sync.RWMutex
	pathPrefix   string
	resourcePath string
)

// SetPathPrefix sets the prefix prepended to names of files the checks
// create. It is concatenated as is, so directory prefixes need a trailing
// separator.
func SetPathPrefix(prefix string) {
	pathMu.Lock()
	defer pathMu.Unlock()
	pathPrefix = prefix
}

// PathPrefix returns the prefix set by SetPathPrefix.
func PathPrefix() string {
	pathMu.RLock()
	defer pathMu.RUnlock()
	return pathPrefix
}

// SetResourcePath sets the prefix used to locate read-only fixture files.
func SetResourcePath(path string) {
	pathMu.Lock()
	defer pathMu.Unlock()
	resourcePath = path
}

// ResourcePath returns the prefix set by SetResourcePath.
func ResourcePath() string {
	pathMu.RLock()
	defer pathMu.RUnlock()
	return resourcePath
}

// TestPath returns the path of a file the checks may create.
func TestPath(name string) string {
	return PathPrefix() + name
}

// ResourceFile returns the path of a fixture file.
func ResourceFile(name string) string {
	return ResourcePath() + name
}

// ReportPath returns where the report is written by default.
func ReportPath() string {
	return TestPath(DefaultReportName)
}
