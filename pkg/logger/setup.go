package logger

import (
	"os"
)

// SetupLogger builds a logger from CLI-level settings and installs it as the
// default. Logs go to stderr so command output on stdout stays parseable.
func SetupLogger(logLevel string, logJSON, logSource bool) Logger {
	l := NewLogger(&Config{
		Level:      LogLevel(logLevel),
		Output:     os.Stderr,
		JSON:       logJSON,
		AddSource:  logSource,
		TimeFormat: "15:04:05",
	})
	SetDefault(l)
	return l
}
