//go:build !tinygo

package hal

import "github.com/sirupsen/logrus"

type logrusLogger struct {
	entry *logrus.Entry
}

// NewLogrusLogger adapts a logrus entry to Logger. Lines are logged at
// info level.
func NewLogrusLogger(entry *logrus.Entry) Logger {
	return &logrusLogger{entry: entry}
}

func (l *logrusLogger) WriteLineString(s string) {
	l.entry.Info(s)
}

func (l *logrusLogger) WriteLineBytes(b []byte) {
	l.entry.Info(string(b))
}
