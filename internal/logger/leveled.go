package logger

import "go.uber.org/zap"

// LeveledLogger adapts zap to the key/value logger interface expected by
// go-retryablehttp.
type LeveledLogger struct {
	s *zap.SugaredLogger
}

// NewLeveledLogger wraps l; a nil logger discards everything
func NewLeveledLogger(l *zap.Logger) *LeveledLogger {
	if l == nil {
		l = zap.NewNop()
	}
	return &LeveledLogger{s: l.Sugar()}
}

func (l *LeveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, keysAndValues...)
}

func (l *LeveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Infow(msg, keysAndValues...)
}

func (l *LeveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l *LeveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.s.Warnw(msg, keysAndValues...)
}
