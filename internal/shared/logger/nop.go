package logger

type nopLogger struct{}

// Nop returns a logger that discards everything. Intended for tests.
func Nop() Interface { return nopLogger{} }

func (nopLogger) Debug(msg string, args ...any)           {}
func (nopLogger) Info(msg string, args ...any)            {}
func (nopLogger) Warn(msg string, args ...any)            {}
func (nopLogger) Error(msg string, args ...any)           {}
func (nopLogger) With(args ...any) Interface              { return nopLogger{} }
func (nopLogger) Named(name string) Interface             { return nopLogger{} }
func (nopLogger) Debugw(msg string, keysAndValues ...any) {}
func (nopLogger) Infow(msg string, keysAndValues ...any)  {}
func (nopLogger) Warnw(msg string, keysAndValues ...any)  {}
func (nopLogger) Errorw(msg string, keysAndValues ...any) {}
