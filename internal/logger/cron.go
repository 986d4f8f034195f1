package logger

// CronLogger adapts Logger to robfig/cron logger interface
type CronLogger struct {
	L Logger
}

func (c CronLogger) Info(msg string, keysAndValues ...any) {
	c.L.Debug(msg, keysAndValues...)
}

func (c CronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.L.Error(msg, append(keysAndValues, "error", err)...)
}
