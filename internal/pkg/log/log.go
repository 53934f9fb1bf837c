package log

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	level = zap.NewAtomicLevelAt(zapcore.InfoLevel)

	Logger = newLogger()
)

func newLogger() *zap.SugaredLogger {
	conf := zap.NewDevelopmentConfig()
	conf.Level = level
	conf.DisableStacktrace = true

	return zap.Must(conf.Build()).Sugar()
}

// SetVerbose switches the shared logger between info and debug level.
func SetVerbose(verbose bool) {
	if verbose {
		level.SetLevel(zapcore.DebugLevel)
		return
	}

	level.SetLevel(zapcore.InfoLevel)
}
