package codonopt

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// verboseLogging switches the log level from info to debug
	verboseLogging bool

	logLevel = zap.LevelEnablerFunc(func(level zapcore.Level) bool {
		if verboseLogging {
			return level >= zapcore.DebugLevel
		}
		return level >= zapcore.InfoLevel
	})

	// https://pkg.go.dev/go.uber.org/zap?utm_source=godoc#AtomicLevel
	l = zap.New(
		zapcore.NewCore(
			zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
			zapcore.Lock(os.Stderr),
			logLevel,
		),
	)

	// rlog is the default sugared logger
	rlog = l.Sugar()
)

// SetVerboseLogging enables debug messages, including solver progress.
func SetVerboseLogging() {
	verboseLogging = true
}

// Logger returns the package logger, eg for handing to a solver.
func Logger() *zap.SugaredLogger {
	return rlog
}
