package search

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogLevel defines the verbosity of logging.
type LogLevel int

const (
	LogLevelError LogLevel = iota
	LogLevelWarn
	LogLevelInfo
	LogLevelDebug
)

// LoggerOptions configures NewLogger.
type LoggerOptions struct {
	Level   LogLevel
	Color   bool                // Colour the level names on the console
	Output  zapcore.WriteSyncer // Console sink, stderr when nil
	LogFile string              // Optional rotating log file receiving every diagnostic
}

// zapLevel maps a LogLevel onto zap's levels.
func (l LogLevel) zapLevel() zapcore.Level {
	switch l {
	case LogLevelError:
		return zap.ErrorLevel
	case LogLevelWarn:
		return zap.WarnLevel
	case LogLevelInfo:
		return zap.InfoLevel
	case LogLevelDebug:
		return zap.DebugLevel
	default:
		return zap.InfoLevel
	}
}

// NewLogger creates the diagnostics logger: a console core on stderr gated
// by opts.Level, teed with a JSON core on a lumberjack file when LogFile is
// set.
func NewLogger(opts LoggerOptions) *zap.Logger {
	out := opts.Output
	if out == nil {
		out = zapcore.Lock(os.Stderr)
	}

	consoleCfg := zap.NewDevelopmentEncoderConfig()
	consoleCfg.TimeKey = ""
	consoleCfg.CallerKey = ""
	consoleCfg.NameKey = ""
	consoleCfg.StacktraceKey = ""
	if opts.Color {
		consoleCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		consoleCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	}

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(consoleCfg), out, zap.NewAtomicLevelAt(opts.Level.zapLevel())),
	}

	if opts.LogFile != "" {
		fileLevel := zap.InfoLevel
		if opts.Level == LogLevelDebug {
			fileLevel = zap.DebugLevel
		}
		file := zapcore.AddSync(&lumberjack.Logger{
			Filename:   opts.LogFile,
			MaxSize:    16, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
		})
		fileCfg := zap.NewProductionEncoderConfig()
		fileCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(fileCfg), file, fileLevel))
	}

	return zap.New(zapcore.NewTee(cores...))
}

// LogDiagnostic writes a diagnostic event to logger at the matching level.
func LogDiagnostic(logger *zap.Logger, ev Event) {
	fields := []zap.Field{zap.String("path", ev.Path)}
	if ev.Err != nil {
		fields = append(fields, zap.Error(ev.Err))
	}

	switch ev.Level {
	case LevelError:
		logger.Error(ev.Message, fields...)
	case LevelWarn:
		logger.Warn(ev.Message, fields...)
	default:
		logger.Info(ev.Message, fields...)
	}
}
