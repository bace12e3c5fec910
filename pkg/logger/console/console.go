package console

import (
	"os"

	"github.com/charmbracelet/log"
)

// Logger is a console logging backend built on charmbracelet/log, writing
// human-readable records to stderr.
type Logger struct {
	logger *log.Logger
}

// Params configures a console Logger.
type Params struct {
	Debug bool
}

// New creates a console logger. Debug lowers the level so DEBUG records are
// emitted too.
func New(params Params) *Logger {
	level := log.InfoLevel
	if params.Debug {
		level = log.DebugLevel
	}
	return &Logger{
		logger: log.NewWithOptions(os.Stderr, log.Options{
			ReportTimestamp: true,
			Level:           level,
		}),
	}
}

// Debug writes a message at DEBUG level.
func (l *Logger) Debug(message string, keyvals ...any) {
	l.logger.Debug(message, keyvals...)
}

// Info writes a message at INFO level.
func (l *Logger) Info(message string, keyvals ...any) {
	l.logger.Info(message, keyvals...)
}

// Warn writes a message at WARN level.
func (l *Logger) Warn(message string, keyvals ...any) {
	l.logger.Warn(message, keyvals...)
}

// Error writes a message at ERROR level.
func (l *Logger) Error(message string, keyvals ...any) {
	l.logger.Error(message, keyvals...)
}

// Fatal writes a message at FATAL level and terminates the program.
func (l *Logger) Fatal(message string, keyvals ...any) {
	l.logger.Fatal(message, keyvals...)
}
