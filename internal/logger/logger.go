// Package logger is the leveled file logger shared by every runwiz
// component. Nothing is written until a log file is configured, so the
// terminal UI and the MCP stdio transport never see log lines.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
)

// Level represents a log level
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = [...]string{"DEBUG", "INFO", "WARN", "ERROR"}

func (l Level) String() string {
	if l < LevelDebug || l > LevelError {
		return "UNKNOWN"
	}
	return levelNames[l]
}

// ParseLevel accepts level names in any case, plus "warning".
func ParseLevel(s string) (Level, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	if name == "WARNING" {
		return LevelWarn, nil
	}
	for i, n := range levelNames {
		if n == name {
			return Level(i), nil
		}
	}
	return LevelInfo, fmt.Errorf("invalid log level: %s", s)
}

// Logger writes "[LEVEL] component: message" lines at or above its level.
type Logger struct {
	mu     sync.Mutex
	level  Level
	logger *log.Logger
	file   *os.File
}

// Default is the default logger instance
var Default = New()

// New creates a logger from RUNWIZ_LOG_LEVEL and RUNWIZ_LOG_FILE.
func New() *Logger {
	l := &Logger{
		level:  LevelInfo,
		logger: log.New(io.Discard, "", log.LstdFlags|log.Lmicroseconds),
	}
	_ = l.Configure(os.Getenv("RUNWIZ_LOG_LEVEL"), os.Getenv("RUNWIZ_LOG_FILE"))
	return l
}

// Configure applies a level and log file loaded from configuration.
// Empty values leave the current setting untouched.
func (l *Logger) Configure(level, file string) error {
	if level != "" {
		parsed, err := ParseLevel(level)
		if err != nil {
			return err
		}
		l.SetLevel(parsed)
	}
	if file == "" {
		return nil
	}

	f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		_ = l.file.Close()
	}
	l.file = f
	l.logger.SetOutput(f)
	return nil
}

// Close closes the log file, if any. Later lines are discarded.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	l.logger.SetOutput(io.Discard)
	return err
}

func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// Enabled reports whether lines at level are written.
func (l *Logger) Enabled(level Level) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return level >= l.level
}

// SetOutput sets the output writer
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logger.SetOutput(w)
}

func (l *Logger) Debug(format string, v ...any) { l.log(LevelDebug, "", format, v...) }
func (l *Logger) Info(format string, v ...any)  { l.log(LevelInfo, "", format, v...) }
func (l *Logger) Warn(format string, v ...any)  { l.log(LevelWarn, "", format, v...) }
func (l *Logger) Error(format string, v ...any) { l.log(LevelError, "", format, v...) }

// Named returns a view of l that tags every line with component.
func (l *Logger) Named(component string) *Component {
	return &Component{l: l, name: component}
}

func (l *Logger) log(level Level, component, format string, v ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if level < l.level {
		return
	}
	msg := fmt.Sprintf(format, v...)
	if component != "" {
		msg = component + ": " + msg
	}
	l.logger.Printf("[%s] %s", level, msg)
}

// Component is a Logger bound to a component name.
type Component struct {
	l    *Logger
	name string
}

func (c *Component) Debug(format string, v ...any) { c.l.log(LevelDebug, c.name, format, v...) }
func (c *Component) Info(format string, v ...any)  { c.l.log(LevelInfo, c.name, format, v...) }
func (c *Component) Warn(format string, v ...any)  { c.l.log(LevelWarn, c.name, format, v...) }
func (c *Component) Error(format string, v ...any) { c.l.log(LevelError, c.name, format, v...) }

// Enabled reports whether lines at level are written.
func (c *Component) Enabled(level Level) bool { return c.l.Enabled(level) }

// Package-level functions that use the default logger

func Debug(format string, v ...any) { Default.Debug(format, v...) }
func Info(format string, v ...any)  { Default.Info(format, v...) }
func Warn(format string, v ...any)  { Default.Warn(format, v...) }
func Error(format string, v ...any) { Default.Error(format, v...) }

// Named tags lines from the default logger with component.
func Named(component string) *Component { return Default.Named(component) }

// Configure applies configuration to the default logger
func Configure(level, file string) error {
	return Default.Configure(level, file)
}

// Close closes the default logger
func Close() error {
	return Default.Close()
}
