// Package logging provides a small leveled logger for the engine and tools.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = map[Level]string{
	LevelDebug: "DEBUG",
	LevelInfo:  "INFO",
	LevelWarn:  "WARN",
	LevelError: "ERROR",
}

var levelColors = map[Level]lipgloss.Color{
	LevelDebug: lipgloss.Color("8"),
	LevelInfo:  lipgloss.Color("12"),
	LevelWarn:  lipgloss.Color("11"),
	LevelError: lipgloss.Color("9"),
}

type Logger struct {
	level  Level
	mu     sync.RWMutex
	logger *log.Logger
	tags   map[Level]string
	once   map[string]struct{}
}

var (
	defaultLogger *Logger
	defaultOnce   sync.Once
)

// Default returns the process wide logger writing to stderr.
func Default() *Logger {
	defaultOnce.Do(func() {
		defaultLogger = New(os.Stderr, log.LstdFlags)
	})
	return defaultLogger
}

// New returns a logger writing to w. Level tags are coloured only when w is
// a terminal.
func New(w io.Writer, flags int) *Logger {
	renderer := lipgloss.NewRenderer(w)
	tags := make(map[Level]string, len(levelNames))
	for level, name := range levelNames {
		style := renderer.NewStyle().Bold(true).Foreground(levelColors[level])
		tags[level] = style.Render("[" + name + "]")
	}
	return &Logger{
		level:  LevelInfo,
		logger: log.New(w, "", flags),
		tags:   tags,
		once:   make(map[string]struct{}),
	}
}

func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// ParseLevel maps a level name to a Level. Unknown names yield LevelInfo and
// false.
func ParseLevel(s string) (Level, bool) {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug, true
	case "info":
		return LevelInfo, true
	case "warn", "warning":
		return LevelWarn, true
	case "error":
		return LevelError, true
	}
	return LevelInfo, false
}

func (l *Logger) SetLevelFromString(s string) {
	level, _ := ParseLevel(s)
	l.SetLevel(level)
}

func (l *Logger) GetLevel() Level {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.level
}

func (l *Logger) GetLevelString() string {
	return levelNames[l.GetLevel()]
}

func (l *Logger) log(level Level, format string, args ...any) {
	if level < l.GetLevel() {
		return
	}
	l.logger.Printf("%s %s", l.tags[level], fmt.Sprintf(format, args...))
}

func (l *Logger) Debug(format string, args ...any) { l.log(LevelDebug, format, args...) }
func (l *Logger) Info(format string, args ...any)  { l.log(LevelInfo, format, args...) }
func (l *Logger) Warn(format string, args ...any)  { l.log(LevelWarn, format, args...) }
func (l *Logger) Error(format string, args ...any) { l.log(LevelError, format, args...) }

// WarnOnce logs a warning the first time key is seen and drops later ones.
func (l *Logger) WarnOnce(key string, format string, args ...any) {
	l.mu.Lock()
	_, seen := l.once[key]
	l.once[key] = struct{}{}
	l.mu.Unlock()
	if !seen {
		l.Warn(format, args...)
	}
}

func SetLevel(level Level)             { Default().SetLevel(level) }
func SetLevelFromString(s string)      { Default().SetLevelFromString(s) }
func Debug(format string, args ...any) { Default().Debug(format, args...) }
func Info(format string, args ...any)  { Default().Info(format, args...) }
func Warn(format string, args ...any)  { Default().Warn(format, args...) }
func Error(format string, args ...any) { Default().Error(format, args...) }
