// Package logx is a small tagged line logger.
//
// Lines look like "[meter] info: Timer started". Output defaults to the
// println builtin so MCU builds write straight to the console; hosts and
// tests replace it with SetOutput.
package logx

import (
	"fmt"
	"sync"
)

type Level uint8

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	default:
		return "error"
	}
}

// ParseLevel maps "debug", "info", "warn" and "error" to a Level.
// Unknown strings yield LevelInfo.
func ParseLevel(s string) Level {
	switch s {
	case "debug", "DEBUG":
		return LevelDebug
	case "warn", "WARN":
		return LevelWarn
	case "error", "ERROR":
		return LevelError
	default:
		return LevelInfo
	}
}

var (
	mu     sync.RWMutex
	output = func(line string) { println(line) }
	floor  = LevelInfo
)

// SetOutput replaces the line sink. Passing nil mutes all output.
func SetOutput(f func(line string)) {
	mu.Lock()
	defer mu.Unlock()
	if f == nil {
		f = func(string) {}
	}
	output = f
}

// SetLevel sets the minimum level written.
func SetLevel(l Level) {
	mu.Lock()
	floor = l
	mu.Unlock()
}

// Logger prefixes every line with its tag.
type Logger struct {
	tag string
}

func New(tag string) Logger { return Logger{tag: tag} }

func (l Logger) Debugf(format string, args ...any) { l.logf(LevelDebug, format, args...) }
func (l Logger) Infof(format string, args ...any)  { l.logf(LevelInfo, format, args...) }
func (l Logger) Warnf(format string, args ...any)  { l.logf(LevelWarn, format, args...) }
func (l Logger) Errorf(format string, args ...any) { l.logf(LevelError, format, args...) }

func (l Logger) logf(lv Level, format string, args ...any) {
	mu.RLock()
	out, lo := output, floor
	mu.RUnlock()
	if lv < lo {
		return
	}
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	out("[" + l.tag + "] " + lv.String() + ": " + msg)
}
