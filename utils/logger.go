package utils

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
)

// Logger provides leveled logging tagged with the pipeline run id.
type Logger struct {
	info  *log.Logger
	warn  *log.Logger
	err   *log.Logger
	debug *log.Logger

	runID   string
	verbose bool
}

var (
	infoTag  = color.New(color.FgGreen).SprintFunc()("INFO ")
	warnTag  = color.New(color.FgYellow).SprintFunc()("WARN ")
	errorTag = color.New(color.FgRed).SprintFunc()("ERROR")
	debugTag = color.New(color.FgCyan).SprintFunc()("DEBUG")
)

// NewLogger creates a Logger writing to stdout/stderr. Debug lines are only
// emitted when level is "debug".
func NewLogger(runID, level string) *Logger {
	return newLogger(os.Stdout, os.Stderr, runID, level)
}

// NewDiscardLogger returns a Logger that writes nowhere. Used by tests.
func NewDiscardLogger() *Logger {
	return newLogger(io.Discard, io.Discard, "test", "debug")
}

func newLogger(out, errOut io.Writer, runID, level string) *Logger {
	flags := 0
	return &Logger{
		info:    log.New(out, "", flags),
		warn:    log.New(out, "", flags),
		err:     log.New(errOut, "", flags),
		debug:   log.New(out, "", flags),
		runID:   runID,
		verbose: strings.EqualFold(level, "debug"),
	}
}

// RunID returns the id every log line is tagged with.
func (l *Logger) RunID() string {
	return l.runID
}

func (l *Logger) prefix(tag string) string {
	return fmt.Sprintf("[%s] %s run=%s ", time.Now().Format("2006-01-02 15:04:05"), tag, shortID(l.runID))
}

func (l *Logger) Info(format string, args ...any) {
	l.info.Print(l.prefix(infoTag) + fmt.Sprintf(format, args...))
}

func (l *Logger) Warn(format string, args ...any) {
	l.warn.Print(l.prefix(warnTag) + fmt.Sprintf(format, args...))
}

func (l *Logger) Error(format string, args ...any) {
	l.err.Print(l.prefix(errorTag) + fmt.Sprintf(format, args...))
}

func (l *Logger) Debug(format string, args ...any) {
	if !l.verbose {
		return
	}
	l.debug.Print(l.prefix(debugTag) + fmt.Sprintf(format, args...))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
