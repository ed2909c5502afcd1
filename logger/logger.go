// Package logger is the small leveled logger used by openvr-bindgen.
package logger

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ovrgo/openvr/textutils"
)

type Level int

const (
	INFO  Level = 0
	WARN  Level = 1
	ERROR Level = 2
	FATAL Level = 99
)

func (l Level) String() string {
	switch l {
	case INFO:
		return "INFO"
	case WARN:
		return "WARNING"
	case ERROR:
		return "ERROR"
	case FATAL:
		return "FATAL"
	default:
		return fmt.Sprintf("Level(%d)", int(l))
	}
}

// Logger writes one message per call. A nil *Logger and a Logger
// without a Writer discard everything except FATAL, which always exits.
type Logger struct {
	Writer   io.Writer
	Prefix   string
	MinLevel Level

	// Exit is called after a FATAL message. Defaults to os.Exit.
	Exit func(code int)
}

func New(w io.Writer, prefix string) *Logger {
	return &Logger{Writer: w, Prefix: prefix}
}

func (l *Logger) Log(level Level, format string, args ...any) {
	if l != nil && l.Writer != nil && level >= l.MinLevel {
		var b bytes.Buffer
		if l.Prefix != "" {
			b.WriteString(l.Prefix)
			b.WriteString(" ")
		}
		b.WriteString(level.String())
		b.WriteString(":")
		s := fmt.Sprintf(format, args...)
		if strings.Contains(s, "\n") {
			b.WriteString("\n")
			s = textutils.IndentString(s, "  ", 1)
		} else {
			b.WriteString(" ")
		}
		b.WriteString(s)
		if !strings.HasSuffix(s, "\n") {
			b.WriteString("\n")
		}
		// Nothing sensible to do if the log sink fails.
		_, _ = io.Copy(l.Writer, &b)
	}
	if level == FATAL {
		if l != nil && l.Exit != nil {
			l.Exit(1)
			return
		}
		os.Exit(1)
	}
}

func (l *Logger) Infof(format string, args ...any)  { l.Log(INFO, format, args...) }
func (l *Logger) Warnf(format string, args ...any)  { l.Log(WARN, format, args...) }
func (l *Logger) Errorf(format string, args ...any) { l.Log(ERROR, format, args...) }
func (l *Logger) Fatalf(format string, args ...any) { l.Log(FATAL, format, args...) }
