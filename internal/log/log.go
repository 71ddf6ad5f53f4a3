package log

import (
	"fmt"
	"io"
	"os"
	"path"
	"runtime"
	"strings"

	formatter "github.com/antonfisher/nested-logrus-formatter"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Options struct {
	Level string
	// File enables a rotating log file next to stderr output. Colors are
	// off when set since both writers share one formatter.
	File   string
	Output io.Writer
}

// New builds the process logger. Console output is always kept so fatal
// messages reach the operator even when a file is configured.
func New(opts Options) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(strings.TrimSpace(opts.Level))
	if err != nil || strings.TrimSpace(opts.Level) == "" {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	file := strings.TrimSpace(opts.File)
	logger.SetFormatter(&formatter.Formatter{
		NoColors:        file != "",
		TimestampFormat: "2006-01-02 15:04:05",
		HideKeys:        false,
		CallerFirst:     true,
		FieldsOrder:     []string{"run_id", "conversation_id", "attempt", "phase"},
		CustomCallerFormatter: func(f *runtime.Frame) string {
			s := strings.Split(f.Function, ".")
			funcName := s[len(s)-1]
			return fmt.Sprintf(" [%s:%d][%s()]", path.Base(f.File), f.Line, funcName)
		},
	})

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	writers := []io.Writer{out}
	if file != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   file,
			LocalTime:  true,
			Compress:   true,
			MaxSize:    100,
			MaxAge:     7,
			MaxBackups: 3,
		})
	}
	logger.SetOutput(io.MultiWriter(writers...))
	logger.SetReportCaller(level >= logrus.DebugLevel)

	return logger
}

// Discard returns a logger that drops everything; used by tests and library
// callers that do not care about output.
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
