package logger

import (
	"context"
	"fmt"
	"io"
	"os"

	utils "github.com/go-slark/svcindex/pkg"
	"github.com/sirupsen/logrus"
)

const timestampFormat = "2006-01-02 15:04:05.000"

type log struct {
	*logrus.Logger
}

type options struct {
	name         string
	level        logrus.Level
	formatter    logrus.Formatter
	writer       io.Writer
	writers      map[logrus.Level]io.Writer
	reportCaller bool
}

type FuncOpts func(*options)

// NewLog builds a logrus backed Logger writing JSON lines to stdout at info
// level unless told otherwise.
func NewLog(opts ...FuncOpts) Logger {
	o := &options{
		name:      "svcindex",
		level:     logrus.InfoLevel,
		formatter: &logrus.JSONFormatter{TimestampFormat: timestampFormat},
		writer:    os.Stdout,
	}
	for _, opt := range opts {
		opt(o)
	}
	l := logrus.New()
	l.SetFormatter(o.formatter)
	l.SetLevel(o.level)
	l.SetOutput(o.writer)
	l.SetReportCaller(o.reportCaller)
	l.AddHook(&hook{name: o.name, writers: o.writers})
	return &log{Logger: l}
}

// Log levels share logrus' numbering; anything past TraceLevel logs at debug.
func (l *log) Log(ctx context.Context, level uint, fields map[string]interface{}, v ...interface{}) {
	if ctx == nil {
		ctx = context.Background()
	}
	lv := logrus.DebugLevel
	if level <= TraceLevel {
		lv = logrus.Level(level)
	}
	l.WithContext(ctx).WithFields(fields).Log(lv, v...)
}

func WithSrvName(name string) FuncOpts {
	return func(o *options) {
		o.name = name
	}
}

// WithLevel panics on a level logrus does not know.
func WithLevel(level string) FuncOpts {
	return func(o *options) {
		lv, err := logrus.ParseLevel(level)
		if err != nil {
			panic(fmt.Errorf("logrus parse level fail, level:%s, err:%+v", level, err))
		}
		o.level = lv
	}
}

func WithFormatter(formatter logrus.Formatter) FuncOpts {
	return func(o *options) {
		o.formatter = formatter
	}
}

// WithFormat picks the text formatter for "text" and JSON for anything else.
func WithFormat(format string) FuncOpts {
	if format == "text" {
		return WithFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: timestampFormat})
	}
	return WithFormatter(&logrus.JSONFormatter{TimestampFormat: timestampFormat})
}

func WithWriter(writer io.Writer) FuncOpts {
	return func(o *options) {
		o.writer = writer
	}
}

// WithDispatcher copies entries of the named levels to extra writers, e.g.
// errors to a separate file. Unknown level names are ignored.
func WithDispatcher(dispatcher map[string]io.Writer) FuncOpts {
	return func(o *options) {
		o.writers = make(map[logrus.Level]io.Writer, len(dispatcher))
		for level, writer := range dispatcher {
			if lv, err := logrus.ParseLevel(level); err == nil {
				o.writers[lv] = writer
			}
		}
	}
}

func WithReportCaller(caller bool) FuncOpts {
	return func(o *options) {
		o.reportCaller = caller
	}
}

// hook stamps the service name and request id on every entry and fans
// entries out to the dispatch writers.
type hook struct {
	name    string
	writers map[logrus.Level]io.Writer
}

func (h *hook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *hook) Fire(entry *logrus.Entry) error {
	if rid := utils.RequestID(entry.Context); rid != "" {
		entry.Data[utils.TraceID] = rid
	}
	entry.Data[utils.LogName] = h.name

	writer, ok := h.writers[entry.Level]
	if !ok {
		return nil
	}
	eb, err := entry.Bytes()
	if err != nil {
		return err
	}
	_, err = writer.Write(eb)
	return err
}
