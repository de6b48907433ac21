package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/2beens/powerpush/pkg"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

type LoggerSetupParams struct {
	// Output is where logs go when there is no log file, or next to it when
	// LogToStdout is set. Defaults to STDOUT.
	Output        io.Writer
	LogFileName   string
	LogToStdout   bool
	LogLevel      string
	LogFormatJSON bool
	// zero keeps rotated files forever
	LogMaxBackups int
	LogMaxAgeDays int

	// ServiceName and Environment are attached to every entry
	ServiceName      string
	Environment      string
	SentryEnabled    bool
	SentryDSN        string
	SentryServerName string
}

func Setup(params LoggerSetupParams) error {
	if params.LogFormatJSON {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}
	logrus.SetLevel(GetLevel(params.LogLevel))

	defaults := logrus.Fields{}
	if params.ServiceName != "" {
		defaults["service"] = params.ServiceName
	}
	if params.Environment != "" {
		defaults["env"] = params.Environment
	}
	if len(defaults) > 0 {
		logrus.AddHook(NewDefaultFieldsHook(defaults))
	}

	if params.SentryEnabled {
		err := sentry.Init(sentry.ClientOptions{
			Environment:      params.Environment,
			Dsn:              params.SentryDSN,
			TracesSampleRate: 1.0,
			ServerName:       params.SentryServerName,
		})
		if err != nil {
			return fmt.Errorf("sentry init: %w", err)
		}
		logrus.AddHook(NewSentryHook([]logrus.Level{
			logrus.PanicLevel,
			logrus.FatalLevel,
			logrus.ErrorLevel,
		}))
		logrus.Debugln("sentry hook added")
	}

	out := params.Output
	if out == nil {
		out = os.Stdout
	}

	if params.LogFileName == "" {
		logrus.SetOutput(out)
		return nil
	}

	if !strings.HasSuffix(params.LogFileName, ".log") {
		params.LogFileName += ".log"
	}
	if err := os.MkdirAll(filepath.Dir(params.LogFileName), 0o755); err != nil {
		return fmt.Errorf("create logs dir: %w", err)
	}

	fileLogger := &lumberjack.Logger{
		Filename:   params.LogFileName,
		MaxSize:    50, // megabytes
		MaxBackups: params.LogMaxBackups,
		MaxAge:     params.LogMaxAgeDays,
		LocalTime:  false, // false -> use UTC
		Compress:   true,
	}

	if params.LogToStdout {
		logrus.SetOutput(pkg.NewCombinedWriter(out, fileLogger))
	} else {
		logrus.SetOutput(fileLogger)
	}
	logrus.Debugf("writing logs to %s (also to stdout: %t)", params.LogFileName, params.LogToStdout)

	return nil
}

func GetLevel(level string) logrus.Level {
	switch strings.ToLower(level) {
	case "debug":
		return logrus.DebugLevel
	case "error":
		return logrus.ErrorLevel
	case "fatal":
		return logrus.FatalLevel
	case "info":
		return logrus.InfoLevel
	case "trace":
		return logrus.TraceLevel
	case "warn", "warning":
		return logrus.WarnLevel
	default:
		return logrus.InfoLevel
	}
}

var _ logrus.Hook = (*DefaultFieldsHook)(nil)

// DefaultFieldsHook sets the given fields on every entry, unless the entry
// already carries its own value for them.
type DefaultFieldsHook struct {
	fields logrus.Fields
}

func NewDefaultFieldsHook(fields logrus.Fields) *DefaultFieldsHook {
	return &DefaultFieldsHook{fields: fields}
}

func (h *DefaultFieldsHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *DefaultFieldsHook) Fire(entry *logrus.Entry) error {
	for k, v := range h.fields {
		if _, ok := entry.Data[k]; !ok {
			entry.Data[k] = v
		}
	}
	return nil
}
