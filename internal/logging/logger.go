package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/2beens/activitytracker/internal/config"
	"github.com/2beens/activitytracker/pkg"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

const sentryFlushTimeout = 2 * time.Second

// FileParams configure the rotated log file. An empty Path disables it.
type FileParams struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

type SentryParams struct {
	Enabled    bool
	DSN        string
	ServerName string
	Release    string
}

type LoggerSetupParams struct {
	Level       string
	FormatJSON  bool
	ToStdout    bool
	Environment string
	File        FileParams
	Sentry      SentryParams
}

// NewSetupParams maps the service config onto logger params. Sentry stays off without a DSN.
func NewSetupParams(cfg *config.Config, sentryDSN, release string) LoggerSetupParams {
	return LoggerSetupParams{
		Level:       cfg.LogLevel,
		FormatJSON:  cfg.LogFormatJSON,
		ToStdout:    cfg.LogToStdout,
		Environment: cfg.Environment,
		File: FileParams{
			Path:       cfg.LogsPath,
			MaxSizeMB:  cfg.LogMaxSizeMB,
			MaxBackups: cfg.LogMaxBackups,
			MaxAgeDays: cfg.LogMaxAgeDays,
		},
		Sentry: SentryParams{
			Enabled:    cfg.SentryEnabled && sentryDSN != "",
			DSN:        sentryDSN,
			ServerName: "activity-tracker",
			Release:    release,
		},
	}
}

// Setup configures the standard logrus logger. The returned func flushes pending
// sentry events and must be called before the process exits.
func Setup(params LoggerSetupParams) (func(), error) {
	if params.FormatJSON {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}
	logrus.SetLevel(GetLevel(params.Level))
	logrus.SetOutput(newOutput(params))

	flush := func() {}
	if params.Sentry.Enabled {
		err := sentry.Init(sentry.ClientOptions{
			Environment:      params.Environment,
			Dsn:              params.Sentry.DSN,
			TracesSampleRate: 1.0,
			ServerName:       params.Sentry.ServerName,
			Release:          params.Sentry.Release,
		})
		if err != nil {
			return flush, fmt.Errorf("sentry init: %w", err)
		}

		logrus.AddHook(NewSentryHook([]logrus.Level{
			logrus.PanicLevel,
			logrus.FatalLevel,
			logrus.ErrorLevel,
		}))
		flush = func() {
			sentry.Flush(sentryFlushTimeout)
		}
		logrus.Infoln("sentry set up successfully")
	}

	return flush, nil
}

func newOutput(params LoggerSetupParams) io.Writer {
	if params.File.Path == "" {
		logrus.Println("writing logs only to STDOUT")
		return os.Stdout
	}

	filename := params.File.Path
	if !strings.HasSuffix(filename, ".log") {
		filename += ".log"
	}
	fileLogger := &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    params.File.MaxSizeMB,
		MaxBackups: params.File.MaxBackups,
		MaxAge:     params.File.MaxAgeDays,
		LocalTime:  false, // UTC
		Compress:   true,
	}

	if params.ToStdout {
		logrus.Printf("writing logs to [%s] and STDOUT", filename)
		return pkg.NewCombinedWriter(os.Stdout, fileLogger)
	}
	logrus.Printf("writing logs to [%s]", filename)
	return fileLogger
}

// GetLevel parses a logrus level name, unknown names enable everything.
func GetLevel(level string) logrus.Level {
	parsed, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		return logrus.TraceLevel
	}
	return parsed
}
