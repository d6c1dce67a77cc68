// Package logger configures the global zerolog logger of the Dhenu Mahima api: console, rolling files
// and DataDog outputs, plus prometheus counters of the log levels.
package logger

import (
	"io"
	"os"
	"path"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
	"gopkg.in/natefinch/lumberjack.v2"
)

// shipper is the active remote log writer, flushed by Close.
var shipper *DataDogWriter //nolint:gochecknoglobals

// LevelWriter routes a log line to the writer of its level.
// Trace and warn have their own writers, error and above go to ErrorWriter, the rest to InfoWriter.
type LevelWriter struct {
	io.Writer
	ErrorWriter io.Writer
	InfoWriter  io.Writer
	TraceWriter io.Writer
	WarnWriter  io.Writer
}

// WriteLevel implements zerolog.LevelWriter.
func (lw *LevelWriter) WriteLevel(l zerolog.Level, p []byte) (n int, err error) {
	var w io.Writer

	switch {
	case l == zerolog.Disabled:
		return 0, nil
	case l == zerolog.TraceLevel:
		w = lw.TraceWriter
	case l == zerolog.WarnLevel:
		w = lw.WarnWriter
	case l > zerolog.WarnLevel:
		w = lw.ErrorWriter
	default:
		w = lw.InfoWriter
	}

	return w.Write(p) //nolint:wrapcheck
}

func validateConfig(cfg Log) (zerolog.Level, error) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return level, errors.Wrapf(err, "loglevel %s is not supported", cfg.LogLevel)
	}

	if cfg.ServiceName == "" {
		return level, ErrServiceNameIsEmpty
	}

	if cfg.AppName == "" {
		return level, ErrAppNameIsEmpty
	}

	return level, nil
}

// Init replaces the global logger according to cfg.
// Without any enabled output nothing is written, the level counters still run.
func Init(cfg Log) error {
	level, err := validateConfig(cfg)
	if err != nil {
		return err
	}

	hook, err := NewPrometheusHook(cfg.ServiceName, cfg.Metrics)
	if err != nil {
		return errors.Wrap(err, "can't register log metrics")
	}

	var writers []io.Writer

	if cfg.DataDog.Enabled {
		ddw, errDD := NewDataDogWriter(cfg.DataDog)
		if errDD != nil {
			return errors.Wrap(errDD, "can't init datadog log writer")
		}

		shipper = ddw
		writers = append(writers, ddw)
	}

	if cfg.Console.Enabled {
		writers = append(writers, NewConsoleWriter(cfg))
	}

	if cfg.File.Enabled {
		if fw := newRollingInfoErrorFile(cfg); fw != nil {
			writers = append(writers, fw)
		}
	}

	zerolog.SetGlobalLevel(level)

	ctx := zerolog.New(zerolog.MultiLevelWriter(writers...)).Hook(hook).With().Timestamp().
		Str("service", cfg.ServiceName)
	if cfg.LogEnv != "" {
		ctx = ctx.Str("env", cfg.LogEnv)
	}

	switch {
	case level == zerolog.TraceLevel && cfg.ReportCaller:
		zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack //nolint:reassign
		ctx = ctx.Stack()
	case cfg.ReportCaller:
		ctx = ctx.Caller()
	}

	log.Logger = ctx.Logger()

	return nil
}

// Close flushes remote log shipping. It is safe to call when no shipper is active.
func Close() error {
	if shipper == nil {
		return nil
	}

	err := shipper.Close()
	shipper = nil

	return err
}

func rollingFile(dir, name string, maxSize, maxAge, maxBackups int) io.Writer {
	return &lumberjack.Logger{
		Filename:   path.Join(dir, name),
		MaxSize:    maxSize,
		MaxAge:     maxAge,
		MaxBackups: maxBackups,
	}
}

// newRollingInfoErrorFile writes one rolling file per level group below File.Path.
func newRollingInfoErrorFile(cfg Log) io.Writer {
	f := cfg.File
	if err := os.MkdirAll(f.Path, 0o750); err != nil { //nolint:mnd
		log.Error().Err(err).Str("path", f.Path).Msg("can't create log directory")

		return nil
	}

	return &LevelWriter{
		ErrorWriter: rollingFile(f.Path, f.ErrorLog, f.ErrorMaxSize, f.ErrorMaxAge, f.ErrorMaxBackups),
		InfoWriter:  rollingFile(f.Path, f.InfoLog, f.InfoMaxSize, f.InfoMaxAge, f.InfoMaxBackups),
		TraceWriter: rollingFile(f.Path, f.TraceLog, f.TraceMaxSize, f.TraceMaxAge, f.TraceMaxBackups),
		WarnWriter:  rollingFile(f.Path, f.WarnLog, f.WarnMaxSize, f.WarnMaxAge, f.WarnMaxBackups),
	}
}

// NewConsoleWriter writes info to stdout and everything else to stderr,
// human readable when Console.UseConsoleWriter is set.
func NewConsoleWriter(cfg Log) io.Writer {
	out := func(w io.Writer) io.Writer {
		if !cfg.Console.UseConsoleWriter {
			return w
		}

		return zerolog.ConsoleWriter{Out: w, TimeFormat: zerolog.TimeFieldFormat}
	}

	return &LevelWriter{
		ErrorWriter: out(os.Stderr),
		InfoWriter:  out(os.Stdout),
		TraceWriter: out(os.Stderr),
		WarnWriter:  out(os.Stderr),
	}
}
