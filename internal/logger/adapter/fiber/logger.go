// Package fiber writes one access log line per api request and observes request latency per route.
package fiber

import (
	"io"
	"os"
	"path"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/gopalparivar/dhenu-mahima/internal/logger"
)

// HeaderServerTiming carries the handler latency to the client.
const HeaderServerTiming = "Server-Timing"

// unmatchedRoute labels requests that hit no route, keeping the route label bounded.
const unmatchedRoute = "unmatched"

// Config implements fiber middleware struct.
type Config struct {
	// Next defines a function to skip this middleware when returned true.
	//
	// Optional. Default: nil
	Next func(c fiber.Ctx) bool

	// Config of the logger. Its file, console and metrics settings are used.
	Config logger.Log

	// CacheControlError max-age caching on chain errors.
	CacheControlError string

	// QuietPaths are logged only when the response is an error, e.g. /checkalive and /metrics.
	QuietPaths []string

	// UserID returns the signed in user of the request, 0 for anonymous calls.
	UserID func(c fiber.Ctx) uint64

	// SlowThreshold logs slower requests at warn level. Zero disables it.
	SlowThreshold time.Duration

	// Output overrides the writers built from Config. Used by tests.
	Output io.Writer
}

// ConfigDefault is the default config for fiber.
var ConfigDefault = Config{
	Next:              nil,
	CacheControlError: "max-age=0",
	SlowThreshold:     2 * time.Second,
}

func configDefault(config ...Config) Config {
	if len(config) < 1 {
		return ConfigDefault
	}

	cfg := config[0]

	if cfg.CacheControlError == "" {
		cfg.CacheControlError = ConfigDefault.CacheControlError
	}

	return cfg
}

// newDurationHistogram registers the request latency histogram in the registry of metrics.
func newDurationHistogram(service string, metrics logger.Metrics) *prometheus.HistogramVec {
	h, err := logger.Register(metrics.Registry(), prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   metrics.Namespace,
		Name:        "http_request_duration_seconds",
		Help:        "Latency of api requests by method, route and status.",
		ConstLabels: prometheus.Labels{"service": service},
		Buckets:     prometheus.DefBuckets,
	}, []string{"method", "route", "status"}))
	if err != nil {
		log.Error().Err(err).Msg("can't register request duration histogram")

		return nil
	}

	return h
}

// New creates a new fiber access logging middleware using zerolog.
func New(config ...Config) fiber.Handler {
	var (
		writers    []io.Writer
		cfg        = configDefault(config...)
		once       sync.Once
		errHandler fiber.ErrorHandler
	)

	if cfg.Output != nil {
		writers = append(writers, cfg.Output)
	}

	if cfg.Config.File.Enabled {
		if fw := newRollingAccessFile(&cfg.Config); fw != nil {
			writers = append(writers, fw)
		}
	}

	// Console.Enabled gates EnableAccessLogToConsole.
	if cfg.Config.Console.Enabled && cfg.Config.EnableAccessLogToConsole {
		if cfg.Config.Console.UseConsoleWriter {
			writers = append(writers, zerolog.ConsoleWriter{
				Out:          os.Stdout,
				TimeFormat:   zerolog.TimeFieldFormat,
				PartsExclude: []string{"level"},
			})
		} else {
			writers = append(writers, os.Stdout)
		}
	}

	accessLogger := zerolog.New(zerolog.MultiLevelWriter(writers...)).With().Timestamp().Logger()
	durations := newDurationHistogram(cfg.Config.ServiceName, cfg.Config.Metrics)

	return func(ctx fiber.Ctx) error {
		if cfg.Next != nil && cfg.Next(ctx) {
			return ctx.Next()
		}

		once.Do(func() {
			errHandler = ctx.App().Config().ErrorHandler
		})

		start := time.Now()

		chainErr := ctx.Next()
		if chainErr != nil {
			if errH := errHandler(ctx, chainErr); errH != nil {
				_ = ctx.SendStatus(fiber.StatusInternalServerError) //nolint:errcheck // ok here
				ctx.Response().Header.Set(fiber.HeaderCacheControl, cfg.CacheControlError)
			}
		}

		elapsed := time.Since(start)
		status := ctx.Response().StatusCode()

		ctx.Response().Header.Set(HeaderServerTiming,
			"app;dur="+strconv.FormatFloat(float64(elapsed.Microseconds())/1000, 'f', 3, 64)) //nolint:mnd

		route := ctx.Route().Path
		if status == fiber.StatusNotFound {
			route = unmatchedRoute
		}

		if durations != nil {
			durations.WithLabelValues(ctx.Method(), route, strconv.Itoa(status)).Observe(elapsed.Seconds())
		}

		if status < fiber.StatusBadRequest && slices.Contains(cfg.QuietPaths, ctx.Path()) {
			return nil
		}

		level := zerolog.NoLevel

		switch {
		case status >= fiber.StatusInternalServerError:
			level = zerolog.ErrorLevel
		case cfg.SlowThreshold > 0 && elapsed > cfg.SlowThreshold:
			level = zerolog.WarnLevel
		}

		// fasthttp normalizes /2//test to /2/test, the log keeps what the client sent.
		uri := ctx.Path()
		if qs := ctx.Request().URI().QueryString(); len(qs) > 0 {
			uri = uri + "?" + string(qs)
		}

		line := accessLogger.WithLevel(level).
			Str("ip", ctx.IP()).
			Str("request_id", ctx.GetRespHeader(fiber.HeaderXRequestID)).
			Int("status", status).
			Dur("latency", elapsed).
			Str("method", ctx.Method()).
			Str("uri", uri).
			Str("route", route).
			Bytes("host", ctx.Request().Host()).
			Str("forwarded_for", ctx.Get(fiber.HeaderXForwardedFor)).
			Str("user_agent", ctx.Get(fiber.HeaderUserAgent)).
			Str("origin", ctx.Get(fiber.HeaderOrigin)).
			Str("referer", ctx.Get(fiber.HeaderReferer))

		if cfg.UserID != nil {
			if id := cfg.UserID(ctx); id != 0 {
				line = line.Uint64("user_id", id)
			}
		}

		if chainErr != nil {
			line = line.Err(chainErr)
		}

		line.Send()

		return nil
	}
}

// newRollingAccessFile uses lumberjack to create file based access log.
func newRollingAccessFile(cfg *logger.Log) io.Writer {
	if cfg.File.Path != "" {
		if err := os.MkdirAll(cfg.File.Path, 0o750); err != nil {
			log.Error().Err(err).Str("path", cfg.File.Path).Msg("can't create log directory")

			return nil
		}
	}

	return &lumberjack.Logger{
		Filename:   path.Join(cfg.File.Path, cfg.File.AccessLog),
		MaxSize:    cfg.File.AccessMaxSize,
		MaxAge:     cfg.File.AccessMaxAge,
		MaxBackups: cfg.File.AccessMaxBackups,
	}
}
