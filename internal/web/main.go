package web

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/helmet"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/gofiber/fiber/v3/middleware/requestid"
	"github.com/gofiber/fiber/v3/middleware/static"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/gopalparivar/dhenu-mahima/internal/auth"
	"github.com/gopalparivar/dhenu-mahima/internal/config"
	accesslog "github.com/gopalparivar/dhenu-mahima/internal/logger/adapter/fiber"
	"github.com/gopalparivar/dhenu-mahima/internal/web/handler"
	"github.com/gopalparivar/dhenu-mahima/internal/web/handler/account"
	"github.com/gopalparivar/dhenu-mahima/internal/web/handler/bhajans"
	"github.com/gopalparivar/dhenu-mahima/internal/web/handler/bookpayment"
	"github.com/gopalparivar/dhenu-mahima/internal/web/handler/books"
	"github.com/gopalparivar/dhenu-mahima/internal/web/handler/categories"
	"github.com/gopalparivar/dhenu-mahima/internal/web/handler/contact"
	"github.com/gopalparivar/dhenu-mahima/internal/web/handler/content"
	"github.com/gopalparivar/dhenu-mahima/internal/web/handler/coupons"
	"github.com/gopalparivar/dhenu-mahima/internal/web/handler/donations"
	"github.com/gopalparivar/dhenu-mahima/internal/web/handler/events"
	"github.com/gopalparivar/dhenu-mahima/internal/web/handler/foundations"
	"github.com/gopalparivar/dhenu-mahima/internal/web/handler/gaushalas"
	"github.com/gopalparivar/dhenu-mahima/internal/web/handler/gopalpariwar"
	"github.com/gopalparivar/dhenu-mahima/internal/web/handler/landing"
	"github.com/gopalparivar/dhenu-mahima/internal/web/handler/legal"
	"github.com/gopalparivar/dhenu-mahima/internal/web/handler/memberships"
	"github.com/gopalparivar/dhenu-mahima/internal/web/handler/news"
	"github.com/gopalparivar/dhenu-mahima/internal/web/handler/sansthans"
	"github.com/gopalparivar/dhenu-mahima/internal/web/handler/users"
)

const (
	// APIPrefix is the mount point of every handler service.
	APIPrefix = "/api"
	// CheckAlivePath answers 503 while shutting down.
	CheckAlivePath = "/checkalive"
	// MetricsPath serves the prometheus registry.
	MetricsPath = "/metrics"

	uploadsMaxAge = 86400
	corsMaxAge    = 86400
)

// Service represents the web service.
type Service struct {
	App          *fiber.App
	cfg          *config.Config
	fastShutDown bool
	alive        atomic.Bool
	started      time.Time
}

// services returns the handler services in mount order.
func services() []handler.Service {
	return []handler.Service{
		&account.Handler,
		&content.Handler,
		&landing.Handler,
		&users.Handler,
		&news.Handler,
		&events.Handler,
		&books.Handler,
		&coupons.Handler,
		&donations.Handler,
		&bookpayment.Handler,
		&memberships.Handler,
		&bhajans.Gaumata,
		&bhajans.Jevansutra,
		&categories.Handler,
		&foundations.Handler,
		&gopalpariwar.Handler,
		&gaushalas.Handler,
		&sansthans.Handler,
		&legal.PrivacyPolicy,
		&legal.TermsConditions,
		&contact.Handler,
	}
}

// Start starts the web service on the given address.
func (s *Service) Start(addr string) error {
	var doneFiber = make(chan error, 1)

	go func() {
		err := s.App.Listen(addr, fiber.ListenConfig{DisableStartupMessage: true})
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			doneFiber <- fmt.Errorf("fiber listen %s: %w", addr, err)
			return
		}

		doneFiber <- nil
	}()

	log.Info().Str("addr", addr).Msg("http server started")

	return <-doneFiber // wait for fiber to stop
}

// WaitShutdown blocks until SIGINT or SIGTERM and stops the http server gracefully.
// stop runs after the server stopped accepting requests.
func (s *Service) WaitShutdown(stop func()) {
	irqSig := make(chan os.Signal, 1)
	signal.Notify(irqSig, syscall.SIGINT, syscall.SIGTERM)

	sig := <-irqSig
	log.Info().Msgf("shutdown request (signal: %v)", sig)

	// Graceful shutdown for reverse proxies: set status to fail, so checkalive returns fail.
	if !s.fastShutDown {
		log.Info().Msgf(
			"graceful shutdown: return 503 while %d seconds to let LB to remove this pod from active targets",
			s.cfg.Webserver.ShutDownTime,
		)

		s.alive.Store(false)
		time.Sleep(time.Duration(s.cfg.Webserver.ShutDownTime) * time.Second)
	}

	log.Info().Msg("stopping http server ...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second) //nolint:mnd
	defer cancel()

	if err := s.App.ShutdownWithContext(ctx); err != nil {
		log.Error().Err(err).Msg("http server shutdown")
	}

	if stop != nil {
		stop()
	}

	log.Info().Msg("http server was stopped ... good bye...")
}

// Alive reports whether checkalive answers 200.
func (s *Service) Alive() bool {
	return s.alive.Load()
}

// allowOrigin accepts the configured origins and every vercel preview deployment.
func allowOrigin(allowed []string) func(origin string) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[strings.TrimRight(o, "/")] = struct{}{}
	}

	return func(origin string) bool {
		if _, ok := set[origin]; ok {
			return true
		}

		u, err := url.Parse(origin)
		if err != nil || u.Scheme != "https" {
			return false
		}

		host, _, splitErr := net.SplitHostPort(u.Host)
		if splitErr != nil {
			host = u.Host
		}

		return strings.HasSuffix(host, ".vercel.app")
	}
}

// New creates the web service and mounts every handler service below /api.
func New(cfg *config.Config, deps *handler.Deps) (*Service, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	if !deps.Valid() {
		return nil, errors.New(handler.ErrNilDepsFatalLogMsg)
	}

	app := fiber.New(
		fiber.Config{
			ReadBufferSize: 8192,
			AppName:        cfg.Title,
			CaseSensitive:  true,
			Immutable:      true,
			BodyLimit:      cfg.Webserver.BodyLimitMB << 20,
			ErrorHandler:   handler.ErrorHandler,
		},
	)

	service := &Service{
		cfg:     cfg,
		App:     app,
		started: time.Now(),
	}
	service.alive.Store(true)

	if !cfg.Webserver.DisableRecover {
		app.Use(recoverer.New(recoverer.Config{EnableStackTrace: cfg.DevMode}))
	}

	app.Use(requestid.New())
	accessCfg := accesslog.Config{
		Config:        cfg.Log,
		SlowThreshold: accesslog.ConfigDefault.SlowThreshold,
		UserID: func(c fiber.Ctx) uint64 {
			if claims := auth.ClaimsFrom(c); claims != nil {
				return claims.ID
			}

			return 0
		},
	}
	if cfg.Log.DisableCheckAlive {
		accessCfg.QuietPaths = []string{CheckAlivePath, MetricsPath}
	}

	app.Use(accesslog.New(accessCfg))

	app.Use(helmet.New(helmet.Config{
		CrossOriginResourcePolicy: "cross-origin",
	}))

	app.Use(cors.New(cors.Config{
		AllowOriginsFunc: allowOrigin(cfg.Webserver.AllowedOrigins),
		AllowCredentials: true,
		AllowMethods: []string{
			fiber.MethodGet, fiber.MethodPost, fiber.MethodPut,
			fiber.MethodDelete, fiber.MethodPatch, fiber.MethodOptions,
		},
		AllowHeaders: []string{
			fiber.HeaderContentType, fiber.HeaderAuthorization, fiber.HeaderCookie,
			fiber.HeaderRange, fiber.HeaderOrigin, fiber.HeaderAccept,
		},
		ExposeHeaders: []string{
			fiber.HeaderContentLength, fiber.HeaderContentRange, fiber.HeaderAcceptRanges,
			fiber.HeaderContentType, fiber.HeaderContentDisposition,
		},
		MaxAge: corsMaxAge,
	}))

	app.Get(handler.RootPath, func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"success":     true,
			"message":     "API Running",
			"timestamp":   time.Now().UTC(),
			"environment": cfg.Environment,
		})
	})

	app.Get("/health", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":    "healthy",
			"uptime":    time.Since(service.started).Seconds(),
			"timestamp": time.Now().UTC(),
		})
	})

	app.Get(CheckAlivePath, func(c fiber.Ctx) error {
		if !service.Alive() {
			return c.SendStatus(fiber.StatusServiceUnavailable)
		}

		return c.SendStatus(fiber.StatusOK)
	})

	app.Get(MetricsPath, adaptor.HTTPHandler(promhttp.Handler()))

	app.Use("/uploads", static.New(cfg.Webserver.UploadDir, static.Config{MaxAge: uploadsMaxAge}))

	api := app.Group(APIPrefix)
	for _, svc := range services() {
		if err := svc.Init(api, deps); err != nil {
			return nil, fmt.Errorf("init %T: %w", svc, err)
		}
	}

	app.Use(handler.NotFoundRoute)

	return service, nil
}
