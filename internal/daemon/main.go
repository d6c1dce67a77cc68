// Package daemon wires the collaborators of the api and runs it.
package daemon

import (
	"fmt"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/gopalparivar/dhenu-mahima/internal/auth"
	"github.com/gopalparivar/dhenu-mahima/internal/cache"
	"github.com/gopalparivar/dhenu-mahima/internal/config"
	"github.com/gopalparivar/dhenu-mahima/internal/jobs"
	"github.com/gopalparivar/dhenu-mahima/internal/mail"
	"github.com/gopalparivar/dhenu-mahima/internal/membership"
	"github.com/gopalparivar/dhenu-mahima/internal/payment"
	"github.com/gopalparivar/dhenu-mahima/internal/upload"
	"github.com/gopalparivar/dhenu-mahima/internal/web"
	"github.com/gopalparivar/dhenu-mahima/internal/web/handler"
	"github.com/gopalparivar/dhenu-mahima/internal/web/session"
)

// Daemon represents the main application daemon.
type Daemon struct {
	cfg        *config.Config
	db         *gorm.DB
	cache      cache.Cache
	storage    fiber.Storage
	scheduler  *jobs.Scheduler
	webService *web.Service
}

// Start runs the job scheduler and the web service until a shutdown signal arrives.
func (d *Daemon) Start() error {
	if d.cfg.Jobs.Enabled {
		if err := d.scheduler.Start(); err != nil {
			return err
		}
	}

	go d.webService.WaitShutdown(d.stop)

	return d.webService.Start(fmt.Sprintf(":%d", d.cfg.Webserver.Port))
}

// stop releases everything the web service used.
func (d *Daemon) stop() {
	if d.cfg.Jobs.Enabled {
		d.scheduler.Stop()
	}

	if err := d.cache.Close(); err != nil {
		log.Warn().Err(err).Msg("close cache")
	}

	if err := d.storage.Close(); err != nil {
		log.Warn().Err(err).Msg("close auth storage")
	}

	if sqlDB, err := d.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// Services bundles the collaborators shared by the web service and the jobs.
type Services struct {
	DB          *gorm.DB
	Deps        *handler.Deps
	Memberships *membership.Service
}

// Wire builds the collaborators on an open database.
func Wire(cfg *config.Config, db *gorm.DB) (*Services, error) {
	c, err := cache.New(cfg.Cache)
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable, caching disabled")
		c = cache.Nop{}
	}

	mailer, err := mail.New(mail.NewSender(cfg.Mail), cfg.Mail.AdminAddress)
	if err != nil {
		return nil, err
	}

	storage := session.NewStorage(cfg)
	tokens := auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	gateway := payment.New(cfg.PhonePe)
	memberships := membership.NewService(db, gateway, mailer, cfg.Webserver.BackendURL)

	deps := (&handler.Deps{
		Cfg:         cfg,
		DB:          db,
		Auth:        auth.NewService(db),
		Tokens:      tokens,
		Accounts:    auth.NewAccounts(db, cfg, tokens, session.NewResets(storage, cfg.Auth.ResetTTL), mailer),
		Storage:     storage,
		Cache:       c,
		Payment:     gateway,
		Memberships: memberships,
		Mailer:      mailer,
		Uploads:     upload.New(cfg.Webserver),
	}).Guards()

	return &Services{DB: db, Deps: deps, Memberships: memberships}, nil
}

// New connects, migrates and wires the daemon.
func New(cfg *config.Config) (*Daemon, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	db, err := OpenDB(cfg)
	if err != nil {
		return nil, err
	}

	if err = Migrate(cfg, db); err != nil {
		return nil, err
	}

	svc, err := Wire(cfg, db)
	if err != nil {
		return nil, err
	}

	webService, err := web.New(cfg, svc.Deps)
	if err != nil {
		return nil, err
	}

	return &Daemon{
		cfg:        cfg,
		db:         db,
		cache:      svc.Deps.Cache,
		storage:    svc.Deps.Storage,
		scheduler:  jobs.New(cfg.Jobs, db, svc.Memberships),
		webService: webService,
	}, nil
}
