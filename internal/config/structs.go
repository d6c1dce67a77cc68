package config

import (
	"time"

	"github.com/gopalparivar/dhenu-mahima/internal/logger"
)

// PhonePe environments.
const (
	PhonePeSandbox    = "sandbox"
	PhonePeProduction = "production"
)

// Config overall data structure.
type Config struct {
	DevMode     bool   // enable dev mode for development
	Title       string // service title reported by the root endpoint
	Environment string // free text environment name, e.g. production
	DB          DB
	Log         logger.Log
	Webserver   Webserver
	Auth        Auth
	Cache       Cache
	Mail        Mail
	PhonePe     PhonePe
	Jobs        Jobs
}

// Webserver implement webserver settings.
type Webserver struct {
	DisableRecover bool     // disable recover middleware
	Port           int      // listening port for the webserver
	ShutDownTime   int      // wait time for shutdown
	URL            string   // base url for the webserver
	BackendURL     string   // public url of this api, used for payment redirects and upload urls
	FrontendURL    string   // public url of the web frontend
	AllowedOrigins []string // cors allow list, *.vercel.app is always accepted
	BodyLimitMB    int      // request body limit in megabytes
	UploadDir      string   // local directory for uploaded files
}

// Auth holds token and one time code settings.
type Auth struct {
	JWTSecret    string
	TokenTTL     time.Duration // lifetime of the login cookie
	CookieSecure bool
	OTPTTL       time.Duration // lifetime of a signup code
	OTPIssuer    string
	ResetTTL     time.Duration // lifetime of a password reset token
	AdminEmail   string        // seeded admin account, created when no admin exists
	AdminName    string
	AdminPass    string
}

// Cache holds the redis settings.
type Cache struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

// Mail holds the smtp settings.
type Mail struct {
	Enabled      bool // false logs outgoing mails instead of sending them
	Host         string
	Port         int
	Username     string
	Password     string
	From         string
	FromName     string
	AdminAddress string // receiver of contact and booking requests
}

// PhonePe holds the payment gateway credentials.
type PhonePe struct {
	Environment     string // sandbox or production
	ClientID        string
	ClientSecret    string
	ClientVersion   string
	MerchantID      string
	WebhookUsername string
	WebhookPassword string
	Timeout         time.Duration
}

// Jobs holds the cron expressions of the background jobs.
type Jobs struct {
	Enabled                bool
	EventCleanup           string
	SubscriptionStatus     string
	SubscriptionNotify     string
	SubscriptionRedeem     string
	SubscriptionQuickCheck string
}
