package logger

import (
	"time"
)

// Console implements a console based logger.
type Console struct {
	Enabled          bool
	UseConsoleWriter bool
}

// LogFile implements a file based logger.
type LogFile struct {
	// Legacy non docker env file logging.
	Enabled bool
	Path    string

	AccessLog        string
	AccessMaxSize    int
	AccessMaxBackups int
	AccessMaxAge     int

	ErrorLog        string
	ErrorMaxSize    int
	ErrorMaxBackups int
	ErrorMaxAge     int

	InfoLog        string
	InfoMaxSize    int
	InfoMaxBackups int
	InfoMaxAge     int

	TraceLog        string
	TraceMaxSize    int
	TraceMaxBackups int
	TraceMaxAge     int

	WarnLog        string
	WarnMaxSize    int
	WarnMaxBackups int
	WarnMaxAge     int
}

// DataDog implements a datadog config.
type DataDog struct {
	ServiceName string
	APIKey      string // API Key defined at datadog
	Enabled     bool
	Site        string        // Regional Site aka DD_SITE ("datadoghq.eu")
	Hostname    string        // reported host, defaults to os.Hostname
	Tags        string        // comma separated ddtags
	Timeout     time.Duration // how long to wait to send a batch to datadog.
	BufferSize  int           // queued log lines before new ones are dropped
}

// Log implements the logger config.
type Log struct {
	LogLevel string // info, warn, error.
	LogEnv   string

	// EnableAccessLogToConsole if true the webservice starts to log requests to console.
	// Does not overrule flag Console.Enabled!
	// If Console.Enabled is false, still no access log output to the console will be shown.
	EnableAccessLogToConsole bool
	ReportCaller             bool
	DisableCheckAlive        bool // do not log /checkalive calls

	AppName     string
	ServiceName string

	// Console used mainly for docker and dev.
	Console Console

	// Legacy non docker env file logging.
	File LogFile

	// DataDog log intake.
	DataDog DataDog

	// Metrics counts log statements for /metrics.
	Metrics Metrics
}
