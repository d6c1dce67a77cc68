package logger

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Components whose log statements are counted on their own.
const (
	ComponentPayment = "payment"
	ComponentJobs    = "jobs"
)

// Metrics configures the log statement counters.
type Metrics struct {
	// Namespace prefixes every metric name, e.g. "dhenu" gives dhenu_log_statements_total.
	Namespace string

	// Registerer receives the counters. Nil means the prometheus default registry served on /metrics.
	Registerer prometheus.Registerer `json:"-" mapstructure:"-" toml:"-"`
}

// Registry returns the configured registerer or the default one.
func (m Metrics) Registry() prometheus.Registerer {
	if m.Registerer == nil {
		return prometheus.DefaultRegisterer
	}

	return m.Registerer
}

// componentStatements is set by Init and read by For.
var componentStatements *prometheus.CounterVec //nolint:gochecknoglobals

// PrometheusHook counts log statements by level, and by component for loggers returned by For.
type PrometheusHook struct {
	statements *prometheus.CounterVec
	component  string
}

// Run implements zerolog.Hook.
func (h PrometheusHook) Run(_ *zerolog.Event, level zerolog.Level, _ string) {
	if level == zerolog.NoLevel || h.statements == nil {
		return
	}

	if h.component == "" {
		h.statements.WithLabelValues(level.String()).Inc()
		return
	}

	h.statements.WithLabelValues(h.component, level.String()).Inc()
}

// Register adds c to reg. A collector registered before under the same descriptor is returned instead,
// so Init can run more than once per process.
func Register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}

	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(T); ok {
			return existing, nil
		}
	}

	return c, err
}

// NewPrometheusHook registers the log counters of service in cfg's registry.
func NewPrometheusHook(service string, cfg Metrics) (PrometheusHook, error) {
	labels := prometheus.Labels{"service": service}
	reg := cfg.Registry()

	statements, err := Register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace:   cfg.Namespace,
		Name:        "log_statements_total",
		Help:        "Number of log statements, differentiated by log level.",
		ConstLabels: labels,
	}, []string{"level"}))
	if err != nil {
		return PrometheusHook{}, err
	}

	components, err := Register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace:   cfg.Namespace,
		Name:        "component_log_statements_total",
		Help:        "Number of log statements of payment callbacks and scheduled jobs, by component and level.",
		ConstLabels: labels,
	}, []string{"component", "level"}))
	if err != nil {
		return PrometheusHook{}, err
	}

	componentStatements = components

	return PrometheusHook{statements: statements}, nil
}

// For returns the global logger tagged with component. Its levels are also counted per component.
func For(component string) *zerolog.Logger {
	l := log.Logger.With().Str("component", component).Logger().
		Hook(PrometheusHook{statements: componentStatements, component: component})

	return &l
}
