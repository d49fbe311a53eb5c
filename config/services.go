package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ServiceMode represents the available service modes.
type ServiceMode string

const (
	// ServiceModeHTTP runs the HTTP server.
	ServiceModeHTTP ServiceMode = "http"
	// ServiceModeReconciler runs the stale-job reconciler.
	ServiceModeReconciler ServiceMode = "reconciler"
)

// ValidServiceModes returns all valid service mode names.
func ValidServiceModes() []ServiceMode {
	return []ServiceMode{
		ServiceModeHTTP,
		ServiceModeReconciler,
	}
}

// ParseServices parses a comma-delimited string of service names and returns the enabled services.
// It validates that all service names are valid and returns an error if any are invalid.
func ParseServices(servicesStr string) (map[ServiceMode]bool, error) {
	services := make(map[ServiceMode]bool)

	if servicesStr == "" {
		return services, errors.New("at least one service must be specified")
	}

	parts := strings.Split(servicesStr, ",")
	for _, part := range parts {
		serviceName := strings.TrimSpace(part)
		if serviceName == "" {
			continue
		}

		mode := ServiceMode(serviceName)
		switch mode {
		case ServiceModeHTTP, ServiceModeReconciler:
			services[mode] = true
		default:
			return nil, fmt.Errorf(
				"invalid service name: %q (valid options: http, reconciler)",
				serviceName,
			)
		}
	}

	if len(services) == 0 {
		return nil, errors.New("at least one valid service must be specified")
	}

	return services, nil
}

// OrchestratorConfig contains job submission and completion configuration.
type OrchestratorConfig struct {
	// OpTimeout bounds each store write and queue publish performed while
	// handling a single request.
	OpTimeout time.Duration `env:"ORCHESTRATOR_OP_TIMEOUT" envDefault:"5s"`
}

// Sanitize applies guardrails to orchestrator configuration values.
func (o *OrchestratorConfig) Sanitize() {
	if o.OpTimeout <= 0 {
		o.OpTimeout = 5 * time.Second
	}
}

// ReconcilerConfig contains stale-job reconciler configuration.
type ReconcilerConfig struct {
	// Interval is the reconciler tick interval.
	Interval time.Duration `env:"RECONCILER_INTERVAL" envDefault:"1m"`

	// PendingMaxAge is how long a job may sit in pending status before it is
	// considered stuck and republished to the queue.
	PendingMaxAge time.Duration `env:"RECONCILER_PENDING_MAX_AGE" envDefault:"5m"`

	// BatchSize is the maximum number of stale jobs republished per tick.
	// Anything beyond the batch is picked up on a later tick.
	BatchSize int `env:"RECONCILER_BATCH_SIZE" envDefault:"100"`

	// Concurrency is the number of concurrent republish operations.
	Concurrency int `env:"RECONCILER_CONCURRENCY" envDefault:"4"`
}

// Sanitize applies guardrails to reconciler configuration values.
func (r *ReconcilerConfig) Sanitize() {
	// Enforce minimum intervals to prevent excessive database load
	if r.Interval < 10*time.Second {
		r.Interval = 10 * time.Second
	}
	if r.PendingMaxAge < 30*time.Second {
		r.PendingMaxAge = 30 * time.Second
	}

	if r.BatchSize < 1 {
		r.BatchSize = 1
	}
	if r.BatchSize > 10000 {
		r.BatchSize = 10000
	}
	if r.Concurrency < 1 {
		r.Concurrency = 1
	}
}
