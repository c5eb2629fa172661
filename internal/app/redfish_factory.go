package app

import (
	"log/slog"
	"time"

	"bmcprobe/internal/adapters/http"
	"bmcprobe/internal/domain"
	"bmcprobe/internal/logging"
	"bmcprobe/internal/services/redfish"
	"bmcprobe/internal/services/session"
)

const (
	// defaultHTTPTimeout is the default timeout for a single BMC request.
	defaultHTTPTimeout = 10 * time.Second

	// defaultRetryCount applies to resource reads only. Session creation is
	// never retried.
	defaultRetryCount = 2
)

// RedfishServiceFactory implements domain.RedfishServiceFactory.
type RedfishServiceFactory struct {
	logger      *slog.Logger
	httpTimeout time.Duration
	retryCount  int
	rateLimit   float64
}

// NewRedfishServiceFactory creates a new Redfish service factory.
func NewRedfishServiceFactory(logger *slog.Logger, cfg *Config) *RedfishServiceFactory {
	f := &RedfishServiceFactory{
		logger:      logger,
		httpTimeout: defaultHTTPTimeout,
		retryCount:  defaultRetryCount,
	}
	if cfg != nil {
		if cfg.HTTPTimeout > 0 {
			f.httpTimeout = cfg.HTTPTimeout
		}
		if cfg.Retries >= 0 {
			f.retryCount = cfg.Retries
		}
		f.rateLimit = cfg.RequestsPerSecond
	}
	return f
}

// CreateServices creates the services for one target. Each call returns a
// fresh session manager.
func (f *RedfishServiceFactory) CreateServices(target domain.Target, insecureSkipTLS bool) domain.RedfishServices {
	logger := logging.WithTarget(f.logger, target.BaseURL(), target.Username)

	authAdapter := http.NewAdapter(http.Options{
		Timeout:            f.httpTimeout,
		InsecureSkipVerify: insecureSkipTLS,
		RequestsPerSecond:  f.rateLimit,
	}, logger)

	resourceAdapter := http.NewAdapter(http.Options{
		Timeout:            f.httpTimeout,
		InsecureSkipVerify: insecureSkipTLS,
		RetryCount:         f.retryCount,
		RequestsPerSecond:  f.rateLimit,
	}, logger)

	manager := session.NewManager(authAdapter, logger)
	client := redfish.NewClient(resourceAdapter, manager, target, logger)

	return domain.RedfishServices{
		Target:   target,
		Sessions: manager,
		Systems:  client,
		Power:    client,
		Sensors:  client,
	}
}
