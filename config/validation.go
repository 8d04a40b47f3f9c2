package config

import (
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/labstack/gommon/bytes"
)

// Environment constants
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// Exporter protocol constants
const (
	ProtocolHTTP = "http"
	ProtocolGRPC = "grpc"
)

var validLogLevels = []string{"trace", "debug", "info", "warn", "error", "fatal", "panic", "disabled"}

func Validate(cfg *Config) error {
	if err := validateApp(&cfg.App); err != nil {
		return fmt.Errorf("app config: %w", err)
	}

	if err := validateServer(&cfg.Server); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := validateLog(&cfg.Log); err != nil {
		return fmt.Errorf("log config: %w", err)
	}

	if err := validateClient(&cfg.Client); err != nil {
		return fmt.Errorf("client config: %w", err)
	}

	if err := validateRelay(&cfg.Relay); err != nil {
		return fmt.Errorf("relay config: %w", err)
	}

	if err := validateObservability(&cfg.Observability); err != nil {
		return fmt.Errorf("observability config: %w", err)
	}

	return nil
}

// validateApp requires a name and version, a known environment and a
// non-negative rate limit.
func validateApp(cfg *AppConfig) error {
	if cfg.Name == "" {
		return NewMissingFieldError("app.name", "APP_NAME", "app.name")
	}

	if cfg.Version == "" {
		return NewMissingFieldError("app.version", "APP_VERSION", "app.version")
	}

	validEnvs := []string{EnvDevelopment, EnvStaging, EnvProduction}
	if !slices.Contains(validEnvs, cfg.Env) {
		return NewInvalidFieldError("app.env", fmt.Sprintf("invalid environment: %s", cfg.Env), validEnvs)
	}

	if cfg.Rate.Limit < 0 || cfg.Rate.Burst < 0 {
		return NewValidationError("app.rate", "rate limit and burst must not be negative")
	}

	return nil
}

func validateServer(cfg *ServerConfig) error {
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return NewValidationError("server.port", fmt.Sprintf("invalid port: %d (must be 1-65535)", cfg.Port))
	}

	if cfg.Timeout.Read <= 0 {
		return NewValidationError("server.timeout.read", "read timeout must be positive")
	}

	if cfg.Timeout.Write <= 0 {
		return NewValidationError("server.timeout.write", "write timeout must be positive")
	}

	if cfg.Timeout.Shutdown <= 0 {
		return NewValidationError("server.timeout.shutdown", "shutdown timeout must be positive")
	}

	if cfg.Path.Relay == "" || !strings.HasPrefix(cfg.Path.Relay, "/") {
		return NewValidationError("server.path.relay", "relay path must start with '/'")
	}

	if cfg.BodyLimit != "" {
		if _, err := bytes.Parse(cfg.BodyLimit); err != nil {
			return NewValidationError("server.bodylimit", fmt.Sprintf("invalid body limit %q (e.g. 512K, 1M)", cfg.BodyLimit))
		}
	}

	return nil
}

func validateLog(cfg *LogConfig) error {
	if !slices.Contains(validLogLevels, strings.ToLower(cfg.Level)) {
		return NewInvalidFieldError("log.level", fmt.Sprintf("invalid log level: %s", cfg.Level), validLogLevels)
	}
	return nil
}

func validateClient(cfg *ClientConfig) error {
	if cfg.Timeout < 0 {
		return NewValidationError("client.timeout", "timeout must not be negative")
	}
	if cfg.Retry.Max < 0 {
		return NewValidationError("client.retry.max", "retry count must not be negative")
	}
	if cfg.Retry.Delay < 0 {
		return NewValidationError("client.retry.delay", "retry delay must not be negative")
	}
	if cfg.BaseURL != "" {
		if err := validateAbsoluteURL(cfg.BaseURL); err != nil {
			return NewValidationError("client.baseurl", err.Error())
		}
	}
	return nil
}

func validateRelay(cfg *RelayConfig) error {
	if cfg.URL != "" {
		if err := validateAbsoluteURL(cfg.URL); err != nil {
			return NewValidationError("relay.url", err.Error())
		}
	}

	if cfg.Upstream.Timeout <= 0 {
		return NewValidationError("relay.upstream.timeout", "upstream timeout must be positive")
	}
	if cfg.Upstream.Retries < 0 {
		return NewValidationError("relay.upstream.retries", "retry count must not be negative")
	}
	if cfg.Upstream.RetryDelay < 0 {
		return NewValidationError("relay.upstream.retrydelay", "retry delay must not be negative")
	}
	if !strings.HasPrefix(cfg.Upstream.Path, "/") {
		return NewValidationError("relay.upstream.path", "upstream path must start with '/'")
	}

	if cfg.Defaults.BaseURL == "" {
		return NewMissingFieldError("relay.defaults.baseurl", "RELAY_DEFAULTS_BASEURL", "relay.defaults.baseurl")
	}
	if err := validateAbsoluteURL(cfg.Defaults.BaseURL); err != nil {
		return NewValidationError("relay.defaults.baseurl", err.Error())
	}
	if cfg.Defaults.Model == "" {
		return NewMissingFieldError("relay.defaults.model", "RELAY_DEFAULTS_MODEL", "relay.defaults.model")
	}

	return nil
}

func validateObservability(cfg *ObservabilityConfig) error {
	if !cfg.Enabled {
		return nil
	}

	if cfg.Service.Name == "" {
		return NewMissingFieldError("observability.service.name", "OBSERVABILITY_SERVICE_NAME", "observability.service.name")
	}

	validProtocols := []string{ProtocolHTTP, ProtocolGRPC}
	if !slices.Contains(validProtocols, cfg.Trace.Protocol) {
		return NewInvalidFieldError("observability.trace.protocol",
			fmt.Sprintf("invalid protocol: %s", cfg.Trace.Protocol), validProtocols)
	}

	if cfg.Trace.SampleRate < 0 || cfg.Trace.SampleRate > 1 {
		return NewValidationError("observability.trace.samplerate", "sample rate must be between 0 and 1")
	}

	if cfg.Metrics.Interval <= 0 {
		return NewValidationError("observability.metrics.interval", "export interval must be positive")
	}

	return nil
}

func validateAbsoluteURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid url %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid url %q: host is required", raw)
	}
	return nil
}
