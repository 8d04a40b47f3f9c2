package config

import "time"

// Config represents the overall application configuration structure.
type Config struct {
	App           AppConfig           `koanf:"app" json:"app" yaml:"app"`
	Server        ServerConfig        `koanf:"server" json:"server" yaml:"server"`
	Log           LogConfig           `koanf:"log" json:"log" yaml:"log"`
	Client        ClientConfig        `koanf:"client" json:"client" yaml:"client"`
	Relay         RelayConfig         `koanf:"relay" json:"relay" yaml:"relay"`
	Observability ObservabilityConfig `koanf:"observability" json:"observability" yaml:"observability"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name    string     `koanf:"name" json:"name" yaml:"name"`
	Version string     `koanf:"version" json:"version" yaml:"version"`
	Env     string     `koanf:"env" json:"env" yaml:"env"`
	Debug   bool       `koanf:"debug" json:"debug" yaml:"debug"`
	Rate    RateConfig `koanf:"rate" json:"rate" yaml:"rate"`
}

// RateConfig holds rate limiting settings. A zero limit disables the limiter.
type RateConfig struct {
	Limit int `koanf:"limit" json:"limit" yaml:"limit"`
	Burst int `koanf:"burst" json:"burst" yaml:"burst"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host      string        `koanf:"host" json:"host" yaml:"host"`
	Port      int           `koanf:"port" json:"port" yaml:"port"`
	Timeout   TimeoutConfig `koanf:"timeout" json:"timeout" yaml:"timeout"`
	Path      PathConfig    `koanf:"path" json:"path" yaml:"path"`
	BodyLimit string        `koanf:"bodylimit" json:"bodylimit" yaml:"bodylimit"`
	CORS      CORSConfig    `koanf:"cors" json:"cors" yaml:"cors"`
}

// TimeoutConfig holds various timeout durations for the server.
type TimeoutConfig struct {
	Read       time.Duration `koanf:"read" json:"read" yaml:"read"`
	Write      time.Duration `koanf:"write" json:"write" yaml:"write"`
	Idle       time.Duration `koanf:"idle" json:"idle" yaml:"idle"`
	Middleware time.Duration `koanf:"middleware" json:"middleware" yaml:"middleware"`
	Shutdown   time.Duration `koanf:"shutdown" json:"shutdown" yaml:"shutdown"`
}

// PathConfig holds URL path settings for the server.
type PathConfig struct {
	Base   string `koanf:"base" json:"base" yaml:"base"`
	Health string `koanf:"health" json:"health" yaml:"health"`
	Ready  string `koanf:"ready" json:"ready" yaml:"ready"`
	Relay  string `koanf:"relay" json:"relay" yaml:"relay"`
}

// CORSConfig holds the cross-origin headers returned on every relay response.
type CORSConfig struct {
	Origins []string `koanf:"origins" json:"origins" yaml:"origins"`
	Methods []string `koanf:"methods" json:"methods" yaml:"methods"`
	Headers []string `koanf:"headers" json:"headers" yaml:"headers"`
	MaxAge  int      `koanf:"maxage" json:"maxage" yaml:"maxage"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `koanf:"level" json:"level" yaml:"level"`
	Pretty bool   `koanf:"pretty" json:"pretty" yaml:"pretty"`
}

// ClientConfig configures the outbound HTTP client used by callers of a relay.
type ClientConfig struct {
	BaseURL string            `koanf:"baseurl" json:"baseurl" yaml:"baseurl"`
	Timeout time.Duration     `koanf:"timeout" json:"timeout" yaml:"timeout"`
	Retry   RetryConfig       `koanf:"retry" json:"retry" yaml:"retry"`
	Headers map[string]string `koanf:"headers" json:"headers" yaml:"headers"`
}

// RetryConfig holds the fixed-delay retry settings.
type RetryConfig struct {
	Max   int           `koanf:"max" json:"max" yaml:"max"`
	Delay time.Duration `koanf:"delay" json:"delay" yaml:"delay"`
}

// RelayConfig holds the proxy relay settings.
type RelayConfig struct {
	// URL is the relay endpoint targeted by relay.Caller and relayctl.
	URL      string         `koanf:"url" json:"url" yaml:"url"`
	Upstream UpstreamConfig `koanf:"upstream" json:"upstream" yaml:"upstream"`
	Defaults RelayDefaults  `koanf:"defaults" json:"defaults" yaml:"defaults"`
}

// UpstreamConfig controls how the relay talks to the chat-completion API.
type UpstreamConfig struct {
	Timeout    time.Duration `koanf:"timeout" json:"timeout" yaml:"timeout"`
	Retries    int           `koanf:"retries" json:"retries" yaml:"retries"`
	RetryDelay time.Duration `koanf:"retrydelay" json:"retrydelay" yaml:"retrydelay"`
	// Path is appended to base URLs that do not already name the completions endpoint.
	Path string `koanf:"path" json:"path" yaml:"path"`
}

// RelayDefaults are used for any request field that is absent or empty.
type RelayDefaults struct {
	APIKey  string `koanf:"apikey" json:"-" yaml:"-"`
	BaseURL string `koanf:"baseurl" json:"baseurl" yaml:"baseurl"`
	Model   string `koanf:"model" json:"model" yaml:"model"`
	Prompt  string `koanf:"prompt" json:"prompt" yaml:"prompt"`
}

// ObservabilityConfig holds OpenTelemetry settings.
type ObservabilityConfig struct {
	Enabled bool          `koanf:"enabled" json:"enabled" yaml:"enabled"`
	Service ServiceConfig `koanf:"service" json:"service" yaml:"service"`
	Trace   TraceConfig   `koanf:"trace" json:"trace" yaml:"trace"`
	Metrics MetricsConfig `koanf:"metrics" json:"metrics" yaml:"metrics"`
}

// ServiceConfig identifies the service in exported telemetry.
type ServiceConfig struct {
	Name    string `koanf:"name" json:"name" yaml:"name"`
	Version string `koanf:"version" json:"version" yaml:"version"`
}

// TraceConfig configures span export. Endpoint "stdout" selects the stdout exporter.
type TraceConfig struct {
	Endpoint   string  `koanf:"endpoint" json:"endpoint" yaml:"endpoint"`
	Protocol   string  `koanf:"protocol" json:"protocol" yaml:"protocol"`
	Insecure   bool    `koanf:"insecure" json:"insecure" yaml:"insecure"`
	SampleRate float64 `koanf:"samplerate" json:"samplerate" yaml:"samplerate"`
}

// MetricsConfig configures metric export. It shares the trace protocol settings.
type MetricsConfig struct {
	Endpoint string        `koanf:"endpoint" json:"endpoint" yaml:"endpoint"`
	Interval time.Duration `koanf:"interval" json:"interval" yaml:"interval"`
}
