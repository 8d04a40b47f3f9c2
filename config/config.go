package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	envprovider "github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// Default relay settings. They match the values the browser UI historically
// relied on when it omitted a field.
const (
	DefaultRelayBaseURL = "https://api.siliconflow.cn"
	DefaultRelayModel   = "Qwen/Qwen2.5-7B-Instruct"
	DefaultRelayAPIKey  = "sk-xxxx"
	DefaultRelayPrompt  = "You are a writing assistant. Rewrite the text the user sends in fluent, natural language. " +
		"Keep the original meaning, fix grammar and wording, and reply with the rewritten text only."
	DefaultUpstreamPath = "/v1/chat/completions"
)

// sections lists the top-level keys that environment variables may populate.
var sections = []string{"app", "server", "log", "client", "relay", "observability"}

// Load loads configuration from multiple sources with priority:
// 1. Environment variables (highest priority)
// 2. config.<env>.yaml
// 3. config.yaml
// 4. Default values (lowest priority)
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// YAML files are optional
	if err := loadOptionalFile(k, "config.yaml"); err != nil {
		return nil, err
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = k.String("app.env")
	}
	if env != "" {
		if err := loadOptionalFile(k, fmt.Sprintf("config.%s.yaml", env)); err != nil {
			return nil, err
		}
	}

	if err := loadEnv(k); err != nil {
		return nil, err
	}

	return finalize(k)
}

// LoadFromBytes builds a configuration from an in-memory YAML document layered
// over the defaults. Environment variables are not consulted.
func LoadFromBytes(data []byte) (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}
	if err := k.Load(rawbytes.Provider(data), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return finalize(k)
}

func finalize(k *koanf.Koanf) (*Config, error) {
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadOptionalFile(k *koanf.Koanf, path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// loadEnv maps RELAY_DEFAULTS_APIKEY to relay.defaults.apikey. Variables
// outside the known sections are ignored.
func loadEnv(k *koanf.Koanf) error {
	provider := envprovider.Provider(".", envprovider.Opt{
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ReplaceAll(strings.ToLower(key), "_", ".")
			for _, section := range sections {
				if strings.HasPrefix(key, section+".") {
					return key, value
				}
			}
			return "", nil
		},
	})
	if err := k.Load(provider, nil); err != nil {
		return fmt.Errorf("failed to load environment variables: %w", err)
	}
	return nil
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"app.name":       "relay-bricks",
		"app.version":    "v1.0.0",
		"app.env":        EnvDevelopment,
		"app.debug":      false,
		"app.rate.limit": 100,
		"app.rate.burst": 200,

		"server.host":               "0.0.0.0",
		"server.port":               8080,
		"server.timeout.read":       "15s",
		"server.timeout.write":      "200s",
		"server.timeout.idle":       "60s",
		"server.timeout.middleware": "190s",
		"server.timeout.shutdown":   "10s",
		"server.path.base":          "",
		"server.path.health":        "/health",
		"server.path.ready":         "/ready",
		"server.path.relay":         "/",
		"server.bodylimit":          "1M",
		"server.cors.origins":       []string{"*"},
		"server.cors.methods":       []string{"POST", "OPTIONS"},
		"server.cors.headers":       []string{"Content-Type", "Authorization"},
		"server.cors.maxage":        0,

		"log.level":  "info",
		"log.pretty": false,

		"client.baseurl":     "",
		"client.timeout":     "180s",
		"client.retry.max":   0,
		"client.retry.delay": "1s",

		"relay.url":                 "",
		"relay.upstream.timeout":    "180s",
		"relay.upstream.retries":    0,
		"relay.upstream.retrydelay": "1s",
		"relay.upstream.path":       DefaultUpstreamPath,
		"relay.defaults.apikey":     DefaultRelayAPIKey,
		"relay.defaults.baseurl":    DefaultRelayBaseURL,
		"relay.defaults.model":      DefaultRelayModel,
		"relay.defaults.prompt":     DefaultRelayPrompt,

		"observability.enabled":          false,
		"observability.service.name":     "relay-bricks",
		"observability.service.version":  "v1.0.0",
		"observability.trace.endpoint":   "stdout",
		"observability.trace.protocol":   ProtocolHTTP,
		"observability.trace.insecure":   true,
		"observability.trace.samplerate": 1.0,
		"observability.metrics.endpoint": "stdout",
		"observability.metrics.interval": "30s",
	}

	return k.Load(confmap.Provider(defaults, "."), nil)
}
