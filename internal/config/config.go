package config

import (
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the AURA control plane.
type Config struct {
	Port      int             `yaml:"port"`
	Version   string          `yaml:"version"`
	Home      HomeConfig      `yaml:"home"`
	Providers ProviderConfig  `yaml:"providers"`
	Voice     VoiceConfig     `yaml:"voice"`
	Calls     CallsConfig     `yaml:"calls"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// HomeConfig identifies the provisioned home.
type HomeConfig struct {
	HomeID   string `yaml:"home_id"`
	Location string `yaml:"location"`
}

// ProviderConfig configures the external reading sources.
type ProviderConfig struct {
	WeatherAPIKey  string `yaml:"weather_api_key"`
	WeatherBaseURL string `yaml:"weather_base_url"`
	GridAPIKey     string `yaml:"grid_api_key"`
	GridBaseURL    string `yaml:"grid_base_url"`
	GridAuthority  string `yaml:"grid_authority"`
}

// VoiceConfig configures the outbound telephony provider.
type VoiceConfig struct {
	APIKey        string `yaml:"api_key"`
	PhoneNumberID string `yaml:"phone_number_id"`
	BaseURL       string `yaml:"base_url"`
}

// CallsConfig holds the call-sequencing policy constants. The follow-up
// delay drives the coordinator timer; the answer wait bounds each outbound
// warning dial.
type CallsConfig struct {
	WarningAnswerWait time.Duration `yaml:"warning_answer_wait"`
	FollowUpDelay     time.Duration `yaml:"follow_up_delay"`
}

type TelemetryConfig struct {
	Enabled      bool   `yaml:"enabled"`
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	ServiceName  string `yaml:"service_name"`
}

// Load reads configuration from environment variables with sensible
// defaults. If AURA_CONFIG_FILE points at a YAML file, its values overlay
// the environment-derived config.
func Load() *Config {
	cfg := &Config{
		Port:    envInt("AURA_PORT", 8080),
		Version: envStr("AURA_VERSION", "0.4.0"),
		Home: HomeConfig{
			HomeID:   envStr("AURA_HOME_ID", "aura-demo-home-01"),
			Location: envStr("AURA_HOME_LOCATION", "Austin, TX"),
		},
		Providers: ProviderConfig{
			WeatherAPIKey:  envStr("OPENWEATHERMAP_API_KEY", ""),
			WeatherBaseURL: envStr("AURA_WEATHER_BASE_URL", "https://api.openweathermap.org/data/2.5"),
			GridAPIKey:     envStr("EIA_API_KEY", ""),
			GridBaseURL:    envStr("AURA_GRID_BASE_URL", "https://api.eia.gov/v2"),
			GridAuthority:  envStr("AURA_GRID_AUTHORITY", "ERCOT"),
		},
		Voice: VoiceConfig{
			APIKey:        envStr("VAPI_API_KEY", ""),
			PhoneNumberID: envStr("VAPI_PHONE_NUMBER_ID", ""),
			BaseURL:       envStr("AURA_VOICE_BASE_URL", "https://api.vapi.ai"),
		},
		Calls: CallsConfig{
			WarningAnswerWait: envDur("AURA_WARNING_ANSWER_WAIT", 30*time.Second),
			FollowUpDelay:     envDur("AURA_FOLLOW_UP_DELAY", 15*time.Second),
		},
		Telemetry: TelemetryConfig{
			Enabled:      envBool("OTEL_ENABLED", false),
			OTLPEndpoint: envStr("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			ServiceName:  envStr("OTEL_SERVICE_NAME", "aura-control-plane"),
		},
	}

	if path := os.Getenv("AURA_CONFIG_FILE"); path != "" {
		overlayFile(cfg, path)
	}
	return cfg
}

// overlayFile merges a YAML config file over the env-derived config.
// Unset file fields keep their existing values.
func overlayFile(cfg *Config, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	_ = yaml.Unmarshal(data, cfg)
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDur(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
