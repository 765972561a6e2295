package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the effective crudgen configuration, merged from the YAML file,
// CRUDGEN_* environment variables and command-line flags.
type Config struct {
	Datasource DatasourceConfig
	LLM        LLMConfig
	Output     OutputConfig
	Session    SessionConfig
	Stream     StreamConfig
	Server     ServerConfig
}

// DatasourceConfig points at the database being inspected.
type DatasourceConfig struct {
	URL      string
	Username string
	Password string
	Schema   string
}

// LLMConfig configures the generation client.
type LLMConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	Timeout     time.Duration
}

// OutputConfig controls where generated layer files are written.
type OutputConfig struct {
	BaseDir string
}

// SessionConfig controls browser sessions.
type SessionConfig struct {
	Secret  string
	TTL     time.Duration
	DataDir string // empty keeps sessions in memory
}

// StreamConfig controls the word-by-word display stream.
type StreamConfig struct {
	WordDelay       time.Duration
	SchemaWordDelay time.Duration
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host        string
	Port        int
	CORSOrigins []string
}

// Defaults. The model identifier and temperature match the values the
// generator has always used.
const (
	DefaultLLMBaseURL  = "https://generativelanguage.googleapis.com/v1beta/openai/"
	DefaultLLMModel    = "gemini-pro"
	DefaultTemperature = 0.8
)

// SetDefaults registers every key with its default value.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("datasource.url", "")
	v.SetDefault("datasource.username", "")
	v.SetDefault("datasource.password", "")
	v.SetDefault("datasource.schema", "")

	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", DefaultLLMBaseURL)
	v.SetDefault("llm.model", DefaultLLMModel)
	v.SetDefault("llm.temperature", DefaultTemperature)
	v.SetDefault("llm.timeout", "120s")

	v.SetDefault("output.base_dir", "generated")

	v.SetDefault("session.secret", "")
	v.SetDefault("session.ttl", "12h")
	v.SetDefault("session.data_dir", "")

	v.SetDefault("stream.word_delay", "10ms")
	v.SetDefault("stream.schema_word_delay", "30ms")

	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
}

// BindEnv maps CRUDGEN_SECTION_KEY variables onto section.key. The
// generation API key also falls back to GOOGLE_API_KEY.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix("CRUDGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.BindEnv("llm.api_key", "CRUDGEN_LLM_API_KEY", "GOOGLE_API_KEY")
}

// Load reads the effective configuration out of v. Secret values may
// reference environment variables as ${NAME}.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Datasource: DatasourceConfig{
			URL:      v.GetString("datasource.url"),
			Username: v.GetString("datasource.username"),
			Password: os.ExpandEnv(v.GetString("datasource.password")),
			Schema:   v.GetString("datasource.schema"),
		},
		LLM: LLMConfig{
			APIKey:      os.ExpandEnv(v.GetString("llm.api_key")),
			BaseURL:     v.GetString("llm.base_url"),
			Model:       v.GetString("llm.model"),
			Temperature: float32(v.GetFloat64("llm.temperature")),
			Timeout:     v.GetDuration("llm.timeout"),
		},
		Output: OutputConfig{
			BaseDir: v.GetString("output.base_dir"),
		},
		Session: SessionConfig{
			Secret:  os.ExpandEnv(v.GetString("session.secret")),
			TTL:     v.GetDuration("session.ttl"),
			DataDir: v.GetString("session.data_dir"),
		},
		Stream: StreamConfig{
			WordDelay:       v.GetDuration("stream.word_delay"),
			SchemaWordDelay: v.GetDuration("stream.schema_word_delay"),
		},
		Server: ServerConfig{
			Host:        v.GetString("server.host"),
			Port:        v.GetInt("server.port"),
			CORSOrigins: v.GetStringSlice("server.cors_origins"),
		},
	}

	if cfg.LLM.Temperature < 0 || cfg.LLM.Temperature > 2 {
		return nil, fmt.Errorf("llm.temperature must be between 0 and 2, got %v", cfg.LLM.Temperature)
	}
	if cfg.LLM.Timeout <= 0 {
		return nil, fmt.Errorf("llm.timeout must be positive, got %s", v.GetString("llm.timeout"))
	}
	if cfg.Session.TTL <= 0 {
		return nil, fmt.Errorf("session.ttl must be positive, got %s", v.GetString("session.ttl"))
	}
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return nil, fmt.Errorf("server.port out of range: %d", cfg.Server.Port)
	}
	return cfg, nil
}

// Masked returns the settings in v with secrets replaced, for display.
func Masked(v *viper.Viper) map[string]any {
	settings := v.AllSettings()
	maskSecrets(settings)
	return settings
}

var secretKeys = map[string]bool{
	"password": true,
	"api_key":  true,
	"secret":   true,
}

func maskSecrets(m map[string]any) {
	for k, val := range m {
		switch typed := val.(type) {
		case map[string]any:
			maskSecrets(typed)
		case string:
			if secretKeys[k] && typed != "" {
				m[k] = mask(typed)
			}
		}
	}
}

// mask keeps the first four characters of long secrets.
func mask(s string) string {
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "********"
}
