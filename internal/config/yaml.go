package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the layout of crudgen.yaml.
type File struct {
	Datasource DatasourceYAML `yaml:"datasource"`
	LLM        LLMYAML        `yaml:"llm"`
	Output     OutputYAML     `yaml:"output"`
	Session    SessionYAML    `yaml:"session"`
	Stream     StreamYAML     `yaml:"stream"`
	Server     ServerYAML     `yaml:"server"`
}

// DatasourceYAML is the datasource section of crudgen.yaml.
type DatasourceYAML struct {
	URL      string `yaml:"url"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Schema   string `yaml:"schema,omitempty"`
}

// LLMYAML is the llm section of crudgen.yaml.
type LLMYAML struct {
	APIKey      string  `yaml:"api_key"`
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	Timeout     string  `yaml:"timeout"`
}

// OutputYAML is the output section of crudgen.yaml.
type OutputYAML struct {
	BaseDir string `yaml:"base_dir"`
}

// SessionYAML is the session section of crudgen.yaml.
type SessionYAML struct {
	Secret  string `yaml:"secret"`
	TTL     string `yaml:"ttl"`
	DataDir string `yaml:"data_dir,omitempty"`
}

// StreamYAML is the stream section of crudgen.yaml.
type StreamYAML struct {
	WordDelay       string `yaml:"word_delay"`
	SchemaWordDelay string `yaml:"schema_word_delay"`
}

// ServerYAML is the server section of crudgen.yaml.
type ServerYAML struct {
	Host        string   `yaml:"host"`
	Port        int      `yaml:"port"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// DefaultFile returns a crudgen.yaml pre-filled with defaults. Secrets are
// written as environment references so the file can be committed.
func DefaultFile() *File {
	return &File{
		Datasource: DatasourceYAML{
			URL:      "jdbc:mysql://localhost:3306/shop?useSSL=false",
			Username: "root",
			Password: "${MYSQL_PASSWORD}",
		},
		LLM: LLMYAML{
			APIKey:      "${GOOGLE_API_KEY}",
			BaseURL:     DefaultLLMBaseURL,
			Model:       DefaultLLMModel,
			Temperature: DefaultTemperature,
			Timeout:     "120s",
		},
		Output: OutputYAML{
			BaseDir: "generated",
		},
		Session: SessionYAML{
			Secret: "${CRUDGEN_SESSION_SECRET}",
			TTL:    "12h",
		},
		Stream: StreamYAML{
			WordDelay:       "10ms",
			SchemaWordDelay: "30ms",
		},
		Server: ServerYAML{
			Host:        "127.0.0.1",
			Port:        8080,
			CORSOrigins: []string{"*"},
		},
	}
}

// WriteDefaultConfig writes the default configuration to path. An existing
// file is left alone unless force is set.
func WriteDefaultConfig(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}

	data, err := yaml.Marshal(DefaultFile())
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// MarshalYAML renders settings (for example from Masked) as YAML.
func MarshalYAML(settings map[string]any) (string, error) {
	data, err := yaml.Marshal(settings)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
