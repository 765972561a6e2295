package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/faucetdb/crudgen/internal/config"
	"github.com/faucetdb/crudgen/internal/connector"
	"github.com/faucetdb/crudgen/internal/connector/mysql"
	"github.com/faucetdb/crudgen/internal/connector/postgres"
	"github.com/faucetdb/crudgen/internal/connector/sqlite"
	"github.com/faucetdb/crudgen/internal/llm"
)

// newLogger writes text logs to stderr, at debug level with --dev.
func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if devMode {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// loadConfig reads the effective configuration from viper.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// newRegistry creates a connector registry with all supported database drivers registered.
func newRegistry() *connector.Registry {
	registry := connector.NewRegistry()
	registry.RegisterDriver("mysql", mysql.New)
	registry.RegisterDriver("postgres", postgres.New)
	registry.RegisterDriver("sqlite", sqlite.New)
	return registry
}

// connectDatasource connects the configured datasource as the default one.
// A missing password is asked for when stdin is a terminal.
func connectDatasource(cfg *config.Config, logger *slog.Logger) (*connector.Registry, error) {
	ds, err := cfg.Datasource.Datasource()
	if err != nil {
		return nil, err
	}
	if ds.Driver != "sqlite" && ds.Username != "" && ds.Password == "" && term.IsTerminal(int(os.Stdin.Fd())) {
		pw, err := promptPassword(fmt.Sprintf("Password for %s@%s: ", ds.Username, ds.Host))
		if err != nil {
			return nil, err
		}
		ds.Password = pw
	}

	registry := newRegistry()
	if err := registry.Connect(connector.DefaultDatasource, config.ConnectionConfig(ds, cfg.Datasource.Schema)); err != nil {
		return nil, err
	}
	logger.Debug("datasource connected", "driver", ds.Driver, "host", ds.Host, "database", ds.Database)
	return registry, nil
}

// defaultConnector connects the datasource and returns it with a cleanup func.
func defaultConnector(cfg *config.Config, logger *slog.Logger) (connector.Connector, func(), error) {
	registry, err := connectDatasource(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	conn, err := registry.Default()
	if err != nil {
		registry.CloseAll()
		return nil, nil, err
	}
	return conn, registry.CloseAll, nil
}

// newGenerator builds the generation pipeline from the llm settings.
func newGenerator(cfg *config.Config, logger *slog.Logger) (*llm.Generator, error) {
	model, err := llm.NewOpenAIModel(llm.Options{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
	})
	if err != nil {
		return nil, err
	}
	return llm.NewGenerator(model, cfg.LLM.Timeout, logger), nil
}

func promptPassword(label string) (string, error) {
	fmt.Fprint(os.Stderr, label)
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}

// versionString returns a display version string.
func versionString() string {
	if appVersion == "" || appVersion == "dev" {
		return "dev"
	}
	if strings.HasPrefix(appVersion, "v") {
		return appVersion
	}
	return "v" + appVersion
}
