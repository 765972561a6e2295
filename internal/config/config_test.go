package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/spf13/viper"
)

func newViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	return v
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(newViper())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LLM.Model != "gemini-pro" {
		t.Errorf("model = %q", cfg.LLM.Model)
	}
	if cfg.LLM.Temperature != 0.8 {
		t.Errorf("temperature = %v", cfg.LLM.Temperature)
	}
	if cfg.LLM.Timeout != 120*time.Second {
		t.Errorf("timeout = %v", cfg.LLM.Timeout)
	}
	if cfg.Session.TTL != 12*time.Hour {
		t.Errorf("session ttl = %v", cfg.Session.TTL)
	}
	if cfg.Stream.WordDelay != 10*time.Millisecond || cfg.Stream.SchemaWordDelay != 30*time.Millisecond {
		t.Errorf("stream delays = %v / %v", cfg.Stream.WordDelay, cfg.Stream.SchemaWordDelay)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		key   string
		value any
	}{
		{"llm.temperature", 3.5},
		{"llm.timeout", "0s"},
		{"session.ttl", "-1h"},
		{"server.port", 70000},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			v := newViper()
			v.Set(tt.key, tt.value)
			if _, err := Load(v); err == nil {
				t.Errorf("expected error for %s=%v", tt.key, tt.value)
			}
		})
	}
}

func TestLoadExpandsSecrets(t *testing.T) {
	t.Setenv("TEST_CRUDGEN_KEY", "abc123")
	v := newViper()
	v.Set("llm.api_key", "${TEST_CRUDGEN_KEY}")

	cfg, err := Load(v)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.LLM.APIKey != "abc123" {
		t.Errorf("api key = %q", cfg.LLM.APIKey)
	}
}

func TestBindEnv(t *testing.T) {
	t.Setenv("CRUDGEN_SERVER_PORT", "9090")
	t.Setenv("GOOGLE_API_KEY", "from-google")

	v := newViper()
	BindEnv(v)
	cfg, err := Load(v)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.LLM.APIKey != "from-google" {
		t.Errorf("api key = %q, want GOOGLE_API_KEY fallback", cfg.LLM.APIKey)
	}
}

func TestWriteDefaultConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crudgen.yaml")
	if err := WriteDefaultConfig(path, false); err != nil {
		t.Fatalf("WriteDefaultConfig: %v", err)
	}
	if err := WriteDefaultConfig(path, false); err == nil {
		t.Error("expected error when file exists without force")
	}
	if err := WriteDefaultConfig(path, true); err != nil {
		t.Errorf("force overwrite: %v", err)
	}

	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		t.Fatalf("ReadInConfig: %v", err)
	}
	cfg, err := Load(v)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Datasource.URL != "jdbc:mysql://localhost:3306/shop?useSSL=false" {
		t.Errorf("datasource url = %q", cfg.Datasource.URL)
	}
	if cfg.LLM.Timeout != 120*time.Second {
		t.Errorf("timeout = %v", cfg.LLM.Timeout)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("config file mode = %v, want 0600", info.Mode().Perm())
	}
}

func TestMasked(t *testing.T) {
	v := newViper()
	v.Set("llm.api_key", "AIzaSyVeryLongKey")
	v.Set("datasource.password", "short")

	settings := Masked(v)
	llm := settings["llm"].(map[string]any)
	if llm["api_key"] != "AIza********" {
		t.Errorf("api_key = %v", llm["api_key"])
	}
	ds := settings["datasource"].(map[string]any)
	if ds["password"] != "********" {
		t.Errorf("password = %v", ds["password"])
	}
	if llm["model"] != "gemini-pro" {
		t.Errorf("non-secret value changed: %v", llm["model"])
	}

	out, err := MarshalYAML(settings)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out, "VeryLongKey") {
		t.Error("masked YAML leaks the secret")
	}
}

func TestParseDatasourceURL(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		driver   string
		host     string
		port     int
		database string
		wantErr  error
	}{
		{"mysql jdbc", "jdbc:mysql://localhost:3306/shop?useSSL=false", "mysql", "localhost", 3306, "shop", nil},
		{"mysql custom port", "jdbc:mysql://db.internal:3307/shop", "mysql", "db.internal", 3307, "shop", nil},
		{"mysql default port", "jdbc:mysql://db/shop", "mysql", "db", 3306, "shop", nil},
		{"postgresql", "jdbc:postgresql://pg:5433/app", "postgres", "pg", 5433, "app", nil},
		{"no jdbc prefix", "mysql://localhost/shop", "mysql", "localhost", 3306, "shop", nil},
		{"sqlite", "jdbc:sqlite:/tmp/demo.db", "sqlite", "", 0, "/tmp/demo.db", nil},
		{"empty", "", "", "", 0, "", ErrNoDatasource},
		{"oracle", "jdbc:oracle:thin:@host:1521:xe", "", "", 0, "", ErrInvalidDatasourceURL},
		{"no database", "jdbc:mysql://localhost:3306/", "", "", 0, "", ErrInvalidDatasourceURL},
		{"bad port", "jdbc:mysql://localhost:abc/shop", "", "", 0, "", ErrInvalidDatasourceURL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds, err := ParseDatasourceURL(tt.url)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ds.Driver != tt.driver || ds.Host != tt.host || ds.Port != tt.port || ds.Database != tt.database {
				t.Errorf("got %s %s:%d/%s", ds.Driver, ds.Host, ds.Port, ds.Database)
			}
		})
	}
}

func TestConnectionConfigMySQL(t *testing.T) {
	dc := DatasourceConfig{
		URL:      "jdbc:mysql://localhost:3307/shop?useSSL=false",
		Username: "app",
		Password: "p@ss:w#rd",
	}
	ds, err := dc.Datasource()
	if err != nil {
		t.Fatal(err)
	}
	cc := ConnectionConfig(ds, "")

	parsed, err := mysqldriver.ParseDSN(cc.DSN)
	if err != nil {
		t.Fatalf("generated DSN does not parse: %v (%s)", err, cc.DSN)
	}
	if parsed.User != "app" || parsed.Passwd != "p@ss:w#rd" {
		t.Errorf("credentials = %q/%q", parsed.User, parsed.Passwd)
	}
	if parsed.Addr != "localhost:3307" {
		t.Errorf("addr = %q, want port kept", parsed.Addr)
	}
	if parsed.DBName != "shop" {
		t.Errorf("db = %q", parsed.DBName)
	}
	if cc.MaxOpenConns != 5 {
		t.Errorf("pool not applied: %+v", cc)
	}
}

func TestConnectionConfigPostgres(t *testing.T) {
	ds, err := ParseDatasourceURL("jdbc:postgresql://pg:5432/app?ssl=false")
	if err != nil {
		t.Fatal(err)
	}
	ds.Username = "u"
	ds.Password = "p w"

	cc := ConnectionConfig(ds, "public")
	want := "postgres://u:p%20w@pg:5432/app?sslmode=disable"
	if cc.DSN != want {
		t.Errorf("DSN = %q, want %q", cc.DSN, want)
	}
	if cc.SchemaName != "public" {
		t.Errorf("schema = %q", cc.SchemaName)
	}
}
