package model

import "time"

// Datasource describes the database the tool inspects and mutates. It is
// usually derived from a JDBC-style URL such as
// jdbc:mysql://localhost:3306/shop?useSSL=false.
type Datasource struct {
	Name     string            `json:"name" yaml:"name"`
	Driver   string            `json:"driver" yaml:"driver"` // mysql, postgres, sqlite
	Host     string            `json:"host,omitempty" yaml:"host,omitempty"`
	Port     int               `json:"port,omitempty" yaml:"port,omitempty"`
	Database string            `json:"database" yaml:"database"`
	Params   map[string]string `json:"params,omitempty" yaml:"params,omitempty"`
	Username string            `json:"username,omitempty" yaml:"username,omitempty"`
	Password string            `json:"-" yaml:"-"`
	Pool     PoolConfig        `json:"pool" yaml:"pool"`
}

// PoolConfig controls the database connection pool behavior for a datasource.
type PoolConfig struct {
	MaxOpenConns    int           `yaml:"max_open_conns" json:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns" json:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" json:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time" json:"conn_max_idle_time"`
}

// DefaultPoolConfig returns the pool settings used for interactive use: a
// handful of connections, recycled often.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxOpenConns:    5,
		MaxIdleConns:    2,
		ConnMaxLifetime: 5 * time.Minute,
		ConnMaxIdleTime: 1 * time.Minute,
	}
}
