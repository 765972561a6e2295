package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	mysqldriver "github.com/go-sql-driver/mysql"

	"github.com/faucetdb/crudgen/internal/connector"
	"github.com/faucetdb/crudgen/internal/model"
)

var defaultPorts = map[string]int{
	"mysql":    3306,
	"postgres": 5432,
}

// ParseDatasourceURL parses a JDBC-style URL into a Datasource:
//
//	jdbc:mysql://localhost:3306/shop?useSSL=false
//	jdbc:postgresql://db:5432/shop
//	jdbc:sqlite:/var/data/shop.db
//
// The jdbc: prefix is optional. The port is kept; a missing port takes the
// driver default.
func ParseDatasourceURL(raw string) (*model.Datasource, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, ErrNoDatasource
	}
	s := strings.TrimPrefix(strings.TrimSpace(raw), "jdbc:")

	if path, ok := strings.CutPrefix(s, "sqlite:"); ok {
		path = strings.TrimPrefix(path, "//")
		if path == "" {
			return nil, fmt.Errorf("%w: sqlite url has no file path", ErrInvalidDatasourceURL)
		}
		return &model.Datasource{
			Name:     connector.DefaultDatasource,
			Driver:   "sqlite",
			Database: path,
			Pool:     model.DefaultPoolConfig(),
		}, nil
	}

	u, err := url.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDatasourceURL, err)
	}

	var driver string
	switch u.Scheme {
	case "mysql", "mariadb":
		driver = "mysql"
	case "postgresql", "postgres":
		driver = "postgres"
	default:
		return nil, fmt.Errorf("%w: unsupported scheme %q (want mysql, postgresql or sqlite)", ErrInvalidDatasourceURL, u.Scheme)
	}

	if u.Hostname() == "" {
		return nil, fmt.Errorf("%w: missing host", ErrInvalidDatasourceURL)
	}
	database := strings.TrimPrefix(u.Path, "/")
	if database == "" {
		return nil, fmt.Errorf("%w: missing database name", ErrInvalidDatasourceURL)
	}

	port := defaultPorts[driver]
	if p := u.Port(); p != "" {
		port, err = strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("%w: bad port %q", ErrInvalidDatasourceURL, p)
		}
	}

	ds := &model.Datasource{
		Name:     connector.DefaultDatasource,
		Driver:   driver,
		Host:     u.Hostname(),
		Port:     port,
		Database: database,
		Params:   map[string]string{},
		Pool:     model.DefaultPoolConfig(),
	}
	for k, vals := range u.Query() {
		if len(vals) > 0 {
			ds.Params[k] = vals[0]
		}
	}
	if u.User != nil {
		ds.Username = u.User.Username()
		ds.Password, _ = u.User.Password()
	}
	return ds, nil
}

// Datasource resolves the configured datasource: the URL plus the separate
// username and password, which win over credentials embedded in the URL.
func (c DatasourceConfig) Datasource() (*model.Datasource, error) {
	ds, err := ParseDatasourceURL(c.URL)
	if err != nil {
		return nil, err
	}
	if c.Username != "" {
		ds.Username = c.Username
	}
	if c.Password != "" {
		ds.Password = c.Password
	}
	return ds, nil
}

// ConnectionConfig builds the driver DSN and pool settings for ds.
func ConnectionConfig(ds *model.Datasource, schema string) connector.ConnectionConfig {
	cfg := connector.ConnectionConfig{
		Driver:          ds.Driver,
		SchemaName:      schema,
		MaxOpenConns:    ds.Pool.MaxOpenConns,
		MaxIdleConns:    ds.Pool.MaxIdleConns,
		ConnMaxLifetime: ds.Pool.ConnMaxLifetime,
		ConnMaxIdleTime: ds.Pool.ConnMaxIdleTime,
	}

	switch ds.Driver {
	case "mysql":
		mc := mysqldriver.NewConfig()
		mc.User = ds.Username
		mc.Passwd = ds.Password
		mc.Net = "tcp"
		mc.Addr = fmt.Sprintf("%s:%d", ds.Host, ds.Port)
		mc.DBName = ds.Database
		mc.ParseTime = true
		// JDBC flags such as useSSL mean nothing to the Go driver.
		cfg.DSN = mc.FormatDSN()
	case "postgres":
		u := url.URL{
			Scheme: "postgres",
			Host:   fmt.Sprintf("%s:%d", ds.Host, ds.Port),
			Path:   "/" + ds.Database,
		}
		if ds.Username != "" {
			u.User = url.UserPassword(ds.Username, ds.Password)
		}
		q := url.Values{}
		if mode, ok := ds.Params["sslmode"]; ok {
			q.Set("sslmode", mode)
		} else if ds.Params["ssl"] == "false" || ds.Params["useSSL"] == "false" {
			q.Set("sslmode", "disable")
		}
		u.RawQuery = q.Encode()
		cfg.DSN = u.String()
	default:
		cfg.DSN = ds.Database
	}
	return cfg
}
