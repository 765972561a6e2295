package config

import "errors"

var (
	// ErrNoDatasource is returned when no datasource URL is configured.
	ErrNoDatasource = errors.New("no datasource configured: set datasource.url or CRUDGEN_DATASOURCE_URL")
	// ErrInvalidDatasourceURL is returned for URLs that are not jdbc:<driver>://... or a supported DSN.
	ErrInvalidDatasourceURL = errors.New("invalid datasource url")
)
