package spatial

import (
	"github.com/go-sod/spatial/internal/index"
	"github.com/go-sod/spatial/internal/query"
	"github.com/go-sod/spatial/internal/server"
	"github.com/go-sod/spatial/internal/setup"
)

var (
	_ setup.ServerConfigProvider  = (*Config)(nil)
	_ setup.IndexConfigProvider   = (*Config)(nil)
	_ setup.QueryConfigProvider   = (*Config)(nil)
	_ setup.MetricsConfigProvider = (*Config)(nil)
)

type Config struct {
	MetricsNamespace string        `envconfig:"SPATIAL_METRICS_NAMESPACE" default:"spatial" toml:"metrics_namespace"`
	Server           server.Config `toml:"server"`
	Index            index.Config  `toml:"index"`
	Query            query.Config  `toml:"query"`
}

func (c *Config) ServerConfig() *server.Config {
	return &c.Server
}

func (c *Config) IndexConfig() *index.Config {
	return &c.Index
}

func (c *Config) QueryConfig() *query.Config {
	return &c.Query
}

func (c *Config) MetricsConfig() string {
	return c.MetricsNamespace
}
