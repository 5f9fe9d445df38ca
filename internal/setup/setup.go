package setup

import (
	"context"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/go-sod/spatial/internal/index"
	"github.com/go-sod/spatial/internal/logging"
	"github.com/go-sod/spatial/internal/query"
	"github.com/go-sod/spatial/internal/server"
	"github.com/go-sod/spatial/internal/srvenv"
	"github.com/kelseyhightower/envconfig"
)

// ConfigFileEnv names a TOML file whose keys override the environment.
const ConfigFileEnv = "SPATIAL_CONFIG_FILE"

type ServerConfigProvider interface {
	ServerConfig() *server.Config
}

type IndexConfigProvider interface {
	IndexConfig() *index.Config
}

type QueryConfigProvider interface {
	QueryConfig() *query.Config
}

type MetricsConfigProvider interface {
	MetricsConfig() string
}

func Setup(ctx context.Context, config interface{}) (*srvenv.SrvEnv, error) {
	logger := logging.FromContext(ctx)
	var serverEnvOpts []srvenv.Option
	if err := Load(ctx, config); err != nil {
		return nil, err
	}

	if indexConfigProvider, ok := config.(IndexConfigProvider); ok {
		logger.Info("Configuring index registry")
		provideFn, err := ProvideRegistryFor(indexConfigProvider)
		if err != nil {
			return nil, fmt.Errorf("unable create registry provide function: %w", err)
		}
		serverEnvOpts = append(serverEnvOpts, srvenv.WithRegistry(provideFn))
	}

	if metricsConfigProvider, ok := config.(MetricsConfigProvider); ok {
		logger.Info("Configuring metrics")
		serverEnvOpts = append(serverEnvOpts, srvenv.WithMetricsNamespace(metricsConfigProvider.MetricsConfig()))
	}
	return srvenv.New(serverEnvOpts...), nil
}

// Load fills config from environment variables and defaults, then from the
// file named by SPATIAL_CONFIG_FILE when it is set.
func Load(ctx context.Context, config interface{}) error {
	if err := envconfig.Process("", config); err != nil {
		return fmt.Errorf("error loading environment variables: %w", err)
	}
	path := os.Getenv(ConfigFileEnv)
	if path == "" {
		return nil
	}
	md, err := toml.DecodeFile(path, config)
	if err != nil {
		return fmt.Errorf("error loading config file %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("unknown keys in config file %s: %v", path, undecoded)
	}
	logging.FromContext(ctx).Infof("Loaded config file %s", path)
	return nil
}

func ProvideRegistryFor(provider IndexConfigProvider) (index.ProvideFn, error) {
	cfg := provider.IndexConfig()
	defaults, err := cfg.Defaults()
	if err != nil {
		return nil, fmt.Errorf("invalid index defaults: %w", err)
	}
	if _, err := index.New(defaults); err != nil {
		return nil, fmt.Errorf("invalid index defaults: %w", err)
	}
	return func() (*index.Registry, error) {
		return index.NewRegistry(
			index.WithDefaults(defaults),
			index.WithMaxIndexes(cfg.MaxIndexes),
		), nil
	}, nil
}
