package server

import "time"

type Config struct {
	Addr            string        `envconfig:"SPATIAL_ADDR" default:":8787" toml:"addr"`
	GRPCAddr        string        `envconfig:"SPATIAL_GRPC_ADDR" default:":8788" toml:"grpc_addr"`
	MaxConns        int           `envconfig:"SPATIAL_MAX_CONNS" default:"1024" toml:"max_conns"`
	ShutdownTimeout time.Duration `envconfig:"SPATIAL_SHUTDOWN_TIMEOUT" default:"5s" toml:"-"`
}
