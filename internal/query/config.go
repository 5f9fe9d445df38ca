package query

import "time"

type Config struct {
	RequestTimeout time.Duration `envconfig:"SPATIAL_QUERY_REQUEST_TIMEOUT" default:"30s" toml:"-"`
	MaxBatchLen    int           `envconfig:"SPATIAL_QUERY_MAX_BATCH_LEN" default:"100" toml:"max_batch_len"`
	MaxBodyBytes   int64         `envconfig:"SPATIAL_QUERY_MAX_BODY_BYTES" default:"67108864" toml:"max_body_bytes"`
}
