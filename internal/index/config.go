package index

type Config struct {
	DefaultKind      string `envconfig:"SPATIAL_INDEX_DEFAULT_KIND" default:"KD" toml:"default_kind"`
	DefaultDims      int    `envconfig:"SPATIAL_INDEX_DEFAULT_DIMS" default:"2" toml:"default_dims"`
	DefaultK         int    `envconfig:"SPATIAL_INDEX_DEFAULT_K" default:"16" toml:"default_k"`
	DefaultBucketing int    `envconfig:"SPATIAL_INDEX_DEFAULT_BUCKETING" default:"4" toml:"default_bucketing"`
	MaxIndexes       int    `envconfig:"SPATIAL_INDEX_MAX_INDEXES" default:"64" toml:"max_indexes"`
}

func (c Config) Defaults() (Spec, error) {
	kind, err := ParseKind(c.DefaultKind)
	if err != nil {
		return Spec{}, err
	}
	return Spec{
		Kind:      kind,
		Dims:      c.DefaultDims,
		K:         Exponent(c.DefaultK),
		Bucketing: c.DefaultBucketing,
	}, nil
}
