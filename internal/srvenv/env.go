package srvenv

import "github.com/go-sod/spatial/internal/index"

type Option func(*SrvEnv) *SrvEnv

func New(opts ...Option) *SrvEnv {
	env := &SrvEnv{}
	for _, f := range opts {
		env = f(env)
	}

	return env
}

type SrvEnv struct {
	registry         index.ProvideFn
	metricsNamespace string
}

func (s *SrvEnv) ProvideRegistry() index.ProvideFn {
	return s.registry
}

func (s *SrvEnv) MetricsNamespace() string {
	return s.metricsNamespace
}

func WithRegistry(fn index.ProvideFn) Option {
	return func(s *SrvEnv) *SrvEnv {
		s.registry = fn
		return s
	}
}

func WithMetricsNamespace(namespace string) Option {
	return func(s *SrvEnv) *SrvEnv {
		s.metricsNamespace = namespace
		return s
	}
}
