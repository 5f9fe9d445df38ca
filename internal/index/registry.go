package index

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/go-sod/spatial/internal/logging"
	"github.com/go-sod/spatial/pkg/container/kdtree"
	"github.com/go-sod/spatial/pkg/container/quadtree"
	"github.com/google/uuid"
)

var (
	ErrNotFound     = fmt.Errorf("index not found")
	ErrTooManyIndex = fmt.Errorf("too many indexes")
	ErrMissingK     = fmt.Errorf("quad index needs an exponent k")
)

type ProvideFn func() (*Registry, error)

func WithMaxIndexes(n int) Option {
	return func(r *Registry) {
		r.opts.maxIndexes = n
	}
}

func WithDefaults(spec Spec) Option {
	return func(r *Registry) {
		r.opts.defaults = spec
	}
}

type Option func(*Registry)

type Options struct {
	maxIndexes int
	defaults   Spec
}

// Spec describes an index to create. Zero fields, and a nil K, take the
// registry defaults. K is a pointer because k=0 is a legal exponent.
// Dims applies to KD indexes; K and Bucketing to QUAD indexes.
type Spec struct {
	Kind      Kind `json:"kind"`
	Dims      int  `json:"dims,omitempty"`
	K         *int `json:"k,omitempty"`
	Bucketing int  `json:"bucketing,omitempty"`
}

// Exponent returns a K for Spec.
func Exponent(k int) *int {
	return &k
}

func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		indexes: map[uuid.UUID]Index{},
		opts: Options{
			defaults: Spec{Kind: KindKD, Dims: 2, K: Exponent(16), Bucketing: 4},
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type Registry struct {
	mtx     sync.RWMutex
	opts    Options
	indexes map[uuid.UUID]Index
}

func (r *Registry) withDefaults(spec Spec) Spec {
	if spec.Kind == "" {
		spec.Kind = r.opts.defaults.Kind
	}
	if spec.Dims == 0 {
		spec.Dims = r.opts.defaults.Dims
	}
	if spec.K == nil && r.opts.defaults.K != nil {
		spec.K = Exponent(*r.opts.defaults.K)
	}
	if spec.Bucketing == 0 {
		spec.Bucketing = r.opts.defaults.Bucketing
	}
	return spec
}

// New builds an index from spec without registering it.
func New(spec Spec) (Index, error) {
	switch spec.Kind {
	case KindKD:
		t, err := kdtree.New(spec.Dims)
		if err != nil {
			return nil, fmt.Errorf("create kd index: %w", err)
		}
		return &locked{kind: KindKD, dims: spec.Dims, tree: t}, nil
	case KindQuad:
		if spec.K == nil {
			return nil, fmt.Errorf("create quad index: %w", ErrMissingK)
		}
		t, err := quadtree.New(*spec.K, spec.Bucketing)
		if err != nil {
			return nil, fmt.Errorf("create quad index: %w", err)
		}
		return &locked{kind: KindQuad, dims: 2, tree: t}, nil
	default:
		return nil, fmt.Errorf("create %q index: %w", spec.Kind, ErrUnknownKind)
	}
}

func (r *Registry) Create(ctx context.Context, spec Spec) (uuid.UUID, Index, error) {
	logger := logging.FromContext(ctx)
	spec = r.withDefaults(spec)
	idx, err := New(spec)
	if err != nil {
		return uuid.Nil, nil, err
	}

	r.mtx.Lock()
	defer r.mtx.Unlock()
	if r.opts.maxIndexes > 0 && len(r.indexes) >= r.opts.maxIndexes {
		return uuid.Nil, nil, fmt.Errorf("create index, limit %d: %w", r.opts.maxIndexes, ErrTooManyIndex)
	}
	id := uuid.New()
	r.indexes[id] = idx
	logger.Infof("created %s index %s", spec.Kind, id)
	return id, idx, nil
}

func (r *Registry) Get(id uuid.UUID) (Index, error) {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	idx, ok := r.indexes[id]
	if !ok {
		return nil, fmt.Errorf("get index %s: %w", id, ErrNotFound)
	}
	return idx, nil
}

func (r *Registry) Drop(ctx context.Context, id uuid.UUID) error {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	if _, ok := r.indexes[id]; !ok {
		return fmt.Errorf("drop index %s: %w", id, ErrNotFound)
	}
	delete(r.indexes, id)
	logging.FromContext(ctx).Infof("dropped index %s", id)
	return nil
}

// IDs are sorted by their string form.
func (r *Registry) IDs() []uuid.UUID {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	ids := make([]uuid.UUID, 0, len(r.indexes))
	for id := range r.indexes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return ids[i].String() < ids[j].String()
	})
	return ids
}

func (r *Registry) Len() int {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	return len(r.indexes)
}
