package index

import (
	"fmt"
	"sync"

	"github.com/go-sod/spatial/internal/geom"
)

// tree is the operation set shared by kdtree.Tree and quadtree.Tree.
type tree interface {
	Insert(p geom.Point) error
	Delete(p geom.Point) (bool, error)
	Search(p geom.Point) bool
	Range(anchor geom.Point, radius float64) ([]geom.Point, error)
	NearestNeighbor(anchor geom.Point) (geom.Point, float64, error)
	KNearestNeighbors(k int, anchor geom.Point) ([]geom.Point, error)
	Height() int
	Count() int
	Points() []geom.Point
}

// locked serialises writers and lets readers run in parallel.
type locked struct {
	mtx  sync.RWMutex
	kind Kind
	dims int
	tree tree
}

func (l *locked) Kind() Kind {
	return l.kind
}

func (l *locked) Dims() int {
	return l.dims
}

// Insert stops at the first failing point. Points before it stay inserted.
func (l *locked) Insert(points ...geom.Point) (int, error) {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	for i := range points {
		if err := l.tree.Insert(points[i]); err != nil {
			return i, fmt.Errorf("insert point %d: %w", i, err)
		}
	}
	return len(points), nil
}

// Delete returns how many of the points were present and removed.
func (l *locked) Delete(points ...geom.Point) (int, error) {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	var n int
	for i := range points {
		deleted, err := l.tree.Delete(points[i])
		if err != nil {
			return n, fmt.Errorf("delete point %d: %w", i, err)
		}
		if deleted {
			n++
		}
	}
	return n, nil
}

func (l *locked) Search(p geom.Point) bool {
	l.mtx.RLock()
	defer l.mtx.RUnlock()
	return l.tree.Search(p)
}

func (l *locked) Range(anchor geom.Point, radius float64) ([]geom.Point, error) {
	l.mtx.RLock()
	defer l.mtx.RUnlock()
	return l.tree.Range(anchor, radius)
}

func (l *locked) NearestNeighbor(anchor geom.Point) (geom.Point, float64, error) {
	l.mtx.RLock()
	defer l.mtx.RUnlock()
	return l.tree.NearestNeighbor(anchor)
}

func (l *locked) KNearestNeighbors(k int, anchor geom.Point) ([]geom.Point, error) {
	l.mtx.RLock()
	defer l.mtx.RUnlock()
	return l.tree.KNearestNeighbors(k, anchor)
}

func (l *locked) Height() int {
	l.mtx.RLock()
	defer l.mtx.RUnlock()
	return l.tree.Height()
}

func (l *locked) Count() int {
	l.mtx.RLock()
	defer l.mtx.RUnlock()
	return l.tree.Count()
}

func (l *locked) Points() []geom.Point {
	l.mtx.RLock()
	defer l.mtx.RUnlock()
	return l.tree.Points()
}
