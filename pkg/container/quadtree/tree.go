package quadtree

import (
	"fmt"
	"math"

	"github.com/go-sod/spatial/internal/geom"
	"github.com/go-sod/spatial/pkg/pqueue"
)

const dims = 2

var (
	ErrNegativeExponent = fmt.Errorf("region exponent must not be negative")
	ErrInvalidBucketing = fmt.Errorf("bucketing parameter must be positive")
	ErrInvalidK         = fmt.Errorf("k must be positive")
	ErrInvalidRadius    = fmt.Errorf("radius must not be negative")
	ErrOutOfRegion      = fmt.Errorf("point is outside the tree region")
	ErrEmptyTree        = fmt.Errorf("tree is empty")
	ErrNoNeighbor       = fmt.Errorf("no point other than the anchor")
)

// New returns an empty PR quadtree over the square of side 2^k centred at the
// origin, which accepts coordinates from -2^(k-1) to 2^(k-1)-1 on each axis.
// Leaves hold at most bucketing points before they subdivide.
func New(k, bucketing int) (*Tree, error) {
	if k < 0 {
		return nil, fmt.Errorf("new tree with k=%d: %w", k, ErrNegativeExponent)
	}
	if bucketing <= 0 {
		return nil, fmt.Errorf("new tree with bucketing=%d: %w", bucketing, ErrInvalidBucketing)
	}
	return &Tree{
		reg:       region{k: k},
		bucketing: bucketing,
	}, nil
}

// Tree is a point-region quadtree. It is not safe for concurrent use.
type Tree struct {
	root      node
	reg       region
	bucketing int
	len       int
}

func (t *Tree) K() int {
	return t.reg.k
}

func (t *Tree) Bucketing() int {
	return t.bucketing
}

func (t *Tree) Len() int {
	return t.len
}

func (t *Tree) Count() int {
	return count(t.root)
}

// Height is -1 for an empty tree and 0 when the root is a single leaf.
func (t *Tree) Height() int {
	return height(t.root)
}

func checkDims(p geom.Point) error {
	if p.Dimensions() != dims {
		return fmt.Errorf("point %v in a quadtree: %w", p, geom.ErrDimNotEqual)
	}
	return nil
}

// Insert adds p. A failed insert leaves the tree unchanged.
func (t *Tree) Insert(p geom.Point) error {
	if err := checkDims(p); err != nil {
		return err
	}
	if !t.reg.contains(p) {
		return fmt.Errorf("insert %v into a region of side 2^%d: %w", p, t.reg.k, ErrOutOfRegion)
	}
	root, err := insert(t.root, p.Copy(), t.reg, t.bucketing)
	if err != nil {
		return fmt.Errorf("insert %v: subdividing past the smallest region: %w", p, err)
	}
	t.root = root
	t.len += 1
	return nil
}

// Delete removes one occurrence of p. Deleting an absent point is a no-op
// and reports false.
func (t *Tree) Delete(p geom.Point) (bool, error) {
	if err := checkDims(p); err != nil {
		return false, err
	}
	var deleted bool
	t.root, deleted = remove(t.root, p, t.bucketing)
	if deleted {
		t.len -= 1
	}
	return deleted, nil
}

func (t *Tree) Search(p geom.Point) bool {
	if p.Dimensions() != dims {
		return false
	}
	return search(t.root, p)
}

func (t *Tree) Points() []geom.Point {
	return collect(t.root, make([]geom.Point, 0, t.len))
}

// Range returns every point within radius (inclusive) of anchor, except
// points equal to anchor. The order is unspecified.
func (t *Tree) Range(anchor geom.Point, radius float64) ([]geom.Point, error) {
	if err := checkDims(anchor); err != nil {
		return nil, err
	}
	if radius < 0 || math.IsNaN(radius) {
		return nil, fmt.Errorf("range with radius %v: %w", radius, ErrInvalidRadius)
	}
	return rangeSearch(t.root, anchor, radius, []geom.Point{}), nil
}

// NearestNeighbor returns the closest point to anchor other than anchor
// itself, and its distance.
func (t *Tree) NearestNeighbor(anchor geom.Point) (geom.Point, float64, error) {
	if err := checkDims(anchor); err != nil {
		return nil, 0, err
	}
	if t.root == nil {
		return nil, 0, ErrEmptyTree
	}
	best := nnData{dist: math.Inf(1)}
	nearestNeighbor(t.root, anchor, &best)
	if best.point == nil {
		return nil, 0, ErrNoNeighbor
	}
	return best.point.Copy(), best.dist, nil
}

// KNearestNeighbors returns up to k points closest to anchor, nearest first.
func (t *Tree) KNearestNeighbors(k int, anchor geom.Point) ([]geom.Point, error) {
	if err := checkDims(anchor); err != nil {
		return nil, err
	}
	if k <= 0 {
		return nil, fmt.Errorf("knn with k=%d: %w", k, ErrInvalidK)
	}
	if t.root == nil {
		return []geom.Point{}, nil
	}
	queue, err := pqueue.New[geom.Point](k, pqueue.WithEqual(geom.Point.Equal))
	if err != nil {
		return nil, fmt.Errorf("knn queue: %w", err)
	}
	kNearestNeighbors(t.root, anchor, queue)

	points := make([]geom.Point, 0, queue.Len())
	for _, p := range queue.Values() {
		points = append(points, p.Copy())
	}
	return points, nil
}
