/*
 * Copyright 2020 Dennis Kuhnert
 * Copyright 2020 Ivanov Nikita
 *
 *    Licensed under the Apache License, Version 2.0 (the "License");
 *    you may not use this file except in compliance with the License.
 *    You may obtain a copy of the License at
 *
 *        http://www.apache.org/licenses/LICENSE-2.0
 *
 *    Unless required by applicable law or agreed to in writing, software
 *    distributed under the License is distributed on an "AS IS" BASIS,
 *    WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 *    See the License for the specific language governing permissions and
 *    limitations under the License.
 */
package kdtree

import (
	"fmt"
	"math"

	"github.com/go-sod/spatial/internal/geom"
	"github.com/go-sod/spatial/pkg/pqueue"
)

var (
	ErrInvalidDims   = fmt.Errorf("dimensions must be positive")
	ErrInvalidK      = fmt.Errorf("k must be positive")
	ErrInvalidRadius = fmt.Errorf("radius must not be negative")
	ErrEmptyTree     = fmt.Errorf("tree is empty")
	ErrNoNeighbor    = fmt.Errorf("no point other than the anchor")
)

func New(dims int) (*Tree, error) {
	if dims <= 0 {
		return nil, fmt.Errorf("new tree with %d dimensions: %w", dims, ErrInvalidDims)
	}
	return &Tree{
		root: nil,
		len:  0,
		dims: dims,
	}, nil
}

// Tree is a k-d tree over integer points. The splitting dimension cycles
// through 0..dims-1 with depth, starting at 0 at the root. It is not balanced
// and not safe for concurrent use.
type Tree struct {
	root *node
	len  int
	dims int
}

func (t *Tree) Dims() int {
	return t.dims
}

func (t *Tree) Len() int {
	return t.len
}

// Count walks the tree. It always agrees with Len.
func (t *Tree) Count() int {
	return t.root.count()
}

// Height is -1 for an empty tree and 0 for a single node.
func (t *Tree) Height() int {
	return height(t.root)
}

func (t *Tree) checkDims(p geom.Point) error {
	if p.Dimensions() != t.dims {
		return fmt.Errorf("point %v in a %d-d tree: %w", p, t.dims, geom.ErrDimNotEqual)
	}
	return nil
}

func (t *Tree) Insert(p geom.Point) error {
	if err := t.checkDims(p); err != nil {
		return err
	}
	p = p.Copy()
	if t.root == nil {
		t.root = &node{point: p}
	} else {
		t.root.insert(p, 0, t.dims)
	}
	t.len += 1
	return nil
}

// Delete removes one occurrence of p. Deleting an absent point is a no-op
// and reports false.
func (t *Tree) Delete(p geom.Point) (bool, error) {
	if err := t.checkDims(p); err != nil {
		return false, err
	}
	if t.root == nil {
		return false, nil
	}
	var deleted bool
	t.root, deleted = t.root.delete(p, 0, t.dims)
	if deleted {
		t.len -= 1
	}
	return deleted, nil
}

func (t *Tree) Search(p geom.Point) bool {
	if t.root == nil || p.Dimensions() != t.dims {
		return false
	}
	return t.root.search(p, 0, t.dims)
}

func (t *Tree) Points() []geom.Point {
	if t.root == nil {
		return []geom.Point{}
	}
	return t.root.points(make([]geom.Point, 0, t.len))
}

// Range returns every point within radius (inclusive) of anchor, except
// points equal to anchor. The order is unspecified.
func (t *Tree) Range(anchor geom.Point, radius float64) ([]geom.Point, error) {
	if err := t.checkDims(anchor); err != nil {
		return nil, err
	}
	if radius < 0 || math.IsNaN(radius) {
		return nil, fmt.Errorf("range with radius %v: %w", radius, ErrInvalidRadius)
	}
	if t.root == nil {
		return []geom.Point{}, nil
	}
	return t.root.rangeSearch(anchor, radius, 0, t.dims, []geom.Point{}), nil
}

// NearestNeighbor returns the closest point to anchor other than anchor
// itself, and its distance.
func (t *Tree) NearestNeighbor(anchor geom.Point) (geom.Point, float64, error) {
	if err := t.checkDims(anchor); err != nil {
		return nil, 0, err
	}
	if t.root == nil {
		return nil, 0, ErrEmptyTree
	}
	best := nnData{dist: math.Inf(1)}
	t.root.nearestNeighbor(anchor, 0, t.dims, &best)
	if best.point == nil {
		return nil, 0, ErrNoNeighbor
	}
	return best.point.Copy(), best.dist, nil
}

// KNearestNeighbors returns up to k points closest to anchor, nearest first.
// The anchor itself is never part of the result.
func (t *Tree) KNearestNeighbors(k int, anchor geom.Point) ([]geom.Point, error) {
	if err := t.checkDims(anchor); err != nil {
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
	t.root.kNearestNeighbors(anchor, 0, t.dims, queue)

	points := make([]geom.Point, 0, queue.Len())
	for _, p := range queue.Values() {
		points = append(points, p.Copy())
	}
	return points, nil
}
