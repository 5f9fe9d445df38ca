package kdtree

import (
	"github.com/go-sod/spatial/internal/geom"
	"github.com/go-sod/spatial/pkg/pqueue"
)

type node struct {
	point  geom.Point
	height int
	left   *node
	right  *node
}

func height(n *node) int {
	if n == nil {
		return -1
	}
	return n.height
}

func (n *node) updateHeight() {
	n.height = height(n.left)
	if h := height(n.right); h > n.height {
		n.height = h
	}
	n.height++
}

func (n *node) count() int {
	if n == nil {
		return 0
	}
	return 1 + n.left.count() + n.right.count()
}

func (n *node) points(dst []geom.Point) []geom.Point {
	if n == nil {
		return dst
	}
	dst = n.left.points(dst)
	dst = append(dst, n.point.Copy())
	return n.right.points(dst)
}

func (n *node) insertLeft(p geom.Point, dim, dims int) {
	if n.left == nil {
		n.left = &node{point: p}
	} else {
		n.left.insert(p, (dim+1)%dims, dims)
	}
}

func (n *node) insertRight(p geom.Point, dim, dims int) {
	if n.right == nil {
		n.right = &node{point: p}
	} else {
		n.right.insert(p, (dim+1)%dims, dims)
	}
}

// insert descends as a BST on dim. Ties go right.
func (n *node) insert(p geom.Point, dim, dims int) {
	if p.Dim(dim) < n.point.Dim(dim) {
		n.insertLeft(p, dim, dims)
	} else {
		n.insertRight(p, dim, dims)
	}
	n.updateHeight()
}

// delete removes one occurrence of p from the subtree and returns the new
// subtree root along with whether anything was removed.
func (n *node) delete(p geom.Point, dim, dims int) (*node, bool) {
	var (
		next    = (dim + 1) % dims
		deleted bool
	)
	switch {
	case n.point.Equal(p):
		if n.left == nil && n.right == nil {
			return nil, true
		}
		if n.right == nil {
			n.right, n.left = n.left, nil
		}
		min := findMin(n.right, dim, next, dims)
		n.point = min.point
		n.right, _ = n.right.delete(min.point, next, dims)
		deleted = true
	case p.Dim(dim) < n.point.Dim(dim):
		if n.left != nil {
			n.left, deleted = n.left.delete(p, next, dims)
		}
	default:
		if n.right != nil {
			n.right, deleted = n.right.delete(p, next, dims)
		}
	}
	n.updateHeight()
	return n, deleted
}

// findMin returns the node holding the smallest coordinate on target within
// the subtree rooted at n, which splits on dim.
func findMin(n *node, target, dim, dims int) *node {
	if n == nil {
		return nil
	}
	next := (dim + 1) % dims
	if dim == target {
		// Everything right of n is >= n on target.
		if n.left == nil {
			return n
		}
		return minOn(target, n, findMin(n.left, target, next, dims))
	}
	return minOn(target, n, findMin(n.left, target, next, dims), findMin(n.right, target, next, dims))
}

func minOn(dim int, candidates ...*node) *node {
	var min *node
	for _, c := range candidates {
		if c == nil {
			continue
		}
		if min == nil || c.point.Dim(dim) < min.point.Dim(dim) {
			min = c
		}
	}
	return min
}

func (n *node) search(p geom.Point, dim, dims int) bool {
	for cur := n; cur != nil; dim = (dim + 1) % dims {
		if cur.point.Equal(p) {
			return true
		}
		if p.Dim(dim) < cur.point.Dim(dim) {
			cur = cur.left
		} else {
			cur = cur.right
		}
	}
	return false
}

// split orders the children so the one on the anchor's side of the splitting
// hyperplane comes first.
func (n *node) split(anchor geom.Point, dim int) (near, far *node) {
	if anchor.Dim(dim) < n.point.Dim(dim) {
		return n.left, n.right
	}
	return n.right, n.left
}

func (n *node) rangeSearch(anchor geom.Point, radius float64, dim, dims int, results []geom.Point) []geom.Point {
	if !n.point.Equal(anchor) && geom.Distance(n.point, anchor) <= radius {
		results = append(results, n.point.Copy())
	}
	next := (dim + 1) % dims
	near, far := n.split(anchor, dim)
	if near != nil {
		results = near.rangeSearch(anchor, radius, next, dims, results)
	}
	if far != nil && geom.AxisDistance(anchor, n.point, dim) <= radius {
		results = far.rangeSearch(anchor, radius, next, dims, results)
	}
	return results
}

type nnData struct {
	point geom.Point
	dist  float64
}

func (n *node) nearestNeighbor(anchor geom.Point, dim, dims int, best *nnData) {
	if !n.point.Equal(anchor) {
		if d := geom.Distance(n.point, anchor); d < best.dist {
			best.point, best.dist = n.point, d
		}
	}
	next := (dim + 1) % dims
	near, far := n.split(anchor, dim)
	if near != nil {
		near.nearestNeighbor(anchor, next, dims, best)
	}
	if far != nil && geom.AxisDistance(anchor, n.point, dim) < best.dist {
		far.nearestNeighbor(anchor, next, dims, best)
	}
}

func (n *node) kNearestNeighbors(anchor geom.Point, dim, dims int, queue *pqueue.Queue[geom.Point]) {
	if !n.point.Equal(anchor) {
		queue.Enqueue(n.point, geom.Distance(n.point, anchor))
	}
	next := (dim + 1) % dims
	near, far := n.split(anchor, dim)
	if near != nil {
		near.kNearestNeighbors(anchor, next, dims, queue)
	}
	if far == nil {
		return
	}
	if worst, err := queue.LastPriority(); err != nil || !queue.Full() || geom.AxisDistance(anchor, n.point, dim) < worst {
		far.kNearestNeighbors(anchor, next, dims, queue)
	}
}
