package quadtree

import (
	"math"

	"github.com/go-sod/spatial/internal/geom"
	"github.com/go-sod/spatial/pkg/pqueue"
)

type quadrant int

// Children are kept in Z order.
const (
	nw quadrant = iota
	ne
	sw
	se
)

// A node is one of nil (an empty quadrant), *leaf or *internal. Operations
// dispatch on the concrete type with a type switch.
type node interface {
	region() region
}

// region is the square of side 2^k centred at (x, y). It includes its west and
// south edges and excludes the east and north ones, so that a region of side 1
// holds exactly one integer point and points on a dividing line stay east and
// north of it.
type region struct {
	x, y float64
	k    int
}

func (r region) half() float64 {
	return math.Ldexp(1, r.k-1)
}

func (r region) contains(p geom.Point) bool {
	h := r.half()
	dx, dy := float64(p.Dim(0))-r.x, float64(p.Dim(1))-r.y
	return dx >= -h && dx < h && dy >= -h && dy < h
}

// quadrantOf sends ties on either axis east and north.
func (r region) quadrantOf(p geom.Point) quadrant {
	east := float64(p.Dim(0)) >= r.x
	north := float64(p.Dim(1)) >= r.y
	switch {
	case north && !east:
		return nw
	case north && east:
		return ne
	case !east:
		return sw
	default:
		return se
	}
}

func (r region) child(q quadrant) region {
	off := math.Ldexp(1, r.k-2)
	c := region{x: r.x - off, y: r.y - off, k: r.k - 1}
	if q == ne || q == se {
		c.x = r.x + off
	}
	if q == nw || q == ne {
		c.y = r.y + off
	}
	return c
}

// minDistance is the distance from p to the nearest point of the square, zero
// when p lies inside it.
func (r region) minDistance(p geom.Point) float64 {
	h := r.half()
	dx := math.Max(math.Abs(float64(p.Dim(0))-r.x)-h, 0)
	dy := math.Max(math.Abs(float64(p.Dim(1))-r.y)-h, 0)
	return math.Hypot(dx, dy)
}

type leaf struct {
	reg    region
	points []geom.Point
}

func (l *leaf) region() region { return l.reg }

func (l *leaf) index(p geom.Point) int {
	for i := range l.points {
		if l.points[i].Equal(p) {
			return i
		}
	}
	return -1
}

type internal struct {
	reg      region
	children [4]node
}

func (n *internal) region() region { return n.reg }

func insert(n node, p geom.Point, reg region, bucketing int) (node, error) {
	switch n := n.(type) {
	case nil:
		return &leaf{reg: reg, points: []geom.Point{p}}, nil
	case *leaf:
		if len(n.points) < bucketing {
			n.points = append(n.points, p)
			return n, nil
		}
		return split(n, p, bucketing)
	case *internal:
		q := n.reg.quadrantOf(p)
		child, err := insert(n.children[q], p, n.reg.child(q), bucketing)
		if err != nil {
			return n, err
		}
		n.children[q] = child
		return n, nil
	default:
		panic("quadtree: unknown node type")
	}
}

// split promotes a full leaf. On failure the leaf is returned untouched.
func split(l *leaf, p geom.Point, bucketing int) (node, error) {
	if l.reg.k-1 < 0 {
		return l, ErrNegativeExponent
	}
	var promoted node = &internal{reg: l.reg}
	for _, pt := range append(append(make([]geom.Point, 0, len(l.points)+1), l.points...), p) {
		var err error
		if promoted, err = insert(promoted, pt, l.reg, bucketing); err != nil {
			return l, err
		}
	}
	return promoted, nil
}

func remove(n node, p geom.Point, bucketing int) (node, bool) {
	switch n := n.(type) {
	case nil:
		return nil, false
	case *leaf:
		i := n.index(p)
		if i < 0 {
			return n, false
		}
		n.points = append(n.points[:i], n.points[i+1:]...)
		if len(n.points) == 0 {
			return nil, true
		}
		return n, true
	case *internal:
		q := n.reg.quadrantOf(p)
		if n.children[q] == nil {
			return n, false
		}
		child, deleted := remove(n.children[q], p, bucketing)
		if !deleted {
			return n, false
		}
		n.children[q] = child
		return collapse(n, bucketing), true
	default:
		panic("quadtree: unknown node type")
	}
}

// collapse merges an internal node into a single leaf when none of its
// children is internal and either only one leaf remains or all remaining
// points fit in one bucket.
func collapse(n *internal, bucketing int) node {
	var (
		leaves int
		points []geom.Point
	)
	for _, c := range n.children {
		switch c := c.(type) {
		case nil:
		case *leaf:
			leaves++
			points = append(points, c.points...)
		case *internal:
			return n
		}
	}
	if len(points) == 0 {
		return nil
	}
	if leaves == 1 || len(points) <= bucketing {
		return &leaf{reg: n.reg, points: points}
	}
	return n
}

func search(n node, p geom.Point) bool {
	for n != nil {
		if !n.region().contains(p) {
			return false
		}
		switch c := n.(type) {
		case *leaf:
			return c.index(p) >= 0
		case *internal:
			n = c.children[c.reg.quadrantOf(p)]
		}
	}
	return false
}

func height(n node) int {
	switch n := n.(type) {
	case nil:
		return -1
	case *leaf:
		return 0
	case *internal:
		h := 0
		for _, c := range n.children {
			if c != nil {
				if ch := height(c) + 1; ch > h {
					h = ch
				}
			}
		}
		return h
	default:
		panic("quadtree: unknown node type")
	}
}

func count(n node) int {
	switch n := n.(type) {
	case nil:
		return 0
	case *leaf:
		return len(n.points)
	case *internal:
		total := 0
		for _, c := range n.children {
			total += count(c)
		}
		return total
	default:
		panic("quadtree: unknown node type")
	}
}

func collect(n node, dst []geom.Point) []geom.Point {
	switch n := n.(type) {
	case *leaf:
		for _, p := range n.points {
			dst = append(dst, p.Copy())
		}
	case *internal:
		for _, c := range n.children {
			dst = collect(c, dst)
		}
	}
	return dst
}

// visit calls fn on the child holding anchor first and then on every other
// present child that accept allows. accept is re-evaluated per sibling so the
// bound can tighten as the search proceeds.
func (n *internal) visit(anchor geom.Point, accept func(child node) bool, fn func(child node)) {
	first := n.reg.quadrantOf(anchor)
	if c := n.children[first]; c != nil {
		fn(c)
	}
	for q, c := range n.children {
		if quadrant(q) == first || c == nil {
			continue
		}
		if accept(c) {
			fn(c)
		}
	}
}

func rangeSearch(n node, anchor geom.Point, radius float64, results []geom.Point) []geom.Point {
	switch n := n.(type) {
	case *leaf:
		for _, p := range n.points {
			if !p.Equal(anchor) && geom.Distance(p, anchor) <= radius {
				results = append(results, p.Copy())
			}
		}
	case *internal:
		n.visit(anchor,
			func(c node) bool { return c.region().minDistance(anchor) <= radius },
			func(c node) { results = rangeSearch(c, anchor, radius, results) },
		)
	}
	return results
}

type nnData struct {
	point geom.Point
	dist  float64
}

func nearestNeighbor(n node, anchor geom.Point, best *nnData) {
	switch n := n.(type) {
	case *leaf:
		for _, p := range n.points {
			if p.Equal(anchor) {
				continue
			}
			if d := geom.Distance(p, anchor); d < best.dist {
				best.point, best.dist = p, d
			}
		}
	case *internal:
		n.visit(anchor,
			func(c node) bool { return c.region().minDistance(anchor) < best.dist },
			func(c node) { nearestNeighbor(c, anchor, best) },
		)
	}
}

func kNearestNeighbors(n node, anchor geom.Point, queue *pqueue.Queue[geom.Point]) {
	switch n := n.(type) {
	case *leaf:
		for _, p := range n.points {
			if !p.Equal(anchor) {
				queue.Enqueue(p, geom.Distance(p, anchor))
			}
		}
	case *internal:
		n.visit(anchor,
			func(c node) bool {
				worst, err := queue.LastPriority()
				return err != nil || !queue.Full() || c.region().minDistance(anchor) < worst
			},
			func(c node) { kNearestNeighbors(c, anchor, queue) },
		)
	}
}
