package kdtree

import (
	"errors"
	"math"
	"sort"
	"testing"

	"github.com/go-sod/spatial/internal/geom"
	"github.com/valyala/fastrand"
)

func randomPoints(n, dims, span int) []geom.Point {
	points := make([]geom.Point, n)
	for i := range points {
		p := make(geom.Point, dims)
		for d := range p {
			p[d] = int(fastrand.Uint32n(uint32(2*span+1))) - span
		}
		points[i] = p
	}
	return points
}

func mustTree(t *testing.T, dims int, points ...geom.Point) *Tree {
	t.Helper()
	tree, err := New(dims)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, p := range points {
		if err := tree.Insert(p); err != nil {
			t.Fatalf("insert %v: %v", p, err)
		}
	}
	return tree
}

// checkInvariants verifies the splitting rule and the cached heights.
func checkInvariants(t *testing.T, n *node, dim, dims int) int {
	t.Helper()
	if n == nil {
		return -1
	}
	walk(n.left, func(p geom.Point) {
		if p.Dim(dim) >= n.point.Dim(dim) {
			t.Fatalf("left point %v is not below %v on dim %d", p, n.point, dim)
		}
	})
	walk(n.right, func(p geom.Point) {
		if p.Dim(dim) < n.point.Dim(dim) {
			t.Fatalf("right point %v is below %v on dim %d", p, n.point, dim)
		}
	})
	lh := checkInvariants(t, n.left, (dim+1)%dims, dims)
	rh := checkInvariants(t, n.right, (dim+1)%dims, dims)
	expected := int(math.Max(float64(lh), float64(rh))) + 1
	if n.height != expected {
		t.Fatalf("node %v caches height %d, expected %d", n.point, n.height, expected)
	}
	return expected
}

func walk(n *node, fn func(p geom.Point)) {
	if n == nil {
		return
	}
	fn(n.point)
	walk(n.left, fn)
	walk(n.right, fn)
}

func bruteRange(points []geom.Point, anchor geom.Point, radius float64) []geom.Point {
	var out []geom.Point
	for _, p := range points {
		if !p.Equal(anchor) && geom.Distance(p, anchor) <= radius {
			out = append(out, p)
		}
	}
	return out
}

func sortPoints(points []geom.Point) {
	sort.Slice(points, func(i, j int) bool {
		for d := range points[i] {
			if points[i][d] != points[j][d] {
				return points[i][d] < points[j][d]
			}
		}
		return false
	})
}

func samePoints(a, b []geom.Point) bool {
	if len(a) != len(b) {
		return false
	}
	a = append([]geom.Point(nil), a...)
	b = append([]geom.Point(nil), b...)
	sortPoints(a)
	sortPoints(b)
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

func TestNew(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name        string
		dims        int
		expectedErr error
	}{
		{name: "positive", dims: 3},
		{name: "zero", dims: 0, expectedErr: ErrInvalidDims},
		{name: "negative", dims: -1, expectedErr: ErrInvalidDims},
	}
	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			tree, err := New(test.dims)
			if !errors.Is(err, test.expectedErr) {
				t.Fatalf("creating the tree, error got: %v, expected: %v", err, test.expectedErr)
			}
			if err == nil && (tree.Height() != -1 || tree.Count() != 0) {
				t.Errorf("a new tree must be empty, got height %d count %d", tree.Height(), tree.Count())
			}
		})
	}
}

func TestTree_InsertShape(t *testing.T) {
	t.Parallel()
	tree := mustTree(t, 2,
		geom.Point{5, 5},
		geom.Point{3, 8},
		geom.Point{7, 1},
		geom.Point{5, 0},
		geom.Point{2, 9},
	)
	root := tree.root
	if !root.point.Equal(geom.Point{5, 5}) {
		t.Fatalf("the root got: %v", root.point)
	}
	if !root.left.point.Equal(geom.Point{3, 8}) {
		t.Errorf("x=3 < 5 must go left, got: %v", root.left.point)
	}
	if !root.right.point.Equal(geom.Point{7, 1}) {
		t.Errorf("x=7 >= 5 must go right, got: %v", root.right.point)
	}
	// Tie on x goes right, then y=0 < 1 goes left.
	if root.right.left == nil || !root.right.left.point.Equal(geom.Point{5, 0}) {
		t.Errorf("the tie on x must go right then left on y")
	}
	if root.left.right == nil || !root.left.right.point.Equal(geom.Point{2, 9}) {
		t.Errorf("y=9 >= 8 must go right below (3, 8)")
	}
	if tree.Height() != 2 {
		t.Errorf("height got: %d, expected: 2", tree.Height())
	}
	checkInvariants(t, tree.root, 0, tree.dims)
}

func TestTree_InsertDimensionMismatch(t *testing.T) {
	t.Parallel()
	tree := mustTree(t, 3)
	if err := tree.Insert(geom.Point{1, 2}); !errors.Is(err, geom.ErrDimNotEqual) {
		t.Errorf("insert of a 2-d point into a 3-d tree, error got: %v, expected: %v", err, geom.ErrDimNotEqual)
	}
	if tree.Count() != 0 {
		t.Errorf("a failed insert must not change the tree")
	}
}

func TestTree_InsertCopiesPoint(t *testing.T) {
	t.Parallel()
	p := geom.Point{1, 1}
	tree := mustTree(t, 2, p)
	p[0] = 42
	if !tree.Search(geom.Point{1, 1}) {
		t.Errorf("mutating the caller's point must not affect the tree")
	}
}

func TestTree_Delete(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		points   []geom.Point
		remove   geom.Point
		deleted  bool
		expected int
	}{
		{
			name:     "leaf",
			points:   []geom.Point{{5, 5}, {3, 3}},
			remove:   geom.Point{3, 3},
			deleted:  true,
			expected: 1,
		},
		{
			name:     "root_with_right",
			points:   []geom.Point{{5, 5}, {7, 2}, {6, 8}, {9, 1}},
			remove:   geom.Point{5, 5},
			deleted:  true,
			expected: 3,
		},
		{
			name:     "root_with_left_only",
			points:   []geom.Point{{5, 5}, {3, 3}, {1, 7}, {4, 1}},
			remove:   geom.Point{5, 5},
			deleted:  true,
			expected: 3,
		},
		{
			name:     "absent",
			points:   []geom.Point{{5, 5}, {3, 3}},
			remove:   geom.Point{5, 4},
			deleted:  false,
			expected: 2,
		},
		{
			name:     "last_point",
			points:   []geom.Point{{5, 5}},
			remove:   geom.Point{5, 5},
			deleted:  true,
			expected: 0,
		},
	}
	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			tree := mustTree(t, 2, test.points...)
			deleted, err := tree.Delete(test.remove)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if deleted != test.deleted {
				t.Errorf("delete reported %v, expected %v", deleted, test.deleted)
			}
			if tree.Count() != test.expected || tree.Len() != test.expected {
				t.Errorf("count after delete got: %d/%d, expected: %d", tree.Count(), tree.Len(), test.expected)
			}
			if test.deleted && tree.Search(test.remove) {
				t.Errorf("the deleted point %v is still found", test.remove)
			}
			for _, p := range test.points {
				if !p.Equal(test.remove) && !tree.Search(p) {
					t.Errorf("the point %v was lost", p)
				}
			}
			checkInvariants(t, tree.root, 0, tree.dims)
		})
	}
}

func TestTree_DeleteEmpty(t *testing.T) {
	t.Parallel()
	tree := mustTree(t, 2)
	deleted, err := tree.Delete(geom.Point{1, 1})
	if err != nil || deleted {
		t.Errorf("delete on an empty tree got: %v, %v", deleted, err)
	}
	if tree.Height() != -1 {
		t.Errorf("height of an empty tree got: %d", tree.Height())
	}
}

func TestFindMin(t *testing.T) {
	t.Parallel()
	tree := mustTree(t, 2,
		geom.Point{50, 50},
		geom.Point{30, 80},
		geom.Point{70, 10},
		geom.Point{20, 90},
		geom.Point{40, 5},
		geom.Point{60, 70},
	)
	tests := []struct {
		name     string
		target   int
		expected geom.Point
	}{
		{name: "x", target: 0, expected: geom.Point{20, 90}},
		{name: "y", target: 1, expected: geom.Point{40, 5}},
	}
	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			got := findMin(tree.root, test.target, 0, 2)
			if got == nil || got.point.Dim(test.target) != test.expected.Dim(test.target) {
				t.Errorf("the minimum on dim %d got: %v, expected: %v", test.target, got, test.expected)
			}
		})
	}
}

func TestTree_RandomMembership(t *testing.T) {
	t.Parallel()
	for _, dims := range []int{1, 2, 3, 5} {
		points := randomPoints(300, dims, 20)
		tree := mustTree(t, dims, points...)
		checkInvariants(t, tree.root, 0, dims)

		live := map[string]int{}
		for _, p := range points {
			live[p.String()]++
		}
		for i, p := range points {
			if i%2 == 1 {
				continue
			}
			deleted, err := tree.Delete(p)
			if err != nil || !deleted {
				t.Fatalf("delete of inserted %v got: %v, %v", p, deleted, err)
			}
			live[p.String()]--
			checkInvariants(t, tree.root, 0, dims)
		}
		total := 0
		for _, p := range points {
			if got, expected := tree.Search(p), live[p.String()] > 0; got != expected {
				t.Fatalf("search %v got: %v, expected: %v", p, got, expected)
			}
		}
		for _, n := range live {
			total += n
		}
		if tree.Count() != total {
			t.Errorf("count got: %d, expected: %d", tree.Count(), total)
		}
		if len(tree.Points()) != total {
			t.Errorf("points got: %d, expected: %d", len(tree.Points()), total)
		}
	}
}

func TestTree_RangeMatchesBruteForce(t *testing.T) {
	t.Parallel()
	for _, dims := range []int{1, 2, 3, 4} {
		points := randomPoints(250, dims, 50)
		tree := mustTree(t, dims, points...)
		for i := 0; i < 50; i++ {
			anchor := randomPoints(1, dims, 60)[0]
			if i%5 == 0 {
				anchor = points[i].Copy()
			}
			radius := float64(fastrand.Uint32n(40))
			got, err := tree.Range(anchor, radius)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			expected := bruteRange(points, anchor, radius)
			if !samePoints(got, expected) {
				t.Fatalf("range around %v with radius %v got %d points, expected %d", anchor, radius, len(got), len(expected))
			}
		}
	}
}

func TestTree_RangeErrors(t *testing.T) {
	t.Parallel()
	tree := mustTree(t, 2, geom.Point{1, 1})
	if _, err := tree.Range(geom.Point{1, 1}, -1); !errors.Is(err, ErrInvalidRadius) {
		t.Errorf("range with a negative radius, error got: %v, expected: %v", err, ErrInvalidRadius)
	}
	if _, err := tree.Range(geom.Point{1}, 1); !errors.Is(err, geom.ErrDimNotEqual) {
		t.Errorf("range with a 1-d anchor, error got: %v, expected: %v", err, geom.ErrDimNotEqual)
	}
	got, err := mustTree(t, 2).Range(geom.Point{0, 0}, 10)
	if err != nil || len(got) != 0 {
		t.Errorf("range on an empty tree got: %v, %v", got, err)
	}
}

func TestTree_NearestNeighbor(t *testing.T) {
	t.Parallel()
	if _, _, err := mustTree(t, 2).NearestNeighbor(geom.Point{0, 0}); !errors.Is(err, ErrEmptyTree) {
		t.Errorf("nn on an empty tree, error got: %v, expected: %v", err, ErrEmptyTree)
	}
	if _, _, err := mustTree(t, 2, geom.Point{0, 0}).NearestNeighbor(geom.Point{0, 0}); !errors.Is(err, ErrNoNeighbor) {
		t.Errorf("nn with only the anchor stored, error got: %v, expected: %v", err, ErrNoNeighbor)
	}

	for _, dims := range []int{1, 2, 3} {
		points := randomPoints(200, dims, 1000)
		tree := mustTree(t, dims, points...)
		for i := 0; i < 50; i++ {
			anchor := randomPoints(1, dims, 1200)[0]
			_, dist, err := tree.NearestNeighbor(anchor)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			expected := math.Inf(1)
			for _, p := range points {
				if !p.Equal(anchor) {
					expected = math.Min(expected, geom.Distance(p, anchor))
				}
			}
			if dist != expected {
				t.Fatalf("nn distance from %v got: %f, expected: %f", anchor, dist, expected)
			}
		}
	}
}

func TestTree_NearestNeighborWideData(t *testing.T) {
	t.Parallel()
	tree := mustTree(t, 2, geom.Point{-1000000, 0}, geom.Point{1000000, 0})
	p, dist, err := tree.NearestNeighbor(geom.Point{900000, 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !p.Equal(geom.Point{1000000, 0}) || dist != 100000 {
		t.Errorf("nn on wide data got: %v at %f", p, dist)
	}
}

func TestTree_KNearestNeighbors(t *testing.T) {
	t.Parallel()
	if _, err := mustTree(t, 2).KNearestNeighbors(0, geom.Point{0, 0}); !errors.Is(err, ErrInvalidK) {
		t.Errorf("knn with k=0, error got: %v, expected: %v", err, ErrInvalidK)
	}

	for _, dims := range []int{1, 2, 3} {
		points := randomPoints(150, dims, 30)
		tree := mustTree(t, dims, points...)
		for _, k := range []int{1, 3, 10, 200} {
			anchor := points[int(fastrand.Uint32n(uint32(len(points))))]
			got, err := tree.KNearestNeighbors(k, anchor)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			var distances []float64
			for _, p := range points {
				if !p.Equal(anchor) {
					distances = append(distances, geom.Distance(p, anchor))
				}
			}
			sort.Float64s(distances)
			expectedLen := k
			if len(distances) < k {
				expectedLen = len(distances)
			}
			if len(got) != expectedLen {
				t.Fatalf("knn size got: %d, expected: %d", len(got), expectedLen)
			}
			for i, p := range got {
				if p.Equal(anchor) {
					t.Fatalf("knn returned the anchor %v", anchor)
				}
				if d := geom.Distance(p, anchor); d != distances[i] {
					t.Fatalf("knn[%d] distance got: %f, expected: %f", i, d, distances[i])
				}
			}
		}
	}
}
