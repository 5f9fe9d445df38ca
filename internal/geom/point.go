package geom

import (
	"strconv"
	"strings"
)

// Point is a fixed-length integer coordinate vector. Points are plain slices,
// so containers that keep them hand out copies.
type Point []int

func NewPoint(coords []int) Point {
	return coords
}

func (v Point) Dimensions() int {
	return len(v)
}

func (v Point) Dim(idx int) int {
	return v[idx]
}

func (v Point) Points() []int {
	return v
}

func (v Point) Copy() Point {
	if v == nil {
		return nil
	}
	var v1 = make(Point, len(v))
	copy(v1, v)
	return v1
}

func (v Point) SizeEqual(vec Point) bool {
	return len(v) == len(vec)
}

func (v Point) Equal(vec Point) bool {
	if len(v) != len(vec) {
		return false
	}
	for i, value := range v {
		if vec[i] != value {
			return false
		}
	}
	return true
}

func (v Point) String() string {
	var b strings.Builder
	b.WriteByte('(')
	for i := range v {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(strconv.Itoa(v[i]))
	}
	b.WriteByte(')')
	return b.String()
}
