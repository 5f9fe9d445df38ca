package geom

import (
	"fmt"
	"math"
)

var ErrDimNotEqual = fmt.Errorf("vectors dimension is not equal")

func EuclideanDistance(vec, vec1 []int) (float64, error) {
	var d float64
	if len(vec) != len(vec1) {
		return 0.0, ErrDimNotEqual
	}

	for i := 0; i < len(vec); i++ {
		diff := float64(vec[i]) - float64(vec1[i])
		d += diff * diff
	}
	return math.Sqrt(d), nil
}

// Distance is EuclideanDistance for points already known to share a dimension.
// It panics on a mismatch, which is always a caller bug inside the containers.
func Distance(p, p1 Point) float64 {
	d, err := EuclideanDistance(p, p1)
	if err != nil {
		panic(fmt.Errorf("distance between %v and %v: %w", p, p1, err))
	}
	return d
}

// AxisDistance is the distance from vec to the splitting hyperplane through
// vec1 on dimension dim.
func AxisDistance(vec, vec1 Point, dim int) float64 {
	return math.Abs(float64(vec1.Dim(dim)) - float64(vec.Dim(dim)))
}
