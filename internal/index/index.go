package index

import (
	"fmt"
	"strings"

	"github.com/go-sod/spatial/internal/geom"
)

type Kind string

const (
	KindKD   Kind = "KD"
	KindQuad Kind = "QUAD"
)

var ErrUnknownKind = fmt.Errorf("unknown index kind")

func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToUpper(strings.TrimSpace(s))); k {
	case KindKD, KindQuad:
		return k, nil
	default:
		return "", fmt.Errorf("parse kind %q: %w", s, ErrUnknownKind)
	}
}

// Index is a spatial index that may be shared between goroutines.
type Index interface {
	Kind() Kind
	Dims() int
	Insert(points ...geom.Point) (int, error)
	Delete(points ...geom.Point) (int, error)
	Search(p geom.Point) bool
	Range(anchor geom.Point, radius float64) ([]geom.Point, error)
	NearestNeighbor(anchor geom.Point) (geom.Point, float64, error)
	KNearestNeighbors(k int, anchor geom.Point) ([]geom.Point, error)
	Height() int
	Count() int
	Points() []geom.Point
}

type Stats struct {
	Kind   Kind `json:"kind"`
	Dims   int  `json:"dims"`
	Count  int  `json:"count"`
	Height int  `json:"height"`
}

func StatsOf(idx Index) Stats {
	return Stats{
		Kind:   idx.Kind(),
		Dims:   idx.Dims(),
		Count:  idx.Count(),
		Height: idx.Height(),
	}
}
