package query

import (
	"github.com/go-sod/spatial/internal/geom"
	"github.com/go-sod/spatial/internal/index"
	"github.com/google/uuid"
)

type createRequest struct {
	Kind      string `json:"kind"`
	Dims      int    `json:"dims"`
	K         *int   `json:"k"`
	Bucketing int    `json:"bucketing"`
}

type indexResponse struct {
	ID uuid.UUID `json:"id"`
	index.Stats
}

type listResponse struct {
	Indexes []indexResponse `json:"indexes"`
}

type pointsRequest struct {
	Points []geom.Point `json:"points"`
}

type insertResponse struct {
	Inserted int `json:"inserted"`
}

type deleteResponse struct {
	Deleted int `json:"deleted"`
}

type searchRequest struct {
	Point geom.Point `json:"point"`
}

type searchResponse struct {
	Found bool `json:"found"`
}

type rangeRequest struct {
	Anchor geom.Point `json:"anchor"`
	Radius float64    `json:"radius"`
}

type rangeResponse struct {
	Points []geom.Point `json:"points"`
}

type nearestRequest struct {
	Anchor geom.Point `json:"anchor"`
}

type nearestResponse struct {
	Point    geom.Point `json:"point"`
	Distance float64    `json:"distance"`
}

type knnRequest struct {
	K       int          `json:"k"`
	Anchors []geom.Point `json:"anchors"`
}

type knnResult struct {
	Anchor geom.Point   `json:"anchor"`
	Points []geom.Point `json:"points"`
}

type knnResponse struct {
	Results []knnResult `json:"results"`
}
