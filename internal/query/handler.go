package query

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-sod/spatial/internal/geom"
	"github.com/go-sod/spatial/internal/httputil"
	"github.com/go-sod/spatial/internal/index"
	"github.com/go-sod/spatial/internal/logging"
	"github.com/go-sod/spatial/internal/metrics"
	"github.com/go-sod/spatial/pkg/container/kdtree"
	"github.com/go-sod/spatial/pkg/container/quadtree"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const Prefix = "/indexes"

var ErrBatchTooLarge = fmt.Errorf("batch is too large")

// NewHandler serves the index collection under Prefix:
//
//	POST   /indexes                create an index
//	GET    /indexes                list indexes
//	GET    /indexes/{id}           index stats
//	DELETE /indexes/{id}           drop an index
//	POST   /indexes/{id}/{op}      points, delete, search, range, nearest, knn
func NewHandler(cfg *Config, registry *index.Registry) (http.Handler, error) {
	if cfg == nil || registry == nil {
		return nil, fmt.Errorf("query handler needs a config and a registry")
	}
	return &handler{
		cfg:      cfg,
		registry: registry,
	}, nil
}

type handler struct {
	cfg      *Config
	registry *index.Registry
}

func (h *handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.RequestTimeout)
	defer cancel()

	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, Prefix), "/")
	if rest == "" {
		switch r.Method {
		case http.MethodGet:
			h.list(ctx, w)
		default:
			h.create(ctx, w, r)
		}
		return
	}

	parts := strings.Split(rest, "/")
	if len(parts) > 2 {
		httputil.RespError(ctx, w, http.StatusNotFound, fmt.Sprintf("unknown path %s", r.URL.Path))
		return
	}
	id, err := uuid.Parse(parts[0])
	if err != nil {
		httputil.RespBadRequest(ctx, w, "invalid index id %q", parts[0])
		return
	}

	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			h.stats(ctx, w, id)
		case http.MethodDelete:
			h.drop(ctx, w, id)
		default:
			httputil.RespError(ctx, w, http.StatusMethodNotAllowed, fmt.Sprintf("method %v is not allowed", r.Method))
		}
		return
	}

	idx, err := h.registry.Get(id)
	if err != nil {
		respErr(ctx, w, err)
		return
	}
	switch parts[1] {
	case "points":
		h.insert(ctx, w, r, idx)
	case "delete":
		h.delete(ctx, w, r, idx)
	case "search":
		h.search(ctx, w, r, idx)
	case "range":
		h.rangeSearch(ctx, w, r, idx)
	case "nearest":
		h.nearest(ctx, w, r, idx)
	case "knn":
		h.knn(ctx, w, r, idx)
	default:
		httputil.RespError(ctx, w, http.StatusNotFound, fmt.Sprintf("unknown operation %s", parts[1]))
	}
}

func (h *handler) create(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if !httputil.DecodeJSON(ctx, w, r, h.cfg.MaxBodyBytes, &req) {
		return
	}
	var kind index.Kind
	if req.Kind != "" {
		k, err := index.ParseKind(req.Kind)
		if err != nil {
			respErr(ctx, w, err)
			return
		}
		kind = k
	}
	id, idx, err := h.registry.Create(ctx, index.Spec{
		Kind:      kind,
		Dims:      req.Dims,
		K:         req.K,
		Bucketing: req.Bucketing,
	})
	if err != nil {
		respErr(ctx, w, err)
		return
	}
	httputil.RespJSON(ctx, w, http.StatusCreated, indexResponse{ID: id, Stats: index.StatsOf(idx)})
}

func (h *handler) list(ctx context.Context, w http.ResponseWriter) {
	resp := listResponse{Indexes: []indexResponse{}}
	for _, id := range h.registry.IDs() {
		idx, err := h.registry.Get(id)
		if err != nil {
			// dropped after IDs was taken
			continue
		}
		resp.Indexes = append(resp.Indexes, indexResponse{ID: id, Stats: index.StatsOf(idx)})
	}
	httputil.RespJSON(ctx, w, http.StatusOK, resp)
}

func (h *handler) stats(ctx context.Context, w http.ResponseWriter, id uuid.UUID) {
	idx, err := h.registry.Get(id)
	if err != nil {
		respErr(ctx, w, err)
		return
	}
	httputil.RespJSON(ctx, w, http.StatusOK, indexResponse{ID: id, Stats: index.StatsOf(idx)})
}

func (h *handler) drop(ctx context.Context, w http.ResponseWriter, id uuid.UUID) {
	if err := h.registry.Drop(ctx, id); err != nil {
		respErr(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) insert(ctx context.Context, w http.ResponseWriter, r *http.Request, idx index.Index) {
	var req pointsRequest
	if !httputil.DecodeJSON(ctx, w, r, h.cfg.MaxBodyBytes, &req) {
		return
	}
	start := time.Now()
	n, err := idx.Insert(req.Points...)
	metrics.Record(ctx, "insert", string(idx.Kind()), start, n, err)
	if err != nil {
		respErr(ctx, w, err)
		return
	}
	logging.FromContext(ctx).Debugf("inserted %d points into %s index", n, idx.Kind())
	httputil.RespJSON(ctx, w, http.StatusOK, insertResponse{Inserted: n})
}

func (h *handler) delete(ctx context.Context, w http.ResponseWriter, r *http.Request, idx index.Index) {
	var req pointsRequest
	if !httputil.DecodeJSON(ctx, w, r, h.cfg.MaxBodyBytes, &req) {
		return
	}
	start := time.Now()
	n, err := idx.Delete(req.Points...)
	metrics.Record(ctx, "delete", string(idx.Kind()), start, n, err)
	if err != nil {
		respErr(ctx, w, err)
		return
	}
	httputil.RespJSON(ctx, w, http.StatusOK, deleteResponse{Deleted: n})
}

func (h *handler) search(ctx context.Context, w http.ResponseWriter, r *http.Request, idx index.Index) {
	var req searchRequest
	if !httputil.DecodeJSON(ctx, w, r, h.cfg.MaxBodyBytes, &req) {
		return
	}
	start := time.Now()
	found := idx.Search(req.Point)
	size := 0
	if found {
		size = 1
	}
	metrics.Record(ctx, "search", string(idx.Kind()), start, size, nil)
	httputil.RespJSON(ctx, w, http.StatusOK, searchResponse{Found: found})
}

func (h *handler) rangeSearch(ctx context.Context, w http.ResponseWriter, r *http.Request, idx index.Index) {
	var req rangeRequest
	if !httputil.DecodeJSON(ctx, w, r, h.cfg.MaxBodyBytes, &req) {
		return
	}
	start := time.Now()
	points, err := idx.Range(req.Anchor, req.Radius)
	metrics.Record(ctx, "range", string(idx.Kind()), start, len(points), err)
	if err != nil {
		respErr(ctx, w, err)
		return
	}
	httputil.RespJSON(ctx, w, http.StatusOK, rangeResponse{Points: nonNil(points)})
}

func (h *handler) nearest(ctx context.Context, w http.ResponseWriter, r *http.Request, idx index.Index) {
	var req nearestRequest
	if !httputil.DecodeJSON(ctx, w, r, h.cfg.MaxBodyBytes, &req) {
		return
	}
	start := time.Now()
	point, dist, err := idx.NearestNeighbor(req.Anchor)
	metrics.Record(ctx, "nearest", string(idx.Kind()), start, len(point), err)
	if err != nil {
		respErr(ctx, w, err)
		return
	}
	httputil.RespJSON(ctx, w, http.StatusOK, nearestResponse{Point: point, Distance: dist})
}

func (h *handler) knn(ctx context.Context, w http.ResponseWriter, r *http.Request, idx index.Index) {
	var req knnRequest
	if !httputil.DecodeJSON(ctx, w, r, h.cfg.MaxBodyBytes, &req) {
		return
	}
	if len(req.Anchors) > h.cfg.MaxBatchLen {
		respErr(ctx, w, fmt.Errorf("%d anchors, max allowed is %d: %w", len(req.Anchors), h.cfg.MaxBatchLen, ErrBatchTooLarge))
		return
	}

	results := make([]knnResult, len(req.Anchors))
	errGrp, grpCtx := errgroup.WithContext(ctx)
	for i := range req.Anchors {
		i := i
		errGrp.Go(func() error {
			if err := grpCtx.Err(); err != nil {
				return err
			}
			start := time.Now()
			points, err := idx.KNearestNeighbors(req.K, req.Anchors[i])
			metrics.Record(grpCtx, "knn", string(idx.Kind()), start, len(points), err)
			if err != nil {
				return fmt.Errorf("knn for anchor %v: %w", req.Anchors[i], err)
			}
			results[i] = knnResult{Anchor: req.Anchors[i], Points: nonNil(points)}
			return nil
		})
	}
	if err := errGrp.Wait(); err != nil {
		respErr(ctx, w, err)
		return
	}
	httputil.RespJSON(ctx, w, http.StatusOK, knnResponse{Results: results})
}

func nonNil(points []geom.Point) []geom.Point {
	if points == nil {
		return []geom.Point{}
	}
	return points
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, index.ErrNotFound),
		errors.Is(err, kdtree.ErrEmptyTree),
		errors.Is(err, kdtree.ErrNoNeighbor),
		errors.Is(err, quadtree.ErrEmptyTree),
		errors.Is(err, quadtree.ErrNoNeighbor):
		return http.StatusNotFound
	case errors.Is(err, index.ErrTooManyIndex):
		return http.StatusConflict
	case errors.Is(err, index.ErrUnknownKind),
		errors.Is(err, index.ErrMissingK),
		errors.Is(err, ErrBatchTooLarge),
		errors.Is(err, geom.ErrDimNotEqual),
		errors.Is(err, kdtree.ErrInvalidDims),
		errors.Is(err, kdtree.ErrInvalidK),
		errors.Is(err, kdtree.ErrInvalidRadius),
		errors.Is(err, quadtree.ErrNegativeExponent),
		errors.Is(err, quadtree.ErrInvalidBucketing),
		errors.Is(err, quadtree.ErrInvalidK),
		errors.Is(err, quadtree.ErrInvalidRadius),
		errors.Is(err, quadtree.ErrOutOfRegion):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func respErr(ctx context.Context, w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		httputil.RespInternalError(ctx, w, "query failed: %v", err)
		return
	}
	logging.FromContext(ctx).Debugf("query failed: %v", err)
	httputil.RespError(ctx, w, status, err.Error())
}
