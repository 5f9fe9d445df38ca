package server

import (
	"context"
	"errors"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func TestServer_ServeHTTPHandler(t *testing.T) {
	srv, err := New("127.0.0.1:0", WithMaxConns(4), WithShutdownTimeout(time.Second))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	mux := http.NewServeMux()
	mux.Handle("/health", HandleHealth(ctx))

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ServeHTTPHandler(ctx, mux)
	}()

	resp, err := http.Get("http://" + srv.Addr() + "/health")
	require.NoError(t, err)
	body, err := ioutil.ReadAll(resp.Body)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status": "ok"}`, string(body))

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop after the context was cancelled")
	}
}

func TestHandleHealth_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	w := httptest.NewRecorder()
	HandleHealth(ctx).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestServer_ServeGRPC(t *testing.T) {
	srv, err := New("127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	grpcSrv, hs := NewHealthGRPC()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ServeGRPC(ctx, grpcSrv)
	}()

	dialCtx, dialCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer dialCancel()
	conn, err := grpc.DialContext(dialCtx, srv.Addr(), grpc.WithInsecure(), grpc.WithBlock())
	require.NoError(t, err)
	defer conn.Close()

	resp, err := healthpb.NewHealthClient(conn).Check(dialCtx, &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.Status)

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("grpc server did not stop after the context was cancelled")
	}
}

func TestRun_FailureStopsOthers(t *testing.T) {
	httpSrv, err := New("127.0.0.1:0")
	require.NoError(t, err)
	grpcListener, err := New("127.0.0.1:0")
	require.NoError(t, err)
	grpcSrv, _ := NewHealthGRPC()

	failure := errors.New("listener broke")
	errCh := make(chan error, 1)
	go func() {
		errCh <- Run(context.Background(),
			func(ctx context.Context) error {
				return httpSrv.ServeHTTPHandler(ctx, http.NewServeMux())
			},
			func(ctx context.Context) error {
				return grpcListener.ServeGRPC(ctx, grpcSrv)
			},
			func(ctx context.Context) error {
				return failure
			},
		)
	}()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, failure)
	case <-time.After(5 * time.Second):
		t.Fatal("a failed server must stop the others")
	}
}

func TestRun_ParentCancelled(t *testing.T) {
	srv, err := New("127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- Run(ctx,
			func(ctx context.Context) error {
				return srv.ServeHTTPHandler(ctx, http.NewServeMux())
			},
			func(ctx context.Context) error {
				<-ctx.Done()
				return nil
			},
		)
	}()
	cancel()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("servers did not stop after the context was cancelled")
	}
}
