package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-sod/spatial/internal/logging"
)

const contentTypeJSON = "application/json"

type errorResponse struct {
	Error string `json:"error"`
}

func DecodeErr(ctx context.Context, w http.ResponseWriter, err error) {
	var (
		syntaxErr      *json.SyntaxError
		unmarshalError *json.UnmarshalTypeError
	)
	switch {
	case errors.As(err, &syntaxErr):
		RespBadRequest(ctx, w, "malformed json at position %v", syntaxErr.Offset)
	case errors.Is(err, io.ErrUnexpectedEOF):
		RespBadRequest(ctx, w, "malformed json")
	case errors.As(err, &unmarshalError):
		RespBadRequest(ctx, w, "invalid value %v at position %v", unmarshalError.Field, unmarshalError.Offset)
	case strings.HasPrefix(err.Error(), "json: unknown field"):
		fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
		RespBadRequest(ctx, w, "unknown field %s", fieldName)
	case errors.Is(err, io.EOF):
		RespBadRequest(ctx, w, "body must not be empty")
	case err.Error() == "http: request body too large":
		RespError(ctx, w, http.StatusRequestEntityTooLarge, "request body too large")
	default:
		RespInternalError(ctx, w, "failed to decode json %v", err)
	}
}

// DecodeJSON checks the method and content type, limits the body to
// maxBytes and decodes it into dst. It writes the error response itself and
// reports whether the handler may continue.
func DecodeJSON(ctx context.Context, w http.ResponseWriter, r *http.Request, maxBytes int64, dst interface{}) bool {
	logger := logging.FromContext(ctx)
	if r.Method != http.MethodPost {
		logger.Debugf("method %v is not allowed", r.Method)
		RespError(ctx, w, http.StatusMethodNotAllowed, fmt.Sprintf("method %v is not allowed", r.Method))
		return false
	}
	if t := r.Header.Get("content-type"); len(t) < len(contentTypeJSON) || t[:len(contentTypeJSON)] != contentTypeJSON {
		logger.Debugf("content-type %q is not application/json", t)
		RespError(ctx, w, http.StatusUnsupportedMediaType, "content-type is not application/json")
		return false
	}

	defer r.Body.Close()

	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	d := json.NewDecoder(r.Body)
	d.DisallowUnknownFields()
	if err := d.Decode(dst); err != nil {
		DecodeErr(ctx, w, err)
		return false
	}
	return true
}

func RespJSON(ctx context.Context, w http.ResponseWriter, status int, v interface{}) {
	bytes, err := json.Marshal(v)
	if err != nil {
		RespInternalError(ctx, w, "failed to encode output json %v", err)
		return
	}
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	_, _ = w.Write(bytes)
}

func RespError(ctx context.Context, w http.ResponseWriter, status int, msg string) {
	bytes, _ := json.Marshal(errorResponse{Error: msg})
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	_, _ = w.Write(bytes)
}

func RespBadRequest(ctx context.Context, w http.ResponseWriter, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	logging.FromContext(ctx).Debug(msg)
	RespError(ctx, w, http.StatusBadRequest, msg)
}

func RespInternalError(ctx context.Context, w http.ResponseWriter, format string, args ...interface{}) {
	logging.FromContext(ctx).Errorf(format, args...)
	RespError(ctx, w, http.StatusInternalServerError, "Internal error")
}
