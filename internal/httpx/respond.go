package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/ayush/socialnet/backend/internal/logging"
)

// MaxBodyBytes bounds request bodies; image data URIs are the largest payloads.
const MaxBodyBytes = 10 << 20

// ErrInvalidBody is returned by Decode for anything that is not a single JSON value.
var ErrInvalidBody = errors.New("invalid request body")

// JSON writes a JSON response with the given status code.
func JSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	logger := logging.FromContext(ctx)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("encode response body", "status", status, "error", err)
		return
	}

	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("request failed", "status", status, "response", v)
	case status >= http.StatusBadRequest:
		logger.Warn("request returned client error", "status", status, "response", v)
	}
}

// Error writes {"error": msg}.
func Error(ctx context.Context, w http.ResponseWriter, status int, msg string) {
	JSON(ctx, w, status, map[string]string{"error": msg})
}

// Message writes {"message": msg}.
func Message(ctx context.Context, w http.ResponseWriter, status int, msg string) {
	JSON(ctx, w, status, map[string]string{"message": msg})
}

// Internal logs err server-side and sends the generic 500 body.
func Internal(ctx context.Context, w http.ResponseWriter, op string, err error) {
	logging.FromContext(ctx).Error(op, "error", err)
	Error(ctx, w, http.StatusInternalServerError, "internal server error")
}

// Decode reads a single JSON value from the request body into v.
func Decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, MaxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return ErrInvalidBody
	}
	if dec.More() {
		return ErrInvalidBody
	}
	return nil
}
