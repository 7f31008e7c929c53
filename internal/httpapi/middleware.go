package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/mgiraudo/pedidos/internal/backend"
)

// RequestIDMiddleware adds a unique request ID to each request and forwards
// it to outgoing backend calls.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = fmt.Sprintf("req-%d", time.Now().UnixNano())
		}

		ctx := backend.WithRequestID(r.Context(), requestID)
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
