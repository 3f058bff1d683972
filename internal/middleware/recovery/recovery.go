package recovery

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime/debug"

	applog "rupeetrack/internal/log"
)

// Middleware turns a handler panic into a JSON 500 response.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			applog.FromContext(r.Context()).WithComponent(applog.ComponentHTTP).ErrorContext(r.Context(), "Panic recovered",
				applog.FieldError, fmt.Sprint(rec),
				applog.FieldErrorType, applog.ErrorTypeInternal,
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path,
				"stack", string(debug.Stack()))

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"success": false,
				"error":   "internal server error",
			})
		}()

		next.ServeHTTP(w, r)
	})
}
