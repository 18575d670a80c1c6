package middleware

import (
	"net/http"
	"regexp"

	"github.com/google/uuid"

	"github.com/angelmondragon/tna-backend/pkg/logger"
)

// RequestIDHeader is read from the caller and always echoed back.
const RequestIDHeader = "X-Request-Id"

var callerRequestID = regexp.MustCompile(`^[A-Za-z0-9._:\-]{8,128}$`)

// RequestID keeps a well-formed caller id so traces line up with the gateway,
// and mints a uuid otherwise.
func RequestID(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(RequestIDHeader)
			if !callerRequestID.MatchString(id) {
				id = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, id)
			next.ServeHTTP(w, r.WithContext(logg.WithRequestID(r.Context(), id)))
		})
	}
}
