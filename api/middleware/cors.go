package middleware

import (
	"net/http"

	"github.com/go-chi/cors"

	"github.com/angelmondragon/tna-backend/pkg/config"
)

// CORS applies the configured origin policy for the dashboard frontend.
func CORS(cfg config.CORSConfig) func(http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", UserIDHeader, RequestIDHeader},
		ExposedHeaders:   []string{RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           cfg.MaxAge,
	}).Handler
}
