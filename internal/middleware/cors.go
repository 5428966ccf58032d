package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/rs/cors"
)

// CORS returns middleware that answers preflight requests and sets the
// Access-Control headers for the configured origins. An empty list or "*"
// allows any origin without credentials.
func CORS(allowedOrigins []string, logger *slog.Logger) func(http.Handler) http.Handler {
	opts := cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", RequestIDHeader},
		ExposedHeaders: []string{"Retry-After", RequestIDHeader},
		MaxAge:         int((12 * time.Hour).Seconds()),
	}
	if len(allowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	logger.Debug("CORS configured", "origins", opts.AllowedOrigins)
	return cors.New(opts).Handler
}
