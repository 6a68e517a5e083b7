package middleware

import (
	"log/slog"
	"net/http"
)

// NewRequestLogger logs each inbound connection attempt.
func NewRequestLogger(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqMeta, ok := ReqMetadataFrom(r.Context())
			var ip, participantID string
			if ok {
				ip = reqMeta.IP
				participantID = reqMeta.Handshake.ParticipantID
			}

			logger.Info("incoming connection request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("ip", ip),
				slog.String("participantID", participantID),
			)
			next.ServeHTTP(w, r)
		})
	}
}
