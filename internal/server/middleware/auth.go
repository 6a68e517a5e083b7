package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/Guarrdon/portfolioplanner-sub001/pkg/config"
	"github.com/golang-jwt/jwt/v5"
)

// NewAuthMiddleware optionally gates the handshake behind an HMAC-signed
// bearer token whose subject must match the claimed participant id. The
// observed deployment runs instances unauthenticated against the relay, so
// this is disabled unless configured; enabling it is a deployment choice.
func NewAuthMiddleware(logger *slog.Logger, cfg config.AuthConfig) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.Enabled {
				next.ServeHTTP(w, r)
				return
			}

			reqMeta, ok := ReqMetadataFrom(r.Context())
			if !ok {
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}

			tokenString := bearerToken(r)
			if tokenString == "" {
				logger.Warn("handshake missing auth token", slog.String("ip", reqMeta.IP))
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(token *jwt.Token) (any, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(cfg.JWTSecret), nil
			})
			if err != nil || !token.Valid {
				logger.Warn("invalid handshake token", slog.String("ip", reqMeta.IP), slog.Any("error", err))
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			claims, ok := token.Claims.(*jwt.RegisteredClaims)
			if !ok || claims.Subject == "" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			if claims.Subject != reqMeta.Handshake.ParticipantID {
				logger.Warn("token subject does not match participant",
					slog.String("ip", reqMeta.IP),
					slog.String("subject", claims.Subject),
				)
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// bearerToken accepts the token from the Authorization header or, for
// browser-hosted instances, a session-token cookie.
func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	if cookie, err := r.Cookie("session-token"); err == nil {
		return cookie.Value
	}
	return ""
}
