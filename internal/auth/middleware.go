package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/jogardn/partsdepot/pkg/models"
	"github.com/sirupsen/logrus"
)

type contextKey struct{}

// RequireEmployee rejects requests that do not carry a valid employee token,
// either as a Bearer Authorization header or as a token query parameter.
// Preflight requests pass through.
func RequireEmployee(issuer *Issuer, logger *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := issuer.Parse(tokenFromRequest(r))
			if err != nil || claims.Role != models.RoleEmployee {
				logger.WithFields(logrus.Fields{
					"method": r.Method,
					"path":   r.URL.Path,
				}).Warn("Rejected request without employee token")
				unauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), contextKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(contextKey{}).(*Claims)
	return claims, ok
}

func tokenFromRequest(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
		return ""
	}
	return r.URL.Query().Get("token")
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"message": "Employee authorization required.",
	})
}
