package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/vietcart/vietcart-backend/api/responses"
	pkgerrors "github.com/vietcart/vietcart-backend/pkg/errors"
	"github.com/vietcart/vietcart-backend/pkg/logger"
)

const adminTokenHeader = "X-Admin-Token"

// AdminToken gates back-office routes behind a shared secret. With no secret
// configured the whole surface answers 403.
func AdminToken(token string, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "admin surface disabled"))
				return
			}

			provided := strings.TrimSpace(r.Header.Get(adminTokenHeader))
			if provided == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(token)) != 1 {
				if logg != nil {
					logg.Warn(logg.WithField(r.Context(), "path", r.URL.Path), "admin token rejected")
				}
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "invalid admin token"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
