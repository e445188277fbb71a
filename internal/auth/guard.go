package auth

import (
	"errors"
	"net/http"
	"strings"

	apperrors "roombook/pkg/errors"
	httputil "roombook/pkg/http"
	"roombook/pkg/logger"
	"roombook/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type TokenVerifier interface {
	Verify(token string) (Identity, error)
}

// Authenticate resolves an Authorization header value into an Identity.
func Authenticate(verifier TokenVerifier, header string) (Identity, error) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return Identity{}, apperrors.Unauthorized("Authentication required")
	}

	id, err := verifier.Verify(strings.TrimSpace(token))
	if err != nil {
		if errors.Is(err, ErrExpiredToken) {
			return Identity{}, apperrors.Unauthorized("Token expired")
		}
		return Identity{}, apperrors.Unauthorized("Invalid token")
	}
	return id, nil
}

func Authorize(id Identity, required model.Role) error {
	if required == model.RoleAdmin && !id.IsAdmin() {
		return apperrors.Forbidden("Admin access required")
	}
	return nil
}

// Guard wraps httprouter handles with authentication and role checks.
type Guard struct {
	verifier TokenVerifier
	log      *logger.Logger
}

func NewGuard(verifier TokenVerifier, log *logger.Logger) *Guard {
	return &Guard{verifier: verifier, log: log}
}

func (g *Guard) RequireUser(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		id, err := Authenticate(g.verifier, r.Header.Get("Authorization"))
		if err != nil {
			g.reject(w, r, err)
			return
		}
		next(w, r.WithContext(WithIdentity(r.Context(), id)), ps)
	}
}

func (g *Guard) RequireRole(role model.Role, next httprouter.Handle) httprouter.Handle {
	return g.RequireUser(func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		id, _ := IdentityFromContext(r.Context())
		if err := Authorize(id, role); err != nil {
			g.reject(w, r, err)
			return
		}
		next(w, r, ps)
	})
}

func (g *Guard) reject(w http.ResponseWriter, r *http.Request, err error) {
	g.log.Debug("request rejected by guard", "path", r.URL.Path, "error", err)
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		g.log.Error("failed to write error response", "handler", "Guard", "operation", "WriteError", "error", writeErr)
	}
}
