package meter

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/mediscan/quotakit/pkg/entitlement"
)

const (
	// HeaderUserID identifies an authenticated principal.
	HeaderUserID = "X-User-ID"
	// HeaderSessionID identifies an anonymous principal.
	HeaderSessionID = "X-Session-ID"
)

// PrincipalMiddleware derives the request principal from identity headers
// and stores it in the request context. X-User-ID wins over X-Session-ID
// when both are present. Requests carrying neither, or a malformed user ID,
// are rejected before reaching any handler.
func PrincipalMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if raw := r.Header.Get(HeaderUserID); raw != "" {
			userID, err := uuid.Parse(raw)
			if err != nil || userID == uuid.Nil {
				respondError(w, http.StatusBadRequest, "invalid_principal", "malformed user id")
				return
			}
			ctx := entitlement.SetPrincipalToContext(r.Context(), entitlement.Authenticated(userID))
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		if sid := r.Header.Get(HeaderSessionID); sid != "" {
			ctx := entitlement.SetPrincipalToContext(r.Context(), entitlement.Anonymous(sid))
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		respondError(w, http.StatusBadRequest, "missing_principal", "either X-User-ID or X-Session-ID is required")
	})
}

// principalFrom pulls the principal set by PrincipalMiddleware. The second
// return is false when the middleware did not run.
func principalFrom(r *http.Request) (entitlement.Principal, bool) {
	p, err := entitlement.RequirePrincipalFromContext(r.Context())
	return p, err == nil
}
