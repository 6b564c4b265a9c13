package httpx

import (
	"context"
	"net/http"

	"github.com/ariefcatur/go-storefront/internal/shop"
)

// Identity arrives via gateway-injected headers; the session layer that fills
// them lives outside this service.
const (
	headerUserID = "X-User-Id"
	headerRole   = "X-User-Role"
)

type ctxKey int

const actorKey ctxKey = iota

// WithActor stores the caller's identity in the request context when the
// identity headers are present and well formed.
func WithActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get(headerUserID)
		role := shop.Role(r.Header.Get(headerRole))
		if userID != "" && (role == shop.RoleCustomer || role == shop.RoleAdmin) {
			actor := shop.Actor{UserID: userID, Role: role}
			r = r.WithContext(context.WithValue(r.Context(), actorKey, actor))
		}
		next.ServeHTTP(w, r)
	})
}

func actorFrom(r *http.Request) (shop.Actor, bool) {
	a, ok := r.Context().Value(actorKey).(shop.Actor)
	return a, ok
}

// requireActor writes a 401 when no identity was supplied. Role checks happen
// in the service layer.
func requireActor(w http.ResponseWriter, r *http.Request) (shop.Actor, bool) {
	a, ok := actorFrom(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
	}
	return a, ok
}
