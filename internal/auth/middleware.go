package auth

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/shelfwise/shelfwise/internal/platform/httpx"
	"github.com/shelfwise/shelfwise/internal/shared"
)

// RequireAuth resolves the session user into an Identity and stores it in
// context. Requests without a valid, active account get 401.
func RequireAuth(service *Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := shared.SessionFromContext(r.Context())
			if sess == nil || sess.User() == "" {
				httpx.RespondError(w, httpx.ErrUnauthorized)
				return
			}
			userID, err := uuid.Parse(sess.User())
			if err != nil {
				httpx.RespondError(w, httpx.ErrUnauthorized)
				return
			}
			user, err := service.GetUser(r.Context(), userID)
			if err != nil || !user.IsActive {
				httpx.RespondError(w, httpx.ErrUnauthorized)
				return
			}
			ctx := shared.ContextWithIdentity(r.Context(), shared.Identity{
				UserID:     user.ID,
				BusinessID: user.BusinessID,
				Role:       user.Role,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
