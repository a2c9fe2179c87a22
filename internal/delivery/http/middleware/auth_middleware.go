package middleware

import (
	"context"
	"net/http"

	"storefront-backend/internal/domain"
	"storefront-backend/pkg/logger"
	"storefront-backend/pkg/utils"
)

// AuthMiddleware accepts a bearer token or the accessToken cookie and puts
// the caller into the request context. Claims are trusted as issued; there
// is no user lookup.
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := utils.ExtractClaims(r)
		if err != nil {
			utils.WriteError(w, http.StatusUnauthorized, "Unauthorized: Invalid or missing token")
			return
		}

		user := &domain.User{
			ID:    claims.UserID,
			Email: claims.Email,
			Role:  claims.Role,
		}

		ctx := context.WithValue(r.Context(), domain.UserContextKey, user)
		l := logger.WithUserID(*logger.WithContext(ctx), user.ID)
		ctx = logger.NewContext(ctx, &l)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
