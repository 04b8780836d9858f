package middleware

import (
	"context"
	"net/http"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/user"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/handler/http/response"
	"github.com/go-chi/jwtauth/v5"
)

type principalKey struct{}

// AuthRequired accepts only access tokens and stores the caller's
// user.Principal in the request context.
func AuthRequired(ja *jwtauth.JWTAuth) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		hfn := func(w http.ResponseWriter, r *http.Request) {
			token, claims, err := jwtauth.FromContext(r.Context())

			if err != nil {
				response.Unauthorized(w, err.Error())
				return
			}

			if token == nil {
				response.HandleError(w, user.ErrInvalidToken)
				return
			}

			tokenType, ok := claims["type"].(string)
			if tokenType != "access" || !ok {
				response.HandleError(w, user.ErrInvalidToken)
				return
			}

			userID, _ := claims["user_id"].(string)
			role, _ := claims["role"].(string)
			if userID == "" || role == "" {
				response.HandleError(w, user.ErrInvalidToken)
				return
			}

			principal := user.Principal{UserID: userID, Role: user.Role(role)}
			if employeeID, ok := claims["employee_id"].(string); ok && employeeID != "" {
				principal.EmployeeID = &employeeID
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		}
		return http.HandlerFunc(hfn)
	}
}

func WithPrincipal(ctx context.Context, p user.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the caller set by AuthRequired.
func PrincipalFromContext(ctx context.Context) (user.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(user.Principal)
	return p, ok
}
