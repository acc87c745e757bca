package access

import (
	"log/slog"
	"net/http"

	"rentmeroom/pkg/platform/httputil"
	"rentmeroom/pkg/requestcontext"
)

// Require rejects requests whose caller fails Authorize(role, verified).
// It must run after the auth middleware has resolved the identity.
func Require(role Role, verified bool, logger *slog.Logger) func(http.Handler) http.Handler {
	return RequireAny(logger, Rule{Role: role, RequireVerified: verified})
}

// RequireAny is Require over several alternative rules.
func RequireAny(logger *slog.Logger, rules ...Rule) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			identity := FromContext(ctx)
			if err := AuthorizeAny(identity, rules...); err != nil {
				logger.WarnContext(ctx, "access denied",
					"request_id", requestcontext.RequestID(ctx),
					"user_id", identity.UserID.String(),
					"role", string(identity.Role),
					"path", r.URL.Path,
				)
				httputil.WriteError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
