package server

import (
	"net/http"
	"strings"

	"github.com/bantamhq/gitdesk/internal/core"
)

// authError is an authentication failure with its HTTP status.
type authError struct {
	message string
	status  int
}

func (e *authError) Error() string {
	return e.message
}

func writeAuthError(w http.ResponseWriter, err error) {
	if authErr, ok := err.(*authError); ok {
		if authErr.status == http.StatusUnauthorized {
			w.Header().Set("WWW-Authenticate", `Bearer realm="gitdesk"`)
		}
		JSONError(w, authErr.status, authErr.message)
		return
	}
	JSONError(w, http.StatusInternalServerError, "Internal server error")
}

// BearerAuthMiddleware admits requests whose bearer token matches
// tokenHash. An empty hash rejects everything, so a bridge started
// without a configured token is unusable rather than open. EventSource
// clients cannot set headers, so /events also accepts ?token=.
func BearerAuthMiddleware(tokenHash string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := validateBearerToken(tokenHash, r); err != nil {
				writeAuthError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func validateBearerToken(tokenHash string, r *http.Request) error {
	raw := ""
	if header := r.Header.Get("Authorization"); header != "" {
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			return &authError{"Invalid authorization scheme, Bearer required", http.StatusUnauthorized}
		}
		raw = token
	} else if strings.HasSuffix(r.URL.Path, "/events") {
		raw = r.URL.Query().Get("token")
	}

	if raw == "" {
		return &authError{"Authentication required", http.StatusUnauthorized}
	}
	if tokenHash == "" {
		return &authError{"Bridge token not configured", http.StatusUnauthorized}
	}
	if _, err := core.ParseToken(raw); err != nil {
		return &authError{"Invalid token format", http.StatusUnauthorized}
	}
	if err := core.VerifyToken(raw, tokenHash); err != nil {
		if err == core.ErrInvalidHash {
			return &authError{"Bridge token hash is malformed", http.StatusInternalServerError}
		}
		return &authError{"Invalid token", http.StatusUnauthorized}
	}
	return nil
}
