package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	HeaderSessionID   = "X-Session-Id"
	SessionCookieName = "storefront_session"
)

// Session identifies the storefront session a request belongs to. The id
// comes from the session cookie, then the X-Session-Id header; a new one is
// minted otherwise. The id is always echoed back in both places.
func Session(maxAge time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sid := ""
			if c, err := r.Cookie(SessionCookieName); err == nil {
				sid = strings.TrimSpace(c.Value)
			}
			if sid == "" {
				sid = strings.TrimSpace(r.Header.Get(HeaderSessionID))
			}
			if _, err := uuid.Parse(sid); err != nil {
				sid = uuid.NewString()
			}

			http.SetCookie(w, &http.Cookie{
				Name:     SessionCookieName,
				Value:    sid,
				Path:     "/",
				MaxAge:   int(maxAge.Seconds()),
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
			w.Header().Set(HeaderSessionID, sid)

			ctx := context.WithValue(r.Context(), ctxSessionID, sid)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
