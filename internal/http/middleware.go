package http

import (
	nethttp "net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/csrf"

	"github.com/readspace/readspace/internal/session"
)

const contextKeySession = "session_state"

// SecurityHeadersMiddleware adds the standard browser hardening headers to
// every response.
func SecurityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		// 'self' for form-action can fail behind reverse proxies
		formAction := "'self'"
		if host := c.Request.Host; host != "" {
			formAction = "'self' https://" + host
		}

		c.Header("Content-Security-Policy",
			"default-src 'self'; "+
				"script-src 'self'; "+
				"style-src 'self' 'unsafe-inline'; "+
				"img-src 'self' data: https:; "+
				"font-src 'self'; "+
				"connect-src 'self'; "+
				"frame-ancestors 'none'; "+
				"form-action "+formAction)

		c.Header("Permissions-Policy",
			"accelerometer=(), "+
				"camera=(), "+
				"geolocation=(), "+
				"microphone=(), "+
				"payment=(), "+
				"usb=()")

		c.Next()
	}
}

// CSRFMiddleware protects the form endpoints. Safe methods pass through
// unchecked; failed checks redirect back with a message.
func CSRFMiddleware(secret []byte, secure bool) gin.HandlerFunc {
	csrfProtect := csrf.Protect(
		secret,
		csrf.Secure(secure),
		csrf.HttpOnly(true),
		csrf.SameSite(csrf.SameSiteStrictMode),
		csrf.Path("/"),
		csrf.ErrorHandler(nethttp.HandlerFunc(csrfErrorHandler)),
	)

	return func(c *gin.Context) {
		handler := csrfProtect(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
			c.Set("csrf_token", csrf.Token(r))
			c.Request = r
			c.Next()
		}))
		handler.ServeHTTP(c.Writer, c.Request)
	}
}

func csrfErrorHandler(w nethttp.ResponseWriter, r *nethttp.Request) {
	referer := r.Referer()
	if referer != "" {
		separator := "?"
		if strings.Contains(referer, "?") {
			separator = "&"
		}
		nethttp.Redirect(w, r, referer+separator+"error=Form+expired.+Please+try+again.", nethttp.StatusSeeOther)
		return
	}
	nethttp.Redirect(w, r, "/", nethttp.StatusSeeOther)
}

// GetCSRFToken retrieves the CSRF token stored for the current request.
func GetCSRFToken(c *gin.Context) string {
	if token, exists := c.Get("csrf_token"); exists {
		if t, ok := token.(string); ok {
			return t
		}
	}
	return ""
}

// RequireAuth gates a route on a stored session. Signed-out visitors are
// redirected to the login page.
func RequireAuth(sessions *session.Handler, flash *FlashManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		state := sessions.Current()
		if state == nil {
			if flash != nil {
				flash.PutError(c.Request, "Please sign in to continue.")
			}
			c.Redirect(nethttp.StatusSeeOther, "/login")
			c.Abort()
			return
		}
		c.Set(contextKeySession, state)
		c.Next()
	}
}

// RequireAdmin gates a route on the admin role. Signed-in readers land on
// their own dashboard instead of an error page.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		state := currentSession(c)
		if state == nil || !state.IsAdmin() {
			c.Redirect(nethttp.StatusSeeOther, session.ReaderDestination)
			c.Abort()
			return
		}
		c.Next()
	}
}

// currentSession returns the session placed on the context by RequireAuth.
func currentSession(c *gin.Context) *session.State {
	if value, exists := c.Get(contextKeySession); exists {
		if state, ok := value.(*session.State); ok {
			return state
		}
	}
	return nil
}
