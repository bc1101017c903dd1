package http

import (
	"github.com/readspace/readspace/internal/library"
	"github.com/readspace/readspace/internal/session"
)

// RouterConfig carries the dependencies for NewRouter, so tests can swap
// any of them without touching the route table.
type RouterConfig struct {
	// Library is the remote API client.
	Library *library.Client

	// Sessions runs login/register/logout and resolves the current session.
	Sessions *session.Handler

	// Store backs the health check's storage ping.
	Store *session.Store

	// Flash carries one-shot messages and form state across redirects.
	Flash *FlashManager

	// CSRFSecret enables form CSRF protection when non-empty.
	CSRFSecret []byte

	// SecureCookies marks cookies HTTPS-only.
	SecureCookies bool

	TemplatesPath string
	StaticPath    string
	Version       string
}
