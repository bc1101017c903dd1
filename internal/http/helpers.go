package http

import (
	"errors"
	"log"
	nethttp "net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/readspace/readspace/internal/library"
	"github.com/readspace/readspace/internal/session"
)

// parseIDParam extracts a positive integer ID from URL parameters. On a bad
// value it redirects to the fallback page and reports false.
func parseIDParam(c *gin.Context, paramName, fallback string) (int, bool) {
	id, err := strconv.Atoi(c.Param(paramName))
	if err != nil || id <= 0 {
		c.Redirect(nethttp.StatusSeeOther, fallback)
		c.Abort()
		return 0, false
	}
	return id, true
}

// redirectBack returns to the page the form was submitted from, or to the
// fallback when the referer is absent.
func redirectBack(c *gin.Context, fallback string) {
	target := c.Request.Referer()
	if target == "" {
		target = fallback
	}
	c.Redirect(nethttp.StatusSeeOther, target)
}

// flashMutationError turns an upstream write failure into flash messages for
// the page the user is sent back to. Returns true when the failure was an
// expired session, in which case the caller redirected already.
func flashMutationError(c *gin.Context, sessions *session.Handler, flash *FlashManager, err error, context string) bool {
	var validationErr *library.ValidationError
	switch {
	case errors.Is(err, library.ErrUnauthorized):
		expireSession(c, sessions, flash)
		return true
	case errors.Is(err, library.ErrNotFound):
		flash.PutError(c.Request, "That record no longer exists.")
	case errors.As(err, &validationErr):
		flash.PutFormErrors(c.Request, validationErr.Messages())
	default:
		log.Printf("[http] %s failed: %v", context, err)
		flash.PutError(c.Request, "Something went wrong. Please try again.")
	}
	return false
}

// expireSession clears the stored session and sends the user to the login
// page with an explanation. Used whenever the upstream rejects the token.
func expireSession(c *gin.Context, sessions *session.Handler, flash *FlashManager) {
	if err := sessions.Logout(); err != nil {
		log.Printf("[http] clearing expired session failed: %v", err)
	}
	flash.PutError(c.Request, "Your session has expired. Please sign in again.")
	c.Redirect(nethttp.StatusSeeOther, "/login")
	c.Abort()
}
