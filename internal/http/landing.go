package http

import (
	nethttp "net/http"

	"github.com/gin-gonic/gin"

	"github.com/readspace/readspace/internal/session"
)

// LandingController serves the public landing page.
type LandingController struct {
	sessions *session.Handler
}

func NewLandingController(sessions *session.Handler) *LandingController {
	return &LandingController{sessions: sessions}
}

// LandingPage renders the marketing page for visitors. A signed-in user is
// sent straight to their dashboard instead.
func (ctrl *LandingController) LandingPage(c *gin.Context) {
	if state := ctrl.sessions.Current(); state != nil {
		c.Redirect(nethttp.StatusSeeOther, session.Destination(state.User.Role))
		return
	}
	c.HTML(nethttp.StatusOK, "landing.html", gin.H{
		"Title": "ReadSpace",
	})
}
