package http

import (
	"errors"
	"log"
	nethttp "net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/readspace/readspace/internal/library"
	"github.com/readspace/readspace/internal/session"
)

// AuthController serves the login and registration pages through one shared
// session handler. Login persists the session and routes by role;
// registration only creates the account and sends the visitor to the login
// page to sign in.
type AuthController struct {
	sessions *session.Handler
	flash    *FlashManager
}

func NewAuthController(sessions *session.Handler, flash *FlashManager) *AuthController {
	return &AuthController{sessions: sessions, flash: flash}
}

// LoginPage renders the login form, with any messages and field values left
// over from a rejected submission.
func (ctrl *AuthController) LoginPage(c *gin.Context) {
	if state := ctrl.sessions.Current(); state != nil {
		c.Redirect(nethttp.StatusSeeOther, session.Destination(state.User.Role))
		return
	}
	ctrl.renderForm(c, "login.html", "Sign in")
}

// RegisterPage renders the registration form.
func (ctrl *AuthController) RegisterPage(c *gin.Context) {
	if state := ctrl.sessions.Current(); state != nil {
		c.Redirect(nethttp.StatusSeeOther, session.Destination(state.User.Role))
		return
	}
	ctrl.renderForm(c, "register.html", "Create account")
}

func (ctrl *AuthController) renderForm(c *gin.Context, template, title string) {
	c.HTML(nethttp.StatusOK, template, gin.H{
		"Title":      title,
		"Success":    ctrl.flash.PopSuccess(c.Request),
		"Error":      ctrl.flash.PopError(c.Request),
		"FormErrors": ctrl.flash.PopFormErrors(c.Request),
		"FormValues": ctrl.flash.PopFormValues(c.Request),
		"CSRFToken":  GetCSRFToken(c),
	})
}

// Login handles the login form submission.
func (ctrl *AuthController) Login(c *gin.Context) {
	email := strings.TrimSpace(c.PostForm("email"))
	password := c.PostForm("password")

	if email == "" || password == "" {
		ctrl.flash.PutFormErrors(c.Request, []string{"Email and password are required."})
		ctrl.flash.PutFormValues(c.Request, map[string]string{"email": email})
		c.Redirect(nethttp.StatusSeeOther, "/login")
		return
	}

	destination, err := ctrl.sessions.Login(c.Request.Context(), email, password)
	if err != nil {
		ctrl.handleRejection(c, err, "/login", map[string]string{"email": email})
		return
	}
	c.Redirect(nethttp.StatusSeeOther, destination)
}

// Register handles the registration form submission.
func (ctrl *AuthController) Register(c *gin.Context) {
	req := library.RegisterRequest{
		Username:             strings.TrimSpace(c.PostForm("username")),
		Email:                strings.TrimSpace(c.PostForm("email")),
		Password:             c.PostForm("password"),
		PasswordConfirmation: c.PostForm("password_confirmation"),
	}
	redisplay := map[string]string{"username": req.Username, "email": req.Email}

	if req.Password != req.PasswordConfirmation {
		ctrl.flash.PutFormErrors(c.Request, []string{"Passwords do not match."})
		ctrl.flash.PutFormValues(c.Request, redisplay)
		c.Redirect(nethttp.StatusSeeOther, "/register")
		return
	}

	if err := ctrl.sessions.Register(c.Request.Context(), req); err != nil {
		ctrl.handleRejection(c, err, "/register", redisplay)
		return
	}
	ctrl.flash.PutSuccess(c.Request, "Account created. Please sign in.")
	c.Redirect(nethttp.StatusSeeOther, "/login")
}

// handleRejection maps an upstream failure onto the redisplayed form.
// Submitted passwords never go into the flash.
func (ctrl *AuthController) handleRejection(c *gin.Context, err error, formPath string, values map[string]string) {
	var validationErr *library.ValidationError
	switch {
	case errors.As(err, &validationErr):
		ctrl.flash.PutFormErrors(c.Request, validationErr.Messages())
	case errors.Is(err, library.ErrUnauthorized):
		ctrl.flash.PutFormErrors(c.Request, []string{"These credentials do not match our records."})
	default:
		log.Printf("[http] credential exchange failed: %v", err)
		ctrl.flash.PutError(c.Request, "The library service is unavailable. Please try again.")
	}
	ctrl.flash.PutFormValues(c.Request, values)
	c.Redirect(nethttp.StatusSeeOther, formPath)
}

// Logout clears the session and returns to the landing page.
func (ctrl *AuthController) Logout(c *gin.Context) {
	if err := ctrl.sessions.Logout(); err != nil {
		log.Printf("[http] logout failed: %v", err)
	}
	c.Redirect(nethttp.StatusSeeOther, "/")
}
