package session

import (
	"context"
	"fmt"
	"log"

	"github.com/readspace/readspace/internal/library"
)

// Destinations for post-login routing, by role.
const (
	AdminDestination  = "/admin/dashboard"
	ReaderDestination = "/dashboard"
)

// Handler runs the credential flows shared by the login and register pages:
// exchange credentials upstream, persist the session, pick the destination.
type Handler struct {
	client *library.Client
	store  *Store
}

// NewHandler wires the API client to the durable store.
func NewHandler(client *library.Client, store *Store) *Handler {
	return &Handler{client: client, store: store}
}

// Login signs the user in and persists the session. It returns the
// destination path for the signed-in role. Upstream rejections come back
// unwrapped so callers can render field errors.
func (h *Handler) Login(ctx context.Context, email, password string) (string, error) {
	apiSession, err := h.client.Login(ctx, email, password)
	if err != nil {
		return "", err
	}
	return h.open(apiSession)
}

// Register creates the account upstream. No session is opened; the caller
// sends the visitor to the login page to sign in with the new credentials.
func (h *Handler) Register(ctx context.Context, req library.RegisterRequest) error {
	return h.client.Register(ctx, req)
}

func (h *Handler) open(apiSession *library.Session) (string, error) {
	if apiSession.Token == "" {
		return "", fmt.Errorf("login response carried no token")
	}
	state := State{Token: apiSession.Token, User: apiSession.User}
	if err := h.store.Save(state); err != nil {
		return "", fmt.Errorf("persisting session: %w", err)
	}
	return Destination(state.User.Role), nil
}

// Logout clears the stored session. The server is not notified; the token
// simply stops being used.
func (h *Handler) Logout() error {
	return h.store.Clear()
}

// Current returns the stored session, or nil when signed out. Storage
// errors are logged and treated as signed-out rather than failing the
// request.
func (h *Handler) Current() *State {
	state, err := h.store.Current()
	if err != nil {
		log.Printf("[session] reading stored session failed: %v", err)
		return nil
	}
	return state
}

// Token returns the stored bearer token, or "" when signed out.
func (h *Handler) Token() string {
	if state := h.Current(); state != nil {
		return state.Token
	}
	return ""
}

// Destination maps a role to its landing page after login.
func Destination(role string) string {
	if role == library.RoleAdmin {
		return AdminDestination
	}
	return ReaderDestination
}
