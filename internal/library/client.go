// Package library talks to the remote EBook Library API. It owns the wire
// types, the error taxonomy and the HTTP plumbing; nothing in here keeps
// state between calls, so a single Client is safe for concurrent use.
package library

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultTimeout = 30 * time.Second

// Client is a thin wrapper over the remote library API. The bearer token is
// passed per call rather than stored, so one client serves every session.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a client for the API rooted at baseURL. A zero timeout
// falls back to the default.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = defaultTimeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// SetHTTPClient overrides the underlying HTTP client. Used by tests.
func (c *Client) SetHTTPClient(httpClient *http.Client) {
	c.httpClient = httpClient
}

// Login exchanges credentials for a session. Invalid credentials surface as
// *ValidationError carrying the server's message.
func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	payload := map[string]string{"email": email, "password": password}
	var session Session
	if err := c.postJSON(ctx, "/login", "", payload, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// Register creates an account. The server opens no session for it; the
// caller signs in afterwards. Field-level rejections surface as
// *ValidationError.
func (c *Client) Register(ctx context.Context, req RegisterRequest) error {
	return c.postJSON(ctx, "/register", "", req, nil)
}

// Books fetches the full catalogue visible to the session.
func (c *Client) Books(ctx context.Context, token string) ([]Book, error) {
	var books []Book
	if err := c.getJSON(ctx, "/books", token, &books); err != nil {
		return nil, err
	}
	return books, nil
}

// PopularBooks fetches the server-ranked popular subset.
func (c *Client) PopularBooks(ctx context.Context, token string) ([]Book, error) {
	var books []Book
	if err := c.getJSON(ctx, "/books/popular", token, &books); err != nil {
		return nil, err
	}
	return books, nil
}

// Favorites fetches the session user's favorited books.
func (c *Client) Favorites(ctx context.Context, token string) ([]Book, error) {
	var books []Book
	if err := c.getJSON(ctx, "/my-favorites", token, &books); err != nil {
		return nil, err
	}
	return books, nil
}

// History fetches the session user's reading history.
func (c *Client) History(ctx context.Context, token string) ([]HistoryEntry, error) {
	var entries []HistoryEntry
	if err := c.getJSON(ctx, "/dashboard/history", token, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// GetProfile fetches the session user's profile. Also doubles as the
// cheapest authenticated call for session validity checks.
func (c *Client) GetProfile(ctx context.Context, token string) (*Profile, error) {
	var profile Profile
	if err := c.getJSON(ctx, "/profile", token, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// ToggleFavorite flips the favorite state of a book for the session user.
// The server owns the state; callers refetch to observe the result.
func (c *Client) ToggleFavorite(ctx context.Context, token string, bookID int) error {
	path := fmt.Sprintf("/books/%d/favorite", bookID)
	return c.postJSON(ctx, path, token, nil, nil)
}

// RateBook submits a 1..5 rating for a book.
func (c *Client) RateBook(ctx context.Context, token string, bookID, rating int) error {
	if rating < 1 || rating > 5 {
		return &ValidationError{Fields: map[string][]string{
			"rating": {"rating must be between 1 and 5"},
		}}
	}
	path := fmt.Sprintf("/books/%d/rate", bookID)
	payload := map[string]int{"rating": rating}
	return c.postJSON(ctx, path, token, payload, nil)
}

func (c *Client) getJSON(ctx context.Context, path, token string, out interface{}) error {
	return c.do(ctx, http.MethodGet, path, token, nil, out)
}

func (c *Client) postJSON(ctx context.Context, path, token string, payload, out interface{}) error {
	return c.do(ctx, http.MethodPost, path, token, payload, out)
}

func (c *Client) do(ctx context.Context, method, path, token string, payload, out interface{}) error {
	endpoint, err := url.JoinPath(c.baseURL, path)
	if err != nil {
		return fmt.Errorf("building request URL: %w", err)
	}

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	// The bearer header is sent unconditionally; an empty token yields
	// "Bearer " and lets the server decide the response.
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()

	if err := responseError(resp); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// responseError maps a non-2xx response onto the error taxonomy. The body is
// consumed for 4xx responses to recover validation messages.
func responseError(resp *http.Response) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode >= 500:
		return &ServerError{StatusCode: resp.StatusCode}
	default:
		return decodeValidationError(resp.Body)
	}
}

func decodeValidationError(body io.Reader) error {
	var envelope struct {
		Errors  map[string][]string `json:"errors"`
		Message string              `json:"message"`
	}
	if err := json.NewDecoder(body).Decode(&envelope); err != nil {
		return &ValidationError{General: "request rejected"}
	}
	return &ValidationError{Fields: envelope.Errors, General: envelope.Message}
}
