package config

const (
	// DefaultAPIBaseURL is where the remote library API lives in development.
	DefaultAPIBaseURL = "http://localhost:8000/api/v1"

	// DefaultSessionDatabasePath is the default path for session storage.
	DefaultSessionDatabasePath = "./readspace-session.db"
)
