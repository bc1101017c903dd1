package config

import (
	"time"

	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		API
		Session
		Global
		UI
	}

	HTTP struct {
		Port          int32
		Host          string
		SessionSecret string // Auto-generated if empty
		SecureCookies bool   // Set to false for local dev without HTTPS
	}
	API struct {
		BaseURL string
		Timeout time.Duration
	}
	Session struct {
		DatabasePath  string
		EncryptionKey string // Base64, resolved from env/key file when empty
		KeyFilePath   string
		CheckEnabled  bool
		CheckSchedule string // Cron format: "*/15 * * * *" = every 15 minutes
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	UI struct {
		TemplatesPath string
		StaticPath    string
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8189)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("api_base_url", DefaultAPIBaseURL)
	v.SetDefault("http_timeout", "30s")
	v.SetDefault("session_db_path", DefaultSessionDatabasePath)
	v.SetDefault("session_encryption_key", "")
	v.SetDefault("session_key_file", "")
	v.SetDefault("session_check_enabled", true)
	v.SetDefault("session_check_schedule", "*/15 * * * *")
	v.SetDefault("session_secret", "")
	v.SetDefault("secure_cookies", true)
	v.SetDefault("templates_path", "./templates")
	v.SetDefault("static_path", "./static")

	return &Config{
		HTTP: HTTP{
			Port:          v.GetInt32("PORT"),
			Host:          v.GetString("HOST"),
			SessionSecret: v.GetString("SESSION_SECRET"),
			SecureCookies: v.GetBool("SECURE_COOKIES"),
		},
		API: API{
			BaseURL: v.GetString("API_BASE_URL"),
			Timeout: v.GetDuration("HTTP_TIMEOUT"),
		},
		Session: Session{
			DatabasePath:  v.GetString("SESSION_DB_PATH"),
			EncryptionKey: v.GetString("SESSION_ENCRYPTION_KEY"),
			KeyFilePath:   v.GetString("SESSION_KEY_FILE"),
			CheckEnabled:  v.GetBool("SESSION_CHECK_ENABLED"),
			CheckSchedule: v.GetString("SESSION_CHECK_SCHEDULE"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		UI: UI{
			TemplatesPath: v.GetString("TEMPLATES_PATH"),
			StaticPath:    v.GetString("STATIC_PATH"),
		},
	}
}
