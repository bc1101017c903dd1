package http

import (
	"html/template"

	"github.com/gin-gonic/gin"
)

// NewRouter creates and configures the HTTP router with all endpoints.
// Uses RouterConfig to receive all dependencies, improving testability
// and reducing parameter count.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Apply security headers to all responses
	router.Use(SecurityHeadersMiddleware())

	// CSRF must run before the flash session so the flash context is
	// preserved on top of CSRF's request replacement
	if len(cfg.CSRFSecret) > 0 {
		router.Use(CSRFMiddleware(cfg.CSRFSecret, cfg.SecureCookies))
	}
	if cfg.Flash != nil {
		router.Use(cfg.Flash.LoadSave())
	}

	funcMap := template.FuncMap{
		"sequence": func(n int) []int {
			out := make([]int, n)
			for i := range out {
				out[i] = i + 1
			}
			return out
		},
	}

	tmpl := template.Must(template.New("").Funcs(funcMap).ParseGlob(cfg.TemplatesPath + "/*.html"))
	router.SetHTMLTemplate(tmpl)
	router.Static("/static", cfg.StaticPath)

	landing := NewLandingController(cfg.Sessions)
	auth := NewAuthController(cfg.Sessions, cfg.Flash)
	admin := NewAdminController(cfg.Library, cfg.Sessions, cfg.Flash)
	dashboard := NewDashboardController(cfg.Library, cfg.Sessions, cfg.Flash)
	health := NewHealthController(cfg.Store, cfg.Version)

	// Health endpoints
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	// Public pages
	router.GET("/", landing.LandingPage)
	router.GET("/login", auth.LoginPage)
	router.POST("/login", auth.Login)
	router.GET("/register", auth.RegisterPage)
	router.POST("/register", auth.Register)
	router.POST("/logout", auth.Logout)

	// Admin surface
	adminRoutes := router.Group("/admin",
		RequireAuth(cfg.Sessions, cfg.Flash), RequireAdmin())
	adminRoutes.GET("/dashboard", admin.Dashboard)
	adminRoutes.POST("/:entity/save", admin.Save)
	adminRoutes.POST("/:entity/:id/delete", admin.Delete)

	// Reader surface
	readerRoutes := router.Group("/", RequireAuth(cfg.Sessions, cfg.Flash))
	readerRoutes.GET("/dashboard", dashboard.Dashboard)
	readerRoutes.POST("/books/:id/favorite", dashboard.Favorite)
	readerRoutes.POST("/books/:id/rate", dashboard.Rate)

	return router
}
