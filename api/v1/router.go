package v1

import (
	"linkhub/api/v1/auth"
	"linkhub/api/v1/domains"
	"linkhub/api/v1/middleware"
	"linkhub/internal/config"
	"linkhub/internal/customdomain"
	"linkhub/internal/httpx"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SetupRouter sets up the API v1 routes
func SetupRouter(r *gin.Engine, db *gorm.DB, cfg *config.Config, domainService *customdomain.Service) {
	v1 := r.Group("/api/v1")
	{
		// Public routes (no authentication required)
		v1.GET("/ping", pingHandler)

		// Auth routes
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/login", auth.LoginHandler(db, cfg))
		}

		// Protected routes (authentication required)
		protected := v1.Group("")
		protected.Use(middleware.AuthRequired())
		{
			protected.GET("/me", meHandler)

			// Custom domain routes
			domainsHandler := domains.NewHandler(domainService)
			domainsGroup := protected.Group("/domains")
			{
				domainsGroup.GET("", domainsHandler.List)
				domainsGroup.GET("/instructions", domainsHandler.Instructions)
				domainsGroup.POST("/create", domainsHandler.Create)
				domainsGroup.POST("/verify", domainsHandler.Verify)
				domainsGroup.POST("/set-default", domainsHandler.SetDefault)
				domainsGroup.POST("/delete", domainsHandler.Delete)
			}
		}
	}
}

// pingHandler handles the ping request using unified response
func pingHandler(c *gin.Context) {
	httpx.OK(c, gin.H{
		"pong": true,
	})
}

// meHandler returns current user information
func meHandler(c *gin.Context) {
	uid, _ := c.Get("uid")
	username, _ := c.Get("username")
	role, _ := c.Get("role")

	httpx.OK(c, gin.H{
		"uid":      uid,
		"username": username,
		"role":     role,
	})
}
