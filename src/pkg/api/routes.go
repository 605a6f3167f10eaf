package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes registers the public and authenticated routes.
func SetupRoutes(router *gin.Engine, s *Server) {
	router.GET("/health", HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))

	api := router.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", RateLimit(s.limiter), HandleRegister(s))
			auth.POST("/login", RateLimit(s.limiter), HandleLogin(s))
			auth.POST("/logout", AuthRequired(s.sessions), HandleLogout(s))
			auth.GET("/me", AuthRequired(s.sessions), HandleMe())
		}

		mindmaps := api.Group("/mindmaps", AuthRequired(s.sessions))
		{
			mindmaps.GET("", ListMindmaps(s))
			mindmaps.POST("", CreateMindmap(s))
			mindmaps.GET("/:id", GetMindmap(s))
			mindmaps.PUT("/:id", UpdateMindmap(s))
			mindmaps.DELETE("/:id", DeleteMindmap(s))
		}
	}
}
