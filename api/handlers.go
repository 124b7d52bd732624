package api

import (
	"github.com/gin-gonic/gin"

	"github.com/gcbaptista/go-hotel-search/config"
	"github.com/gcbaptista/go-hotel-search/internal/analytics"
	"github.com/gcbaptista/go-hotel-search/internal/session"
)

// API holds dependencies for API handlers, primarily the session manager.
type API struct {
	sessions  *session.Manager
	analytics *analytics.Service
}

// NewAPI creates a new API handler structure.
func NewAPI(sessions *session.Manager, analyticsService *analytics.Service) *API {
	if analyticsService == nil {
		analyticsService = analytics.NewService(sessions)
	}
	return &API{
		sessions:  sessions,
		analytics: analyticsService,
	}
}

// SetupRoutes installs the middleware and defines all the API routes of the hotel search service.
func SetupRoutes(router *gin.Engine, sessions *session.Manager, analyticsService *analytics.Service, settings config.ServerSettings) {
	apiHandler := NewAPI(sessions, analyticsService)

	router.Use(RequestIDMiddleware())
	router.Use(CORSMiddleware(settings.AllowedOrigins))
	if settings.MaxBodyBytes > 0 {
		router.Use(RequestSizeLimitMiddleware(settings.MaxBodyBytes))
	}

	// Health check route
	router.GET("/health", apiHandler.HealthCheckHandler)

	// Analytics route
	router.GET("/analytics", apiHandler.GetAnalyticsHandler)

	// Session routes
	sessionRoutes := router.Group("/sessions")
	{
		sessionRoutes.POST("", apiHandler.CreateSessionHandler)                 // Create a new search session
		sessionRoutes.GET("/:sessionId", apiHandler.GetSessionHandler)          // Ranked listings and state
		sessionRoutes.DELETE("/:sessionId", apiHandler.DeleteSessionHandler)    // Drop a session
		sessionRoutes.POST("/:sessionId/search", apiHandler.SearchHandler)      // New live or local search
		sessionRoutes.POST("/:sessionId/refresh", apiHandler.RefreshHandler)    // Live search bypassing the cache
		sessionRoutes.POST("/:sessionId/load-more", apiHandler.LoadMoreHandler) // Merge in the other source
		sessionRoutes.PATCH("/:sessionId/view", apiHandler.UpdateViewHandler)   // Query, sort, relevance, theme
	}
}
