// Package api - Router setup
package api

import (
	"time"

	"github.com/aethra/foxops/internal/auth"
	"github.com/aethra/foxops/internal/config"
	"github.com/aethra/foxops/internal/metrics"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var devOrigins = []string{
	"http://localhost:3000",
	"http://localhost:5173",
	"http://127.0.0.1:3000",
	"http://127.0.0.1:5173",
}

// SetupRouter creates and configures the Gin router
func SetupRouter(h *Handler, corsCfg config.CORSConfig, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(RequestLogger(logger))
	r.Use(metrics.Middleware())

	// When credentials are used, specific origins must be provided (not *)
	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID", "Accept"},
		ExposeHeaders:    []string{"Content-Length", "Content-Type", "X-Request-ID", "Retry-After"},
		AllowCredentials: corsCfg.AllowCredentials,
		MaxAge:           12 * time.Hour,
	}
	if origins := corsCfg.Origins(); len(origins) > 0 {
		corsConfig.AllowOrigins = origins
	} else {
		corsConfig.AllowOrigins = devOrigins
	}
	r.Use(cors.New(corsConfig))

	r.GET("/api/health", h.Health)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	// ==========================================================================
	// AUTH
	// ==========================================================================
	authRoutes := r.Group("/auth")
	{
		authRoutes.POST("/login", h.Login)
		authRoutes.POST("/refresh", h.RefreshToken)
		authRoutes.GET("/me", h.SessionMiddleware(), h.GetMe)
	}

	// ==========================================================================
	// PUBLIC FORMS - no auth, slug is the capability
	// ==========================================================================
	forms := r.Group("/api/forms")
	{
		forms.GET("/:slug", h.GetPublicForm)
		forms.POST("/:slug/submit", h.SubmitForm)
	}

	// ==========================================================================
	// DASHBOARD API - session token with a company
	// ==========================================================================
	api := r.Group("/api")
	api.Use(h.SessionMiddleware())
	api.Use(h.RequireCompany())
	{
		fields := api.Group("/fields")
		{
			fields.GET("", h.RequireAction(auth.ActionViewSettings), h.ListFields)
			fields.GET("/definitions", h.RequireAction(auth.ActionViewSettings), h.ListFieldDefinitions)
			fields.PUT("/config", h.RequireAction(auth.ActionManageFields), h.UpsertFieldConfig)
			fields.POST("/custom", h.RequireAction(auth.ActionManageFields), h.CreateCustomField)
			fields.PUT("/custom/:id", h.RequireAction(auth.ActionManageFields), h.UpdateCustomField)
			fields.DELETE("/custom/:id", h.RequireAction(auth.ActionManageFields), h.DeleteCustomField)
		}

		locationForms := api.Group("/location-forms")
		{
			locationForms.GET("", h.RequireAction(auth.ActionViewSettings), h.ListForms)
			locationForms.POST("", h.RequireAction(auth.ActionManageForms), h.CreateForm)
			locationForms.PATCH("/:id/status", h.RequireAction(auth.ActionManageForms), h.UpdateFormStatus)
		}

		api.GET("/location-submissions", h.RequireAction(auth.ActionViewSubmission), h.ListSubmissions)

		keys := api.Group("/api-keys")
		keys.Use(h.RequireAction(auth.ActionManageAPIKeys))
		{
			keys.GET("", h.ListAPIKeys)
			keys.POST("", h.CreateAPIKey)
			keys.DELETE("/:id", h.RevokeAPIKey)
		}
	}

	// ==========================================================================
	// PUBLIC LOCATIONS API - Bearer fox_... keys
	// ==========================================================================
	v1 := r.Group("/api/v1")
	{
		v1.POST("/locations", h.APIKeyMiddleware(auth.ScopeLocationsWrite), h.CreateLocation)
		v1.GET("/locations", h.APIKeyMiddleware(auth.ScopeLocationsRead), h.ListLocations)
	}

	return r
}
