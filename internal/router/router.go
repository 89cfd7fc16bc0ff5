// Package router wires HTTP routes to their handlers and middleware.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/studenthub/outreach-api/internal/handler"
	"github.com/studenthub/outreach-api/internal/middleware"
	"github.com/studenthub/outreach-api/internal/model"
)

// Handlers groups everything RegisterRoutes needs.
type Handlers struct {
	Auth         *handler.AuthHandler
	Users        *handler.UserHandler
	OpenDays     *handler.OpenDayHandler
	Registration *handler.RegistrationHandler
	Podcasts     *handler.PodcastHandler
	JWTSecret    string
}

// RegisterRoutes registers the full route surface.  Public reads need
// no token; mutations sit behind JWT auth, and admin-only operations
// additionally behind the role check.
func RegisterRoutes(e *echo.Echo, h Handlers) {
	e.GET("/healthz", handler.Health)

	// Authentication.
	auth := e.Group("/api/auth")
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)
	auth.POST("/refresh", h.Auth.Refresh)
	auth.POST("/logout", h.Auth.Logout)

	authed := e.Group("/api/auth", middleware.JWTAuth(h.JWTSecret))
	authed.GET("/profile", h.Auth.Profile)
	authed.GET("/eligibility-check/:id", h.Auth.EligibilityCheck)

	// User management.  The whole surface requires a token; list,
	// eligible, stats and the eligibility override are admin only, while
	// get/update/delete enforce admin-or-owner inside the handlers.
	admin := middleware.RequireRole(model.RoleAdmin)
	users := e.Group("/api/users", middleware.JWTAuth(h.JWTSecret))
	users.GET("", h.Users.List, admin)
	users.GET("/eligible", h.Users.Eligible, admin)
	users.GET("/stats", h.Users.Stats, admin)
	users.GET("/:id", h.Users.Get)
	users.PUT("/:id", h.Users.Update)
	users.DELETE("/:id", h.Users.Delete)
	users.PUT("/:id/password", h.Users.ChangePassword)
	users.PUT("/:id/eligibility", h.Users.SetEligibility, admin)

	// Open days: public read surface.  Static paths are registered
	// before the :id routes so "upcoming" is never parsed as an id.
	events := e.Group("/api/opendays")
	events.GET("", h.OpenDays.List)
	events.GET("/upcoming", h.Registration.Upcoming)
	events.GET("/date-range", h.Registration.ByDateRange)
	events.GET("/available", h.Registration.Available)
	events.GET("/:id", h.OpenDays.Get)

	// Open days: authenticated surface.
	eventsAuth := e.Group("/api/opendays", middleware.JWTAuth(h.JWTSecret))
	eventsAuth.GET("/my-registrations", h.Registration.MyRegistrations)
	eventsAuth.POST("/:id/register", h.Registration.Register, middleware.RequireRole(model.RoleStudent))
	eventsAuth.POST("/:id/cancel", h.Registration.Cancel, middleware.RequireRole(model.RoleStudent))

	eventsAuth.POST("", h.OpenDays.Create, admin)
	eventsAuth.PUT("/:id", h.OpenDays.Update, admin)
	eventsAuth.DELETE("/:id", h.OpenDays.Delete, admin)
	eventsAuth.GET("/:id/attendees", h.Registration.Attendees, admin)

	// Podcasts.
	podcasts := e.Group("/api/podcasts")
	podcasts.GET("", h.Podcasts.List)
	podcasts.GET("/popular", h.Podcasts.Popular)
	podcasts.GET("/recent", h.Podcasts.Recent)
	podcasts.GET("/:id", h.Podcasts.Get)
	podcasts.POST("/:id/play", h.Podcasts.Play)

	podcastsAuth := e.Group("/api/podcasts", middleware.JWTAuth(h.JWTSecret))
	podcastsAuth.GET("/my-podcasts", h.Podcasts.MyPodcasts, admin)
	podcastsAuth.POST("", h.Podcasts.Create, admin)
	podcastsAuth.PUT("/:id", h.Podcasts.Update)
	podcastsAuth.DELETE("/:id", h.Podcasts.Delete)
}
