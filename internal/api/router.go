package api

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/aufildessentiers/backend/internal/auth"
	"github.com/aufildessentiers/backend/internal/handlers"
	"github.com/aufildessentiers/backend/internal/middleware"
	"github.com/aufildessentiers/backend/internal/services"
)

// Config tunes the HTTP surface.
type Config struct {
	// AllowedOrigins lists origins accepted by CORS. Empty allows all.
	AllowedOrigins []string

	// GlobalRateLimit caps requests per client and route. Zero disables it.
	GlobalRateLimit  int
	GlobalRateWindow time.Duration

	// EmailRateLimit caps the email-sending endpoints separately, since each
	// hit costs an outbound message.
	EmailRateLimit  int
	EmailRateWindow time.Duration
}

// Dependencies collects everything the routes need.
type Dependencies struct {
	DB            *gorm.DB
	JWT           *auth.JWTService
	Sessions      *auth.SessionService
	Accounts      *services.AccountService
	Events        *services.EventService
	Registrations *services.RegistrationService
	Blog          *services.BlogService
	Contacts      *services.ContactService
	Admin         *services.AdminService
	RateStore     middleware.RateStore
}

// NewRouter assembles the full HTTP router: middleware chain, API routes,
// health check, and the metrics endpoint.
func NewRouter(deps Dependencies, cfg Config) (*gin.Engine, error) {
	if deps.JWT == nil {
		return nil, errors.New("api: jwt service is required")
	}

	authHandler, err := handlers.NewAuthHandler(deps.Accounts, deps.Sessions)
	if err != nil {
		return nil, err
	}
	eventHandler, err := handlers.NewEventHandler(deps.Events)
	if err != nil {
		return nil, err
	}
	registrationHandler, err := handlers.NewRegistrationHandler(deps.Registrations)
	if err != nil {
		return nil, err
	}
	blogHandler, err := handlers.NewBlogHandler(deps.Blog)
	if err != nil {
		return nil, err
	}
	contactHandler, err := handlers.NewContactHandler(deps.Contacts)
	if err != nil {
		return nil, err
	}
	adminHandler, err := handlers.NewAdminHandler(deps.Admin)
	if err != nil {
		return nil, err
	}

	r := gin.New()
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(middleware.RateLimit(deps.RateStore, "global", cfg.GlobalRateLimit, cfg.GlobalRateWindow))
	r.NoRoute(middleware.NotFoundHandler)

	requireAuth := middleware.Auth(deps.JWT)
	requireAdmin := middleware.RequireRole("admin")
	emailLimiter := middleware.RateLimit(deps.RateStore, "email", cfg.EmailRateLimit, cfg.EmailRateWindow)

	r.GET("/health", handlers.NewHealthHandler(deps.DB).Check)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	apiGroup := r.Group("/api")
	registerAuthRoutes(apiGroup, authHandler, requireAuth, emailLimiter)
	registerEventRoutes(apiGroup, eventHandler, requireAuth)
	registerRegistrationRoutes(apiGroup, registrationHandler, requireAuth, requireAdmin)
	registerBlogRoutes(apiGroup, blogHandler, requireAuth, requireAdmin)
	registerContactRoutes(apiGroup, contactHandler, requireAuth, requireAdmin)
	registerAdminRoutes(apiGroup, adminHandler, requireAuth, requireAdmin)

	return r, nil
}
