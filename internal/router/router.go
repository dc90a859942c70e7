package router // package router defines how HTTP routes are registered for the application

import (
	"errors"   // errors unwraps echo.HTTPError values in the error handler
	"net/http" // net/http provides status codes

	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing
	"github.com/redis/go-redis/v9" // redis backs the rate limiter and response cache when available
	"go.uber.org/zap"              // zap logs unexpected errors from the error handler

	"github.com/iliyamo/equipment-control/internal/config"     // rate limit and cache settings
	"github.com/iliyamo/equipment-control/internal/handler"    // import the handlers that implement the pages and endpoints
	"github.com/iliyamo/equipment-control/internal/middleware" // import middleware for sessions, roles, rate limiting and caching
)

// Handlers bundles every handler the router mounts.
type Handlers struct {
	Auth     *handler.AuthHandler
	Views    *handler.ViewHandler
	Admin    *handler.AdminHandler
	Dispatch *handler.DispatchHandler
	Health   echo.HandlerFunc
}

// Options carries the infrastructure shared by the route-level middleware.
type Options struct {
	Sessions  middleware.SessionResolver
	RateLimit config.RateLimitConfig
	Cache     config.CacheConfig
	Redis     *redis.Client // nil selects the in-process limiter and disables caching
	Log       *zap.Logger
}

// RegisterRoutes mounts every route on e.  Anonymous routes come first,
// then the pages that need a signed-in user, then the admin pages.
func RegisterRoutes(e *echo.Echo, h Handlers, opts Options) {
	// Resolve the session cookie on every request.  This never rejects a
	// request; the role middleware below decides what anonymous callers see.
	e.Use(middleware.Session(opts.Sessions))

	// Client IPs come from the TCP peer only.  X-Real-IP and X-Forwarded-For
	// are caller controlled and would let anyone pick their own rate bucket.
	e.IPExtractor = echo.ExtractIPDirect()

	// Render unknown routes and missing records with the 404 page.
	e.HTTPErrorHandler = errorHandler(e, h.Views, opts.Log)

	// Static assets (toggle script and stylesheet) are embedded in the binary.
	e.StaticFS("/static", handler.StaticFS())

	// Health check for load balancers and monitoring systems.
	e.GET("/healthz", h.Health)

	// The home page just forwards to the dashboard.
	e.GET("/", h.Views.Home)

	// Registration and login forms are open to everyone.
	e.GET("/register", h.Auth.RegisterForm)
	e.POST("/register", h.Auth.Register)
	e.GET("/login", h.Auth.LoginForm)
	e.POST("/login", h.Auth.Login)

	// The ESP callback is unauthenticated, so it is rate limited per client.
	e.POST("/request_to_esp", h.Dispatch.RequestToESP,
		middleware.NewTokenBucket(opts.RateLimit, opts.Redis, opts.Log))

	// Pages for any signed-in user.  The middleware is attached per route
	// rather than through a root group so unknown paths still reach the 404
	// page instead of the login redirect.
	login := middleware.RequireLogin()
	e.GET("/dashboard", h.Views.Dashboard, login)
	e.GET("/building/:building", h.Views.Building, login)
	e.GET("/logout", h.Auth.Logout, login)
	// The building list is cached in Redis between equipment writes.
	e.GET("/api/buildings", h.Views.Buildings, login, middleware.NewRedisCache(opts.Cache, opts.Redis))

	// Administration pages.  Non-admins get a 403 naming their role.
	admin := e.Group("/admin", middleware.RequireAdmin())
	admin.GET("", h.Admin.Index)
	admin.GET("/add_ir_command", h.Admin.AddIRCommandForm)
	admin.POST("/add_ir_command", h.Admin.AddIRCommand)
	admin.GET("/add_equipment", h.Admin.AddEquipmentForm)
	admin.POST("/add_equipment", h.Admin.AddEquipment)
	admin.GET("/edit_ir_command/:id", h.Admin.EditIRCommandForm)
	admin.POST("/edit_ir_command/:id", h.Admin.EditIRCommand)
	admin.GET("/edit_equipment/:id", h.Admin.EditEquipmentForm)
	admin.POST("/edit_equipment/:id", h.Admin.EditEquipment)
	admin.GET("/export/equipment.xlsx", h.Admin.Export)
}

// errorHandler renders the 404 page for not-found errors and defers to
// echo's default handler for everything else.
func errorHandler(e *echo.Echo, views *handler.ViewHandler, log *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		var he *echo.HTTPError
		if errors.As(err, &he) && he.Code == http.StatusNotFound {
			if rerr := views.NotFound(c); rerr != nil {
				log.Error("render 404 page failed", zap.Error(rerr))
				e.DefaultHTTPErrorHandler(err, c)
			}
			return
		}
		e.DefaultHTTPErrorHandler(err, c)
	}
}
