package api

import (
	"context"
	"net"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"golang.org/x/time/rate"

	"github.com/usermanager/user-management/internal/api/handler"
	"github.com/usermanager/user-management/internal/api/middleware"
	"github.com/usermanager/user-management/internal/core/ports"
)

// RateLimit configures the per-client limiter on the /auth routes. A zero
// Rate disables limiting.
type RateLimit struct {
	Rate  rate.Limit
	Burst int
}

// Dependencies carries everything the HTTP layer needs.
type Dependencies struct {
	AuthService  ports.AuthService
	UserService  ports.UserService
	TokenCodec   ports.TokenCodec
	Users        ports.UserLookup
	HealthChecks []handler.Check
	AuthLimit    RateLimit

	// TrustedProxies lists the proxy ranges whose X-Forwarded-For header is
	// believed. When empty the client address is the socket peer.
	TrustedProxies []*net.IPNet

	Log zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
// ctx bounds background work owned by the router, such as the rate limiter's
// sweeper.
func NewRouter(ctx context.Context, deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)
	e.IPExtractor = ipExtractor(deps.TrustedProxies)

	policy := middleware.DefaultPolicy()

	// --- Global middleware ---
	// The gate and the policy run for every route, matched or not.
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(deps.Log))
	e.Use(middleware.Metrics())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.IdentityGate(middleware.GateConfig{
		Codec:  deps.TokenCodec,
		Users:  deps.Users,
		Policy: policy,
		Log:    deps.Log,
	}))
	e.Use(middleware.Authorize(policy))

	// --- Auth routes ---
	authHandler := handler.NewAuthHandler(deps.AuthService)
	auth := e.Group("/auth")
	if deps.AuthLimit.Rate > 0 {
		auth.Use(middleware.NewRateLimiter(ctx, deps.AuthLimit.Rate, deps.AuthLimit.Burst).Middleware())
	}
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	// --- Admin routes (ADMIN) ---
	userHandler := handler.NewUserHandler(deps.UserService)
	admin := e.Group("/admin")
	admin.GET("/get-all-users", userHandler.List)
	admin.GET("/get-users/:id", userHandler.Get)
	admin.PUT("/update/:id", userHandler.Update)
	admin.DELETE("/delete/:id", userHandler.Delete)

	// --- Shared routes (ADMIN or USER) ---
	e.GET("/adminuser/get-profile", userHandler.Profile)

	// --- Health probes, metrics and docs (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(deps.HealthChecks...)

	e.GET("/health", healthHandler.Liveness)           // liveness  – is the process alive?
	e.GET("/health/ready", readinessHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

// ipExtractor decides how c.RealIP resolves the client address, which keys
// the rate limiter. Forwarding headers are only read from trusted proxies.
func ipExtractor(trusted []*net.IPNet) echo.IPExtractor {
	if len(trusted) == 0 {
		return echo.ExtractIPDirect()
	}
	opts := []echo.TrustOption{
		echo.TrustLoopback(false),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(false),
	}
	for _, n := range trusted {
		opts = append(opts, echo.TrustIPRange(n))
	}
	return echo.ExtractIPFromXFFHeader(opts...)
}
