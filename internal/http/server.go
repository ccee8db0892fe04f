package http

import (
	"context"
	stdhttp "net/http"

	"hardhat-gateway/internal/access"
	"hardhat-gateway/internal/config"
	"hardhat-gateway/internal/coordinator"
	"hardhat-gateway/internal/entitlement"
	"hardhat-gateway/internal/http/handler"
	"hardhat-gateway/internal/http/middleware"
	"hardhat-gateway/internal/payment"
	"hardhat-gateway/internal/repository"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
)

const (
	jsonKeyStatus    = "status"
	statusOK         = "ok"
	requestBodyLimit = "20M" // multipart submissions carry file parts
)

type ServerDependencies struct {
	Config   *config.Config
	Links    repository.AccessLinkRepository
	Profiles repository.ProfileRepository
	Issuer   *access.Issuer
	Sessions *access.SessionService
	// MagicSessions shares the signing secret with Sessions but carries the
	// longer lifetime used for code-based (magic-link) logins.
	MagicSessions *access.SessionService
	Subscription  *access.SubscriptionVerifier
	OneTime       *access.OneTimeVerifier
	Coordinator   *coordinator.Coordinator
	Bridge        *payment.Bridge
}

type Server struct {
	echo *echo.Echo
	deps *ServerDependencies
}

func NewServer(deps *ServerDependencies) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.HTTPErrorHandler = CustomHTTPErrorHandler

	e.Server.ReadTimeout = deps.Config.Server.ReadTimeout
	e.Server.WriteTimeout = deps.Config.Server.WriteTimeout

	// Request ID middleware (first, so all logs have request ID)
	e.Use(middleware.RequestID())
	e.Use(middleware.SecurityHeaders())
	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.BodyLimit(requestBodyLimit))

	globalRateLimiter := middleware.NewGlobalRateLimiter()
	e.Use(globalRateLimiter.Middleware(deps.Sessions))

	// Strict rate limiting for code issuance and verification
	strictRateLimiter := middleware.NewStrictRateLimiter()
	strict := strictRateLimiter.Middleware(deps.Sessions)

	entitlements := entitlement.NewResolver(deps.Links)

	accessHandler := handler.NewAccessHandler(deps.Subscription, deps.Sessions, entitlements, deps.Config.SiteBase)
	codesHandler := handler.NewCodesHandler(deps.Issuer, deps.MagicSessions, deps.Config.AdminToken)
	submissionHandler := handler.NewSubmissionHandler(deps.Coordinator, deps.Subscription, deps.OneTime, deps.Config.SiteBase)
	profileHandler := handler.NewProfileHandler(deps.Profiles)
	webhookHandler := handler.NewWebhookHandler(deps.Bridge, deps.Config.Stripe.WebhookSecret)

	e.GET("/health", healthCheck)

	// Browser form posts
	e.POST("/access/verify", accessHandler.VerifyForm, strict)

	api := e.Group("/api")

	api.GET("/auth/ping", accessHandler.Ping)
	api.GET("/access/entitlements", accessHandler.Entitlements)
	api.POST("/access/entitlements", accessHandler.Entitlements)

	api.POST("/codes/request", codesHandler.Request, strict)
	api.POST("/codes/validate", codesHandler.Validate, strict)
	api.POST("/codes/resend", codesHandler.Resend, strict)
	api.POST("/codes/admin-issue", codesHandler.AdminIssue, strict)

	api.POST("/access/submit", submissionHandler.Submit)
	api.POST("/submit", submissionHandler.RedeemToken, strict)
	api.GET("/access/status", submissionHandler.Status)
	api.GET("/access/download", submissionHandler.Download)

	api.GET("/profile/defaults", profileHandler.Get)
	api.POST("/profile/defaults", profileHandler.Save)

	api.POST("/stripe/webhook", webhookHandler.HandleStripe)

	return &Server{
		echo: e,
		deps: deps,
	}
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Echo exposes the router for tests.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

func healthCheck(c echo.Context) error {
	return c.JSON(stdhttp.StatusOK, map[string]string{
		jsonKeyStatus: statusOK,
	})
}
