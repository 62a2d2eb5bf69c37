package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"parking-lease-backend/config"
	"parking-lease-backend/internal/actuator"
	"parking-lease-backend/internal/auth"
	"parking-lease-backend/internal/lease"
	"parking-lease-backend/internal/mw"
	"parking-lease-backend/internal/store"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(s store.Store, leases *lease.Service, commander actuator.Commander, cfg *config.Config, webpushOptions *webpush.Options) *gin.Engine {
	r := gin.Default()

	handler := NewHandler(s, leases, commander, cfg, webpushOptions)

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.Server.RateLimitPerSec), cfg.Server.RateLimitBurst)

	cacheTTL := time.Duration(cfg.Server.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(cacheTTL, 10*cacheTTL)
	caching := mw.Cache(cacheStore, cacheTTL)

	authed := auth.Middleware(cfg.Auth.JWTSecret, s)
	admin := auth.RequireAdmin()

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.GET("/version", handler.GetVersion)
		api.GET("/db-check", handler.DBCheck)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)

		api.POST("/signup", handler.Signup)
		api.POST("/login", handler.Login)
		api.GET("/me", authed, handler.GetMe)

		// Telemetry ingest is keyed, not session-authenticated: the Azure
		// function relaying device messages has no user account.
		api.POST("/ingest", handler.Ingest)

		api.GET("/devices", handler.deviceAccess(authed), handler.ListDevices)
		api.GET("/devices/:device_id/slots", authed, caching, handler.GetSlotViews)

		api.POST("/leases", authed, handler.RequestLease)
		api.GET("/leases", authed, handler.ListLeases)
		api.DELETE("/leases/:id", authed, handler.CancelLease)
		api.POST("/leases/:id/approve", authed, admin, handler.ApproveLease)
		api.POST("/leases/:id/reject", authed, admin, handler.RejectLease)
		api.POST("/leases/:id/complete", authed, admin, handler.CompleteLease)

		api.POST("/users/:id/approve", authed, admin, handler.ApproveUser)
		api.POST("/users/:id/reject", authed, admin, handler.RejectUser)

		api.POST("/cmd/open-gate", authed, admin, handler.CmdOpenGate)
		api.POST("/cmd/exit-approved", authed, admin, handler.CmdExitApproved)

		api.GET("/subscriptions", authed, handler.GetSubscription)
		api.PUT("/subscriptions", authed, handler.PutSubscription)
		api.DELETE("/subscriptions", authed, handler.DeleteSubscription)
	}

	return r
}

// deviceAccess admits either a logged-in caller or the ingest API key; the
// telemetry relay polls the device list to detect a stale backend.
func (h *Handler) deviceAccess(authed gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if key := c.GetHeader("x-api-key"); key != "" && key == h.cfg.Ingest.APIKey {
			c.Next()
			return
		}
		authed(c)
	}
}
