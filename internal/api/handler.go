package api

import (
	"github.com/SherClockHolmes/webpush-go"

	"parking-lease-backend/config"
	"parking-lease-backend/internal/actuator"
	"parking-lease-backend/internal/lease"
	"parking-lease-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store     store.Store
	leases    *lease.Service
	commander actuator.Commander
	cfg       *config.Config
	webpush   *webpush.Options
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, leases *lease.Service, commander actuator.Commander, cfg *config.Config, webpushOptions *webpush.Options) *Handler {
	return &Handler{
		store:     s,
		leases:    leases,
		commander: commander,
		cfg:       cfg,
		webpush:   webpushOptions,
	}
}
