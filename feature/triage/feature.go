package triage

import (
	"pr-dashboard/core/upstream"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	service *Service
	handler *Handler
}

// NewFeature wires the full triage engine around a database connection and an
// upstream client.
func NewFeature(db *gorm.DB, client upstream.Client, cfg upstream.Config, logger *zap.Logger) *Feature {
	store := NewStore(db)
	syncer := NewSyncer(client, cfg.PerPage, logger)
	reservations := NewReservations(store, cfg.Owner, cfg.Repo, logger)
	housekeeper := NewHousekeeper(store, logger)
	coordinator := NewCoordinator(store, syncer, reservations, housekeeper)

	svc := NewService(coordinator, logger)
	h := NewHandler(svc)
	return &Feature{service: svc, handler: h}
}

// Service exposes the triage facade, used by the CLI one-shot commands.
func (f *Feature) Service() *Service {
	return f.service
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "triage"
}

// IsEnabled checks if the feature is enabled.
func (f *Feature) IsEnabled() bool {
	return true
}

// Load registers the feature's routes.
func (f *Feature) Load(app fiber.Router) error {
	f.handler.RegisterRoutes(app)
	return nil
}
