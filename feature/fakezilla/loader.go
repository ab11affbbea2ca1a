package fakezilla

import (
	"bugsync/core/server"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	service *Service
	handler *Handler
}

// NewFeature creates the fake tracker feature.
func NewFeature(store *Store, cfg server.Config, logger *zap.Logger) *Feature {
	svc := NewService(store, cfg, logger)
	return &Feature{service: svc, handler: NewHandler(svc)}
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "fakezilla"
}

// IsEnabled checks if the feature is enabled.
func (f *Feature) IsEnabled() bool {
	return true
}

// Service returns the feature's service.
func (f *Feature) Service() *Service {
	return f.service
}

// Load mounts the REST API under /rest and the health check at /health.
func (f *Feature) Load(app fiber.Router) error {
	f.handler.RegisterRoutes(app.Group("/rest"))
	app.Get("/health", f.handler.HandleHealth)
	return nil
}
