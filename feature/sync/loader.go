package sync

import (
	"delta-apply/core/reconcile"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	service *Service
	handler *Handler
}

// NewFeature creates the sync feature. A nil syncer leaves it disabled.
func NewFeature(syncer *reconcile.Syncer, operations []string, logger *zap.Logger) *Feature {
	f := &Feature{}
	if syncer != nil {
		f.service = NewService(syncer, operations, logger)
		f.handler = NewHandler(f.service)
	}
	return f
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "sync"
}

// IsEnabled reports whether a sync job is configured.
func (f *Feature) IsEnabled() bool {
	return f.service != nil
}

// Load registers the feature's routes.
func (f *Feature) Load(app fiber.Router) error {
	f.handler.RegisterRoutes(app)
	return nil
}
