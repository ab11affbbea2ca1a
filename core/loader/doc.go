// Package loader provides the feature loading system of the fake tracker.
//
// Each feature implements the Feature interface, which defines its
// enablement and route registration.
//
// # Feature Interface
//
//	type Feature interface {
//	    Name() string
//	    IsEnabled() bool
//	    Load(app fiber.Router) error
//	}
//
// # Manager
//
// The Manager holds the registry of features:
//   - Register adds a feature.
//   - LoadAll loads the enabled ones in registration order.
package loader
