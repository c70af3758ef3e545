package contextserver

import (
	"context"
	"errors"

	"github.com/edgehaven/ngsi-bridge/internal/device"
	"github.com/edgehaven/ngsi-bridge/internal/expression"
	"github.com/edgehaven/ngsi-bridge/internal/infrastructure/logging"
	"github.com/edgehaven/ngsi-bridge/internal/ngsi"
	"github.com/edgehaven/ngsi-bridge/internal/queue"
)

// DeviceResolver is the slice of the device directory the pipelines
// need. *device.Directory satisfies it.
type DeviceResolver interface {
	Resolve(ctx context.Context, id, service, subservice string) (*device.Device, error)
	ListWithType(ctx context.Context, entityType, service, subservice string, limit, offset int) (int, []device.Device, error)
}

// CommandQueue persists commands addressed to polling devices until
// the device collects them. *queue.Queue satisfies it.
type CommandQueue interface {
	Add(ctx context.Context, service, subservice, deviceID string, command ngsi.Attribute) (*queue.Entry, error)
}

// Deps carries everything a Server needs. All fields except Logger
// are required.
type Deps struct {
	Registry  *Registry
	Directory DeviceResolver
	Queue     CommandQueue
	Engine    *expression.Engine
	Logger    *logging.Logger

	// Dialect selects which wire dialect's conventions apply to
	// dialect-sensitive core behaviour (object_id emission, strict
	// single-entity queries).
	Dialect ngsi.Dialect

	// DefaultType fills the entity type when neither the request nor
	// the device declaration carries one.
	DefaultType string

	// ListLimit caps type-expansion queries that arrive without an
	// explicit limit.
	ListLimit int
}

// Server runs the three context pipelines against a handler registry
// and a device directory. It carries no per-request state; one
// instance serves all tenants.
type Server struct {
	registry    *Registry
	directory   DeviceResolver
	queue       CommandQueue
	engine      *expression.Engine
	log         *logging.Logger
	dialect     ngsi.Dialect
	defaultType string
	listLimit   int
}

// New assembles a Server from its dependencies.
func New(deps Deps) *Server {
	log := deps.Logger
	if log == nil {
		log = logging.Default()
	}
	listLimit := deps.ListLimit
	if listLimit <= 0 {
		listLimit = 50
	}
	return &Server{
		registry:    deps.Registry,
		directory:   deps.Directory,
		queue:       deps.Queue,
		engine:      deps.Engine,
		log:         log.With("component", "contextserver"),
		dialect:     deps.Dialect,
		defaultType: deps.DefaultType,
		listLimit:   listLimit,
	}
}

// Registry exposes the handler registry so callers can install
// handlers after construction.
func (s *Server) Registry() *Registry {
	return s.registry
}

// resolve looks the entity up in the directory and maps absence to
// the protocol-level device-not-found error.
func (s *Server) resolve(ctx context.Context, id, service, subservice string) (*device.Device, error) {
	dev, err := s.directory.Resolve(ctx, id, service, subservice)
	if err != nil {
		if errors.Is(err, device.ErrDeviceNotFound) {
			return nil, ngsi.NewDeviceNotFound(id)
		}
		return nil, err
	}
	return dev, nil
}

// entityType picks the effective type for a target: the request's
// explicit type wins, then the device declaration, then the
// configured default.
func (s *Server) entityType(requested string, dev *device.Device) string {
	if requested != "" {
		return requested
	}
	if dev != nil && dev.EntityType != "" {
		return dev.EntityType
	}
	return s.defaultType
}
