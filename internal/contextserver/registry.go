package contextserver

import (
	"context"
	"sync"

	"github.com/edgehaven/ngsi-bridge/internal/device"
	"github.com/edgehaven/ngsi-bridge/internal/ngsi"
)

// Target identifies the entity and tenant an operation applies to.
// Handlers receive it alongside the resolved device so they can route
// by entity identity without touching tenancy headers themselves.
type Target struct {
	EntityID   string
	EntityType string
	Service    string
	Subservice string
}

// UpdateHandler receives plain (non-command) attribute writes for a
// device. Returning an error aborts the remaining actions for that
// entity and fails the batch.
type UpdateHandler func(ctx context.Context, target Target, dev *device.Device, attrs []ngsi.Attribute) error

// CommandHandler receives attributes classified as commands for
// push-mode devices. Polling devices never reach it; their commands
// land on the queue instead.
type CommandHandler func(ctx context.Context, target Target, dev *device.Device, commands []ngsi.Attribute) error

// QueryHandler produces current attribute values for a device. The
// requested names are already completed against the device's lazy
// declarations; nil means all.
type QueryHandler func(ctx context.Context, target Target, dev *device.Device, attrNames []string) ([]ngsi.Attribute, error)

// NotificationHandler is the terminal consumer of an inbound
// subscription notification, after the middleware chain has run.
type NotificationHandler func(ctx context.Context, dev *device.Device, attrs []ngsi.Attribute) error

// NotificationMiddleware transforms a notification before it reaches
// the terminal handler. Middlewares run strictly in registration
// order; each receives the previous one's output.
type NotificationMiddleware func(ctx context.Context, dev *device.Device, attrs []ngsi.Attribute) (*device.Device, []ngsi.Attribute, error)

// Registry holds the handler set for one server instance. Handlers
// hang off the instance rather than package state so two servers in
// one process cannot clobber each other's registrations.
type Registry struct {
	mu           sync.RWMutex
	update       UpdateHandler
	command      CommandHandler
	query        QueryHandler
	notification NotificationHandler
	middlewares  []NotificationMiddleware
}

// NewRegistry returns an empty handler registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// SetUpdateHandler installs the update handler, replacing any
// previous one.
func (r *Registry) SetUpdateHandler(h UpdateHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.update = h
}

// SetCommandHandler installs the command handler, replacing any
// previous one.
func (r *Registry) SetCommandHandler(h CommandHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.command = h
}

// SetQueryHandler installs the query handler, replacing any previous
// one. When unset, queries fall back to the built-in handler that
// returns empty values typed from the device's declarations.
func (r *Registry) SetQueryHandler(h QueryHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.query = h
}

// SetNotificationHandler installs the terminal notification handler,
// replacing any previous one.
func (r *Registry) SetNotificationHandler(h NotificationHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notification = h
}

// AddNotificationMiddleware appends a middleware to the notification
// chain. Order of calls is order of execution.
func (r *Registry) AddNotificationMiddleware(m NotificationMiddleware) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.middlewares = append(r.middlewares, m)
}

// Clear drops every registered handler and middleware, returning the
// registry to its initial empty state.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.update = nil
	r.command = nil
	r.query = nil
	r.notification = nil
	r.middlewares = nil
}

func (r *Registry) updateHandler() UpdateHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.update
}

func (r *Registry) commandHandler() CommandHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.command
}

func (r *Registry) queryHandler() QueryHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.query
}

func (r *Registry) notificationHandler() NotificationHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.notification
}

func (r *Registry) notificationChain() []NotificationMiddleware {
	r.mu.RLock()
	defer r.mu.RUnlock()
	chain := make([]NotificationMiddleware, len(r.middlewares))
	copy(chain, r.middlewares)
	return chain
}
