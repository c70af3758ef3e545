package contextserver

import (
	"context"
	"fmt"
	"testing"

	"github.com/edgehaven/ngsi-bridge/internal/device"
	"github.com/edgehaven/ngsi-bridge/internal/expression"
	"github.com/edgehaven/ngsi-bridge/internal/ngsi"
	"github.com/edgehaven/ngsi-bridge/internal/queue"
)

// stubResolver serves devices from a map keyed by id/service/subservice.
type stubResolver struct {
	devices map[string]*device.Device
}

func newStubResolver() *stubResolver {
	return &stubResolver{devices: make(map[string]*device.Device)}
}

func (r *stubResolver) add(d *device.Device) {
	r.devices[resolverKey(d.ID, d.Service, d.Subservice)] = d
}

func (r *stubResolver) Resolve(_ context.Context, id, service, subservice string) (*device.Device, error) {
	d, ok := r.devices[resolverKey(id, service, subservice)]
	if !ok {
		return nil, device.ErrDeviceNotFound
	}
	return d.Clone(), nil
}

func (r *stubResolver) ListWithType(_ context.Context, entityType, service, subservice string, limit, _ int) (int, []device.Device, error) {
	var out []device.Device
	for _, d := range r.devices {
		if d.EntityType == entityType && d.Service == service && d.Subservice == subservice {
			out = append(out, *d.Clone())
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return len(out), out, nil
}

func resolverKey(id, service, subservice string) string {
	return fmt.Sprintf("%s|%s|%s", id, service, subservice)
}

// stubQueue records queued commands in memory.
type stubQueue struct {
	entries []queue.Entry
	err     error
}

func (q *stubQueue) Add(_ context.Context, service, subservice, deviceID string, command ngsi.Attribute) (*queue.Entry, error) {
	if q.err != nil {
		return nil, q.err
	}
	e := queue.Entry{
		Service:    service,
		Subservice: subservice,
		DeviceID:   deviceID,
		Command:    command,
	}
	q.entries = append(q.entries, e)
	return &e, nil
}

// newTestServer wires a Server around in-memory stubs.
func newTestServer(t *testing.T, dialect ngsi.Dialect) (*Server, *stubResolver, *stubQueue) {
	t.Helper()

	resolver := newStubResolver()
	cmdQueue := &stubQueue{}
	srv := New(Deps{
		Registry:    NewRegistry(),
		Directory:   resolver,
		Queue:       cmdQueue,
		Engine:      expression.NewEngine(),
		Dialect:     dialect,
		DefaultType: "Thing",
		ListLimit:   50,
	})
	return srv, resolver, cmdQueue
}

func lampDevice() *device.Device {
	return &device.Device{
		ID:         "light1",
		EntityType: "Lamp",
		Service:    "smartcity",
		Subservice: "/street",
		Lazy: []ngsi.Attribute{
			{Name: "luminosity", Type: "Number"},
		},
		Commands: []ngsi.Attribute{
			{Name: "switch", Type: "command"},
		},
		StaticAttributes: []ngsi.Attribute{
			{Name: "location", Type: "geo:point", Value: "51.5, -0.1"},
		},
	}
}
