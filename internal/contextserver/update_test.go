package contextserver

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/edgehaven/ngsi-bridge/internal/device"
	"github.com/edgehaven/ngsi-bridge/internal/ngsi"
)

func TestUpdate_AttributesReachUpdateHandler(t *testing.T) {
	srv, resolver, _ := newTestServer(t, ngsi.DialectV2)
	resolver.add(lampDevice())

	var got []ngsi.Attribute
	var gotTarget Target
	srv.Registry().SetUpdateHandler(func(_ context.Context, target Target, _ *device.Device, attrs []ngsi.Attribute) error {
		gotTarget = target
		got = append(got, attrs...)
		return nil
	})

	results, err := srv.Update(context.Background(), "smartcity", "/street", []ngsi.Entity{{
		ID: "light1",
		Attributes: []ngsi.Attribute{
			{Name: "luminosity", Type: "Number", Value: "80"},
		},
	}})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if len(results) != 1 || results[0].ID != "light1" {
		t.Fatalf("results = %+v, want one entity light1", results)
	}
	if results[0].Type != "Lamp" {
		t.Fatalf("entity type = %q, want declared type Lamp", results[0].Type)
	}
	if gotTarget.Service != "smartcity" || gotTarget.Subservice != "/street" {
		t.Fatalf("target tenancy = %+v", gotTarget)
	}
	if len(got) != 1 || got[0].Name != "luminosity" {
		t.Fatalf("handler attrs = %+v, want luminosity only", got)
	}
}

func TestUpdate_UnknownDevice(t *testing.T) {
	srv, _, _ := newTestServer(t, ngsi.DialectV2)
	srv.Registry().SetUpdateHandler(func(context.Context, Target, *device.Device, []ngsi.Attribute) error { return nil })

	_, err := srv.Update(context.Background(), "smartcity", "/street", []ngsi.Entity{{
		ID:         "ghost",
		Attributes: []ngsi.Attribute{{Name: "a", Value: "1"}},
	}})

	var perr *ngsi.Error
	if !errors.As(err, &perr) || perr.Name != "DEVICE_NOT_FOUND" {
		t.Fatalf("err = %v, want DEVICE_NOT_FOUND", err)
	}
}

func TestUpdate_CommandNameWinsClassification(t *testing.T) {
	srv, resolver, _ := newTestServer(t, ngsi.DialectV2)
	resolver.add(lampDevice())

	var updated, commanded []string
	srv.Registry().SetUpdateHandler(func(_ context.Context, _ Target, _ *device.Device, attrs []ngsi.Attribute) error {
		for _, a := range attrs {
			updated = append(updated, a.Name)
		}
		return nil
	})
	srv.Registry().SetCommandHandler(func(_ context.Context, _ Target, _ *device.Device, cmds []ngsi.Attribute) error {
		for _, c := range cmds {
			commanded = append(commanded, c.Name)
		}
		return nil
	})

	_, err := srv.Update(context.Background(), "smartcity", "/street", []ngsi.Entity{{
		ID: "light1",
		Attributes: []ngsi.Attribute{
			{Name: "luminosity", Type: "Number", Value: "80"},
			// Declared as a command, so the inbound type is irrelevant.
			{Name: "switch", Type: "string", Value: "on"},
		},
	}})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	if len(commanded) != 1 || commanded[0] != "switch" {
		t.Fatalf("commanded = %v, want [switch]", commanded)
	}
	for _, name := range updated {
		if name == "switch" {
			t.Fatal("switch reached the update handler as a plain attribute")
		}
	}
}

func TestUpdate_CommandMarkedPending(t *testing.T) {
	srv, resolver, _ := newTestServer(t, ngsi.DialectV2)
	resolver.add(lampDevice())

	var statusWrites []ngsi.Attribute
	srv.Registry().SetUpdateHandler(func(_ context.Context, _ Target, _ *device.Device, attrs []ngsi.Attribute) error {
		for _, a := range attrs {
			if a.Name == "switch_status" {
				statusWrites = append(statusWrites, a)
			}
		}
		return nil
	})
	srv.Registry().SetCommandHandler(func(context.Context, Target, *device.Device, []ngsi.Attribute) error { return nil })

	_, err := srv.Update(context.Background(), "smartcity", "/street", []ngsi.Entity{{
		ID:         "light1",
		Attributes: []ngsi.Attribute{{Name: "switch", Type: "command", Value: "on"}},
	}})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	if len(statusWrites) != 1 {
		t.Fatalf("status writes = %+v, want exactly one", statusWrites)
	}
	if statusWrites[0].Value != ngsi.CommandStatusPending {
		t.Fatalf("status value = %v, want %s", statusWrites[0].Value, ngsi.CommandStatusPending)
	}
}

func TestUpdate_PollingDeviceQueuesCommands(t *testing.T) {
	srv, resolver, cmdQueue := newTestServer(t, ngsi.DialectV2)
	dev := lampDevice()
	dev.Polling = true
	resolver.add(dev)

	var pushed []string
	srv.Registry().SetUpdateHandler(func(context.Context, Target, *device.Device, []ngsi.Attribute) error { return nil })
	srv.Registry().SetCommandHandler(func(_ context.Context, _ Target, _ *device.Device, cmds []ngsi.Attribute) error {
		for _, c := range cmds {
			pushed = append(pushed, c.Name)
		}
		return nil
	})

	_, err := srv.Update(context.Background(), "smartcity", "/street", []ngsi.Entity{{
		ID:         "light1",
		Attributes: []ngsi.Attribute{{Name: "switch", Type: "command", Value: "on"}},
	}})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	if len(pushed) != 0 {
		t.Fatalf("command handler invoked for a polling device: %v", pushed)
	}
	if len(cmdQueue.entries) != 1 || cmdQueue.entries[0].Command.Name != "switch" {
		t.Fatalf("queue entries = %+v, want switch queued", cmdQueue.entries)
	}
	if cmdQueue.entries[0].DeviceID != "light1" {
		t.Fatalf("queued device = %q, want light1", cmdQueue.entries[0].DeviceID)
	}
}

func TestUpdate_MissingUpdateHandler(t *testing.T) {
	srv, resolver, _ := newTestServer(t, ngsi.DialectV2)
	resolver.add(lampDevice())

	_, err := srv.Update(context.Background(), "smartcity", "/street", []ngsi.Entity{{
		ID:         "light1",
		Attributes: []ngsi.Attribute{{Name: "luminosity", Value: "80"}},
	}})

	var perr *ngsi.Error
	if !errors.As(err, &perr) || perr.Name != "CONFIGURATION_ERROR" {
		t.Fatalf("err = %v, want CONFIGURATION_ERROR", err)
	}
}

func TestUpdate_DerivedAttributes(t *testing.T) {
	srv, resolver, _ := newTestServer(t, ngsi.DialectV2)
	dev := lampDevice()
	dev.Active = []ngsi.Attribute{
		{Name: "consumption", Type: "Number", Expression: "level * 2"},
		// References a value this update never carries; skipped.
		{Name: "pressure", Type: "Number", Expression: "raw / 10"},
	}
	resolver.add(dev)

	var got []ngsi.Attribute
	srv.Registry().SetUpdateHandler(func(_ context.Context, _ Target, _ *device.Device, attrs []ngsi.Attribute) error {
		got = attrs
		return nil
	})

	_, err := srv.Update(context.Background(), "smartcity", "/street", []ngsi.Entity{{
		ID:         "light1",
		Attributes: []ngsi.Attribute{{Name: "level", Type: "Number", Value: "21"}},
	}})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	names := make([]string, 0, len(got))
	for _, a := range got {
		names = append(names, a.Name)
	}
	sort.Strings(names)
	want := []string{"consumption", "level"}
	if len(names) != len(want) || names[0] != want[0] || names[1] != want[1] {
		t.Fatalf("handler attrs = %v, want %v", names, want)
	}

	for _, a := range got {
		if a.Name == "consumption" && a.Value != int64(42) {
			t.Fatalf("consumption = %v (%T), want 42", a.Value, a.Value)
		}
	}
}

func TestUpdate_BatchFansOutAndPreservesOrder(t *testing.T) {
	srv, resolver, _ := newTestServer(t, ngsi.DialectV2)
	for _, id := range []string{"d1", "d2", "d3"} {
		resolver.add(&device.Device{ID: id, EntityType: "Sensor", Service: "smartcity", Subservice: "/street"})
	}

	var mu sync.Mutex
	seen := map[string]bool{}
	srv.Registry().SetUpdateHandler(func(_ context.Context, target Target, _ *device.Device, _ []ngsi.Attribute) error {
		mu.Lock()
		defer mu.Unlock()
		seen[target.EntityID] = true
		return nil
	})

	results, err := srv.Update(context.Background(), "smartcity", "/street", []ngsi.Entity{
		{ID: "d1", Attributes: []ngsi.Attribute{{Name: "t", Value: "1"}}},
		{ID: "d2", Attributes: []ngsi.Attribute{{Name: "t", Value: "2"}}},
		{ID: "d3", Attributes: []ngsi.Attribute{{Name: "t", Value: "3"}}},
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	if len(seen) != 3 {
		t.Fatalf("handled %d entities, want 3", len(seen))
	}
	for i, id := range []string{"d1", "d2", "d3"} {
		if results[i].ID != id {
			t.Fatalf("results[%d].ID = %q, want %q (order must match input)", i, results[i].ID, id)
		}
	}
}

func TestUpdate_BatchFirstErrorWins(t *testing.T) {
	srv, resolver, _ := newTestServer(t, ngsi.DialectV2)
	resolver.add(&device.Device{ID: "d1", EntityType: "Sensor", Service: "smartcity", Subservice: "/street"})
	srv.Registry().SetUpdateHandler(func(context.Context, Target, *device.Device, []ngsi.Attribute) error { return nil })

	_, err := srv.Update(context.Background(), "smartcity", "/street", []ngsi.Entity{
		{ID: "d1", Attributes: []ngsi.Attribute{{Name: "t", Value: "1"}}},
		{ID: "missing", Attributes: []ngsi.Attribute{{Name: "t", Value: "2"}}},
	})

	var perr *ngsi.Error
	if !errors.As(err, &perr) || perr.Name != "DEVICE_NOT_FOUND" {
		t.Fatalf("err = %v, want the failing entity's error", err)
	}
}
