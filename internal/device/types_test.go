package device

import (
	"reflect"
	"testing"

	"github.com/edgehaven/ngsi-bridge/internal/ngsi"
)

func TestMergeDeviceWithConfiguration(t *testing.T) {
	groupLazy := []ngsi.Attribute{{Name: "temperature", Type: "Number"}}
	groupCommands := []ngsi.Attribute{{Name: "ring", Type: "command"}}
	deviceLazy := []ngsi.Attribute{{Name: "pressure", Type: "Number"}}

	group := &ConfigGroup{
		ID:         "g1",
		Service:    "smartgondor",
		Subservice: "/gardens",
		EntityType: "Light",
		Lazy:       groupLazy,
		Commands:   groupCommands,
	}

	tests := []struct {
		name         string
		device       *Device
		group        *ConfigGroup
		wantType     string
		wantLazy     []ngsi.Attribute
		wantCommands []ngsi.Attribute
	}{
		{
			name:         "group fills empty fields",
			device:       &Device{ID: "light1"},
			group:        group,
			wantType:     "Light",
			wantLazy:     groupLazy,
			wantCommands: groupCommands,
		},
		{
			name:         "device non-empty set wins",
			device:       &Device{ID: "light1", EntityType: "Lamp", Lazy: deviceLazy},
			group:        group,
			wantType:     "Lamp",
			wantLazy:     deviceLazy,
			wantCommands: groupCommands,
		},
		{
			name:         "nil group leaves device untouched",
			device:       &Device{ID: "light1", Lazy: deviceLazy},
			group:        nil,
			wantType:     "",
			wantLazy:     deviceLazy,
			wantCommands: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			merged := MergeDeviceWithConfiguration(tt.device, tt.group)

			if merged.EntityType != tt.wantType {
				t.Errorf("EntityType = %q, want %q", merged.EntityType, tt.wantType)
			}
			if !reflect.DeepEqual(merged.Lazy, tt.wantLazy) {
				t.Errorf("Lazy = %+v, want %+v", merged.Lazy, tt.wantLazy)
			}
			if !reflect.DeepEqual(merged.Commands, tt.wantCommands) {
				t.Errorf("Commands = %+v, want %+v", merged.Commands, tt.wantCommands)
			}
			if merged.Group != tt.group {
				t.Error("expected group back-reference on merged device")
			}
		})
	}
}

func TestMergeDeviceWithConfiguration_DoesNotMutateInput(t *testing.T) {
	d := &Device{ID: "light1"}
	g := &ConfigGroup{Lazy: []ngsi.Attribute{{Name: "temperature"}}}

	merged := MergeDeviceWithConfiguration(d, g)

	if len(d.Lazy) != 0 {
		t.Error("input device was mutated by merge")
	}
	merged.Lazy[0].Name = "changed"
	if g.Lazy[0].Name != "temperature" {
		t.Error("merged device shares slice storage with group")
	}
}

func TestDevice_Command(t *testing.T) {
	d := &Device{
		Commands: []ngsi.Attribute{
			{Name: "ring", Type: "command"},
			{Name: "blink", Type: "command"},
		},
	}

	if _, ok := d.Command("ring"); !ok {
		t.Error("expected to find command ring")
	}
	if _, ok := d.Command("explode"); ok {
		t.Error("did not expect to find command explode")
	}
}

func TestDevice_Clone(t *testing.T) {
	d := &Device{
		ID:     "light1",
		Active: []ngsi.Attribute{{Name: "state", Type: "string"}},
	}

	cpy := d.Clone()
	cpy.Active[0].Name = "changed"

	if d.Active[0].Name != "state" {
		t.Error("clone shares attribute storage with original")
	}
}
