package device

import (
	"time"

	"github.com/edgehaven/ngsi-bridge/internal/ngsi"
)

// Device represents one provisioned device.
type Device struct {
	// Identity
	ID         string `json:"id"`
	EntityType string `json:"entity_type"`
	Service    string `json:"service"`
	Subservice string `json:"subservice"`

	// Attribute sets
	Lazy             []ngsi.Attribute `json:"lazy,omitempty"`
	Active           []ngsi.Attribute `json:"active,omitempty"`
	StaticAttributes []ngsi.Attribute `json:"static_attributes,omitempty"`
	Commands         []ngsi.Attribute `json:"commands,omitempty"`

	// Polling devices cannot receive pushed commands; commands are
	// queued for later pickup instead.
	Polling bool `json:"polling"`

	// Group is the owning configuration group, set when the device is
	// resolved through the directory. Nil when no group matches.
	Group *ConfigGroup `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Command returns the declared command with the given name, or false.
func (d *Device) Command(name string) (ngsi.Attribute, bool) {
	for _, c := range d.Commands {
		if c.Name == name {
			return c, true
		}
	}
	return ngsi.Attribute{}, false
}

// Clone returns an independent copy of the device. Attribute slices are
// copied so pipeline stages can complete a device without mutating the
// directory's record.
func (d *Device) Clone() *Device {
	if d == nil {
		return nil
	}
	cpy := *d
	cpy.Lazy = cloneAttributes(d.Lazy)
	cpy.Active = cloneAttributes(d.Active)
	cpy.StaticAttributes = cloneAttributes(d.StaticAttributes)
	cpy.Commands = cloneAttributes(d.Commands)
	return &cpy
}

func cloneAttributes(attrs []ngsi.Attribute) []ngsi.Attribute {
	if attrs == nil {
		return nil
	}
	cpy := make([]ngsi.Attribute, len(attrs))
	copy(cpy, attrs)
	return cpy
}

// ConfigGroup holds tenant/path-scoped default declarations shared by
// the devices of one entity type.
type ConfigGroup struct {
	ID         string `json:"id"`
	Service    string `json:"service"`
	Subservice string `json:"subservice"`
	EntityType string `json:"entity_type"`

	Lazy             []ngsi.Attribute `json:"lazy,omitempty"`
	Active           []ngsi.Attribute `json:"active,omitempty"`
	StaticAttributes []ngsi.Attribute `json:"static_attributes,omitempty"`
	Commands         []ngsi.Attribute `json:"commands,omitempty"`

	// Subscriptions are broker subscription definitions provisioned for
	// every device of the group.
	Subscriptions []map[string]any `json:"subscriptions,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// MergeDeviceWithConfiguration fills device fields from the group's
// defaults. The merge is field-level default-fill, not deep replace: a
// device's own non-empty set wins, otherwise the group's value is used.
// The input device is not modified; a nil group yields a plain clone.
func MergeDeviceWithConfiguration(d *Device, g *ConfigGroup) *Device {
	merged := d.Clone()
	merged.Group = g
	if g == nil {
		return merged
	}

	if merged.EntityType == "" {
		merged.EntityType = g.EntityType
	}
	if len(merged.Lazy) == 0 {
		merged.Lazy = cloneAttributes(g.Lazy)
	}
	if len(merged.Active) == 0 {
		merged.Active = cloneAttributes(g.Active)
	}
	if len(merged.StaticAttributes) == 0 {
		merged.StaticAttributes = cloneAttributes(g.StaticAttributes)
	}
	if len(merged.Commands) == 0 {
		merged.Commands = cloneAttributes(g.Commands)
	}

	return merged
}
