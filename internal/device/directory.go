package device

import (
	"context"
	"fmt"
)

// Directory resolves devices for the request pipelines. Every inbound
// update, query and notification goes through Resolve, which combines
// the raw device record with its configuration group defaults.
type Directory struct {
	devices Repository
	groups  GroupRepository
}

// NewDirectory creates a directory over the given repositories.
func NewDirectory(devices Repository, groups GroupRepository) *Directory {
	return &Directory{
		devices: devices,
		groups:  groups,
	}
}

// GetByName retrieves the raw device record without group merging.
// Returns ErrDeviceNotFound when no device matches.
func (dir *Directory) GetByName(ctx context.Context, id, service, subservice string) (*Device, error) {
	return dir.devices.GetByName(ctx, id, service, subservice)
}

// FindConfigurationGroup returns the configuration group owning the
// device, or nil when no group matches its scope.
func (dir *Directory) FindConfigurationGroup(ctx context.Context, d *Device) (*ConfigGroup, error) {
	return dir.groups.FindForDevice(ctx, d)
}

// Resolve retrieves a device and merges its configuration group
// defaults into it. The returned device carries the group back-reference
// and is safe for the caller to modify.
func (dir *Directory) Resolve(ctx context.Context, id, service, subservice string) (*Device, error) {
	d, err := dir.devices.GetByName(ctx, id, service, subservice)
	if err != nil {
		return nil, err
	}

	g, err := dir.groups.FindForDevice(ctx, d)
	if err != nil {
		return nil, fmt.Errorf("resolving configuration group for %q: %w", id, err)
	}

	return MergeDeviceWithConfiguration(d, g), nil
}

// ListWithType returns all devices of an entity type within a
// service/subservice, merged with their configuration groups, plus the
// total count before paging.
func (dir *Directory) ListWithType(ctx context.Context, entityType, service, subservice string, limit, offset int) (int, []Device, error) {
	count, devices, err := dir.devices.ListByType(ctx, entityType, service, subservice, limit, offset)
	if err != nil {
		return 0, nil, err
	}

	merged := make([]Device, len(devices))
	for i := range devices {
		g, err := dir.groups.FindForDevice(ctx, &devices[i])
		if err != nil {
			return 0, nil, fmt.Errorf("resolving configuration group for %q: %w", devices[i].ID, err)
		}
		merged[i] = *MergeDeviceWithConfiguration(&devices[i], g)
	}

	return count, merged, nil
}
