package device

import "errors"

// Domain errors for the device package, checked with errors.Is:
//
//	if errors.Is(err, device.ErrDeviceNotFound) {
//	    // handle lookup miss
//	}
var (
	// ErrDeviceNotFound is returned when no device matches an
	// (id, service, subservice) triple.
	ErrDeviceNotFound = errors.New("device: not found")

	// ErrDeviceExists is returned when provisioning a device that is
	// already registered.
	ErrDeviceExists = errors.New("device: already exists")

	// ErrGroupNotFound is returned when a configuration group id does
	// not exist.
	ErrGroupNotFound = errors.New("device: group not found")

	// ErrGroupExists is returned when provisioning a duplicate group.
	ErrGroupExists = errors.New("device: group already exists")
)
