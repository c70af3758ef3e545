// Package device implements the device directory: the registry of
// provisioned devices and tenant-scoped configuration groups the
// context server resolves inbound entities against.
//
// A Device is addressed by (id, service, subservice). Its attribute
// sets classify protocol traffic:
//
//   - lazy: polled on demand through a query
//   - active: pushed proactively by the device
//   - static: constants known to the bridge, never sourced from the device
//   - commands: remotely invocable actions modelled as attributes
//
// A ConfigGroup holds tenant/path-scoped defaults shared by many
// devices. Merging is field-level default-fill: a device's own
// non-empty declaration wins, otherwise the group's value is used.
//
// The directory is read-only to the request pipelines; provisioning
// writes happen through the Repository interfaces at bootstrap or via
// management tooling.
package device
