// Package queue implements the durable command queue for polling
// devices. Devices that cannot receive pushed commands collect their
// pending commands from here on their next poll; the update pipeline
// pushes into the queue instead of invoking the command handler
// directly for such devices.
package queue
