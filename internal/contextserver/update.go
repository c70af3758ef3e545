package contextserver

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/edgehaven/ngsi-bridge/internal/device"
	"github.com/edgehaven/ngsi-bridge/internal/expression"
	"github.com/edgehaven/ngsi-bridge/internal/ngsi"
)

// updateAction is one step of the ordered plan built for an entity
// update. Steps run sequentially and the first failure aborts the
// rest of the plan.
type updateAction func(ctx context.Context) error

// Update runs the update pipeline for a batch of inbound entities.
// Entities are processed concurrently; the returned slice preserves
// input order and the first entity failure fails the whole batch.
func (s *Server) Update(ctx context.Context, service, subservice string, entities []ngsi.Entity) ([]ngsi.Entity, error) {
	results := make([]ngsi.Entity, len(entities))

	g, gctx := errgroup.WithContext(ctx)
	for i, ent := range entities {
		i, ent := i, ent
		g.Go(func() error {
			out, err := s.updateEntity(gctx, service, subservice, ent)
			if err != nil {
				return err
			}
			results[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// updateEntity resolves one entity, splits its attributes from its
// commands, derives expression-backed attributes and executes the
// resulting action list.
func (s *Server) updateEntity(ctx context.Context, service, subservice string, ent ngsi.Entity) (ngsi.Entity, error) {
	dev, err := s.resolve(ctx, ent.ID, service, subservice)
	if err != nil {
		return ngsi.Entity{}, err
	}

	target := Target{
		EntityID:   ent.ID,
		EntityType: s.entityType(ent.Type, dev),
		Service:    service,
		Subservice: subservice,
	}

	attrs, commands := splitCommands(dev, ent.Attributes)

	attrs, err = s.deriveAttributes(dev, attrs)
	if err != nil {
		return ngsi.Entity{}, err
	}

	actions, err := s.buildUpdateActions(target, dev, attrs, commands)
	if err != nil {
		return ngsi.Entity{}, err
	}
	for _, action := range actions {
		if err := action(ctx); err != nil {
			return ngsi.Entity{}, err
		}
	}

	s.log.Debug("entity updated",
		"entity_id", target.EntityID,
		"service", service,
		"attributes", len(attrs),
		"commands", len(commands))

	return ngsi.Entity{ID: target.EntityID, Type: target.EntityType, Attributes: ent.Attributes}, nil
}

// splitCommands partitions inbound attributes into plain attribute
// writes and command invocations. A name declared as a command on the
// device always classifies as a command, whatever its inbound type.
func splitCommands(dev *device.Device, attrs []ngsi.Attribute) (plain, commands []ngsi.Attribute) {
	for _, a := range attrs {
		if _, ok := dev.Command(a.Name); ok {
			commands = append(commands, a)
			continue
		}
		plain = append(plain, a)
	}
	return plain, commands
}

// deriveAttributes evaluates the device's expression-backed active
// declarations against the inbound attribute values and merges the
// results into the attribute list. Declarations whose expressions
// reference values absent from this update are skipped.
func (s *Server) deriveAttributes(dev *device.Device, attrs []ngsi.Attribute) ([]ngsi.Attribute, error) {
	if s.engine == nil || len(dev.Active) == 0 {
		return attrs, nil
	}

	vars := expression.ExtractContext(attrs)
	derived, err := s.engine.ProcessAttributes(dev.Active, vars, s.dialect)
	if err != nil {
		return nil, ngsi.NewInvalidExpression(err.Error())
	}

	for _, d := range derived {
		attrs = upsertAttribute(attrs, d)
	}
	return attrs, nil
}

// upsertAttribute replaces the attribute with the same name, or
// appends when no such attribute exists.
func upsertAttribute(attrs []ngsi.Attribute, attr ngsi.Attribute) []ngsi.Attribute {
	for i := range attrs {
		if attrs[i].Name == attr.Name {
			attrs[i] = attr
			return attrs
		}
	}
	return append(attrs, attr)
}

// buildUpdateActions assembles the ordered plan for one entity:
// attribute delivery first, then command dispatch, then the pending
// status side effect. A payload part with no matching handler is a
// deployment mistake and fails the entity before anything runs.
func (s *Server) buildUpdateActions(target Target, dev *device.Device, attrs, commands []ngsi.Attribute) ([]updateAction, error) {
	updateHandler := s.registry.updateHandler()
	commandHandler := s.registry.commandHandler()

	if len(attrs) > 0 && updateHandler == nil {
		return nil, ngsi.NewConfigurationError("update")
	}
	if len(commands) > 0 && commandHandler == nil && !dev.Polling {
		return nil, ngsi.NewConfigurationError("command")
	}

	var actions []updateAction

	if len(attrs) > 0 {
		actions = append(actions, func(ctx context.Context) error {
			return updateHandler(ctx, target, dev, attrs)
		})
	}

	if len(commands) > 0 {
		if dev.Polling {
			actions = append(actions, func(ctx context.Context) error {
				return s.enqueueCommands(ctx, target, commands)
			})
		} else {
			actions = append(actions, func(ctx context.Context) error {
				return commandHandler(ctx, target, dev, commands)
			})
		}

		// Every accepted command is immediately marked pending so
		// queries reflect the in-flight state before the device
		// reports a result.
		if updateHandler != nil {
			status := commandStatusAttributes(commands)
			actions = append(actions, func(ctx context.Context) error {
				return updateHandler(ctx, target, dev, status)
			})
		}
	}

	return actions, nil
}

// enqueueCommands pushes each command onto the polling queue.
func (s *Server) enqueueCommands(ctx context.Context, target Target, commands []ngsi.Attribute) error {
	if s.queue == nil {
		return ngsi.NewConfigurationError("command")
	}
	for _, cmd := range commands {
		if _, err := s.queue.Add(ctx, target.Service, target.Subservice, target.EntityID, cmd); err != nil {
			return fmt.Errorf("queue command %q for %s: %w", cmd.Name, target.EntityID, err)
		}
		s.log.Debug("command queued",
			"entity_id", target.EntityID,
			"command", cmd.Name)
	}
	return nil
}

// commandStatusAttributes builds the <name>_status = PENDING writes
// that accompany every accepted command.
func commandStatusAttributes(commands []ngsi.Attribute) []ngsi.Attribute {
	status := make([]ngsi.Attribute, 0, len(commands))
	for _, cmd := range commands {
		status = append(status, ngsi.Attribute{
			Name:  cmd.Name + "_status",
			Type:  "commandStatus",
			Value: ngsi.CommandStatusPending,
		})
	}
	return status
}
