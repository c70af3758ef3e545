package contextserver

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/edgehaven/ngsi-bridge/internal/device"
	"github.com/edgehaven/ngsi-bridge/internal/ngsi"
)

// EntityRef names an entity a query asks about. Exactly one of ID and
// IsPattern-qualified ID is meaningful; Type alone selects every
// device of that type.
type EntityRef struct {
	ID        string
	Type      string
	IsPattern bool
}

// QueryResult carries the entities a query produced, plus whether the
// result came from a type expansion. Expanded results always render
// as an array on the wire, even when one or zero entities matched.
type QueryResult struct {
	Entities []ngsi.Entity
	Expanded bool
}

// Query runs the query pipeline for a batch of entity references.
// References resolve concurrently; the result preserves input order
// and the first failure fails the batch.
func (s *Server) Query(ctx context.Context, service, subservice string, refs []EntityRef, attrNames []string) (*QueryResult, error) {
	if s.dialect == ngsi.DialectV2 {
		if len(refs) != 1 {
			return nil, ngsi.NewBadRequest("queries must address exactly one entity")
		}
		if refs[0].IsPattern {
			return nil, ngsi.NewBadRequest("id patterns are not supported in queries")
		}
		if refs[0].ID == "" && refs[0].Type != "" {
			return s.queryByType(ctx, service, subservice, refs[0].Type, attrNames)
		}
	}

	results := make([]ngsi.Entity, len(refs))

	g, gctx := errgroup.WithContext(ctx)
	for i, ref := range refs {
		i, ref := i, ref
		g.Go(func() error {
			ent, err := s.queryEntity(gctx, service, subservice, ref, attrNames)
			if err != nil {
				return err
			}
			results[i] = ent
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &QueryResult{Entities: results}, nil
}

// queryByType expands a type-only query into one lookup per device of
// that type. The expansion is capped by the configured list limit.
func (s *Server) queryByType(ctx context.Context, service, subservice, entityType string, attrNames []string) (*QueryResult, error) {
	_, devices, err := s.directory.ListWithType(ctx, entityType, service, subservice, s.listLimit, 0)
	if err != nil {
		return nil, err
	}

	results := make([]ngsi.Entity, len(devices))

	g, gctx := errgroup.WithContext(ctx)
	for i, dev := range devices {
		i, dev := i, dev
		g.Go(func() error {
			ref := EntityRef{ID: dev.ID, Type: entityType}
			ent, err := s.queryEntity(gctx, service, subservice, ref, attrNames)
			if err != nil {
				return err
			}
			results[i] = ent
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &QueryResult{Entities: results, Expanded: true}, nil
}

// queryEntity resolves one device and produces its current entity
// view: handler-supplied values first, then the device's static
// attributes.
func (s *Server) queryEntity(ctx context.Context, service, subservice string, ref EntityRef, attrNames []string) (ngsi.Entity, error) {
	dev, err := s.resolve(ctx, ref.ID, service, subservice)
	if err != nil {
		return ngsi.Entity{}, err
	}

	target := Target{
		EntityID:   ref.ID,
		EntityType: s.entityType(ref.Type, dev),
		Service:    service,
		Subservice: subservice,
	}

	names := completeAttributeNames(dev, attrNames)

	handler := s.registry.queryHandler()
	var attrs []ngsi.Attribute
	if handler != nil {
		attrs, err = handler(ctx, target, dev, names)
		if err != nil {
			return ngsi.Entity{}, err
		}
	} else {
		attrs = defaultQueryAttributes(dev, names)
	}

	attrs = mergeStaticAttributes(dev, attrs, attrNames)

	return ngsi.Entity{ID: target.EntityID, Type: target.EntityType, Attributes: attrs}, nil
}

// completeAttributeNames fills an empty request with the device's
// lazy declarations. Nil means the handler decides what "all" means.
func completeAttributeNames(dev *device.Device, requested []string) []string {
	if len(requested) > 0 {
		return requested
	}
	if len(dev.Lazy) > 0 {
		return ngsi.AttributeNames(dev.Lazy)
	}
	return nil
}

// defaultQueryAttributes is the built-in query handler: empty values
// typed from the device's lazy and command declarations, falling back
// to the default attribute type for unknown names.
func defaultQueryAttributes(dev *device.Device, names []string) []ngsi.Attribute {
	attrs := make([]ngsi.Attribute, 0, len(names))
	for _, name := range names {
		attrs = append(attrs, ngsi.Attribute{
			Name: name,
			Type: declaredType(dev, name),
		})
	}
	return attrs
}

// declaredType looks a name up in the device's lazy and command
// declarations.
func declaredType(dev *device.Device, name string) string {
	for _, a := range dev.Lazy {
		if a.Name == name && a.Type != "" {
			return a.Type
		}
	}
	for _, c := range dev.Commands {
		if c.Name == name && c.Type != "" {
			return c.Type
		}
	}
	return ngsi.DefaultAttributeType
}

// mergeStaticAttributes appends the device's static declarations to
// the handler's answer. When the request named specific attributes,
// only the named statics are included; statics never shadow a value
// the handler already produced.
func mergeStaticAttributes(dev *device.Device, attrs []ngsi.Attribute, requested []string) []ngsi.Attribute {
	for _, static := range dev.StaticAttributes {
		if len(requested) > 0 && !containsName(requested, static.Name) {
			continue
		}
		if hasAttribute(attrs, static.Name) {
			continue
		}
		attrs = append(attrs, static)
	}
	return attrs
}

func containsName(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

func hasAttribute(attrs []ngsi.Attribute, name string) bool {
	for _, a := range attrs {
		if a.Name == name {
			return true
		}
	}
	return false
}
