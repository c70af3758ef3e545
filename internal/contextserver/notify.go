package contextserver

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/edgehaven/ngsi-bridge/internal/ngsi"
)

// NotificationRecord is one entity's slice of an inbound subscription
// notification, already lifted out of its wire shape. StatusCode is
// only populated by the v1 decoder; the v2 payload carries no
// per-record status.
type NotificationRecord struct {
	EntityID   string
	EntityType string
	Attributes []ngsi.Attribute
	StatusCode string
}

// Notify runs the notification pipeline for each record. Records are
// processed concurrently and the first failure fails the batch.
func (s *Server) Notify(ctx context.Context, service, subservice string, records []NotificationRecord) error {
	if s.registry.notificationHandler() == nil {
		return ngsi.NewConfigurationError("notification")
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, rec := range records {
		rec := rec
		g.Go(func() error {
			return s.notifyRecord(gctx, service, subservice, rec)
		})
	}
	return g.Wait()
}

// notifyRecord threads one record through the middleware chain and
// hands the result to the terminal handler.
func (s *Server) notifyRecord(ctx context.Context, service, subservice string, rec NotificationRecord) error {
	if rec.StatusCode != "" && rec.StatusCode != ngsi.V1StatusOK {
		return ngsi.NewNotificationError(rec.StatusCode)
	}

	dev, err := s.resolve(ctx, rec.EntityID, service, subservice)
	if err != nil {
		return err
	}

	attrs := rec.Attributes
	for _, mw := range s.registry.notificationChain() {
		dev, attrs, err = mw(ctx, dev, attrs)
		if err != nil {
			return err
		}
	}

	handler := s.registry.notificationHandler()
	if handler == nil {
		return ngsi.NewConfigurationError("notification")
	}
	if err := handler(ctx, dev, attrs); err != nil {
		return err
	}

	s.log.Debug("notification processed",
		"entity_id", rec.EntityID,
		"service", service,
		"attributes", len(attrs))
	return nil
}
