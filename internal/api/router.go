package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/edgehaven/ngsi-bridge/internal/ngsi"
)

// buildRouter creates the HTTP router for the configured dialect.
// Exactly one dialect's route set is mounted per process; the /notify
// and /iot/about endpoints exist in both.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Get("/iot/about", s.handleAbout)

	if s.dialect == ngsi.DialectV1 {
		// The legacy NGSI10 prefix and the v1 prefix serve the same
		// handlers; old brokers use either.
		r.Post("/v1/updateContext", s.handleV1Update)
		r.Post("/NGSI10/updateContext", s.handleV1Update)
		r.Post("/v1/queryContext", s.handleV1Query)
		r.Post("/NGSI10/queryContext", s.handleV1Query)
		r.Post("/notify", s.handleV1Notify)
		return r
	}

	r.Post("/v2/op/update", s.handleV2Update)
	r.Post("/v2/op/query", s.handleV2Query)
	r.Post("/notify", s.handleV2Notify)
	return r
}
