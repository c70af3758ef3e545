package api

import (
	"encoding/json"
	"net/http"

	"github.com/edgehaven/ngsi-bridge/internal/contextserver"
	"github.com/edgehaven/ngsi-bridge/internal/ngsi"
)

// handleV2Update serves POST /v2/op/update. A successful batch is
// acknowledged with 204 and an empty body.
func (s *Server) handleV2Update(w http.ResponseWriter, r *http.Request) {
	var req ngsi.V2UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, ngsi.NewBadRequest("malformed update payload"))
		return
	}
	if len(req.Entities) == 0 {
		s.writeError(w, ngsi.NewBadRequest("entities must not be empty"))
		return
	}

	entities := make([]ngsi.Entity, len(req.Entities))
	for i, e := range req.Entities {
		entities[i] = e.Entity
	}

	service, subservice := tenancy(r)
	if _, err := s.context.Update(r.Context(), service, subservice, entities); err != nil {
		s.writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleV2Query serves POST /v2/op/query. A query for a single entity
// id returns one entity object; a type-only query always returns an
// array, possibly empty.
func (s *Server) handleV2Query(w http.ResponseWriter, r *http.Request) {
	var req ngsi.V2QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, ngsi.NewBadRequest("malformed query payload"))
		return
	}
	if len(req.Entities) == 0 {
		s.writeError(w, ngsi.NewBadRequest("entities must not be empty"))
		return
	}

	refs := make([]contextserver.EntityRef, len(req.Entities))
	for i, e := range req.Entities {
		refs[i] = contextserver.EntityRef{
			ID:        e.ID,
			Type:      e.Type,
			IsPattern: e.IDPattern != "",
		}
		if e.IDPattern != "" {
			refs[i].ID = e.IDPattern
		}
	}

	service, subservice := tenancy(r)
	result, err := s.context.Query(r.Context(), service, subservice, refs, req.Attrs)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if result.Expanded {
		out := make([]ngsi.V2Entity, len(result.Entities))
		for i, ent := range result.Entities {
			out[i] = ngsi.V2Entity{Entity: ent}
		}
		writeJSON(w, http.StatusOK, out)
		return
	}

	writeJSON(w, http.StatusOK, ngsi.V2Entity{Entity: result.Entities[0]})
}

// handleV2Notify serves POST /notify in a v2 deployment.
func (s *Server) handleV2Notify(w http.ResponseWriter, r *http.Request) {
	var req ngsi.V2Notification
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, ngsi.NewBadRequest("malformed notification payload"))
		return
	}

	records := make([]contextserver.NotificationRecord, len(req.Data))
	for i, ent := range req.Data {
		records[i] = contextserver.NotificationRecord{
			EntityID:   ent.ID,
			EntityType: ent.Type,
			Attributes: ent.Attributes,
		}
	}

	service, subservice := tenancy(r)
	if err := s.context.Notify(r.Context(), service, subservice, records); err != nil {
		s.writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
