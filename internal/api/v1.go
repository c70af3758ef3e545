package api

import (
	"encoding/json"
	"net/http"

	"github.com/edgehaven/ngsi-bridge/internal/contextserver"
	"github.com/edgehaven/ngsi-bridge/internal/ngsi"
)

// v1StatusOK is the status block attached to every successful v1
// context response.
var v1StatusOK = ngsi.V1StatusCode{Code: ngsi.V1StatusOK, ReasonPhrase: "OK"}

// handleV1Update serves POST /v1/updateContext. The response echoes
// each context element with every attribute value blanked; the broker
// needs the acknowledgement, not the values.
func (s *Server) handleV1Update(w http.ResponseWriter, r *http.Request) {
	var req ngsi.V1UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, ngsi.NewBadRequest("malformed update payload"))
		return
	}
	if len(req.ContextElements) == 0 {
		s.writeError(w, ngsi.NewBadRequest("contextElements must not be empty"))
		return
	}

	entities := make([]ngsi.Entity, len(req.ContextElements))
	for i, ce := range req.ContextElements {
		entities[i] = ce.Entity()
	}

	service, subservice := tenancy(r)
	results, err := s.context.Update(r.Context(), service, subservice, entities)
	if err != nil {
		s.writeError(w, err)
		return
	}

	resp := ngsi.V1Response{ContextResponses: make([]ngsi.V1ContextResponse, len(results))}
	for i, ent := range results {
		resp.ContextResponses[i] = ngsi.V1ContextResponse{
			ContextElement: ngsi.V1BlankedElement(ent),
			StatusCode:     v1StatusOK,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleV1Query serves POST /v1/queryContext. Pattern flags in the
// request are ignored; entities are looked up by id.
func (s *Server) handleV1Query(w http.ResponseWriter, r *http.Request) {
	var req ngsi.V1QueryRequest
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
		refs[i] = contextserver.EntityRef{ID: e.ID, Type: e.Type}
	}

	service, subservice := tenancy(r)
	result, err := s.context.Query(r.Context(), service, subservice, refs, req.Attributes)
	if err != nil {
		s.writeError(w, err)
		return
	}

	resp := ngsi.V1Response{ContextResponses: make([]ngsi.V1ContextResponse, len(result.Entities))}
	for i, ent := range result.Entities {
		resp.ContextResponses[i] = ngsi.V1ContextResponse{
			ContextElement: ngsi.V1ElementFromEntity(ent),
			StatusCode:     v1StatusOK,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleV1Notify serves POST /notify in a v1 deployment.
func (s *Server) handleV1Notify(w http.ResponseWriter, r *http.Request) {
	var req ngsi.V1Notification
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, ngsi.NewBadRequest("malformed notification payload"))
		return
	}

	records := make([]contextserver.NotificationRecord, len(req.ContextResponses))
	for i, cr := range req.ContextResponses {
		ent := cr.ContextElement.Entity()
		records[i] = contextserver.NotificationRecord{
			EntityID:   ent.ID,
			EntityType: ent.Type,
			Attributes: ent.Attributes,
			StatusCode: cr.StatusCode.Code,
		}
	}

	service, subservice := tenancy(r)
	if err := s.context.Notify(r.Context(), service, subservice, records); err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ngsi.V1Response{})
}
