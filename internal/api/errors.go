package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/edgehaven/ngsi-bridge/internal/ngsi"
)

// errInternal is the opaque detail reported for unexpected failures;
// upstream error text never reaches the wire verbatim.
var errInternal = errors.New("internal server error")

// writeJSON writes a JSON response with the given status code and
// payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeError shapes an error into the active dialect's error body.
// Protocol errors keep their code and name; anything else is reported
// as an opaque internal error. Detail strings are sanitised so
// upstream messages cannot smuggle markup into responses.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	perr := asProtocolError(err)
	status := ngsi.HTTPStatus(perr.Code)
	detail := ngsi.Sanitize(perr.Message)

	if s.dialect == ngsi.DialectV1 {
		writeJSON(w, status, ngsi.V1ErrorResponse{
			ErrorCode: ngsi.V1StatusCode{
				Code:         strconv.Itoa(perr.Code),
				ReasonPhrase: perr.Name,
				Details:      detail,
			},
		})
		return
	}

	writeJSON(w, status, ngsi.V2ErrorResponse{
		Error:       perr.Name,
		Description: detail,
	})
}

// asProtocolError lifts an arbitrary error into the protocol taxonomy.
func asProtocolError(err error) *ngsi.Error {
	var perr *ngsi.Error
	if errors.As(err, &perr) {
		return perr
	}
	return ngsi.NewInternalError(errInternal)
}
