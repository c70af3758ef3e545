package api

import (
	"net/http"
	"time"
)

// aboutResponse is the body of GET /iot/about.
type aboutResponse struct {
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
	Dialect string `json:"dialect"`
}

// handleAbout reports the running version and uptime. The endpoint is
// dialect-independent and doubles as a liveness probe.
func (s *Server) handleAbout(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, aboutResponse{
		Version: s.version,
		Uptime:  time.Since(s.started).Truncate(time.Second).String(),
		Dialect: string(s.dialect),
	})
}
