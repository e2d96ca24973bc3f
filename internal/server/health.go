package server

import (
	"net/http"
	"time"
)

// healthResponse is the /healthz payload: liveness plus a summary of the
// serving credential taken from the boot audit.
type healthResponse struct {
	Status     string          `json:"status"`
	Credential *credentialInfo `json:"credential,omitempty"`
}

type credentialInfo struct {
	Subject      string    `json:"subject"`
	SerialNumber string    `json:"serial_number"`
	NotAfter     time.Time `json:"not_after"`
	ExpiresIn    string    `json:"expires_in"`
	KeyAlgorithm string    `json:"key_algorithm"`
	TrustAnchors int       `json:"trust_anchors"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok"}
	if c := s.cfg.Credential; c != nil {
		resp.Credential = &credentialInfo{
			Subject:      c.Subject,
			SerialNumber: c.SerialNumber,
			NotAfter:     c.NotAfter.UTC(),
			ExpiresIn:    time.Until(c.NotAfter).Truncate(time.Second).String(),
			KeyAlgorithm: string(c.KeyAlg),
			TrustAnchors: c.TrustAnchors,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
