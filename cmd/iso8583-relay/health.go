package main

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rzpsarthak13/iso8583-persistence/pkg/iso8583store"
)

type healthResponse struct {
	Status    string      `json:"status"`
	Timestamp string      `json:"timestamp"`
	Relay     relayHealth `json:"relay"`
}

type relayHealth struct {
	Running   bool  `json:"running"`
	Queued    int   `json:"queued"`
	Forwarded int64 `json:"forwarded"`
	Dropped   int64 `json:"dropped"`
}

// healthHandler reports 503 once the relay has stopped.
func healthHandler(stats func() iso8583store.Stats) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := stats()
		resp := healthResponse{
			Status:    "ok",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Relay: relayHealth{
				Running:   s.Running,
				Queued:    s.Queued,
				Forwarded: s.Forwarded,
				Dropped:   s.Dropped,
			},
		}
		code := http.StatusOK
		if !s.Running {
			resp.Status = "stopped"
			code = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(resp)
	}
}
