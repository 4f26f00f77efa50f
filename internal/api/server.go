package api

import (
	"net/http"
	"time"
)

// NewServer creates a configured *http.Server for the bridge API. The write
// timeout does not affect /ws: the upgrade hijacks the connection and the hub
// manages its own deadlines from there.
func NewServer(port string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
