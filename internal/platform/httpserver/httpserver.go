// Package httpserver builds the dashboard's HTTP server with timeouts sized
// for its traffic: small JSON responses, but aggregation endpoints that can
// hold a connection for a few seconds on a cold cache.
package httpserver

import (
	"net/http"
	"time"
)

func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
}
