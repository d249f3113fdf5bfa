package httpapi

import (
	"net/http"
)

// Server is the HTTP server of the order API.
type Server struct {
	Server *http.Server
}

// NewServer binds handler to the configured address.
func NewServer(cfg Config, handler *Handler) *Server {
	address := cfg.Address
	if address == "" {
		address = DefaultAddress
	}
	return &Server{
		Server: &http.Server{
			Addr:         address,
			Handler:      handler.Routes(),
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
	}
}
