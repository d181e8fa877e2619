package server

import (
	"net/http"

	"github.com/ternarybob/nearby/internal/telemetry"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// Places
	mux.HandleFunc("/api/places/nearby", s.app.PlacesHandler.NearbyHandler) // GET
	mux.HandleFunc("/api/places/cache", s.app.PlacesHandler.CacheHandler)   // GET - cached location count

	// Variables referenced from config as {key}
	mux.HandleFunc("/api/kv", s.handleKVRoute)   // GET (list), POST (create)
	mux.HandleFunc("/api/kv/", s.handleKVRoutes) // GET/PUT/DELETE /{key}

	// System
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	mux.Handle("/metrics", telemetry.Handler())

	mux.HandleFunc("/", s.app.APIHandler.NotFoundHandler)

	return mux
}

func (s *Server) handleKVRoute(w http.ResponseWriter, r *http.Request) {
	RouteResourceCollection(w, r, s.app.KVHandler.ListKVHandler, s.app.KVHandler.CreateKVHandler)
}

func (s *Server) handleKVRoutes(w http.ResponseWriter, r *http.Request) {
	RouteResourceItem(w, r, s.app.KVHandler.GetKVHandler, s.app.KVHandler.UpdateKVHandler, s.app.KVHandler.DeleteKVHandler)
}
