package handlers

import (
	"net/http"

	"github.com/PhilHem/registry-server/backend/middleware"
)

// Routes wires the API. auth wraps every /api route; limiter additionally
// guards log ingestion.
func Routes(auth func(http.Handler) http.Handler, limiter *middleware.RateLimiter) http.Handler {
	api := http.NewServeMux()

	// Usage logs
	api.Handle("POST /api/logs", limiter.LimitFunc(CreateLog))
	api.HandleFunc("GET /api/images/{id}/logs", GetImageLogs)
	api.HandleFunc("GET /api/images/{id}/stats", GetImageStats)
	api.HandleFunc("GET /api/organizations/{id}/logs", GetOrganizationLogs)
	api.HandleFunc("GET /api/users/{username}/logs", GetUserLogs)

	// Memberships
	api.HandleFunc("GET /api/organizations/{id}/members", GetMembers)
	api.HandleFunc("GET /api/organizations/{id}/members/{username}", GetMember)
	api.HandleFunc("PUT /api/organizations/{id}/members/{username}", AddMember)
	api.HandleFunc("DELETE /api/organizations/{id}/members/{username}", RemoveMember)

	mux := http.NewServeMux()
	// Health check (unauthenticated, for load balancers)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/api/", auth(api))

	return middleware.APIHeaders(mux)
}
