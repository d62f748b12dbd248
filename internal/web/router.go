package web

import (
	"net/http"
	"net/url"

	"github.com/gorilla/mux"
)

func (h *WebHandler) SetupRoutes() *mux.Router {
	r := mux.NewRouter()

	// Tracked URLs appear verbatim in the /api/locations path, slashes and
	// all, so path cleaning and eager decoding must stay off.
	r.SkipClean(true)
	r.UseEncodedPath()

	// Web pages
	r.HandleFunc("/", h.Home).Methods("GET")
	r.HandleFunc("/map-trace", h.MapTrace).Methods("GET")

	// API endpoints
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/locations/{url:.*}", h.APILocations).Methods("GET")

	r.NotFoundHandler = http.HandlerFunc(h.NotFound)

	return r
}

// pathURL extracts the tracked url from the request path. The segment may
// arrive percent-encoded (the frontend encodes it) or verbatim.
func pathURL(r *http.Request) string {
	raw := mux.Vars(r)["url"]
	if unescaped, err := url.PathUnescape(raw); err == nil {
		return unescaped
	}
	return raw
}

func (h *WebHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	http.NotFound(w, r)
}
