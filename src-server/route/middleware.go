package route

import "net/http"

// Permissive on purpose: calendar subscription flows in browsers fetch
// the feed cross-origin, and the token in the path is the only gate.
func allowCORS(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "*")
}
