package handlers

import "net/http"

// IndexPath is where the front-end entry page is served.
const IndexPath = "/static/index.html"

// HandleRoot sends browsers to the front-end with a 307 Temporary Redirect.
func HandleRoot(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, IndexPath, http.StatusTemporaryRedirect)
}
