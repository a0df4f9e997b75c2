package simulate

import (
	"encoding/json"
	"net/http"

	"github.com/kilianp07/virtos/core/library"
)

type libraryResponse struct {
	LibraryHash string                    `json:"library_hash"`
	Records     []library.ComponentRecord `json:"records"`
}

type upsertRequest struct {
	Records []library.ComponentRecord `json:"records"`
	Note    string                    `json:"note"`
}

// NewLibraryHandler serves the component library. GET lists records,
// optionally filtered by ?type=; PUT replaces the record set.
func NewLibraryHandler(reg *library.Registry, token string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			t := library.ComponentType(r.URL.Query().Get("type"))
			writeJSON(w, http.StatusOK, libraryResponse{LibraryHash: reg.Hash(), Records: reg.Records(t)})
		case http.MethodPut:
			if !authorized(r, token) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			var req upsertRequest
			if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
				http.Error(w, "invalid body: "+err.Error(), http.StatusBadRequest)
				return
			}
			snap, err := reg.Upsert(r.Context(), req.Records, req.Note)
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, libraryResponse{LibraryHash: snap.LibraryHash, Records: snap.Records})
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})
}
