// Package simulate exposes simulations, comparisons, the component library
// and the run log over HTTP.
package simulate

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kilianp07/virtos/app"
	"github.com/kilianp07/virtos/core/library"
	"github.com/kilianp07/virtos/core/model"
	"github.com/kilianp07/virtos/core/runlog"
)

const maxBodyBytes = 1 << 20

// Service is the subset of app.Service used by the handlers.
type Service interface {
	Simulate(ctx context.Context, site model.SiteSpec) (app.Outcome, error)
	Compare(ctx context.Context, site model.SiteSpec) (app.Comparison, error)
	Runs(ctx context.Context, q runlog.RunQuery) ([]runlog.RunRecord, error)
	Library() *library.Registry
}

type simulateResponse struct {
	app.Outcome
	Explanation *app.Explanation `json:"explanation,omitempty"`
}

// NewSimulateHandler serves POST /api/simulate. The body is a site spec;
// ?explain=true adds the audit view to the response.
func NewSimulateHandler(svc Service) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		site, ok := decodeSite(w, r)
		if !ok {
			return
		}
		out, err := svc.Simulate(r.Context(), site)
		if err != nil {
			writeError(w, err)
			return
		}
		resp := simulateResponse{Outcome: out}
		if r.URL.Query().Get("explain") == "true" {
			e := app.Explain(site, out.Result)
			resp.Explanation = &e
		}
		writeJSON(w, http.StatusOK, resp)
	})
}

// NewCompareHandler serves POST /api/compare.
func NewCompareHandler(svc Service) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		site, ok := decodeSite(w, r)
		if !ok {
			return
		}
		cmp, err := svc.Compare(r.Context(), site)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, cmp)
	})
}

// Routes mounts every handler. A non-empty token protects the run log and
// library writes with a bearer token.
func Routes(svc Service, token string) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/api/simulate", NewSimulateHandler(svc))
	mux.Handle("/api/compare", NewCompareHandler(svc))
	mux.Handle("/api/library", NewLibraryHandler(svc.Library(), token))
	mux.Handle("/api/runs", NewRunsHandler(svc, token))
	return mux
}

func decodeSite(w http.ResponseWriter, r *http.Request) (model.SiteSpec, bool) {
	var site model.SiteSpec
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&site); err != nil {
		http.Error(w, "invalid site: "+err.Error(), http.StatusBadRequest)
		return site, false
	}
	return site, true
}

func writeError(w http.ResponseWriter, err error) {
	var verrs library.ValidationErrors
	switch {
	case errors.Is(err, model.ErrUnknownArchitecture):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.As(err, &verrs):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"errors": []string(verrs)})
	case errors.Is(err, context.Canceled):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	default:
		// sites are normalised before fingerprinting, so this is a server fault
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func authorized(r *http.Request, token string) bool {
	return token == "" || r.Header.Get("Authorization") == "Bearer "+token
}
