package simulate

import (
	"net/http"
	"time"

	"github.com/kilianp07/virtos/core/model"
	"github.com/kilianp07/virtos/core/runlog"
)

// NewRunsHandler exposes the run log via GET /api/runs. Supported filters
// are start and end (RFC 3339), architecture, fingerprint and registry_hash.
// Requests must carry "Authorization: Bearer <token>" when token is non-empty.
func NewRunsHandler(svc Service, token string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if !authorized(r, token) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		v := r.URL.Query()
		q := runlog.RunQuery{
			Fingerprint:  v.Get("fingerprint"),
			RegistryHash: v.Get("registry_hash"),
		}
		for _, p := range []struct {
			key string
			dst *time.Time
		}{{"start", &q.Start}, {"end", &q.End}} {
			s := v.Get(p.key)
			if s == "" {
				continue
			}
			t, err := time.Parse(time.RFC3339, s)
			if err != nil {
				http.Error(w, "invalid "+p.key+": "+err.Error(), http.StatusBadRequest)
				return
			}
			*p.dst = t
		}
		if a := v.Get("architecture"); a != "" {
			arch, err := model.ParseArchitecture(a)
			if err != nil {
				writeError(w, err)
				return
			}
			q.Architecture = arch
		}
		records, err := svc.Runs(r.Context(), q)
		if err != nil {
			writeError(w, err)
			return
		}
		if records == nil {
			records = []runlog.RunRecord{}
		}
		writeJSON(w, http.StatusOK, records)
	})
}
