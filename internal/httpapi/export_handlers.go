package httpapi

import (
	"bytes"
	"errors"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/shpitdev/profile-finder/internal/pipeline"
	"github.com/shpitdev/profile-finder/internal/ui"
	"github.com/shpitdev/profile-finder/pkg/profiles"
)

type ExportHandler struct {
	Store *ui.Store
	Now   func() time.Time
}

// CSV downloads the session's results. ?company=X limits the file to one
// group as displayed.
func (h ExportHandler) CSV(w http.ResponseWriter, r *http.Request) {
	st := h.Store.Get(sessionID(r))
	if !st.HasResults() {
		WriteError(w, r, http.StatusConflict, "nothing_to_export", "No profiles to export")
		return
	}

	rows := st.Outcome.Response.Profiles
	company := strings.TrimSpace(r.URL.Query().Get("company"))
	if company != "" {
		rows = groupRows(st, company)
	}

	var buf bytes.Buffer
	if err := pipeline.WriteCSV(&buf, rows); err != nil {
		if errors.Is(err, pipeline.ErrNothingToExport) {
			WriteError(w, r, http.StatusConflict, "nothing_to_export", "No profiles to export for "+company)
			return
		}
		WriteError(w, r, http.StatusInternalServerError, "export_failed", "could not write CSV")
		return
	}

	name := pipeline.ExportFilename(st.Layout, company, h.Now())
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func groupRows(st ui.State, company string) []profiles.ProfileResult {
	for _, g := range st.View.Groups {
		if g.Company == company {
			return g.Profiles
		}
	}
	return pipeline.FilterCompany(st.Outcome.Response.Profiles, company)
}
