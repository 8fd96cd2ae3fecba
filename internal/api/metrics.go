package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/pubmetrics/internal/metrics"
	"github.com/sells-group/pubmetrics/internal/model"
	"github.com/sells-group/pubmetrics/internal/report"
)

// computeMetrics runs the pipeline on uploaded roster and claims tables.
// Form fields: roster (file), claims (file), start and end (YYYY-MM-DD).
// The response is JSON unless ?format=xlsx or ?format=csv asks for a table export.
func (s *Server) computeMetrics(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = report.FormatJSON
	}
	if !report.ValidFormat(format) {
		writeError(w, http.StatusBadRequest, eris.Errorf("unknown format %q", format))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		writeError(w, http.StatusBadRequest, eris.Wrap(err, "parse multipart form"))
		return
	}

	rosterTable, err := formTable(r, "roster")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	claimsTable, err := formTable(r, "claims")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	roster, err := report.ParseRoster(rosterTable)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	claims, err := report.ParseClaims(claimsTable)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	window, err := s.requestWindow(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	res, err := metrics.Run(r.Context(), metrics.Input{
		Roster: roster,
		Claims: claims,
		Window: window,
		Policy: s.policy,
		Source: s.source,
	})
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			zap.L().Error("api: metrics run failed", zap.Error(err))
		}
		writeError(w, status, err)
		return
	}

	switch format {
	case report.FormatXLSX:
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="metrics.xlsx"`)
		err = report.WriteXLSX(w,
			report.FacultySummaryTable(res.Summaries),
			report.PublicationAssignmentTable(res.Assignments),
		)
	case report.FormatCSV:
		// A single CSV can only hold one table; the summary is the primary output.
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.csv"`, report.FacultySummaryName))
		err = report.WriteCSV(w, report.FacultySummaryTable(res.Summaries))
	default:
		writeJSON(w, http.StatusOK, res)
	}
	if err != nil {
		zap.L().Error("api: write response", zap.String("format", format), zap.Error(err))
	}
}

func formTable(r *http.Request, field string) (*report.Table, error) {
	f, header, err := r.FormFile(field)
	if err != nil {
		return nil, eris.Wrapf(err, "form file %q", field)
	}
	defer f.Close() //nolint:errcheck
	return report.Read(header.Filename, f)
}

// requestWindow resolves start and end form values, falling back to the
// server's default window per bound.
func (s *Server) requestWindow(r *http.Request) (model.DateWindow, error) {
	start := r.FormValue("start")
	if start == "" {
		start = s.window.Start.Format(time.DateOnly)
	}
	end := r.FormValue("end")
	if end == "" {
		end = s.window.End.Format(time.DateOnly)
	}
	return metrics.ParseWindow(start, end)
}
