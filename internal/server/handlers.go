package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/KaramelBytes/demograph-cli/internal/dataset"
	"github.com/KaramelBytes/demograph-cli/internal/report"
	"github.com/KaramelBytes/demograph-cli/internal/views"
)

type healthResponse struct {
	Status   string    `json:"status"`
	Rows     int       `json:"rows"`
	Dropped  int       `json:"dropped"`
	LoadedAt time.Time `json:"loaded_at"`
}

type recordsResponse struct {
	Count   int              `json:"count"`
	Empty   bool             `json:"empty"`
	Message string           `json:"message,omitempty"`
	Records []dataset.Record `json:"records"`
}

type sunburstResponse struct {
	Empty   bool                   `json:"empty"`
	Message string                 `json:"message,omitempty"`
	Nodes   []dataset.SunburstNode `json:"nodes"`
}

type boxResponse struct {
	Column  dataset.ValueColumn  `json:"column"`
	Label   string               `json:"label"`
	Points  dataset.PointsMode   `json:"points"`
	Empty   bool                 `json:"empty"`
	Message string               `json:"message,omitempty"`
	Regions []dataset.BoxSummary `json:"regions"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func emptyMessage(t *dataset.Table) string {
	if t.Empty() {
		return dataset.EmptyStateMessage
	}
	return ""
}

// filtered applies the request's filter to the table in service, writing the
// error response itself when the parameters are unusable.
func (s *Server) filtered(w http.ResponseWriter, r *http.Request) (*dataset.Table, bool) {
	f, err := parseFilter(r.URL.Query(), s.defaultCol, s.views)
	if err != nil {
		writeError(w, statusOf(err), err.Error())
		return nil, false
	}
	return s.holder.Table().Filter(f), true
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	t := s.holder.Table()
	writeJSON(w, http.StatusOK, healthResponse{
		Status:   "ok",
		Rows:     t.Len(),
		Dropped:  t.Dropped(),
		LoadedAt: s.holder.LoadedAt(),
	})
}

func (s *Server) handleRegions(w http.ResponseWriter, r *http.Request) {
	regions := s.holder.Table().Regions()
	if regions == nil {
		regions = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"regions": regions})
}

func (s *Server) handleTowns(w http.ResponseWriter, r *http.Request) {
	var regions []string
	if vals, ok := r.URL.Query()["region"]; ok {
		regions = nonEmpty(vals)
	}
	towns := s.holder.Table().Towns(regions)
	if towns == nil {
		towns = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"towns": towns})
}

func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	t, ok := s.filtered(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, recordsResponse{
		Count:   t.Len(),
		Empty:   t.Empty(),
		Message: emptyMessage(t),
		Records: t.Records(),
	})
}

func (s *Server) handleSunburst(w http.ResponseWriter, r *http.Request) {
	t, ok := s.filtered(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sunburstResponse{
		Empty:   t.Empty(),
		Message: emptyMessage(t),
		Nodes:   dataset.Sunburst(t),
	})
}

func (s *Server) handleBox(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	col, err := parseColumn(q, s.defaultCol)
	if err != nil {
		writeError(w, statusOf(err), err.Error())
		return
	}
	mode, err := dataset.ParsePointsMode(q.Get("points"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	t, ok := s.filtered(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, boxResponse{
		Column:  col,
		Label:   col.Label(),
		Points:  mode,
		Empty:   t.Empty(),
		Message: emptyMessage(t),
		Regions: dataset.BoxStats(t, col, mode),
	})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	t, ok := s.filtered(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(report.Build("", t).Markdown()))
}

func (s *Server) handleViews(w http.ResponseWriter, r *http.Request) {
	list := []views.View{}
	if s.views != nil {
		list = s.views.List()
	}
	writeJSON(w, http.StatusOK, map[string][]views.View{"views": list})
}
