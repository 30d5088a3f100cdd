package web

import (
	"context"
	"net/http"
	"time"

	"github.com/JonMunkholm/loadimport/internal/core"
	"github.com/JonMunkholm/loadimport/internal/logging"
)

const healthTimeout = 2 * time.Second

type healthResponse struct {
	Status   string                   `json:"status"`
	Database string                   `json:"database"`
	Sessions int                      `json:"sessions"`
	Commits  core.CommitLimiterStatus `json:"commits"`
}

// handleHealth reports liveness and database reachability.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	resp := healthResponse{
		Status:   "ok",
		Database: "ok",
		Sessions: s.service.SessionCount(),
		Commits:  s.service.CommitLimiterStatus(),
	}
	status := http.StatusOK
	if err := s.service.Ping(ctx); err != nil {
		logging.FromContext(r.Context()).Warn("health check: database unreachable", "error", err)
		resp.Status = "degraded"
		resp.Database = "unreachable"
		status = http.StatusServiceUnavailable
	}
	writeJSONStatus(w, status, resp)
}

type templateOption struct {
	Value  core.Template `json:"value"`
	Label  string        `json:"label"`
	Source core.Source   `json:"source,omitempty"`
}

// handleListTemplates lists the template selector values.
func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	out := []templateOption{{Value: core.TemplateAuto, Label: "Auto-detect"}}
	for _, def := range core.Formats() {
		out = append(out, templateOption{Value: def.Template, Label: def.Label, Source: def.Source})
	}
	out = append(out, templateOption{Value: core.TemplateStandard, Label: "Standard columns", Source: core.SourceGeneric})
	writeJSON(w, out)
}

type fieldView struct {
	Key      string `json:"key"`
	Label    string `json:"label"`
	Type     string `json:"type"`
	Required bool   `json:"required"`
}

// handleListFields lists the canonical load fields mapping targets come from.
func (s *Server) handleListFields(w http.ResponseWriter, r *http.Request) {
	specs := s.service.Fields()
	out := make([]fieldView, len(specs))
	for i, f := range specs {
		out[i] = fieldView{Key: f.Key, Label: f.Label, Type: f.Type.String(), Required: f.Required}
	}
	writeJSON(w, out)
}

func (s *Server) handleListBatches(w http.ResponseWriter, r *http.Request) {
	batches, err := s.service.ListBatches(r.Context(), core.OwnerIDFromContext(r.Context()))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if batches == nil {
		batches = []core.BatchSummary{}
	}
	writeJSON(w, batches)
}
