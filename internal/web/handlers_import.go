package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/loadimport/internal/core"
	"github.com/JonMunkholm/loadimport/internal/logging"
	"github.com/JonMunkholm/loadimport/internal/web/templates"
)

// multipartOverhead is allowed on top of the file size limit for form
// boundaries and the template field.
const multipartOverhead = 1 << 20

// sessionView is the JSON snapshot of an import session.
type sessionView struct {
	ID        string              `json:"id"`
	Stage     core.Stage          `json:"stage"`
	FileName  string              `json:"fileName"`
	Template  core.Template       `json:"template"`
	Source    core.Source         `json:"source,omitempty"`
	HeaderRow int                 `json:"headerRow"`
	RowCount  int                 `json:"rowCount"`
	Columns   []columnView        `json:"columns"`
	Missing   []string            `json:"missingRequired,omitempty"`
	Displaced []string            `json:"displaced,omitempty"`
	Preview   *core.Preview       `json:"preview,omitempty"`
	Batch     *core.ImportBatch   `json:"batch,omitempty"`
	Outcome   *core.ImportOutcome `json:"outcome,omitempty"`
}

type columnView struct {
	Name       string           `json:"name"`
	Sample     string           `json:"sample,omitempty"`
	Field      string           `json:"field"`
	Candidates []core.Candidate `json:"candidates,omitempty"`
}

func (s *Server) newSessionView(sess core.Session) sessionView {
	v := sessionView{
		ID:       sess.ID,
		Stage:    sess.Stage,
		FileName: sess.FileName,
		Template: sess.Template,
		Preview:  sess.Preview,
		Batch:    sess.Batch,
		Outcome:  sess.Outcome,
		Columns:  []columnView{},
	}
	if sess.Parsed == nil {
		return v
	}

	v.Source = sess.Parsed.Source
	v.HeaderRow = sess.Parsed.HeaderRow
	v.RowCount = len(sess.Parsed.Table.Rows)
	v.Missing = sess.MissingRequired(s.service.Fields())

	mapper := core.DefaultColumnMapper()
	for _, col := range sess.Parsed.Table.Columns {
		v.Columns = append(v.Columns, columnView{
			Name:       col,
			Sample:     sess.Parsed.Table.Sample(col),
			Field:      sess.Mapping[col],
			Candidates: mapper.Candidates(col),
		})
	}
	return v
}

// handleCreateImport accepts a multipart upload ("file", optional
// "template") and returns the new session in the map stage.
func (s *Server) handleCreateImport(w http.ResponseWriter, r *http.Request) {
	owner := core.OwnerIDFromContext(r.Context())

	maxSize := s.cfg.Import.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		s.respondError(w, r, fmt.Errorf("%w: invalid upload form: %w", errBadRequest, err))
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, r, fmt.Errorf("%w: no file provided", errBadRequest))
		return
	}
	defer file.Close()

	tmpl, err := core.ParseTemplate(r.FormValue("template"))
	if err != nil {
		s.respondError(w, r, fmt.Errorf("%w: %w", errBadRequest, err))
		return
	}

	sess, err := s.service.StartImport(r.Context(), owner, header.Filename, file, tmpl)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	logging.WithFields(r.Context(), "session_id", sess.ID, "owner_id", owner).
		Info("import uploaded", "file", header.Filename, "size", header.Size, "source", sess.Parsed.Source)
	writeJSONStatus(w, http.StatusCreated, s.newSessionView(sess))
}

func (s *Server) handleGetImport(w http.ResponseWriter, r *http.Request) {
	sess, err := s.service.GetSession(core.OwnerIDFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, s.newSessionView(sess))
}

// handleGetMapping returns the mapping table, as JSON or as the editor
// fragment for HTMX.
func (s *Server) handleGetMapping(w http.ResponseWriter, r *http.Request) {
	sess, err := s.service.GetSession(core.OwnerIDFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondMapping(w, r, sess, nil)
}

// mappingRequest is the PUT body. A column mapped to "" is skipped.
type mappingRequest struct {
	Assignments map[string]string `json:"assignments"`
}

func (s *Server) handleUpdateMapping(w http.ResponseWriter, r *http.Request) {
	assignments, err := parseAssignments(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	owner := core.OwnerIDFromContext(r.Context())
	sess, displaced, err := s.service.UpdateMapping(owner, chi.URLParam(r, "id"), assignments)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if len(displaced) > 0 {
		logging.WithFields(r.Context(), "session_id", sess.ID, "owner_id", owner).
			Info("mapping reassigned", "displaced", displaced)
	}
	s.respondMapping(w, r, sess, displaced)
}

// parseAssignments reads a JSON body, or form fields named
// assignments[<column>] as the HTMX editor submits them.
func parseAssignments(r *http.Request) (map[string]string, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var req mappingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return nil, fmt.Errorf("%w: invalid mapping body: %w", errBadRequest, err)
		}
		if req.Assignments == nil {
			return nil, fmt.Errorf("%w: assignments is required", errBadRequest)
		}
		return req.Assignments, nil
	}

	if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("%w: invalid mapping form: %w", errBadRequest, err)
	}
	out := make(map[string]string)
	for k, vals := range r.PostForm {
		col, ok := strings.CutPrefix(k, "assignments[")
		if !ok || !strings.HasSuffix(col, "]") || len(vals) == 0 {
			continue
		}
		out[strings.TrimSuffix(col, "]")] = vals[0]
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: assignments is required", errBadRequest)
	}
	return out, nil
}

func (s *Server) respondMapping(w http.ResponseWriter, r *http.Request, sess core.Session, displaced []string) {
	view := s.newSessionView(sess)
	view.Displaced = displaced

	if !isHTMX(r) {
		writeJSON(w, view)
		return
	}

	rows := make([]templates.MappingRow, len(view.Columns))
	for i, c := range view.Columns {
		row := templates.MappingRow{Column: c.Name, Sample: c.Sample, Key: c.Field}
		for _, cand := range c.Candidates {
			row.Suggestions = append(row.Suggestions, cand.Key)
		}
		rows[i] = row
	}
	fields := s.service.Fields()
	opts := make([]templates.FieldOption, len(fields))
	for i, f := range fields {
		opts[i] = templates.FieldOption{Key: f.Key, Label: f.Label, Required: f.Required}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.MappingTable(sess.ID, rows, opts, view.Missing).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render mapping table", "error", err)
	}
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	sess, err := s.service.Preview(core.OwnerIDFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, s.newSessionView(sess))
}

// commitResponse reports a finished commit.
type commitResponse struct {
	SessionID string             `json:"sessionId"`
	Batch     core.ImportBatch   `json:"batch"`
	Outcome   core.ImportOutcome `json:"outcome"`
}

func (s *Server) handleCommit(w http.ResponseWriter, r *http.Request) {
	sess, err := s.service.Commit(r.Context(), core.OwnerIDFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, commitResponse{SessionID: sess.ID, Batch: *sess.Batch, Outcome: *sess.Outcome})
}

func (s *Server) handleAbandon(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Abandon(core.OwnerIDFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
