package core

// session.go holds the import wizard state machine:
//
//	upload -> map -> preview -> committing -> done
//
// Every transition takes a Session value and returns a new one (or an
// error), leaving the input untouched. The Service stores sessions; the
// transitions themselves share no state and can be tested in isolation.

import (
	"fmt"
	"time"
)

// Stage is a step in the import wizard.
type Stage string

const (
	StageUpload     Stage = "upload"
	StageMap        Stage = "map"
	StagePreview    Stage = "preview"
	StageCommitting Stage = "committing"
	StageDone       Stage = "done"
)

// previewSampleSize is how many accepted records a preview shows.
const previewSampleSize = 20

// Preview is the result of the map -> preview transition.
type Preview struct {
	Results  []RowResult        `json:"-"`
	Accepted int                `json:"accepted"`
	Rejected int                `json:"rejected"`
	Samples  []NormalizedRecord `json:"samples"`
	Errors   []FailedRow        `json:"errors,omitempty"`
}

// Session is one operator's import in progress. Values are immutable by
// convention: transitions return modified copies.
type Session struct {
	ID        string
	OwnerID   string
	FileName  string
	Template  Template
	Stage     Stage
	Parsed    *ParseResult
	Mapping   ColumnMapping
	Preview   *Preview
	Batch     *ImportBatch
	Outcome   *ImportOutcome
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewSession starts a session in the upload stage.
func NewSession(id, ownerID string, now time.Time) Session {
	return Session{
		ID:        id,
		OwnerID:   ownerID,
		Stage:     StageUpload,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s Session) expect(stages ...Stage) error {
	for _, st := range stages {
		if s.Stage == st {
			return nil
		}
	}
	return fmt.Errorf("%w: cannot leave %s", ErrInvalidTransition, s.Stage)
}

// Load parses sheet and moves upload -> map. The parser's mapping becomes
// the editable default.
func (s Session) Load(fileName string, sheet RawSheet, tmpl Template, now time.Time) (Session, error) {
	if err := s.expect(StageUpload); err != nil {
		return s, err
	}
	parsed, err := ParseSheet(sheet, tmpl, now)
	if err != nil {
		return s, err
	}

	next := s
	next.FileName = fileName
	next.Template = tmpl
	next.Parsed = parsed
	next.Mapping = parsed.Mapping.Clone()
	next.Stage = StageMap
	next.UpdatedAt = now
	return next, nil
}

// Remap applies operator assignments (column -> key, "" to skip). Allowed
// in map and preview; a preview is discarded and the session returns to
// map. Assignments are applied in columns order. Columns whose target was
// taken over are returned.
func (s Session) Remap(assignments map[string]string, now time.Time) (Session, []string, error) {
	if err := s.expect(StageMap, StagePreview); err != nil {
		return s, nil, err
	}

	known := make(map[string]bool, len(s.Parsed.Table.Columns))
	for _, c := range s.Parsed.Table.Columns {
		known[c] = true
	}
	for col, key := range assignments {
		if !known[col] {
			return s, nil, fmt.Errorf("%w: %q", ErrUnknownColumn, col)
		}
		if key != "" {
			if _, ok := FieldByKey(key); !ok {
				return s, nil, fmt.Errorf("%w: %q", ErrUnknownField, key)
			}
		}
	}

	mapping := s.Mapping.Clone()
	var displaced []string
	for _, col := range s.Parsed.Table.Columns {
		key, ok := assignments[col]
		if !ok {
			continue
		}
		if d := mapping.Assign(col, key); d != "" {
			displaced = append(displaced, d)
		}
	}

	next := s
	next.Mapping = mapping
	next.Preview = nil
	next.Stage = StageMap
	next.UpdatedAt = now
	return next, displaced, nil
}

// BuildPreview validates the mapping and normalizes every row, moving
// map -> preview. Nothing is persisted.
func (s Session) BuildPreview(specs []FieldSpec, now time.Time) (Session, error) {
	if err := s.expect(StageMap); err != nil {
		return s, err
	}
	results, err := Normalize(s.Parsed.Table, s.Mapping, specs)
	if err != nil {
		return s, err
	}

	p := &Preview{Results: results}
	for _, r := range results {
		if r.OK() {
			p.Accepted++
			if len(p.Samples) < previewSampleSize {
				p.Samples = append(p.Samples, r.Record)
			}
			continue
		}
		p.Rejected++
		p.Errors = append(p.Errors, FailedRow{LineNumber: r.Line, Code: r.Err.Code, Reason: r.Err.Reason})
	}

	next := s
	next.Preview = p
	next.Stage = StagePreview
	next.UpdatedAt = now
	return next, nil
}

// BeginCommit moves preview -> committing so a second commit is refused.
func (s Session) BeginCommit(now time.Time) (Session, error) {
	if err := s.expect(StagePreview); err != nil {
		return s, err
	}
	next := s
	next.Stage = StageCommitting
	next.UpdatedAt = now
	return next, nil
}

// Complete records the commit result and moves committing -> done.
func (s Session) Complete(batch ImportBatch, outcome ImportOutcome, now time.Time) (Session, error) {
	if err := s.expect(StageCommitting); err != nil {
		return s, err
	}
	next := s
	next.Batch = &batch
	next.Outcome = &outcome
	next.Stage = StageDone
	next.UpdatedAt = now
	return next, nil
}

// AbortCommit returns committing -> preview after a system failure so the
// operator can retry.
func (s Session) AbortCommit(now time.Time) (Session, error) {
	if err := s.expect(StageCommitting); err != nil {
		return s, err
	}
	next := s
	next.Stage = StagePreview
	next.UpdatedAt = now
	return next, nil
}

// MissingRequired returns labels of required fields the mapping lacks.
func (s Session) MissingRequired(specs []FieldSpec) []string {
	if err := ValidateMapping(s.Mapping, specs); err != nil {
		if ve, ok := err.(*ValidationError); ok {
			return ve.Missing
		}
	}
	return nil
}
