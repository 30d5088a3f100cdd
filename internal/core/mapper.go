package core

// mapper.go proposes a ColumnMapping from arbitrary header names.
//
// Every (column, field) pair gets a deterministic score from the field's
// alias list:
//
//	3  header equals an alias
//	2  header contains an alias
//	1  alias contains the header
//	0  header characters appear in order inside an alias (fuzzy, suggestion only)
//
// Headers and aliases are folded first: diacritics removed, lowercased,
// punctuation other than '#' turned into spaces. Candidates are ranked by
// score, then fuzzy distance, then field declaration order, so the same
// headers always produce the same proposal.

import (
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Match scores.
const (
	ScoreFuzzy    = 0
	ScoreReverse  = 1
	ScoreContains = 2
	ScoreExact    = 3
)

// Candidate is one ranked target suggestion for a source column.
type Candidate struct {
	Key      string `json:"key"`
	Label    string `json:"label"`
	Score    int    `json:"score"`
	Alias    string `json:"alias"`
	Distance int    `json:"distance,omitempty"`
}

// ColumnMapper matches headers against an ordered alias table.
type ColumnMapper struct {
	fields []FieldSpec
	folded [][]string
}

// NewColumnMapper builds a mapper over fields. Field order is the tie-break.
func NewColumnMapper(fields []FieldSpec) *ColumnMapper {
	m := &ColumnMapper{fields: fields, folded: make([][]string, len(fields))}
	for i, f := range fields {
		hints := make([]string, len(f.Aliases))
		for j, a := range f.Aliases {
			hints[j] = FoldHeader(a)
		}
		m.folded[i] = hints
	}
	return m
}

var defaultMapper = sync.OnceValue(func() *ColumnMapper {
	return NewColumnMapper(loadFields)
})

// DefaultColumnMapper returns the mapper over the canonical schema.
func DefaultColumnMapper() *ColumnMapper {
	return defaultMapper()
}

// FoldHeader normalizes a header or alias for comparison.
func FoldHeader(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	folded = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '#' {
			return unicode.ToLower(r)
		}
		return ' '
	}, folded)
	return strings.Join(strings.Fields(folded), " ")
}

// scoreHint scores one folded header against one folded alias.
// Returns -1 for no substring relation.
func scoreHint(header, hint string) int {
	switch {
	case hint == "":
		return -1
	case header == hint:
		return ScoreExact
	case strings.Contains(header, hint):
		return ScoreContains
	case len(header) >= minReverseMatchLen && strings.Contains(hint, header):
		return ScoreReverse
	}
	return -1
}

// Candidates ranks every field that relates to column in any way.
func (m *ColumnMapper) Candidates(column string) []Candidate {
	header := FoldHeader(column)
	if header == "" {
		return nil
	}

	type ranked struct {
		Candidate
		order int
	}
	var out []ranked

	for i, f := range m.fields {
		best, alias := -1, ""
		for j, hint := range m.folded[i] {
			if s := scoreHint(header, hint); s > best {
				best, alias = s, f.Aliases[j]
			}
		}
		if best >= ScoreReverse {
			out = append(out, ranked{Candidate{Key: f.Key, Label: f.Label, Score: best, Alias: alias}, i})
			continue
		}

		matches := fuzzy.RankFindNormalizedFold(header, m.folded[i])
		if len(matches) == 0 {
			continue
		}
		sort.Sort(matches)
		out = append(out, ranked{Candidate{
			Key:      f.Key,
			Label:    f.Label,
			Score:    ScoreFuzzy,
			Alias:    f.Aliases[matches[0].OriginalIndex],
			Distance: matches[0].Distance,
		}, i})
	}

	sort.SliceStable(out, func(a, b int) bool {
		if out[a].Score != out[b].Score {
			return out[a].Score > out[b].Score
		}
		if out[a].Distance != out[b].Distance {
			return out[a].Distance < out[b].Distance
		}
		return out[a].order < out[b].order
	})

	cands := make([]Candidate, len(out))
	for i, r := range out {
		cands[i] = r.Candidate
	}
	return cands
}

// Propose maps each column, in order, to its best non-fuzzy candidate
// whose field is not already taken by an earlier column. Columns with no
// such candidate are skipped ("").
func (m *ColumnMapper) Propose(columns []string) ColumnMapping {
	mapping := make(ColumnMapping, len(columns))
	claimed := make(map[string]bool)

	for _, col := range columns {
		mapping[col] = ""
		for _, c := range m.Candidates(col) {
			if c.Score < ScoreReverse {
				break
			}
			if !claimed[c.Key] {
				mapping[col] = c.Key
				claimed[c.Key] = true
				break
			}
		}
	}
	return mapping
}

// ColumnMapping maps a source column to a FieldSpec key. "" means skip.
// At most one column maps to any given key.
type ColumnMapping map[string]string

// Clone returns an independent copy.
func (m ColumnMapping) Clone() ColumnMapping {
	out := make(ColumnMapping, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Assign points column at key, or skips it when key is "". A column that
// previously held key is skipped and its name returned.
func (m ColumnMapping) Assign(column, key string) (displaced string) {
	if key != "" {
		for c, k := range m {
			if k == key && c != column {
				m[c] = ""
				displaced = c
			}
		}
	}
	m[column] = key
	return displaced
}

// MappedKeys returns the set of keys some column maps to.
func (m ColumnMapping) MappedKeys() map[string]bool {
	keys := make(map[string]bool, len(m))
	for _, k := range m {
		if k != "" {
			keys[k] = true
		}
	}
	return keys
}
