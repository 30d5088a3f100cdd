package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFoldHeader(t *testing.T) {
	tests := []struct{ input, want string }{
		{"Origin City", "origin city"},
		{"  PICK-UP   Dàte ", "pick up date"},
		{"Load #", "load #"},
		{"Weight (lbs)", "weight lbs"},
		{"Crème_brûlée", "creme brulee"},
		{"***", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FoldHeader(tt.input), "FoldHeader(%q)", tt.input)
	}
}

func TestColumnMapper_Propose(t *testing.T) {
	columns := []string{"Load #", "Origin City", "Origin State", "Dest City", "Dest State", "Weight", "Rate", "Notes", "Zzz"}
	got := DefaultColumnMapper().Propose(columns)

	want := ColumnMapping{
		"Load #":       KeyLoadNumber,
		"Origin City":  KeyOriginCity,
		"Origin State": KeyOriginState,
		"Dest City":    KeyDestinationCity,
		"Dest State":   KeyDestinationState,
		"Weight":       KeyWeightLbs,
		"Rate":         KeyTargetRate,
		"Notes":        KeyNotes,
		"Zzz":          "",
	}
	assert.Equal(t, want, got)
}

func TestColumnMapper_ProposeFirstColumnClaims(t *testing.T) {
	got := DefaultColumnMapper().Propose([]string{"Origin", "Origin City"})
	assert.Equal(t, KeyOriginCity, got["Origin"])
	assert.Equal(t, "", got["Origin City"], "a field maps to at most one column")
}

func TestColumnMapper_Deterministic(t *testing.T) {
	columns := []string{"City", "State", "Pickup", "Delivery", "Miles", "Customer", "Equip"}
	first := DefaultColumnMapper().Propose(columns)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, DefaultColumnMapper().Propose(columns))
	}
}

func TestColumnMapper_Candidates(t *testing.T) {
	m := DefaultColumnMapper()

	t.Run("ties follow field order", func(t *testing.T) {
		cands := m.Candidates("City")
		require.GreaterOrEqual(t, len(cands), 2)
		assert.Equal(t, KeyOriginCity, cands[0].Key)
		assert.Equal(t, KeyDestinationCity, cands[1].Key)
		assert.Equal(t, ScoreReverse, cands[0].Score)
	})

	t.Run("exact beats contains", func(t *testing.T) {
		cands := m.Candidates("Origin State")
		require.NotEmpty(t, cands)
		assert.Equal(t, KeyOriginState, cands[0].Key)
		assert.Equal(t, ScoreExact, cands[0].Score)
		assert.Equal(t, "origin state", cands[0].Alias)
	})

	t.Run("fuzzy is suggestion only", func(t *testing.T) {
		cands := m.Candidates("wght")
		require.NotEmpty(t, cands)
		assert.Equal(t, KeyWeightLbs, cands[0].Key)
		assert.Equal(t, ScoreFuzzy, cands[0].Score)
		assert.Equal(t, "", m.Propose([]string{"wght"})["wght"])
	})

	t.Run("blank header", func(t *testing.T) {
		assert.Empty(t, m.Candidates("  "))
	})
}

func TestColumnMapping_Assign(t *testing.T) {
	m := ColumnMapping{"A": KeyOriginCity, "B": "", "C": KeyMiles}

	displaced := m.Assign("B", KeyOriginCity)
	assert.Equal(t, "A", displaced)
	assert.Equal(t, "", m["A"])
	assert.Equal(t, KeyOriginCity, m["B"])

	assert.Equal(t, "", m.Assign("B", KeyOriginCity), "reassigning the same column displaces nothing")
	assert.Equal(t, "", m.Assign("C", ""))
	assert.Equal(t, "", m["C"])

	keys := m.MappedKeys()
	assert.Equal(t, map[string]bool{KeyOriginCity: true}, keys)
}

func TestColumnMapping_Clone(t *testing.T) {
	orig := ColumnMapping{"A": KeyMiles}
	c := orig.Clone()
	c["A"] = ""
	assert.Equal(t, KeyMiles, orig["A"])
}
