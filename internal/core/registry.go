package core

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// ParseOptions carries per-call context into a format parser.
type ParseOptions struct {
	// HeaderRow is the detector's header index, or -1 when it was not isolated.
	HeaderRow int
	// Now anchors year inference for short dates.
	Now time.Time
}

// ParseFunc turns a raw sheet into an intermediate table plus a preset mapping.
type ParseFunc func(sheet RawSheet, opts ParseOptions) (*ParseResult, error)

// FormatDefinition describes one recognizable third-party export layout.
type FormatDefinition struct {
	Source    Source
	Template  Template
	Label     string
	Signature []string // Uppercase header tokens
	Threshold int      // Minimum distinct tokens matched in one row
	ScanRows  int      // Rows examined for the signature
	Priority  int      // Lower is checked first
	Parse     ParseFunc
}

var (
	formats   = make(map[Source]FormatDefinition)
	formatsMu sync.RWMutex
)

// RegisterFormat adds a format definition to the registry.
// Panics on duplicates or on the generic source, which is built in.
func RegisterFormat(def FormatDefinition) {
	formatsMu.Lock()
	defer formatsMu.Unlock()

	if def.Source == SourceGeneric {
		panic("generic format is built in and cannot be registered")
	}
	if _, exists := formats[def.Source]; exists {
		panic(fmt.Sprintf("format already registered: %s", def.Source))
	}
	if def.ScanRows <= 0 {
		def.ScanRows = DefaultHeaderScanRows
	}
	formats[def.Source] = def
}

// GetFormat returns a format definition by source.
func GetFormat(src Source) (FormatDefinition, bool) {
	formatsMu.RLock()
	defer formatsMu.RUnlock()

	def, ok := formats[src]
	return def, ok
}

// Formats returns all registered definitions in detection order.
func Formats() []FormatDefinition {
	formatsMu.RLock()
	defer formatsMu.RUnlock()

	result := make([]FormatDefinition, 0, len(formats))
	for _, def := range formats {
		result = append(result, def)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Priority != result[j].Priority {
			return result[i].Priority < result[j].Priority
		}
		return result[i].Source < result[j].Source
	})
	return result
}

// FormatCount returns the number of registered formats.
func FormatCount() int {
	formatsMu.RLock()
	defer formatsMu.RUnlock()
	return len(formats)
}

// ClearFormats removes all registered formats.
// Primarily useful for testing.
func ClearFormats() {
	formatsMu.Lock()
	defer formatsMu.Unlock()
	formats = make(map[Source]FormatDefinition)
}
