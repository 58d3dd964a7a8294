package models

import (
	"strings"
)

// Mode is a routing outcome. The six canonical modes are the only values a
// LabeledExample can expect; MULTI_STRATEGY only tags aggregator results.
type Mode string

const (
	ModeDirect        Mode = "DIRECT"
	ModeCOT           Mode = "COT"
	ModeTOT           Mode = "TOT"
	ModeGOT           Mode = "GOT"
	ModeAOT           Mode = "AOT"
	ModeCombined      Mode = "COMBINED"
	ModeMultiStrategy Mode = "MULTI_STRATEGY"

	// ModeUnknown is what ParseMode returns for text it cannot place.
	ModeUnknown Mode = "UNKNOWN"
)

// CanonicalModes lists the routable modes in report order.
var CanonicalModes = []Mode{ModeDirect, ModeCOT, ModeTOT, ModeGOT, ModeAOT, ModeCombined}

var modeAliases = map[string]Mode{
	"DIRECT":            ModeDirect,
	"DIRECT_ANSWER":     ModeDirect,
	"SIMPLE":            ModeDirect,
	"COT":               ModeCOT,
	"CHAIN_OF_THOUGHT":  ModeCOT,
	"CHAIN_OF_THOUGHTS": ModeCOT,
	"TOT":               ModeTOT,
	"TREE_OF_THOUGHT":   ModeTOT,
	"TREE_OF_THOUGHTS":  ModeTOT,
	"GOT":               ModeGOT,
	"GRAPH_OF_THOUGHT":  ModeGOT,
	"GRAPH_OF_THOUGHTS": ModeGOT,
	"AOT":               ModeAOT,
	"ATOM_OF_THOUGHT":   ModeAOT,
	"ATOM_OF_THOUGHTS":  ModeAOT,
	"COMBINED":          ModeCombined,
	"MULTI_STRATEGY":    ModeMultiStrategy,
	"MULTISTRATEGY":     ModeMultiStrategy,
}

// ParseMode normalizes free text into a Mode. It never fails: anything it
// does not recognize comes back as ModeUnknown.
//
// Matching is case-insensitive and treats '-' and ' ' like '_'. Oracles
// often answer with a label followed by commentary ("GOT - interconnected"),
// so only the first word is considered when the whole text does not match.
func ParseMode(raw string) Mode {
	key := normalizeModeKey(raw)
	if key == "" {
		return ModeUnknown
	}

	if m, ok := modeAliases[key]; ok {
		return m
	}

	if fields := strings.FieldsFunc(strings.ToUpper(strings.TrimSpace(raw)), isModeSeparator); len(fields) > 0 {
		if m, ok := modeAliases[fields[0]]; ok {
			return m
		}
	}

	return ModeUnknown
}

func normalizeModeKey(raw string) string {
	s := strings.ToUpper(strings.TrimSpace(raw))
	s = strings.Trim(s, `"'.:`)
	s = strings.NewReplacer("-", "_", " ", "_").Replace(s)
	return s
}

func isModeSeparator(r rune) bool {
	switch r {
	case ' ', '\t', '\n', ',', ':', ';', '(', ')', '.', '"', '\'':
		return true
	}
	return false
}

// IsCanonical reports whether m is one of the six routable modes.
func (m Mode) IsCanonical() bool {
	for _, c := range CanonicalModes {
		if m == c {
			return true
		}
	}
	return false
}

func (m Mode) String() string {
	return string(m)
}

var datasetDirs = map[Mode]string{
	ModeDirect:   "direct",
	ModeCOT:      "chain_of_thought",
	ModeTOT:      "tree_of_thoughts",
	ModeGOT:      "graph_of_thoughts",
	ModeAOT:      "atom_of_thoughts",
	ModeCombined: "combined",
}

// DatasetDir returns the dataset partition directory holding examples that
// expect m, or "" for non-canonical modes.
func (m Mode) DatasetDir() string {
	return datasetDirs[m]
}

// ModeForDatasetDir is the inverse of DatasetDir. It returns ModeUnknown for
// directories that are not dataset partitions.
func ModeForDatasetDir(dir string) Mode {
	for m, d := range datasetDirs {
		if strings.EqualFold(d, dir) {
			return m
		}
	}
	return ModeUnknown
}
