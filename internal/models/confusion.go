package models

import (
	"sort"
)

// ConfusionMatrix counts expected -> predicted routings over one run.
type ConfusionMatrix map[Mode]map[Mode]int

// ConfusionEntry is one cell of a ConfusionMatrix.
type ConfusionEntry struct {
	Expected  Mode `json:"expected"`
	Predicted Mode `json:"predicted"`
	Count     int  `json:"count"`
}

// NewConfusionMatrix returns an empty matrix.
func NewConfusionMatrix() ConfusionMatrix {
	return ConfusionMatrix{}
}

// Add records one routing.
func (cm ConfusionMatrix) Add(expected, predicted Mode) {
	cm.add(expected, predicted, 1)
}

func (cm ConfusionMatrix) add(expected, predicted Mode, n int) {
	row, ok := cm[expected]
	if !ok {
		row = map[Mode]int{}
		cm[expected] = row
	}
	row[predicted] += n
}

// Count returns the number of expected -> predicted routings.
func (cm ConfusionMatrix) Count(expected, predicted Mode) int {
	return cm[expected][predicted]
}

// RowSum returns how many evaluated examples expected the given mode.
func (cm ConfusionMatrix) RowSum(expected Mode) int {
	sum := 0
	for _, n := range cm[expected] {
		sum += n
	}
	return sum
}

// Total is the number of routings recorded.
func (cm ConfusionMatrix) Total() int {
	sum := 0
	for expected := range cm {
		sum += cm.RowSum(expected)
	}
	return sum
}

// Correct is the diagonal sum.
func (cm ConfusionMatrix) Correct() int {
	sum := 0
	for expected, row := range cm {
		sum += row[expected]
	}
	return sum
}

// Entries returns every non-zero cell, sorted by expected then predicted.
func (cm ConfusionMatrix) Entries() []ConfusionEntry {
	var entries []ConfusionEntry
	for expected, row := range cm {
		for predicted, n := range row {
			if n != 0 {
				entries = append(entries, ConfusionEntry{Expected: expected, Predicted: predicted, Count: n})
			}
		}
	}
	sortEntries(entries)
	return entries
}

// OffDiagonal returns the misroutings, sorted by expected then predicted.
func (cm ConfusionMatrix) OffDiagonal() []ConfusionEntry {
	var entries []ConfusionEntry
	for _, e := range cm.Entries() {
		if e.Expected != e.Predicted {
			entries = append(entries, e)
		}
	}
	return entries
}

// Subtract returns cm - other cell by cell. Counts in the result may be
// negative; zero cells are omitted.
func (cm ConfusionMatrix) Subtract(other ConfusionMatrix) ConfusionMatrix {
	out := NewConfusionMatrix()
	for expected, row := range cm {
		for predicted, n := range row {
			out.add(expected, predicted, n)
		}
	}
	for expected, row := range other {
		for predicted, n := range row {
			out.add(expected, predicted, -n)
		}
	}
	for expected, row := range out {
		for predicted, n := range row {
			if n == 0 {
				delete(row, predicted)
			}
		}
		if len(row) == 0 {
			delete(out, expected)
		}
	}
	return out
}

func sortEntries(entries []ConfusionEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Expected != entries[j].Expected {
			return modeOrder(entries[i].Expected) < modeOrder(entries[j].Expected)
		}
		return modeOrder(entries[i].Predicted) < modeOrder(entries[j].Predicted)
	})
}

// modeOrder sorts canonical modes in CanonicalModes order, then the rest.
func modeOrder(m Mode) int {
	for i, c := range CanonicalModes {
		if c == m {
			return i
		}
	}
	switch m {
	case ModeMultiStrategy:
		return len(CanonicalModes)
	default:
		return len(CanonicalModes) + 1
	}
}

// SortModes orders modes for display.
func SortModes(modes []Mode) {
	sort.SliceStable(modes, func(i, j int) bool {
		oi, oj := modeOrder(modes[i]), modeOrder(modes[j])
		if oi != oj {
			return oi < oj
		}
		return modes[i] < modes[j]
	})
}
