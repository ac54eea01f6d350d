package optimization

import (
	"math"
	"strconv"
	"strings"
)

// ArchiveEntry is the running statistic for one evaluated encoded point.
type ArchiveEntry struct {
	Point []float64 `json:"point"`
	Count int       `json:"count"`
	Mean  float64   `json:"mean"`
}

// Archive records every distinct evaluated encoded point with the running
// mean of the values told for it. It is not safe for concurrent use; the
// owning experiment serializes access.
type Archive struct {
	index   map[string]int
	entries []ArchiveEntry
}

// NewArchive creates an empty archive.
func NewArchive() *Archive {
	return &Archive{index: make(map[string]int)}
}

// Observe folds value into the entry for point and returns a copy of the
// updated entry.
func (a *Archive) Observe(point []float64, value float64) ArchiveEntry {
	key := pointKey(point)
	i, ok := a.index[key]
	if !ok {
		i = len(a.entries)
		a.index[key] = i
		a.entries = append(a.entries, ArchiveEntry{Point: append([]float64(nil), point...)})
	}

	e := &a.entries[i]
	e.Count++
	e.Mean += (value - e.Mean) / float64(e.Count)
	return e.clone()
}

// Get returns the entry recorded for point.
func (a *Archive) Get(point []float64) (ArchiveEntry, bool) {
	i, ok := a.index[pointKey(point)]
	if !ok {
		return ArchiveEntry{}, false
	}
	return a.entries[i].clone(), true
}

// Len returns the number of distinct points observed.
func (a *Archive) Len() int {
	return len(a.entries)
}

// Best returns the entry with the lowest mean. Ties keep the earliest entry.
func (a *Archive) Best() (ArchiveEntry, bool) {
	best := -1
	for i := range a.entries {
		if best < 0 || a.entries[i].Mean < a.entries[best].Mean {
			best = i
		}
	}
	if best < 0 {
		return ArchiveEntry{}, false
	}
	return a.entries[best].clone(), true
}

// Entries returns a copy of all entries in first-observed order.
func (a *Archive) Entries() []ArchiveEntry {
	out := make([]ArchiveEntry, len(a.entries))
	for i := range a.entries {
		out[i] = a.entries[i].clone()
	}
	return out
}

func (e ArchiveEntry) clone() ArchiveEntry {
	e.Point = append([]float64(nil), e.Point...)
	return e
}

// pointKey renders point exactly, folding -0 into 0.
func pointKey(point []float64) string {
	var b strings.Builder
	for i, v := range point {
		if i > 0 {
			b.WriteByte(',')
		}
		if v == 0 {
			v = 0
		}
		if math.IsNaN(v) {
			b.WriteString("NaN")
			continue
		}
		b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
	}
	return b.String()
}
