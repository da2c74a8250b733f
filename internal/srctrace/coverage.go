package srctrace

import (
	"math"
	"slices"
)

type lineRange struct {
	begin uint32
	end   uint32
}

// coveredLines merges the resolved marker ranges and counts the distinct
// covered lines. Only begin-side markers contribute; end markers mirror the
// range their begin already claims. Touching ranges fuse: a range ending on
// line N absorbs one beginning on N+1.
func coveredLines(markers []*Marker) uint32 {
	var ranges []lineRange
	for _, m := range markers {
		if m.Kind == MarkerEnd || !m.HasRange() {
			continue
		}
		ranges = append(ranges, lineRange{begin: m.RangeBegin, end: m.RangeEnd})
	}
	if len(ranges) == 0 {
		return 0
	}

	slices.SortStableFunc(ranges, func(a, b lineRange) int {
		if a.begin != b.begin {
			if a.begin < b.begin {
				return -1
			}
			return 1
		}
		return 0
	})

	merged := ranges[:1]
	for _, r := range ranges[1:] {
		last := &merged[len(merged)-1]
		if last.end >= r.begin-1 {
			if r.end > last.end {
				last.end = r.end
			}
			continue
		}
		merged = append(merged, r)
	}

	var covered uint32
	for _, r := range merged {
		covered += r.end - r.begin + 1
	}
	return covered
}

// CoveragePercent renders covered/total as a percentage with one decimal
// place, rounding half away from zero.
func CoveragePercent(total, covered uint64) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(covered)/float64(total)*1000) / 10
}
