package srctrace

import (
	"fmt"

	"reqtrace/internal/source"
)

// SourceFileTraceabilityInfo aggregates everything tracing knows about one
// source file: the surviving markers in file order, the requirement and
// line indexes, and the coverage statistics.
type SourceFileTraceabilityInfo struct {
	FilePath string
	Markers  []*Marker

	MapReqsToMarkers  map[string][]*Marker
	MapLinesToMarkers map[uint32][]*Marker

	LinesTotal   uint32
	LinesCovered uint32
	Coverage     float64
}

// Read registers content under path in the file set and computes its
// traceability info.
func Read(fs *source.FileSet, path string, content []byte) (*SourceFileTraceabilityInfo, error) {
	id := fs.AddVirtual(path, content)
	return ReadFile(fs, id)
}

// ReadFromFile loads path from disk and computes its traceability info.
func ReadFromFile(fs *source.FileSet, path string) (*SourceFileTraceabilityInfo, error) {
	id, err := fs.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load source file %s: %w", path, err)
	}
	return ReadFile(fs, id)
}

// ReadFile computes traceability info for a file already in the set.
// Zero-length content short-circuits to an empty info with zero lines.
func ReadFile(fs *source.FileSet, id source.FileID) (*SourceFileTraceabilityInfo, error) {
	f := fs.Get(id)
	info := &SourceFileTraceabilityInfo{
		FilePath:          f.Path,
		MapReqsToMarkers:  make(map[string][]*Marker),
		MapLinesToMarkers: make(map[uint32][]*Marker),
	}
	if len(f.Content) == 0 {
		return info, nil
	}

	markers, reqs, err := MatchMarkers(fs, ScanMarkers(f))
	if err != nil {
		return nil, err
	}
	info.Markers = markers
	info.MapReqsToMarkers = reqs
	for _, m := range markers {
		info.MapLinesToMarkers[m.Line] = append(info.MapLinesToMarkers[m.Line], m)
	}
	info.LinesTotal = f.LineCount()
	info.recompute()
	return info, nil
}

// MarkersForReq returns the markers tracing one requirement, nil when the
// file never mentions it.
func (info *SourceFileTraceabilityInfo) MarkersForReq(req string) []*Marker {
	return info.MapReqsToMarkers[req]
}

// HasMarkers reports whether any requirement traces into this file.
func (info *SourceFileTraceabilityInfo) HasMarkers() bool {
	return len(info.Markers) > 0
}

// AddForwardMarker weaves in a marker synthesized from a document's File
// reference and refreshes the coverage statistics.
func (info *SourceFileTraceabilityInfo) AddForwardMarker(m *Marker) {
	info.Markers = append(info.Markers, m)
	for _, req := range m.Reqs {
		info.MapReqsToMarkers[req] = append(info.MapReqsToMarkers[req], m)
	}
	info.MapLinesToMarkers[m.Line] = append(info.MapLinesToMarkers[m.Line], m)
	info.recompute()
}

func (info *SourceFileTraceabilityInfo) recompute() {
	info.LinesCovered = coveredLines(info.Markers)
	info.Coverage = CoveragePercent(uint64(info.LinesTotal), uint64(info.LinesCovered))
}
