package cache

import "reqtrace/internal/srctrace"

// Current schema version. Increment when the payload layout changes; old
// entries then key differently and read as misses either way.
const payloadSchema uint16 = 1

// payload is the serialized form of a trace result. Spans are not cached:
// they index a FileSet that will not exist on restore. The requirement and
// line maps are rebuilt from the marker list, preserving pointer sharing.
type payload struct {
	Schema   uint16
	FilePath string

	Markers []markerPayload

	LinesTotal   uint32
	LinesCovered uint32
	Coverage     float64
}

type markerPayload struct {
	Kind  uint8
	Reqs  []string
	Nodoc bool
	Line  uint32
	Col   uint32

	RangeBegin uint32
	RangeEnd   uint32
}

func infoToPayload(info *srctrace.SourceFileTraceabilityInfo) *payload {
	p := &payload{
		Schema:       payloadSchema,
		FilePath:     info.FilePath,
		LinesTotal:   info.LinesTotal,
		LinesCovered: info.LinesCovered,
		Coverage:     info.Coverage,
	}
	p.Markers = make([]markerPayload, len(info.Markers))
	for i, m := range info.Markers {
		p.Markers[i] = markerPayload{
			Kind:       uint8(m.Kind),
			Reqs:       m.Reqs,
			Nodoc:      m.Nodoc,
			Line:       m.Line,
			Col:        m.Col,
			RangeBegin: m.RangeBegin,
			RangeEnd:   m.RangeEnd,
		}
	}
	return p
}

func payloadToInfo(p *payload) *srctrace.SourceFileTraceabilityInfo {
	info := &srctrace.SourceFileTraceabilityInfo{
		FilePath:          p.FilePath,
		MapReqsToMarkers:  make(map[string][]*srctrace.Marker),
		MapLinesToMarkers: make(map[uint32][]*srctrace.Marker),
		LinesTotal:        p.LinesTotal,
		LinesCovered:      p.LinesCovered,
		Coverage:          p.Coverage,
	}
	if len(p.Markers) == 0 {
		return info
	}
	info.Markers = make([]*srctrace.Marker, len(p.Markers))
	for i, mp := range p.Markers {
		m := &srctrace.Marker{
			Kind:       srctrace.MarkerKind(mp.Kind),
			Reqs:       mp.Reqs,
			Nodoc:      mp.Nodoc,
			Line:       mp.Line,
			Col:        mp.Col,
			RangeBegin: mp.RangeBegin,
			RangeEnd:   mp.RangeEnd,
		}
		info.Markers[i] = m
		if m.Kind != srctrace.MarkerEnd {
			for _, req := range m.Reqs {
				info.MapReqsToMarkers[req] = append(info.MapReqsToMarkers[req], m)
			}
		}
		info.MapLinesToMarkers[m.Line] = append(info.MapLinesToMarkers[m.Line], m)
	}
	return info
}
