// Package testkit holds cross-package invariant checks shared by tests.
package testkit

import (
	"fmt"

	"fortio.org/safecast"

	"reqtrace/internal/rdoc"
	"reqtrace/internal/source"
	"reqtrace/internal/srctrace"
)

// CheckMarkerInvariants runs structural checks on a matched marker list:
// 1) no nodoc marker survives matching
// 2) spans are non-empty, in-bounds, and on the right file
// 3) markers appear in file order
// 4) resolved ranges are ordered and contain the marker's own line
func CheckMarkerInvariants(sf *source.File, markers []*srctrace.Marker) error {
	if sf == nil {
		return fmt.Errorf("nil file")
	}
	lenContent, err := safecast.Conv[uint32](len(sf.Content))
	if err != nil {
		return fmt.Errorf("len content overflow: %w", err)
	}
	var prevLine uint32
	for i, m := range markers {
		if m == nil {
			return fmt.Errorf("marker %d is nil", i)
		}
		if m.Nodoc {
			return fmt.Errorf("marker %d: nodoc marker survived matching", i)
		}
		if m.Kind != srctrace.MarkerForward {
			if m.Span.End <= m.Span.Start {
				return fmt.Errorf("marker %d: empty span %v", i, m.Span)
			}
			if m.Span.File != sf.ID {
				return fmt.Errorf("marker %d: span file %d, want %d", i, m.Span.File, sf.ID)
			}
			if m.Span.End > lenContent {
				return fmt.Errorf("marker %d: span end %d beyond content %d", i, m.Span.End, lenContent)
			}
			if m.Line < prevLine {
				return fmt.Errorf("marker %d: line %d before previous %d", i, m.Line, prevLine)
			}
			prevLine = m.Line
		}
		if m.Line == 0 || m.Col == 0 {
			return fmt.Errorf("marker %d: unresolved position %d:%d", i, m.Line, m.Col)
		}
		if len(m.Reqs) == 0 {
			return fmt.Errorf("marker %d: no requirement ids", i)
		}
		if m.HasRange() {
			if m.RangeBegin > m.RangeEnd {
				return fmt.Errorf("marker %d: inverted range [%d, %d]", i, m.RangeBegin, m.RangeEnd)
			}
			if m.Line < m.RangeBegin || m.Line > m.RangeEnd {
				return fmt.Errorf("marker %d: line %d outside its range [%d, %d]",
					i, m.Line, m.RangeBegin, m.RangeEnd)
			}
		}
	}
	return nil
}

// CheckTraceInvariants verifies that a trace result is internally
// consistent: indexes point back into the marker list, end markers are
// never indexed by requirement, and the coverage stats are plausible.
func CheckTraceInvariants(info *srctrace.SourceFileTraceabilityInfo) error {
	if info == nil {
		return fmt.Errorf("nil info")
	}
	inList := make(map[*srctrace.Marker]struct{}, len(info.Markers))
	for _, m := range info.Markers {
		inList[m] = struct{}{}
	}
	for req, markers := range info.MapReqsToMarkers {
		if len(markers) == 0 {
			return fmt.Errorf("req %q: empty index entry", req)
		}
		for _, m := range markers {
			if _, ok := inList[m]; !ok {
				return fmt.Errorf("req %q: indexed marker not in Markers", req)
			}
			if m.Kind == srctrace.MarkerEnd {
				return fmt.Errorf("req %q: end marker indexed", req)
			}
			found := false
			for _, id := range m.Reqs {
				if id == req {
					found = true
					break
				}
			}
			if !found {
				return fmt.Errorf("req %q: indexed marker does not carry it", req)
			}
		}
	}
	for line, markers := range info.MapLinesToMarkers {
		for _, m := range markers {
			if _, ok := inList[m]; !ok {
				return fmt.Errorf("line %d: indexed marker not in Markers", line)
			}
			if m.Line != line {
				return fmt.Errorf("line %d: marker claims line %d", line, m.Line)
			}
		}
	}
	if info.LinesCovered > info.LinesTotal {
		return fmt.Errorf("covered %d > total %d", info.LinesCovered, info.LinesTotal)
	}
	if info.Coverage < 0 || info.Coverage > 100 {
		return fmt.Errorf("coverage %v out of [0, 100]", info.Coverage)
	}
	if info.LinesTotal == 0 && info.Coverage != 0 {
		return fmt.Errorf("coverage %v with zero total lines", info.Coverage)
	}
	return nil
}

// CheckDocumentInvariants verifies that a parsed document is internally
// consistent: a title, a grammar covering every node's type, and a UID
// index that agrees with the nodes.
func CheckDocumentInvariants(doc *rdoc.Document) error {
	if doc == nil {
		return fmt.Errorf("nil document")
	}
	if doc.Title == "" {
		return fmt.Errorf("document has no title")
	}
	if doc.Grammar == nil {
		return fmt.Errorf("document has no grammar")
	}
	inList := make(map[*rdoc.Node]struct{}, len(doc.Nodes))
	for i, node := range doc.Nodes {
		if node == nil {
			return fmt.Errorf("node %d is nil", i)
		}
		if node.MID == "" {
			return fmt.Errorf("node %d: empty MID", i)
		}
		if !doc.Grammar.HasElement(node.Type) {
			return fmt.Errorf("node %d: type %q not in grammar", i, node.Type)
		}
		for _, f := range node.Fields {
			if f.Name == "" {
				return fmt.Errorf("node %d: unnamed field", i)
			}
		}
		inList[node] = struct{}{}
	}
	for uid, nodes := range doc.MapUIDToNodes {
		if len(nodes) == 0 {
			return fmt.Errorf("uid %q: empty index entry", uid)
		}
		for _, node := range nodes {
			if _, ok := inList[node]; !ok {
				return fmt.Errorf("uid %q: indexed node not in Nodes", uid)
			}
			if node.UID() != uid {
				return fmt.Errorf("uid %q: node declares %q", uid, node.UID())
			}
		}
	}
	return nil
}
