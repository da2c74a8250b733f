package diagfmt

import (
	"encoding/json"
	"fmt"
	"io"

	"reqtrace/internal/srctrace"
)

// MarkerOutput is one scanned marker in machine-readable output.
type MarkerOutput struct {
	Kind       string   `json:"kind"`
	Reqs       []string `json:"reqs"`
	Nodoc      bool     `json:"nodoc,omitempty"`
	Line       uint32   `json:"line"`
	Col        uint32   `json:"col"`
	RangeBegin uint32   `json:"range_begin,omitempty"`
	RangeEnd   uint32   `json:"range_end,omitempty"`
}

// MarkersDump is the root of the JSON marker dump for a single file.
type MarkersDump struct {
	File    string         `json:"file"`
	Markers []MarkerOutput `json:"markers"`
	Count   int            `json:"count"`
}

// FormatMarkersPretty lists matched markers one per line, in file order.
func FormatMarkersPretty(w io.Writer, path string, markers []*srctrace.Marker) {
	fmt.Fprintf(w, "%s: %d marker(s)\n", path, len(markers))
	for i, m := range markers {
		fmt.Fprintf(w, "%3d: %-8s [%s] at %d:%d", i+1, m.Kind.String(), m.ReqsDump(), m.Line, m.Col)
		if m.HasRange() {
			fmt.Fprintf(w, " range [%d, %d]", m.RangeBegin, m.RangeEnd)
		}
		fmt.Fprintln(w)
	}
}

// FormatMarkersJSON emits the marker dump as an indented JSON document.
func FormatMarkersJSON(w io.Writer, path string, markers []*srctrace.Marker) error {
	output := MarkersDump{
		File:    path,
		Markers: make([]MarkerOutput, 0, len(markers)),
		Count:   len(markers),
	}
	for _, m := range markers {
		output.Markers = append(output.Markers, MarkerOutput{
			Kind:       m.Kind.String(),
			Reqs:       m.Reqs,
			Nodoc:      m.Nodoc,
			Line:       m.Line,
			Col:        m.Col,
			RangeBegin: m.RangeBegin,
			RangeEnd:   m.RangeEnd,
		})
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}
