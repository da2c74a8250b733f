package driver

import (
	"encoding/json"
	"fmt"

	"reqtrace/internal/diag"
	"reqtrace/internal/observ"
	"reqtrace/internal/source"
)

// TimingPayload is the machine-readable body of a timings diagnostic.
type TimingPayload struct {
	Kind    string               `json:"kind"`
	Path    string               `json:"path,omitempty"`
	TotalMS float64              `json:"total_ms"`
	Phases  []observ.PhaseReport `json:"phases"`
}

// appendTimingDiagnostic records phase timings as an ObsTimings entry. The
// JSON payload rides in a note so machine consumers get the full breakdown.
func appendTimingDiagnostic(bag *diag.Bag, payload TimingPayload) {
	if bag == nil {
		return
	}
	if payload.Kind == "" {
		payload.Kind = "pipeline"
	}
	msg := fmt.Sprintf("timings (%s): total %.2f ms", payload.Kind, payload.TotalMS)
	if payload.Path != "" {
		msg += " for " + payload.Path
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return
	}

	entry := diag.Diagnostic{
		Severity: diag.SevInfo,
		Code:     diag.ObsTimings,
		Message:  msg,
		Primary:  source.Span{},
		Notes: []diag.Note{
			{Span: source.Span{}, Msg: string(data)},
		},
	}

	if bag.Add(entry) {
		return
	}
	// A full bag still reports timings: they were asked for explicitly.
	// Merge never drops, so route the entry through a scratch bag.
	forced := diag.NewBag(1)
	forced.Add(entry)
	bag.Merge(forced)
}

// DecodeTimings extracts the timing payloads a run recorded in its
// pipeline bag. Entries whose note fails to parse are skipped.
func DecodeTimings(bag *diag.Bag) []TimingPayload {
	if bag == nil {
		return nil
	}
	var payloads []TimingPayload
	for _, d := range bag.Items() {
		if d.Code != diag.ObsTimings || len(d.Notes) == 0 {
			continue
		}
		var payload TimingPayload
		if err := json.Unmarshal([]byte(d.Notes[0].Msg), &payload); err != nil {
			continue
		}
		payloads = append(payloads, payload)
	}
	return payloads
}
