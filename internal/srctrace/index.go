package srctrace

import "slices"

// ReqSite points at one marker that mentions a requirement, together with
// the file it lives in.
type ReqSite struct {
	FilePath string
	Marker   *Marker
}

// ProjectIndex maps a requirement UID to every site that traces it,
// across all scanned files.
type ProjectIndex map[string][]ReqSite

// BuildProjectIndex merges the per-file requirement indexes. Sites keep
// file order within a file and input order across files.
func BuildProjectIndex(infos []*SourceFileTraceabilityInfo) ProjectIndex {
	index := make(ProjectIndex)
	for _, info := range infos {
		if info == nil {
			continue
		}
		for req, markers := range info.MapReqsToMarkers {
			for _, m := range markers {
				index[req] = append(index[req], ReqSite{FilePath: info.FilePath, Marker: m})
			}
		}
	}
	return index
}

// Reqs returns the requirement UIDs present in the index, sorted.
func (idx ProjectIndex) Reqs() []string {
	reqs := make([]string, 0, len(idx))
	for req := range idx {
		reqs = append(reqs, req)
	}
	slices.Sort(reqs)
	return reqs
}
