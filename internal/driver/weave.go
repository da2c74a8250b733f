package driver

import (
	"path"

	"reqtrace/internal/rdoc"
	"reqtrace/internal/srctrace"
)

// WeaveForwardMarkers turns the documents' File references into forward
// range markers on the referenced files: a node with a UID that references
// a traced file claims the whole file for that requirement. Returns the
// number of markers added. Files that failed to trace and references to
// files outside the traced set are skipped.
func WeaveForwardMarkers(docs []CheckFileResult, files []TraceFileResult) int {
	if len(docs) == 0 || len(files) == 0 {
		return 0
	}

	byPath := make(map[string]*srctrace.SourceFileTraceabilityInfo, len(files))
	for i := range files {
		if files[i].Info == nil {
			continue
		}
		byPath[path.Clean(files[i].Path)] = files[i].Info
	}

	woven := 0
	for i := range docs {
		doc := docs[i].Doc
		if doc == nil {
			continue
		}
		for _, node := range doc.Nodes {
			uid := node.UID()
			if uid == "" {
				continue
			}
			for _, ref := range node.References {
				if ref.Kind != rdoc.RefFile {
					continue
				}
				info, ok := byPath[path.Clean(ref.PosixTarget())]
				if !ok || info.LinesTotal == 0 {
					continue
				}
				info.AddForwardMarker(srctrace.NewForwardRangeMarker(uid, 1, info.LinesTotal))
				woven++
			}
		}
	}
	return woven
}
