package srctrace

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"reqtrace/internal/diag"
	"reqtrace/internal/source"
)

func readTestSource(t *testing.T, content string) *SourceFileTraceabilityInfo {
	t.Helper()
	fs := source.NewFileSet()
	info, err := Read(fs, "main.c", []byte(content))
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	return info
}

func TestReadZeroLengthFile(t *testing.T) {
	fs := source.NewFileSet()
	info, err := Read(fs, "empty.c", nil)
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if info.FilePath != "empty.c" {
		t.Errorf("FilePath = %q, want %q", info.FilePath, "empty.c")
	}
	if info.HasMarkers() {
		t.Error("HasMarkers() = true for empty content")
	}
	if info.LinesTotal != 0 || info.LinesCovered != 0 || info.Coverage != 0 {
		t.Errorf("stats = %d/%d (%v%%), want all zero",
			info.LinesCovered, info.LinesTotal, info.Coverage)
	}
}

func TestReadCoverageSingleRange(t *testing.T) {
	content := "func main() {\n" + // 1
		"\t// [REQ-1]\n" + //        2
		"\tinitEngine()\n" + //      3
		"\tstartPumps()\n" + //      4
		"\t// [/REQ-1]\n" + //       5
		"}\n" + //                   6
		"\n" + //                    7
		"// helpers\n" + //          8
		"\n" + //                    9
		"// end\n" //                10

	info := readTestSource(t, content)
	if info.LinesTotal != 10 {
		t.Fatalf("LinesTotal = %d, want 10", info.LinesTotal)
	}
	if info.LinesCovered != 4 {
		t.Errorf("LinesCovered = %d, want 4", info.LinesCovered)
	}
	if info.Coverage != 40.0 {
		t.Errorf("Coverage = %v, want 40.0", info.Coverage)
	}
}

func TestAddForwardMarkerMergesOverlap(t *testing.T) {
	content := "func main() {\n" +
		"\t// [REQ-1]\n" +
		"\tinitEngine()\n" +
		"\tstartPumps()\n" +
		"\t// [/REQ-1]\n" +
		"}\n" +
		"\n" +
		"// helpers\n" +
		"\n" +
		"// end\n"

	info := readTestSource(t, content)

	// [2,5] from the in-file pair plus forward [4,7] merge into [2,7].
	info.AddForwardMarker(NewForwardRangeMarker("REQ-2", 4, 7))

	if info.LinesCovered != 6 {
		t.Errorf("LinesCovered = %d, want 6", info.LinesCovered)
	}
	if info.Coverage != 60.0 {
		t.Errorf("Coverage = %v, want 60.0", info.Coverage)
	}
	got := info.MarkersForReq("REQ-2")
	if len(got) != 1 || got[0].Kind != MarkerForward {
		t.Fatalf("MarkersForReq(REQ-2) = %v, want the forward marker", got)
	}
	if got[0].RangeBegin != 4 || got[0].RangeEnd != 7 {
		t.Errorf("forward range = [%d, %d], want [4, 7]", got[0].RangeBegin, got[0].RangeEnd)
	}
	if byLine := info.MapLinesToMarkers[4]; len(byLine) != 1 || byLine[0] != got[0] {
		t.Errorf("MapLinesToMarkers[4] = %v, want the forward marker", byLine)
	}
}

func TestReadCoverageTouchingRangesFuse(t *testing.T) {
	content := "x\n" + //      1
		"# [A]\n" + //         2
		"# [/A]\n" + //        3
		"# [B]\n" + //         4
		"# [/B]\n" + //        5
		"x\n" //               6

	info := readTestSource(t, content)
	if info.LinesCovered != 4 {
		t.Errorf("LinesCovered = %d, want 4 (ranges [2,3] and [4,5] fused)", info.LinesCovered)
	}
	if info.Coverage != 66.7 {
		t.Errorf("Coverage = %v, want 66.7", info.Coverage)
	}
}

func TestReadCoverageNestedRangesCountOnce(t *testing.T) {
	content := "x\n" +
		"# [OUTER]\n" +
		"# [INNER]\n" +
		"# [/INNER]\n" +
		"# [/OUTER]\n" +
		"x\n"

	info := readTestSource(t, content)
	if info.LinesCovered != 4 {
		t.Errorf("LinesCovered = %d, want 4", info.LinesCovered)
	}
}

func TestReadNodocLinesNotCovered(t *testing.T) {
	content := "code\n" +
		"# [nodoc]\n" +
		"# [line: REQ-9]\n" +
		"secret()\n" +
		"# [/nodoc]\n" +
		"code\n"

	info := readTestSource(t, content)
	if info.HasMarkers() {
		t.Errorf("markers = %v, want none", info.Markers)
	}
	if got := info.MarkersForReq("REQ-9"); got != nil {
		t.Errorf("MarkersForReq(REQ-9) = %v, want nil", got)
	}
	if info.LinesCovered != 0 || info.Coverage != 0 {
		t.Errorf("stats = %d lines (%v%%), want zero", info.LinesCovered, info.Coverage)
	}
}

func TestReadIndexesLineMarkers(t *testing.T) {
	content := "code\n" +
		"// [REQ-1]\n" +
		"code\n" +
		"// [/REQ-1]\n" +
		"// [line: REQ-1]\n"

	info := readTestSource(t, content)
	got := info.MarkersForReq("REQ-1")
	if len(got) != 2 {
		t.Fatalf("MarkersForReq(REQ-1) = %d markers, want begin and line", len(got))
	}
	if got[0].Kind != MarkerBegin || got[1].Kind != MarkerLine {
		t.Errorf("marker kinds = %v, %v, want begin then line", got[0].Kind, got[1].Kind)
	}
	if len(info.MapLinesToMarkers) != 3 {
		t.Errorf("MapLinesToMarkers has %d lines, want 3", len(info.MapLinesToMarkers))
	}
	if info.LinesCovered != 4 {
		t.Errorf("LinesCovered = %d, want 4", info.LinesCovered)
	}
}

func TestReadPropagatesRangeErrors(t *testing.T) {
	fs := source.NewFileSet()
	_, err := Read(fs, "main.c", []byte("code\n// [/REQ-1]\n"))
	if err == nil {
		t.Fatal("expected an error for an end marker without begin")
	}
	sem, ok := diag.AsSemantic(err)
	if !ok {
		t.Fatalf("error %v is not a SemanticError", err)
	}
	if sem.Code() != diag.RngEndWithoutBegin {
		t.Errorf("code = %s, want %s", sem.Code().ID(), diag.RngEndWithoutBegin.ID())
	}
	if sem.Pos.Path != "main.c" {
		t.Errorf("path = %q, want main.c", sem.Pos.Path)
	}
}

func TestReadCoverageFullFile(t *testing.T) {
	content := "# [REQ-1]\ncode\n# [/REQ-1]"

	info := readTestSource(t, content)
	if info.LinesTotal != 3 {
		t.Fatalf("LinesTotal = %d, want 3 (no trailing newline)", info.LinesTotal)
	}
	if info.LinesCovered != 3 {
		t.Errorf("LinesCovered = %d, want 3", info.LinesCovered)
	}
	if info.Coverage != 100.0 {
		t.Errorf("Coverage = %v, want 100.0", info.Coverage)
	}
}

func TestReadCoverageRoundsToOneDecimal(t *testing.T) {
	// One covered line out of three: 33.333... rounds to 33.3.
	content := "// [line: REQ-1]\ncode\ncode\n"

	info := readTestSource(t, content)
	if info.Coverage != 33.3 {
		t.Errorf("Coverage = %v, want 33.3", info.Coverage)
	}
}

func TestReadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "engine.c")
	content := "// [REQ-5]\nrun();\n// [/REQ-5]\nidle();\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	fs := source.NewFileSet()
	info, err := ReadFromFile(fs, path)
	if err != nil {
		t.Fatalf("ReadFromFile() error: %v", err)
	}
	if info.LinesTotal != 4 || info.LinesCovered != 3 {
		t.Errorf("stats = %d/%d, want 3/4", info.LinesCovered, info.LinesTotal)
	}
	if info.Coverage != 75.0 {
		t.Errorf("Coverage = %v, want 75.0", info.Coverage)
	}
}

func TestReadFromFileMissing(t *testing.T) {
	fs := source.NewFileSet()
	_, err := ReadFromFile(fs, filepath.Join(t.TempDir(), "absent.c"))
	if err == nil {
		t.Fatal("expected an error for a missing file")
	}
	if _, ok := diag.AsSemantic(err); ok {
		t.Errorf("I/O failure should not be a SemanticError: %v", err)
	}
	if !strings.Contains(err.Error(), "absent.c") {
		t.Errorf("error %q should name the file", err)
	}
}
