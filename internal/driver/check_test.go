package driver

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"reqtrace/internal/diag"
	"reqtrace/internal/pipeline"
	"reqtrace/internal/project"
)

const validDoc = `[DOCUMENT]
TITLE: Demo

[REQUIREMENT]
UID: REQ-001
TITLE: First
STATEMENT: The first requirement.
`

const invalidDoc = `[DOCUMENT]
TITLE: Broken

[REQUIREMENT]
UID: REQ-002
BOGUS: not a registered field
`

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", rel, err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", rel, err)
		}
	}
	return root
}

func TestCheckValidDocuments(t *testing.T) {
	root := writeTree(t, map[string]string{
		"docs/spec.rdoc": validDoc,
	})

	result, err := Check(context.Background(), root, project.Default(), nil, CheckOptions{MaxDiagnostics: 10})
	if err != nil {
		t.Fatalf("Check() error: %v", err)
	}
	if len(result.Files) != 1 {
		t.Fatalf("files = %d, want 1", len(result.Files))
	}
	file := result.Files[0]
	if file.Path != "docs/spec.rdoc" {
		t.Errorf("path = %q, want docs/spec.rdoc", file.Path)
	}
	if file.Doc == nil {
		t.Fatal("document not parsed")
	}
	if file.Doc.Title != "Demo" {
		t.Errorf("title = %q, want Demo", file.Doc.Title)
	}
	if result.HasErrors() {
		t.Errorf("unexpected errors: %+v", file.Bag.Items())
	}
}

func TestCheckCollectsErrorsPerFile(t *testing.T) {
	root := writeTree(t, map[string]string{
		"docs/bad.rdoc":  invalidDoc,
		"docs/good.rdoc": validDoc,
	})

	result, err := Check(context.Background(), root, project.Default(), nil, CheckOptions{MaxDiagnostics: 10})
	if err != nil {
		t.Fatalf("Check() error: %v", err)
	}
	if len(result.Files) != 2 {
		t.Fatalf("files = %d, want 2", len(result.Files))
	}
	if !result.HasErrors() {
		t.Fatal("expected errors from the broken document")
	}

	// Collection sorts paths, so bad.rdoc comes first.
	bad, good := result.Files[0], result.Files[1]
	if bad.Doc != nil {
		t.Errorf("broken document must not parse")
	}
	if bad.Bag.Len() != 1 || bad.Bag.Items()[0].Code != diag.GrmUnregisteredField {
		t.Errorf("bad bag = %+v", bad.Bag.Items())
	}
	if good.Doc == nil || good.Bag.HasErrors() {
		t.Errorf("good document must parse cleanly despite the broken one")
	}
}

func TestCheckExplicitPathsOverrideManifest(t *testing.T) {
	root := writeTree(t, map[string]string{
		"docs/ignored.rdoc": invalidDoc,
		"extra/spec.rdoc":   validDoc,
	})

	result, err := Check(context.Background(), root, project.Default(), []string{"extra"}, CheckOptions{MaxDiagnostics: 10})
	if err != nil {
		t.Fatalf("Check() error: %v", err)
	}
	if len(result.Files) != 1 || result.Files[0].Path != "extra/spec.rdoc" {
		t.Fatalf("files = %+v, want only extra/spec.rdoc", result.Files)
	}
	if result.HasErrors() {
		t.Errorf("unexpected errors")
	}
}

func TestCheckMissingDocsDir(t *testing.T) {
	root := writeTree(t, map[string]string{"main.c": "int x;\n"})

	result, err := Check(context.Background(), root, project.Default(), nil, CheckOptions{MaxDiagnostics: 10})
	if err != nil {
		t.Fatalf("Check() error: %v", err)
	}
	if len(result.Files) != 0 {
		t.Errorf("files = %d, want 0", len(result.Files))
	}
}

func TestCheckLoadFailureLandsInBag(t *testing.T) {
	root := writeTree(t, map[string]string{
		"docs/good.rdoc": validDoc,
	})
	// A dangling symlink is collected by extension but fails to load.
	if err := os.Symlink(filepath.Join(root, "nowhere"), filepath.Join(root, "docs", "broken.rdoc")); err != nil {
		t.Skipf("symlink not supported: %v", err)
	}

	result, err := Check(context.Background(), root, project.Default(), nil, CheckOptions{MaxDiagnostics: 10})
	if err != nil {
		t.Fatalf("Check() error: %v", err)
	}
	if len(result.Files) != 2 {
		t.Fatalf("files = %d, want 2", len(result.Files))
	}
	broken := result.Files[0]
	if broken.Path != "docs/broken.rdoc" {
		t.Fatalf("first path = %q, want docs/broken.rdoc", broken.Path)
	}
	if broken.Bag.Len() != 1 || broken.Bag.Items()[0].Code != diag.IOLoadFileError {
		t.Errorf("broken bag = %+v, want one IOLoadFileError", broken.Bag.Items())
	}
	// The stand-in entry keeps the diagnostic span resolvable.
	if got := result.FileSet.Get(broken.FileID).Path; filepath.Base(got) != "broken.rdoc" {
		t.Errorf("stand-in path = %q, want broken.rdoc", got)
	}
	if result.Files[1].Doc == nil {
		t.Errorf("good document must still parse")
	}
}

func TestCheckTimings(t *testing.T) {
	root := writeTree(t, map[string]string{
		"docs/spec.rdoc": validDoc,
	})

	result, err := Check(context.Background(), root, project.Default(), nil, CheckOptions{MaxDiagnostics: 10, EnableTimings: true})
	if err != nil {
		t.Fatalf("Check() error: %v", err)
	}

	items := result.Pipeline.Items()
	if len(items) != 1 || items[0].Code != diag.ObsTimings {
		t.Fatalf("pipeline bag = %+v, want one ObsTimings entry", items)
	}
	if len(items[0].Notes) != 1 {
		t.Errorf("timings entry must carry the JSON note")
	}
}

func TestCheckEmitsProgressEvents(t *testing.T) {
	root := writeTree(t, map[string]string{
		"docs/spec.rdoc": validDoc,
	})

	ch := make(chan pipeline.Event, 64)
	sink := pipeline.ChannelSink{Ch: ch}

	_, err := Check(context.Background(), root, project.Default(), nil, CheckOptions{MaxDiagnostics: 10, Sink: sink})
	if err != nil {
		t.Fatalf("Check() error: %v", err)
	}
	close(ch)

	var queued, done int
	for evt := range ch {
		if evt.File != "docs/spec.rdoc" {
			t.Errorf("event for unexpected file %q", evt.File)
		}
		switch evt.Status {
		case pipeline.StatusQueued:
			queued++
		case pipeline.StatusDone:
			done++
			if evt.Stage != pipeline.StageParse {
				t.Errorf("done stage = %q, want parse", evt.Stage)
			}
		}
	}
	if queued != 1 || done != 1 {
		t.Errorf("queued=%d done=%d, want 1/1", queued, done)
	}
}
