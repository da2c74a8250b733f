package fuzztests

import (
	"errors"
	"testing"

	"reqtrace/internal/diag"
	"reqtrace/internal/rdoc"
	"reqtrace/internal/source"
	"reqtrace/internal/testkit"
)

func FuzzDocumentReader(f *testing.F) {
	addDocumentSeeds(f)
	f.Fuzz(func(t *testing.T, input []byte) {
		input = clampSeed(input)

		fs := source.NewFileSet()
		doc, err := rdoc.ReadDocument(fs, "fuzz.rdoc", input, rdoc.ReadOptions{})
		if err != nil {
			var sem *diag.SemanticError
			if !errors.As(err, &sem) {
				t.Fatalf("reader returned a non-semantic error: %v", err)
			}
			return
		}
		if err := testkit.CheckDocumentInvariants(doc); err != nil {
			t.Fatalf("document invariants violated: %v", err)
		}
	})
}
