package fuzztests

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

const maxSeedBytes = 64 << 10 // clamp for the seed corpus

// sourceSeedExts mirrors the default manifest extensions so the corpus
// looks like the files a real trace run picks up.
var sourceSeedExts = map[string]bool{
	".c":  true,
	".h":  true,
	".go": true,
	".py": true,
	".rs": true,
}

func addDocumentSeeds(f *testing.F) {
	addTestdataSeeds(f, func(ext string) bool { return ext == ".rdoc" })
	// Minimal inline seeds in case testdata is missing.
	f.Add([]byte{})
	f.Add([]byte("[DOCUMENT]\nTITLE: Seed\n\n[REQUIREMENT]\nUID: REQ-001\nTITLE: Parsed\nSTATEMENT: The seed shall parse.\n"))
	f.Add([]byte("[DOCUMENT]\nTITLE: Broken\n\n[REQUIREMENT]\nSTATEMENT: >>>\nunterminated\n"))
	f.Add([]byte("[GRAMMAR]\nELEMENTS:\n- TAG: REQUIREMENT\n"))
}

func addSourceSeeds(f *testing.F) {
	addTestdataSeeds(f, func(ext string) bool { return sourceSeedExts[ext] })
	f.Add([]byte{})
	f.Add([]byte("// [REQ-001]\nint main(void) { return 0; }\n// [/REQ-001]\n"))
	f.Add([]byte("# [line: REQ-002, REQ-003]\nx = 1\n"))
	f.Add([]byte("-- [nodoc]\nscratch()\n-- [/nodoc]\n"))
	f.Add([]byte("/* [REQ-004] */\n"))
	f.Add([]byte("; [/REQ-005]\n"))
}

func addTestdataSeeds(f *testing.F, want func(ext string) bool) {
	root := filepath.Join("..", "..", "testdata")
	if _, err := os.Stat(root); err != nil {
		return
	}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !want(filepath.Ext(path)) {
			return nil
		}
		// #nosec G304 -- path comes from the repository testdata walk
		src, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		f.Add(clampSeed(src))
		return nil
	})
	if err != nil {
		return
	}
}

func clampSeed(src []byte) []byte {
	if len(src) <= maxSeedBytes {
		return append([]byte(nil), src...)
	}
	return append([]byte(nil), src[:maxSeedBytes]...)
}
