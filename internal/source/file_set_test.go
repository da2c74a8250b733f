package source

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func TestFileSetVersioning(t *testing.T) {
	fs := NewFileSet()

	id1 := fs.Add("test.rdoc", []byte("hello world"), 0)
	if id1 != 0 {
		t.Errorf("first Add returned id %d, want 0", id1)
	}

	latest, ok := fs.GetLatest("test.rdoc")
	if !ok || latest != id1 {
		t.Errorf("GetLatest = (%d, %v), want (%d, true)", latest, ok, id1)
	}

	// Same path, new content: a fresh FileID, index moves forward.
	id2 := fs.Add("test.rdoc", []byte("hello universe"), 0)
	if id2 != 1 {
		t.Errorf("second Add returned id %d, want 1", id2)
	}
	latest, ok = fs.GetLatest("test.rdoc")
	if !ok || latest != id2 {
		t.Errorf("GetLatest after re-add = (%d, %v), want (%d, true)", latest, ok, id2)
	}

	// Both versions stay reachable by id.
	if got := string(fs.Get(id1).Content); got != "hello world" {
		t.Errorf("old version content = %q, want %q", got, "hello world")
	}
	if got := string(fs.Get(id2).Content); got != "hello universe" {
		t.Errorf("new version content = %q, want %q", got, "hello universe")
	}
	if fs.Len() != 2 {
		t.Errorf("Len = %d, want 2", fs.Len())
	}
}

func TestAddVirtualLineIdx(t *testing.T) {
	fs := NewFileSet()

	file := fs.Get(fs.AddVirtual("a.c", []byte("a\nb\n")))
	if want := []uint32{1, 3}; !slices.Equal(file.LineIdx, want) {
		t.Errorf("LineIdx = %v, want %v", file.LineIdx, want)
	}
	if file.Flags&FileVirtual == 0 {
		t.Error("FileVirtual flag not set")
	}
}

func TestAddVirtualNormalizes(t *testing.T) {
	fs := NewFileSet()

	file := fs.Get(fs.AddVirtual("crlf.c", []byte("\xEF\xBB\xBFa\r\nb\r\n")))
	if got := string(file.Content); got != "a\nb\n" {
		t.Errorf("content = %q, want %q", got, "a\nb\n")
	}
	if file.Flags&FileHadBOM == 0 {
		t.Error("FileHadBOM flag not set")
	}
	if file.Flags&FileNormalizedCRLF == 0 {
		t.Error("FileNormalizedCRLF flag not set")
	}
}

func TestResolve(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("test.c", []byte("ab\ncd\n"))

	tests := []struct {
		name string
		off  uint32
		want LineCol
	}{
		{"first byte", 0, LineCol{Line: 1, Col: 1}},
		{"second byte", 1, LineCol{Line: 1, Col: 2}},
		{"newline ends its line", 2, LineCol{Line: 1, Col: 3}},
		{"first byte of line 2", 3, LineCol{Line: 2, Col: 1}},
		{"second byte of line 2", 4, LineCol{Line: 2, Col: 2}},
		{"trailing newline", 5, LineCol{Line: 2, Col: 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := fs.Resolve(Span{File: id, Start: tt.off, End: tt.off})
			if got != tt.want {
				t.Errorf("Resolve(%d) = %+v, want %+v", tt.off, got, tt.want)
			}
		})
	}
}

func TestResolveUTF8(t *testing.T) {
	fs := NewFileSet()

	// "α" is two bytes; columns count bytes, not runes.
	id := fs.AddVirtual("test.c", []byte("α\nβ"))

	start, end := fs.Resolve(Span{File: id, Start: 0, End: 1})
	if want := (LineCol{Line: 1, Col: 1}); start != want {
		t.Errorf("start = %+v, want %+v", start, want)
	}
	if want := (LineCol{Line: 1, Col: 2}); end != want {
		t.Errorf("end = %+v, want %+v", end, want)
	}

	// β begins right after the newline.
	start, _ = fs.Resolve(Span{File: id, Start: 3, End: 5})
	if want := (LineCol{Line: 2, Col: 1}); start != want {
		t.Errorf("start of line 2 = %+v, want %+v", start, want)
	}
}

func TestPositionFor(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("dir/test.c", []byte("one\ntwo\n"))

	pos := fs.PositionFor(Span{File: id, Start: 4, End: 7})
	if pos.Path != "dir/test.c" {
		t.Errorf("path = %q, want dir/test.c", pos.Path)
	}
	if pos.Line != 2 || pos.Col != 1 {
		t.Errorf("position = %d:%d, want 2:1", pos.Line, pos.Col)
	}
	if got, want := pos.String(), "dir/test.c:2:1"; got != want {
		t.Errorf("String = %q, want %q", got, want)
	}
}

func TestLineCount(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    uint32
	}{
		{"empty", "", 0},
		{"one line no newline", "hello", 1},
		{"one line with newline", "hello\n", 1},
		{"two lines", "a\nb", 2},
		{"two lines trailing newline", "a\nb\n", 2},
		{"blank lines count", "a\n\n\n", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := NewFileSet()
			id := fs.AddVirtual("t.c", []byte(tt.content))
			if got := fs.Get(id).LineCount(); got != tt.want {
				t.Errorf("LineCount(%q) = %d, want %d", tt.content, got, tt.want)
			}
		})
	}
}

func TestGetLine(t *testing.T) {
	fs := NewFileSet()
	f := fs.Get(fs.AddVirtual("t.c", []byte("first\nsecond\nthird")))

	tests := []struct {
		line uint32
		want string
	}{
		{0, ""},
		{1, "first"},
		{2, "second"},
		{3, "third"},
		{4, ""},
	}

	for _, tt := range tests {
		if got := f.GetLine(tt.line); got != tt.want {
			t.Errorf("GetLine(%d) = %q, want %q", tt.line, got, tt.want)
		}
	}
}

func TestLineIdxEdgeCases(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []uint32
	}{
		{"empty file", "", nil},
		{"no newlines", "hello", nil},
		{"only newline", "\n", []uint32{0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := NewFileSet()
			file := fs.Get(fs.AddVirtual("t.c", []byte(tt.content)))
			if !slices.Equal(file.LineIdx, tt.want) {
				t.Errorf("LineIdx(%q) = %v, want %v", tt.content, file.LineIdx, tt.want)
			}
		})
	}
}

func TestLoadNormalization(t *testing.T) {
	tests := []struct {
		name      string
		raw       []byte
		want      string
		wantFlags FileFlags
	}{
		{"plain", []byte("a\nb\n"), "a\nb\n", 0},
		{"bom", []byte("\xEF\xBB\xBFa\nb\n"), "a\nb\n", FileHadBOM},
		{"crlf", []byte("a\r\nb\r\n"), "a\nb\n", FileNormalizedCRLF},
		{"bom and crlf", []byte("\xEF\xBB\xBFa\r\n"), "a\n", FileHadBOM | FileNormalizedCRLF},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := NewFileSet()
			path := filepath.Join(t.TempDir(), "f.c")
			if err := os.WriteFile(path, tt.raw, 0o644); err != nil {
				t.Fatalf("write temp file: %v", err)
			}

			id, err := fs.Load(path)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			file := fs.Get(id)
			if got := string(file.Content); got != tt.want {
				t.Errorf("content = %q, want %q", got, tt.want)
			}
			if file.Flags != tt.wantFlags {
				t.Errorf("flags = %b, want %b", file.Flags, tt.wantFlags)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	fs := NewFileSet()
	if _, err := fs.Load(filepath.Join(t.TempDir(), "absent.c")); err == nil {
		t.Fatal("Load of a missing file must fail")
	}
	if fs.Len() != 0 {
		t.Errorf("failed Load must not add files, Len = %d", fs.Len())
	}
}
