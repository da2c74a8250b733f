package cache

import (
	"errors"
	"os"
	"testing"

	"reqtrace/internal/source"
	"reqtrace/internal/srctrace"
)

func traceFixture(t *testing.T) *srctrace.SourceFileTraceabilityInfo {
	t.Helper()
	content := "code\n" +
		"// [REQ-1]\n" +
		"code\n" +
		"// [/REQ-1]\n" +
		"// [line: REQ-2, REQ-3]\n"
	fs := source.NewFileSet()
	info, err := srctrace.Read(fs, "engine.c", []byte(content))
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	return info
}

func TestCacheRoundTrip(t *testing.T) {
	c, err := OpenAt(t.TempDir())
	if err != nil {
		t.Fatalf("OpenAt() error: %v", err)
	}
	info := traceFixture(t)
	key := KeyFor([]byte("file content"), "1.0.0")

	if err := c.Put(key, info); err != nil {
		t.Fatalf("Put() error: %v", err)
	}
	got, err := c.Get(key)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}

	if got.FilePath != info.FilePath {
		t.Errorf("FilePath = %q, want %q", got.FilePath, info.FilePath)
	}
	if got.LinesTotal != info.LinesTotal || got.LinesCovered != info.LinesCovered || got.Coverage != info.Coverage {
		t.Errorf("stats = %d/%d (%v%%), want %d/%d (%v%%)",
			got.LinesCovered, got.LinesTotal, got.Coverage,
			info.LinesCovered, info.LinesTotal, info.Coverage)
	}
	if len(got.Markers) != len(info.Markers) {
		t.Fatalf("markers = %d, want %d", len(got.Markers), len(info.Markers))
	}
	for i, m := range got.Markers {
		want := info.Markers[i]
		if m.Kind != want.Kind || m.Line != want.Line || m.Col != want.Col {
			t.Errorf("markers[%d] = kind %v line %d col %d, want kind %v line %d col %d",
				i, m.Kind, m.Line, m.Col, want.Kind, want.Line, want.Col)
		}
		if m.RangeBegin != want.RangeBegin || m.RangeEnd != want.RangeEnd {
			t.Errorf("markers[%d] range = [%d, %d], want [%d, %d]",
				i, m.RangeBegin, m.RangeEnd, want.RangeBegin, want.RangeEnd)
		}
	}

	// Indexes are rebuilt from the marker list and must share pointers
	// with it, end markers excluded.
	if byReq := got.MarkersForReq("REQ-1"); len(byReq) != 1 || byReq[0] != got.Markers[0] {
		t.Errorf("MarkersForReq(REQ-1) = %v, want the restored begin marker", byReq)
	}
	if byReq := got.MarkersForReq("REQ-3"); len(byReq) != 1 || byReq[0].Kind != srctrace.MarkerLine {
		t.Errorf("MarkersForReq(REQ-3) = %v, want the restored line marker", byReq)
	}
	if len(got.MapLinesToMarkers) != 3 {
		t.Errorf("MapLinesToMarkers has %d lines, want 3", len(got.MapLinesToMarkers))
	}
}

func TestCacheMissOnAbsentKey(t *testing.T) {
	c, err := OpenAt(t.TempDir())
	if err != nil {
		t.Fatalf("OpenAt() error: %v", err)
	}
	_, err = c.Get(KeyFor([]byte("never stored"), "1.0.0"))
	if !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Get() error = %v, want ErrCacheMiss", err)
	}
}

func TestCacheCorruptEntryIsAMiss(t *testing.T) {
	c, err := OpenAt(t.TempDir())
	if err != nil {
		t.Fatalf("OpenAt() error: %v", err)
	}
	key := KeyFor([]byte("content"), "1.0.0")
	if err := c.Put(key, traceFixture(t)); err != nil {
		t.Fatalf("Put() error: %v", err)
	}
	if err := os.WriteFile(c.pathFor(key), []byte("not an xz stream"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err = c.Get(key)
	if !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Get() on corrupt entry = %v, want ErrCacheMiss", err)
	}
}

func TestCacheKeyDerivation(t *testing.T) {
	base := KeyFor([]byte("content"), "1.0.0")
	if KeyFor([]byte("content"), "1.0.0") != base {
		t.Error("same content and version must key identically")
	}
	if KeyFor([]byte("other"), "1.0.0") == base {
		t.Error("different content must key differently")
	}
	if KeyFor([]byte("content"), "1.0.1") == base {
		t.Error("different tool version must key differently")
	}
}

func TestCacheClear(t *testing.T) {
	dir := t.TempDir()
	c, err := OpenAt(dir)
	if err != nil {
		t.Fatalf("OpenAt() error: %v", err)
	}
	key := KeyFor([]byte("content"), "1.0.0")
	if err := c.Put(key, traceFixture(t)); err != nil {
		t.Fatalf("Put() error: %v", err)
	}
	if err := c.Clear(); err != nil {
		t.Fatalf("Clear() error: %v", err)
	}
	if _, err := c.Get(key); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Get() after Clear() = %v, want ErrCacheMiss", err)
	}
	// The root survives for subsequent puts.
	if err := c.Put(key, traceFixture(t)); err != nil {
		t.Fatalf("Put() after Clear() error: %v", err)
	}
}

func TestCacheNilReceiver(t *testing.T) {
	var c *Cache
	if err := c.Put(Key{}, traceFixture(t)); err != nil {
		t.Errorf("nil Put() = %v, want nil", err)
	}
	if _, err := c.Get(Key{}); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("nil Get() = %v, want ErrCacheMiss", err)
	}
	if err := c.Clear(); err != nil {
		t.Errorf("nil Clear() = %v, want nil", err)
	}
	if c.Dir() != "" {
		t.Errorf("nil Dir() = %q, want empty", c.Dir())
	}
}

func TestCachePutOverwrites(t *testing.T) {
	c, err := OpenAt(t.TempDir())
	if err != nil {
		t.Fatalf("OpenAt() error: %v", err)
	}
	key := KeyFor([]byte("content"), "1.0.0")

	first := traceFixture(t)
	if err := c.Put(key, first); err != nil {
		t.Fatalf("Put() error: %v", err)
	}

	fs := source.NewFileSet()
	second, err := srctrace.Read(fs, "other.c", []byte("// [line: REQ-9]\n"))
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if err := c.Put(key, second); err != nil {
		t.Fatalf("second Put() error: %v", err)
	}

	got, err := c.Get(key)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got.FilePath != "other.c" {
		t.Errorf("FilePath = %q, want the second payload", got.FilePath)
	}
}
