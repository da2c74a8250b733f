package driver

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"reqtrace/internal/cache"
	"reqtrace/internal/diag"
	"reqtrace/internal/observ"
	"reqtrace/internal/pipeline"
	"reqtrace/internal/project"
	"reqtrace/internal/source"
	"reqtrace/internal/srctrace"
	"reqtrace/internal/version"
)

// TraceOptions configures a source tracing run.
type TraceOptions struct {
	MaxDiagnostics int
	Jobs           int
	EnableTimings  bool
	// NoCache bypasses the disk cache even when the manifest enables it.
	NoCache bool
	// CacheDir overrides the cache location; empty selects the user cache.
	CacheDir string
	Sink     pipeline.ProgressSink
}

// TraceFileResult is the outcome for one source file. Info is nil when the
// file failed to load or carries a range error.
type TraceFileResult struct {
	Path      string // relative to the project root
	FileID    source.FileID
	Info      *srctrace.SourceFileTraceabilityInfo
	Bag       *diag.Bag
	FromCache bool
}

// TraceResult is the outcome of a whole tracing run.
type TraceResult struct {
	FileSet *source.FileSet
	// Docs carries the parsed requirement documents; their File references
	// are woven into the per-file infos as forward range markers.
	Docs  []CheckFileResult
	Files []TraceFileResult
	// Index aggregates requirement UIDs to marker sites across all files.
	Index srctrace.ProjectIndex
	// Pipeline holds run-scope diagnostics (timings, infrastructure
	// warnings) that belong to no single file.
	Pipeline *diag.Bag
}

// HasErrors reports whether any per-file or document bag holds an error.
func (r *TraceResult) HasErrors() bool {
	for i := range r.Docs {
		if r.Docs[i].Bag.HasErrors() {
			return true
		}
	}
	for i := range r.Files {
		if r.Files[i].Bag.HasErrors() {
			return true
		}
	}
	return false
}

// Infos returns the traceability infos of the files that produced one,
// keeping file order.
func (r *TraceResult) Infos() []*srctrace.SourceFileTraceabilityInfo {
	infos := make([]*srctrace.SourceFileTraceabilityInfo, 0, len(r.Files))
	for i := range r.Files {
		if r.Files[i].Info != nil {
			infos = append(infos, r.Files[i].Info)
		}
	}
	return infos
}

// Trace scans the project's source files for requirement markers, matches
// ranges, computes line coverage, and aggregates the requirement index.
// Explicit paths override the manifest's trace.include. Documents are
// parsed as well: their File references become forward range markers on
// the referenced files. Failing files keep the run going.
func Trace(ctx context.Context, root string, m *project.Manifest, paths []string, opts TraceOptions) (*TraceResult, error) {
	var timer *observ.Timer
	if opts.EnableTimings {
		timer = observ.NewTimer()
	}

	fileSet := source.NewFileSetWithBase(root)
	result := &TraceResult{
		FileSet:  fileSet,
		Pipeline: diag.NewBag(opts.MaxDiagnostics),
	}

	endCollect := timer.Begin("collect_files")
	scope := *m
	if len(paths) > 0 {
		scope.Trace.Include = paths
	}
	files, err := project.CollectSourceFiles(root, &scope)
	endCollect(fmt.Sprintf("%d file(s)", len(files)))
	if err != nil {
		return nil, err
	}

	endDocs := timer.Begin("parse_documents")
	pipeline.EmitStage(opts.Sink, pipeline.StageParse, pipeline.StatusWorking, 0)
	docFiles, err := project.CollectDocFiles(root, m)
	if err != nil {
		endDocs("")
		return nil, err
	}
	result.Docs, err = checkFiles(ctx, fileSet, root, docFiles, CheckOptions{
		MaxDiagnostics: opts.MaxDiagnostics,
		Jobs:           opts.Jobs,
		Sink:           opts.Sink,
	})
	endDocs(fmt.Sprintf("%d document(s)", len(docFiles)))
	if err != nil {
		return nil, err
	}

	store := openCache(m, opts, result.Pipeline)

	endScan := timer.Begin("scan_files")
	pipeline.EmitStage(opts.Sink, pipeline.StageScan, pipeline.StatusWorking, 0)
	result.Files, err = traceFiles(ctx, fileSet, root, files, store, opts)
	endScan("")
	if err != nil {
		return nil, err
	}

	pipeline.EmitStage(opts.Sink, pipeline.StageMatch, pipeline.StatusWorking, 0)
	endWeave := timer.Begin("weave_refs")
	woven := WeaveForwardMarkers(result.Docs, result.Files)
	endWeave(fmt.Sprintf("%d marker(s)", woven))

	endIndex := timer.Begin("build_index")
	result.Index = srctrace.BuildProjectIndex(result.Infos())
	endIndex(fmt.Sprintf("%d requirement(s)", len(result.Index)))

	if timer != nil {
		report := timer.Report()
		appendTimingDiagnostic(result.Pipeline, TimingPayload{
			Kind:    "trace",
			TotalMS: report.TotalMS,
			Phases:  report.Phases,
		})
	}
	return result, nil
}

// openCache resolves the trace cache for this run. Cache trouble never
// fails the run; it downgrades to a warning and a nil cache, which always
// misses.
func openCache(m *project.Manifest, opts TraceOptions, bag *diag.Bag) *cache.Cache {
	if opts.NoCache || !m.Cache.Enabled {
		return nil
	}
	var (
		store *cache.Cache
		err   error
	)
	if opts.CacheDir != "" {
		store, err = cache.OpenAt(opts.CacheDir)
	} else {
		store, err = cache.Open()
	}
	if err != nil {
		bag.Add(diag.Diagnostic{
			Severity: diag.SevWarning,
			Code:     diag.IOLoadFileError,
			Message:  "trace cache unavailable: " + err.Error(),
			Primary:  source.Span{},
		})
		return nil
	}
	return store
}

// traceFiles scans the given sources in parallel, one result slot per
// input index. Files are loaded up front; workers only read the file set.
func traceFiles(ctx context.Context, fileSet *source.FileSet, root string, files []string, store *cache.Cache, opts TraceOptions) ([]TraceFileResult, error) {
	if len(files) == 0 {
		return nil, nil
	}

	rels := make([]string, len(files))
	for i, path := range files {
		rels[i] = displayPath(root, path)
	}
	pipeline.EmitQueued(opts.Sink, rels)

	fileIDs := make(map[string]source.FileID, len(files))
	loadErrors := make(map[string]error, len(files))
	for _, path := range files {
		id, err := fileSet.Load(path)
		if err != nil {
			loadErrors[path] = err
			// An empty virtual stand-in keeps the diagnostic span
			// resolvable against the file set.
			id = fileSet.AddVirtual(path, nil)
		}
		fileIDs[path] = id
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	results := make([]TraceFileResult, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(files)))

	for i, path := range files {
		g.Go(func(i int, path string) func() error {
			return func() error {
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}

				rel := rels[i]
				started := time.Now()
				pipeline.EmitFile(opts.Sink, rel, pipeline.StageScan, pipeline.StatusWorking, nil, 0)

				bag := diag.NewBag(opts.MaxDiagnostics)
				id := fileIDs[path]
				results[i] = TraceFileResult{Path: rel, FileID: id, Bag: bag}

				if loadErr, failed := loadErrors[path]; failed {
					bag.Add(diag.Diagnostic{
						Severity: diag.SevError,
						Code:     diag.IOLoadFileError,
						Message:  "failed to load file: " + loadErr.Error(),
						Primary:  source.Span{File: id},
					})
					pipeline.EmitFile(opts.Sink, rel, pipeline.StageScan, pipeline.StatusError, loadErr, time.Since(started))
					return nil
				}

				file := fileSet.Get(id)

				key := cache.KeyFor(file.Content, version.Number)
				if info, err := store.Get(key); err == nil {
					info.FilePath = rel
					results[i].Info = info
					results[i].FromCache = true
					pipeline.EmitFile(opts.Sink, rel, pipeline.StageMatch, pipeline.StatusDone, nil, time.Since(started))
					return nil
				}

				info, err := srctrace.ReadFile(fileSet, id)
				if err != nil {
					var sem *diag.SemanticError
					if !errors.As(err, &sem) {
						return err
					}
					bag.Add(sem.Diag)
					pipeline.EmitFile(opts.Sink, rel, pipeline.StageMatch, pipeline.StatusError, err, time.Since(started))
					return nil
				}
				info.FilePath = rel

				// Store before weaving: forward markers come from the
				// documents, not from this file's content.
				if err := store.Put(key, info); err != nil {
					bag.Add(diag.Diagnostic{
						Severity: diag.SevWarning,
						Code:     diag.IOLoadFileError,
						Message:  "trace cache write failed: " + err.Error(),
						Primary:  source.Span{},
					})
				}

				results[i].Info = info
				pipeline.EmitFile(opts.Sink, rel, pipeline.StageMatch, pipeline.StatusDone, nil, time.Since(started))
				return nil
			}
		}(i, path))
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
