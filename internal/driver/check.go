package driver

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"reqtrace/internal/diag"
	"reqtrace/internal/observ"
	"reqtrace/internal/pipeline"
	"reqtrace/internal/project"
	"reqtrace/internal/rdoc"
	"reqtrace/internal/source"
)

// CheckOptions configures a document validation run.
type CheckOptions struct {
	MaxDiagnostics int
	Jobs           int
	EnableTimings  bool
	Sink           pipeline.ProgressSink
}

// CheckFileResult is the outcome for one document. Doc is nil when the
// file failed to load or parse; Bag carries the diagnostics either way.
type CheckFileResult struct {
	Path   string // relative to the project root
	FileID source.FileID
	Doc    *rdoc.Document
	Bag    *diag.Bag
}

// CheckResult is the outcome of a whole document validation run.
type CheckResult struct {
	FileSet *source.FileSet
	Files   []CheckFileResult
	// Pipeline holds run-scope diagnostics (timings, infrastructure
	// warnings) that belong to no single file.
	Pipeline *diag.Bag
}

// HasErrors reports whether any per-file bag holds an error.
func (r *CheckResult) HasErrors() bool {
	for i := range r.Files {
		if r.Files[i].Bag.HasErrors() {
			return true
		}
	}
	return false
}

// Check parses and validates the requirement documents of a project.
// Explicit paths override the manifest's docs.paths. A failing document
// does not stop the run: its diagnostics land in the per-file bag and the
// remaining documents are still processed.
func Check(ctx context.Context, root string, m *project.Manifest, paths []string, opts CheckOptions) (*CheckResult, error) {
	var timer *observ.Timer
	if opts.EnableTimings {
		timer = observ.NewTimer()
	}

	fileSet := source.NewFileSetWithBase(root)
	result := &CheckResult{
		FileSet:  fileSet,
		Pipeline: diag.NewBag(opts.MaxDiagnostics),
	}

	endCollect := timer.Begin("collect_docs")
	scope := *m
	if len(paths) > 0 {
		scope.Docs.Paths = paths
	}
	files, err := project.CollectDocFiles(root, &scope)
	endCollect(fmt.Sprintf("%d file(s)", len(files)))
	if err != nil {
		return nil, err
	}

	endParse := timer.Begin("parse_documents")
	pipeline.EmitStage(opts.Sink, pipeline.StageParse, pipeline.StatusWorking, 0)
	result.Files, err = checkFiles(ctx, fileSet, root, files, opts)
	endParse("")
	if err != nil {
		return nil, err
	}

	if timer != nil {
		report := timer.Report()
		appendTimingDiagnostic(result.Pipeline, TimingPayload{
			Kind:    "check",
			TotalMS: report.TotalMS,
			Phases:  report.Phases,
		})
	}
	return result, nil
}

// checkFiles parses the given documents in parallel, one result slot per
// input index. The file set must already carry no concurrent writers:
// every file is loaded up front, workers only read.
func checkFiles(ctx context.Context, fileSet *source.FileSet, root string, files []string, opts CheckOptions) ([]CheckFileResult, error) {
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

	results := make([]CheckFileResult, len(files))

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
				pipeline.EmitFile(opts.Sink, rel, pipeline.StageParse, pipeline.StatusWorking, nil, 0)

				bag := diag.NewBag(opts.MaxDiagnostics)
				id := fileIDs[path]
				results[i] = CheckFileResult{Path: rel, FileID: id, Bag: bag}

				if loadErr, failed := loadErrors[path]; failed {
					bag.Add(diag.Diagnostic{
						Severity: diag.SevError,
						Code:     diag.IOLoadFileError,
						Message:  "failed to load file: " + loadErr.Error(),
						Primary:  source.Span{File: id},
					})
					pipeline.EmitFile(opts.Sink, rel, pipeline.StageParse, pipeline.StatusError, loadErr, time.Since(started))
					return nil
				}

				doc, err := rdoc.ReadDocumentFile(fileSet, id, rdoc.ReadOptions{})
				if err != nil {
					var sem *diag.SemanticError
					if !errors.As(err, &sem) {
						return err
					}
					bag.Add(sem.Diag)
					pipeline.EmitFile(opts.Sink, rel, pipeline.StageParse, pipeline.StatusError, err, time.Since(started))
					return nil
				}

				results[i].Doc = doc
				pipeline.EmitFile(opts.Sink, rel, pipeline.StageParse, pipeline.StatusDone, nil, time.Since(started))
				return nil
			}
		}(i, path))
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// displayPath renders path relative to the project root when possible.
func displayPath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}
