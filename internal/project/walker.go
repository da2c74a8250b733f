package project

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
)

// DocExtension marks requirement documents.
const DocExtension = ".rdoc"

// Directories never worth scanning, independent of manifest excludes.
var skipDirs = map[string]struct{}{
	".git":         {},
	".hg":          {},
	".svn":         {},
	"node_modules": {},
	"__pycache__":  {},
	"vendor":       {},
	"build":        {},
	"dist":         {},
}

// CollectDocFiles returns the absolute paths of every document under the
// manifest's docs paths, sorted. Entries naming a file directly are taken
// as-is when they carry the document extension.
func CollectDocFiles(root string, m *Manifest) ([]string, error) {
	var out []string
	for _, p := range m.Docs.Paths {
		base := filepath.Join(root, p)
		info, err := os.Stat(base)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		if !info.IsDir() {
			if filepath.Ext(base) == DocExtension {
				out = append(out, base)
			}
			continue
		}
		err = filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != base && shouldSkipDir(d.Name()) {
					return filepath.SkipDir
				}
				return nil
			}
			if filepath.Ext(path) == DocExtension {
				out = append(out, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	sort.Strings(out)
	return out, nil
}

// CollectSourceFiles returns the absolute paths of the trace candidates
// under the manifest's include paths, sorted: regular files passing the
// manifest's excludes, its extension filter, and (when enabled) the
// project's root .gitignore. Documents are never source candidates.
func CollectSourceFiles(root string, m *Manifest) ([]string, error) {
	var gi *ignore.GitIgnore
	if m.Trace.RespectGitignore {
		gi = loadGitignore(root)
	}
	extFilter := make(map[string]struct{}, len(m.Trace.Extensions))
	for _, ext := range m.Trace.Extensions {
		extFilter[ext] = struct{}{}
	}

	seen := make(map[string]struct{})
	var out []string
	for _, p := range m.Trace.Include {
		base := filepath.Join(root, p)
		info, err := os.Stat(base)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		if !info.IsDir() {
			collectSourceFile(base, root, m, gi, extFilter, seen, &out)
			continue
		}
		err = filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			name := d.Name()
			if d.IsDir() {
				if path == base {
					return nil
				}
				if shouldSkipDir(name) || isExcluded(root, path, m.Trace.Exclude) {
					return filepath.SkipDir
				}
				return nil
			}
			if strings.HasPrefix(name, ".") || d.Type()&fs.ModeSymlink != 0 {
				return nil
			}
			collectSourceFile(path, root, m, gi, extFilter, seen, &out)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	sort.Strings(out)
	return out, nil
}

func collectSourceFile(
	path, root string,
	m *Manifest,
	gi *ignore.GitIgnore,
	extFilter map[string]struct{},
	seen map[string]struct{},
	out *[]string,
) {
	if _, dup := seen[path]; dup {
		return
	}
	if filepath.Base(path) == ManifestName {
		return
	}
	ext := filepath.Ext(path)
	if ext == DocExtension {
		return
	}
	if len(extFilter) > 0 {
		if _, ok := extFilter[ext]; !ok {
			return
		}
	}
	if isExcluded(root, path, m.Trace.Exclude) {
		return
	}
	if gi != nil {
		if rel, err := filepath.Rel(root, path); err == nil && gi.MatchesPath(rel) {
			return
		}
	}
	seen[path] = struct{}{}
	*out = append(*out, path)
}

func shouldSkipDir(name string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	_, skip := skipDirs[name]
	return skip
}

// isExcluded matches the path against the manifest excludes, each taken as
// a path prefix relative to the project root.
func isExcluded(root, path string, excludes []string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, ex := range excludes {
		ex = strings.Trim(filepath.ToSlash(ex), "/")
		if ex == "" {
			continue
		}
		if rel == ex || strings.HasPrefix(rel, ex+"/") {
			return true
		}
	}
	return false
}

func loadGitignore(root string) *ignore.GitIgnore {
	gi, err := ignore.CompileIgnoreFile(filepath.Join(root, ".gitignore"))
	if err != nil {
		return nil
	}
	return gi
}
