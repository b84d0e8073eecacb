package manifest

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-git/go-git/v6/plumbing/format/gitignore"
)

const gitignoreFile = ".gitignore"

var skipDirs = map[string]bool{".git": true, ".vs": true}

type WalkOptions struct {
	CompileExt []string
	IncludeExt []string
	// doublestar patterns relative to the project directory
	Exclude []string
	// honor .gitignore files found in the tree and its ancestors
	Gitignore bool
	// called for every collected file
	OnFile func(p string)
}

type walker struct {
	fsys       fs.FS
	opts       WalkOptions
	classifier Classifier
	patterns   []gitignore.Pattern
	matcher    gitignore.Matcher
	loaded     map[string]bool
	m          *Manifest
}

// Walk enumerates every root in order and collects source and header files into a new manifest.
// Roots are slash separated paths inside fsys. A root that does not exist is recorded in Manifest.Missing.
func Walk(fsys fs.FS, roots []string, opts WalkOptions) (*Manifest, error) {
	w := &walker{
		fsys:       fsys,
		opts:       opts,
		classifier: NewClassifier(opts.CompileExt, opts.IncludeExt),
		loaded:     make(map[string]bool),
		m:          New(),
	}
	for _, pat := range opts.Exclude {
		if !doublestar.ValidatePattern(pat) {
			return nil, fmt.Errorf("invalid exclude pattern %q", pat)
		}
	}

	for _, root := range roots {
		root = Clean(root)
		stat, err := fs.Stat(fsys, root)
		if errors.Is(err, fs.ErrNotExist) || (err == nil && !stat.IsDir()) {
			w.m.Missing = append(w.m.Missing, root)
			continue
		} else if err != nil {
			return nil, err
		}

		if opts.Gitignore {
			// rules from the project root down to the walked root
			for _, dir := range lineage(root) {
				if err := w.loadGitignore(dir); err != nil {
					return nil, err
				}
			}
		}

		if err := fs.WalkDir(fsys, root, w.visit); err != nil {
			return nil, fmt.Errorf("while walking %s: %w", root, err)
		}
	}

	return w.m, nil
}

func (w *walker) visit(p string, d fs.DirEntry, err error) error {
	if err != nil {
		return err
	}

	if d.IsDir() {
		if skipDirs[d.Name()] || w.ignored(p, true) {
			return fs.SkipDir
		}
		if w.opts.Gitignore {
			return w.loadGitignore(p)
		}
		return nil
	}

	kind := w.classifier.Classify(d.Name())
	if kind == KindNone || w.ignored(p, false) {
		return nil
	}
	if w.m.Add(kind, p) && w.opts.OnFile != nil {
		w.opts.OnFile(p)
	}
	return nil
}

func (w *walker) ignored(p string, isDir bool) bool {
	if p == "." {
		return false
	}
	for _, pat := range w.opts.Exclude {
		if ok, _ := doublestar.Match(pat, p); ok {
			return true
		}
	}
	return w.matcher != nil && w.matcher.Match(strings.Split(p, "/"), isDir)
}

// loadGitignore reads dir/.gitignore once and rebuilds the matcher
func (w *walker) loadGitignore(dir string) error {
	if w.loaded[dir] {
		return nil
	}
	w.loaded[dir] = true

	f, err := w.fsys.Open(path.Join(dir, gitignoreFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	} else if err != nil {
		return err
	}
	defer f.Close()

	var domain []string
	if dir != "." {
		domain = strings.Split(dir, "/")
	}

	added := false
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.HasPrefix(line, "#") || strings.TrimSpace(line) == "" {
			continue
		}
		w.patterns = append(w.patterns, gitignore.ParsePattern(line, domain))
		added = true
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading %s: %w", path.Join(dir, gitignoreFile), err)
	}
	if added {
		w.matcher = gitignore.NewMatcher(w.patterns)
	}
	return nil
}

// lineage returns "." followed by every ancestor of p (root first), excluding p itself
func lineage(p string) []string {
	dirs := []string{"."}
	if p == "." {
		return nil
	}
	parts := strings.Split(p, "/")
	for i := 1; i < len(parts); i++ {
		dirs = append(dirs, path.Join(parts[:i]...))
	}
	return dirs
}
