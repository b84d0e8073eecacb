package manifest

import (
	"path"
	"slices"
	"strings"
)

// Kind tells which item group a file belongs to
type Kind int

const (
	KindNone Kind = iota
	KindCompile
	KindInclude
	KindResource
)

var (
	DefaultCompileExt = []string{"cpp", "c"}
	DefaultIncludeExt = []string{"hpp", "h"}
)

// Manifest is the result of walking a source tree: everything the project files are built from.
// All paths are relative to the project directory and slash separated.
type Manifest struct {
	Compile []string `yaml:"compile"`
	Include []string `yaml:"include"`

	// extra items attached from configuration
	ExtraCompile []string `yaml:"extra_compile,omitempty"`
	ExtraInclude []string `yaml:"extra_include,omitempty"`
	Resources    []string `yaml:"resources,omitempty"`
	None         []string `yaml:"none,omitempty"`

	// roots that did not exist on disk
	Missing []string `yaml:"missing,omitempty"`

	dirs map[string]struct{}
	seen map[string]struct{}
}

func New() *Manifest {
	return &Manifest{
		dirs: make(map[string]struct{}),
		seen: make(map[string]struct{}),
	}
}

// Classifier maps file extensions to item kinds, case-insensitively
type Classifier struct {
	compile map[string]struct{}
	include map[string]struct{}
}

func NewClassifier(compileExt, includeExt []string) Classifier {
	if len(compileExt) == 0 {
		compileExt = DefaultCompileExt
	}
	if len(includeExt) == 0 {
		includeExt = DefaultIncludeExt
	}
	return Classifier{compile: extSet(compileExt), include: extSet(includeExt)}
}

func extSet(exts []string) map[string]struct{} {
	set := make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		set["."+strings.TrimPrefix(strings.ToLower(ext), ".")] = struct{}{}
	}
	return set
}

// Classify returns the kind of the given file name, KindNone if it is neither a source nor a header
func (c Classifier) Classify(name string) Kind {
	ext := strings.ToLower(path.Ext(name))
	if ext == "" {
		return KindNone
	}
	if _, ok := c.compile[ext]; ok {
		return KindCompile
	}
	if _, ok := c.include[ext]; ok {
		return KindInclude
	}
	return KindNone
}

// Add records a walked file under the given kind. Returns false if the path was already recorded.
func (m *Manifest) Add(kind Kind, p string) bool {
	p = Clean(p)
	if _, dup := m.seen[p]; dup {
		return false
	}
	switch kind {
	case KindCompile:
		m.Compile = append(m.Compile, p)
	case KindInclude:
		m.Include = append(m.Include, p)
	default:
		return false
	}
	m.seen[p] = struct{}{}
	m.AddDir(path.Dir(p))
	return true
}

// AddItems attaches configured items of the given kind. Their directories join the source directory set.
func (m *Manifest) AddItems(kind Kind, paths ...string) {
	for _, p := range paths {
		p = Clean(p)
		if _, dup := m.seen[p]; dup {
			continue
		}
		m.seen[p] = struct{}{}
		switch kind {
		case KindCompile:
			m.ExtraCompile = append(m.ExtraCompile, p)
		case KindInclude:
			m.ExtraInclude = append(m.ExtraInclude, p)
		case KindResource:
			m.Resources = append(m.Resources, p)
		default:
			m.None = append(m.None, p)
		}
		m.AddDir(path.Dir(p))
	}
}

// AddDir adds dir and all of its ancestors to the source directory set. The project root itself is never added.
func (m *Manifest) AddDir(dir string) {
	if m.dirs == nil {
		m.dirs = make(map[string]struct{})
	}
	for dir = Clean(dir); dir != "." && dir != "/" && dir != ""; dir = path.Dir(dir) {
		if _, ok := m.dirs[dir]; ok {
			return // ancestors were added along with it
		}
		m.dirs[dir] = struct{}{}
	}
}

// HasDir reports whether dir is in the source directory set
func (m *Manifest) HasDir(dir string) bool {
	_, ok := m.dirs[Clean(dir)]
	return ok
}

// Dirs returns the source directory set, sorted so that parents come before their children
func (m *Manifest) Dirs() []string {
	dirs := make([]string, 0, len(m.dirs))
	for dir := range m.dirs {
		dirs = append(dirs, dir)
	}
	slices.SortFunc(dirs, compareDirs)
	return dirs
}

// compareDirs orders by path components, so "src/a" sorts right after "src" and before "src-b"
func compareDirs(a, b string) int {
	return slices.Compare(strings.Split(a, "/"), strings.Split(b, "/"))
}

// Len returns the number of walked files
func (m *Manifest) Len() int {
	return len(m.Compile) + len(m.Include)
}

// Clean converts p to the slash separated, cleaned form every manifest path uses.
// Backslashes are treated as separators so Windows style paths from configuration match walked paths.
func Clean(p string) string {
	return strings.TrimPrefix(path.Clean(strings.ReplaceAll(p, `\`, "/")), "./")
}
