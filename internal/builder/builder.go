package builder

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/qobs-build/vsgen/internal/builder/gen"
	"github.com/qobs-build/vsgen/internal/manifest"
	"github.com/qobs-build/vsgen/internal/msg"
)

var (
	errNoSources = errors.New("no source or header files found")
)

// Options override configuration values from the command line
type Options struct {
	Name     string
	Platform string
	Toolset  string
	// directory the files are written to, defaults to the project directory
	OutDir string
	// OnFile is called for every file collected by the walk
	OnFile func(path string)
}

type Builder struct {
	cfg     *Config
	basedir string
	env     ConfigEnv
	opts    Options
	gen     gen.Generator
}

func NewBuilderInDirectory(path string, opts Options) (*Builder, error) {
	var err error
	path, err = filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if stat, err := os.Stat(path); err != nil {
		return nil, err
	} else if !stat.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", path)
	}

	env := NewConfigEnv(path)
	cfg, err := ParseConfigFromFile(filepath.Join(path, ConfigFilename), env)
	if err != nil {
		return nil, err
	}
	return &Builder{cfg: cfg, basedir: path, env: env, opts: opts, gen: gen.NewVSGen()}, nil
}

func (b *Builder) Config() *Config { return b.cfg }
func (b *Builder) Dir() string     { return b.basedir }

// OutDir returns the absolute directory the project files are written to
func (b *Builder) OutDir() string {
	if b.opts.OutDir == "" {
		return b.basedir
	}
	if filepath.IsAbs(b.opts.OutDir) {
		return filepath.Clean(b.opts.OutDir)
	}
	return filepath.Join(b.basedir, b.opts.OutDir)
}

// Scan walks the configured source directories and attaches the configured extra items
func (b *Builder) Scan() (*manifest.Manifest, error) {
	fsys := os.DirFS(b.basedir)
	m, err := manifest.Walk(fsys, b.cfg.Sources.Dirs, manifest.WalkOptions{
		CompileExt: b.cfg.Sources.CompileExt,
		IncludeExt: b.cfg.Sources.IncludeExt,
		Exclude:    b.cfg.Sources.Exclude,
		Gitignore:  b.cfg.Sources.UseGitignore(),
		OnFile:     b.opts.OnFile,
	})
	if err != nil {
		return nil, err
	}
	for _, root := range m.Missing {
		msg.Warn("source directory %s does not exist, skipping", root)
	}

	items := []struct {
		kind     manifest.Kind
		patterns []string
	}{
		{manifest.KindCompile, b.cfg.Items.Compile},
		{manifest.KindInclude, b.cfg.Items.Include},
		{manifest.KindResource, b.cfg.Items.Resources},
		{manifest.KindNone, b.cfg.Items.None},
	}
	for _, it := range items {
		paths, err := b.expandItems(it.patterns)
		if err != nil {
			return nil, err
		}
		m.AddItems(it.kind, paths...)
	}

	for _, f := range b.cfg.Filters {
		m.AddDir(f.Path)
	}

	if m.Len() == 0 {
		msg.Warn("%v in %s", errNoSources, strings.Join(b.cfg.Sources.Dirs, ", "))
	}
	return m, nil
}

// expandItems globs the patterns against the project directory. Literal paths are kept even if the
// file does not exist yet, since generated files are commonly listed.
func (b *Builder) expandItems(patterns []string) ([]string, error) {
	var files []string
	fsys := os.DirFS(b.basedir)

	for _, pat := range patterns {
		pat = filepath.ToSlash(pat)
		if !strings.ContainsAny(pat, "*?[{") {
			files = append(files, pat)
			continue
		}
		matches, err := doublestar.Glob(fsys, pat, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("while globbing %s: %w", pat, err)
		}
		if len(matches) == 0 {
			msg.Warn("pattern %s matched no files", pat)
		}
		slices.Sort(matches)
		files = append(files, matches...)
	}
	return files, nil
}

// Project converts a scanned manifest into the generator's project description
func (b *Builder) Project(m *manifest.Manifest) (*gen.Project, error) {
	name := b.cfg.Project.Name
	if b.opts.Name != "" {
		name = b.opts.Name
	}
	platform := b.cfg.Project.Platform
	if b.opts.Platform != "" {
		platform = b.opts.Platform
	}

	guid := gen.DeriveGUID("project", name)
	if b.cfg.Project.GUID != "" {
		var err error
		if guid, err = gen.NormalizeGUID(b.cfg.Project.GUID); err != nil {
			return nil, fmt.Errorf("[project] guid: %w", err)
		}
	}

	root, err := b.rootPrefix()
	if err != nil {
		return nil, err
	}

	p := &gen.Project{
		Name:              name,
		GUID:              guid,
		Platform:          platform,
		Toolset:           b.toolset(),
		WindowsSDK:        b.cfg.Project.WindowsSDK,
		Keyword:           b.cfg.Project.Keyword,
		ConfigurationType: b.cfg.Project.ConfigurationType,
		Root:              root,
		Compile:           m.Compile,
		Include:           m.Include,
		ExtraCompile:      m.ExtraCompile,
		ExtraInclude:      m.ExtraInclude,
		Resources:         m.Resources,
		None:              m.None,
		Dirs:              m.Dirs(),
		FilterExtensions:  make(map[string][]string),
	}
	for _, f := range b.cfg.Filters {
		dir := manifest.Clean(f.Path)
		p.FilterExtensions[dir] = append(p.FilterExtensions[dir], f.Extensions...)
	}

	for _, name := range b.cfg.ConfigurationNames() {
		s, err := b.cfg.Resolve(name)
		if err != nil {
			return nil, err
		}
		p.Configurations = append(p.Configurations, gen.Configuration{
			Name:                     name,
			Debug:                    s.Debug,
			Defines:                  s.Defines,
			IncludePath:              s.IncludePath,
			LibraryPath:              s.LibraryPath,
			Libraries:                s.Libraries,
			OutDir:                   s.OutDir,
			RuntimeLibrary:           s.RuntimeLibrary,
			WarningLevel:             s.WarningLevel,
			Optimization:             s.Optimization,
			FloatingPointModel:       s.FloatingPointModel,
			EnhancedInstructionSet:   s.EnhancedInstructionSet,
			TreatWarningsAsErrors:    s.TreatWarningsAsErrors,
			MultiProcessor:           s.MultiProcessor,
			WholeProgramOptimization: s.WholeProgramOptimization,
			Subsystem:                s.Subsystem,
			TargetMachine:            s.TargetMachine,

			SafeExceptionHandlers:          s.SafeExceptionHandlers,
			IgnoreSpecificDefaultLibraries: s.IgnoreSpecificDefaultLibraries,
		})
	}
	return p, nil
}

// rootPrefix returns the backslash path from the output directory back to the project directory
func (b *Builder) rootPrefix() (string, error) {
	rel, err := filepath.Rel(b.OutDir(), b.basedir)
	if err != nil {
		return "", fmt.Errorf("output directory %s: %w", b.OutDir(), err)
	}
	if rel == "." {
		return "", nil
	}
	return strings.ReplaceAll(filepath.ToSlash(rel), "/", `\`) + `\`, nil
}

func (b *Builder) toolset() string {
	if b.opts.Toolset != "" {
		return b.opts.Toolset
	}
	if b.cfg.Project.Toolset != "" {
		return b.cfg.Project.Toolset
	}
	if toolset, ok := detectToolset(); ok {
		return toolset
	}
	return gen.DefaultToolset
}

// Render scans the tree and renders every output file
func (b *Builder) Render() ([]gen.Output, error) {
	m, err := b.Scan()
	if err != nil {
		return nil, err
	}
	p, err := b.Project(m)
	if err != nil {
		return nil, err
	}
	return b.gen.Generate(p)
}

// Stale returns the outputs whose content differs from what is on disk
func (b *Builder) Stale(outputs []gen.Output) ([]gen.Output, error) {
	var stale []gen.Output
	for _, out := range outputs {
		existing, err := os.ReadFile(filepath.Join(b.OutDir(), out.Name))
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		if !bytes.Equal(existing, out.Content) {
			stale = append(stale, out)
		}
	}
	return stale, nil
}

// Generate renders the project files and writes those that changed. Returns the names of written files.
func (b *Builder) Generate() ([]string, error) {
	outputs, err := b.Render()
	if err != nil {
		return nil, err
	}
	stale, err := b.Stale(outputs)
	if err != nil {
		return nil, err
	}
	if len(stale) == 0 {
		return nil, nil
	}

	if err := os.MkdirAll(b.OutDir(), 0o755); err != nil {
		return nil, err
	}
	if err := runJobs(stale, b.writeOutput, len(stale)); err != nil {
		return nil, err
	}

	written := make([]string, 0, len(stale))
	for _, out := range stale {
		written = append(written, out.Name)
	}
	return written, nil
}

func (b *Builder) writeOutput(out gen.Output) error {
	path := filepath.Join(b.OutDir(), out.Name)
	if err := os.WriteFile(path, out.Content, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out.Name, err)
	}
	return nil
}
