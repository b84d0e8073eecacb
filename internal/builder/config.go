package builder

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"runtime"
	"slices"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/pelletier/go-toml/v2"
)

const ConfigFilename = "vsgen.toml"

var (
	defaultConfigurations = []string{"Debug", "Release"}
	// walked when [sources] dirs is not set, those that exist are used
	defaultSourceDirs = []string{"src", "includes"}
)

type Config struct {
	Project       ProjectSection              `toml:"project"`
	Sources       SourcesSection              `toml:"sources"`
	Items         ItemsSection                `toml:"items"`
	Filters       []FilterSection             `toml:"filter"`
	Settings      SettingsSection             `toml:"settings"`
	Configuration map[string]SettingsSection `toml:"configuration"`
}

// ProjectSection defines the [project] section
type ProjectSection struct {
	Name              string   `toml:"name"`
	GUID              string   `toml:"guid"`
	Platform          string   `toml:"platform"`
	Toolset           string   `toml:"toolset"`
	WindowsSDK        string   `toml:"windows-sdk"`
	Keyword           string   `toml:"keyword"`
	ConfigurationType string   `toml:"configuration-type"`
	Configurations    []string `toml:"configurations"`
}

// SourcesSection defines the [sources] section
type SourcesSection struct {
	Dirs       []string `toml:"dirs"`
	CompileExt []string `toml:"compile-ext"`
	IncludeExt []string `toml:"include-ext"`
	Exclude    []string `toml:"exclude"`
	Gitignore  *bool    `toml:"gitignore"`
}

// ItemsSection defines the [items] section: files added to the project as-is (literal paths or globs)
type ItemsSection struct {
	Compile   []string `toml:"compile"`
	Include   []string `toml:"include"`
	Resources []string `toml:"resources"`
	None      []string `toml:"none"`
}

// FilterSection defines a [[filter]] entry
type FilterSection struct {
	Path       string   `toml:"path"`
	Extensions []string `toml:"extensions"`
}

// SettingsSection defines the [settings] and [configuration.*] sections
type SettingsSection struct {
	Debug                    bool     `toml:"debug"`
	Defines                  []string `toml:"defines"`
	IncludePath              []string `toml:"include-path"`
	LibraryPath              []string `toml:"library-path"`
	Libraries                []string `toml:"libraries"`
	OutDir                   string   `toml:"out-dir"`
	RuntimeLibrary           string   `toml:"runtime-library"`
	WarningLevel             string   `toml:"warning-level"`
	Optimization             string   `toml:"optimization"`
	FloatingPointModel       string   `toml:"floating-point-model"`
	EnhancedInstructionSet   string   `toml:"enhanced-instruction-set"`
	TreatWarningsAsErrors    bool     `toml:"treat-warnings-as-errors"`
	MultiProcessor           bool     `toml:"multi-processor"`
	WholeProgramOptimization bool     `toml:"whole-program-optimization"`
	Subsystem                string   `toml:"subsystem"`
	TargetMachine            string   `toml:"target-machine"`

	// nil leaves the linker default; a configuration table can turn it off for one configuration
	SafeExceptionHandlers          *bool    `toml:"safe-exception-handlers"`
	IgnoreSpecificDefaultLibraries []string `toml:"ignore-default-libraries"`
}

// ConfigurationNames returns the configurations in the order they are written to the project files
func (c Config) ConfigurationNames() []string {
	if len(c.Project.Configurations) > 0 {
		return c.Project.Configurations
	}
	if len(c.Configuration) > 0 {
		names := make([]string, 0, len(c.Configuration))
		for k := range c.Configuration {
			names = append(names, k)
		}
		slices.Sort(names)
		return names
	}
	return defaultConfigurations
}

// Resolve returns the settings of one configuration: [settings] with [configuration.<name>] merged on top
func (c Config) Resolve(name string) (SettingsSection, error) {
	resolved := c.Settings
	resolved.Defines = slices.Clone(c.Settings.Defines)
	resolved.IncludePath = slices.Clone(c.Settings.IncludePath)
	resolved.LibraryPath = slices.Clone(c.Settings.LibraryPath)
	resolved.Libraries = slices.Clone(c.Settings.Libraries)
	resolved.IgnoreSpecificDefaultLibraries = slices.Clone(c.Settings.IgnoreSpecificDefaultLibraries)

	own, ok := c.Configuration[name]
	if !ok {
		if len(c.Configuration) > 0 || !slices.Contains(defaultConfigurations, name) {
			return resolved, fmt.Errorf("unknown configuration %q, known configurations: %s", name, strings.Join(c.knownConfigurations(), ", "))
		}
		// implicit Debug/Release
		own = SettingsSection{Debug: name == "Debug"}
	}
	if err := mergeStructs(&resolved, own); err != nil {
		return resolved, err
	}
	return resolved, nil
}

func (c Config) knownConfigurations() []string {
	if len(c.Configuration) == 0 {
		return defaultConfigurations
	}
	names := make([]string, 0, len(c.Configuration))
	for k := range c.Configuration {
		names = append(names, k)
	}
	slices.Sort(names)
	return names
}

// UseGitignore reports whether .gitignore rules apply to the walk (default true)
func (s SourcesSection) UseGitignore() bool {
	return s.Gitignore == nil || *s.Gitignore
}

func (c *Config) applyDefaults(basedir string) {
	if c.Project.Name == "" {
		c.Project.Name = filepath.Base(basedir)
	}
	if c.Project.Platform == "" {
		c.Project.Platform = "Win32"
	}
	if c.Project.WindowsSDK == "" {
		c.Project.WindowsSDK = "10.0"
	}
	if c.Project.Keyword == "" {
		c.Project.Keyword = "Win32Proj"
	}
	if c.Project.ConfigurationType == "" {
		c.Project.ConfigurationType = "Application"
	}
	if len(c.Sources.Dirs) == 0 {
		for _, dir := range defaultSourceDirs {
			if stat, err := os.Stat(filepath.Join(basedir, dir)); err == nil && stat.IsDir() {
				c.Sources.Dirs = append(c.Sources.Dirs, dir)
			}
		}
		if len(c.Sources.Dirs) == 0 {
			c.Sources.Dirs = []string{defaultSourceDirs[0]}
		}
	}
}

func (c Config) validate() error {
	for _, name := range c.ConfigurationNames() {
		if _, err := c.Resolve(name); err != nil {
			return err
		}
	}
	for i, f := range c.Filters {
		if f.Path == "" {
			return fmt.Errorf("[[filter]] #%d has no path", i+1)
		}
	}
	return nil
}

// mergeStructs merges the fields of the src struct into the dst struct
func mergeStructs(dst, src any) error {
	dstVal := reflect.ValueOf(dst)
	if dstVal.Kind() != reflect.Pointer || dstVal.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("dst must be a pointer to a struct")
	}

	dstElem := dstVal.Elem()
	srcVal := reflect.ValueOf(src)

	if srcVal.Kind() == reflect.Pointer {
		srcVal = srcVal.Elem()
	}

	if srcVal.Kind() != reflect.Struct {
		return fmt.Errorf("src must be a struct or a pointer to a struct")
	}

	if dstElem.Type() != srcVal.Type() {
		return fmt.Errorf("dst and src must be of the same struct type")
	}

	for i := range srcVal.NumField() {
		srcField := srcVal.Field(i)
		dstField := dstElem.Field(i)

		if !dstField.CanSet() {
			continue
		}

		switch dstField.Kind() {
		case reflect.Slice:
			if !srcField.IsNil() {
				dstField.Set(reflect.AppendSlice(dstField, srcField))
			}
		case reflect.Map:
			if !srcField.IsNil() {
				if dstField.IsNil() {
					dstField.Set(reflect.MakeMap(dstField.Type()))
				}
				for _, key := range srcField.MapKeys() {
					dstField.SetMapIndex(key, srcField.MapIndex(key))
				}
			}
		case reflect.Bool:
			dstField.SetBool(dstField.Bool() || srcField.Bool())
		default:
			if !srcField.IsZero() {
				dstField.Set(srcField)
			}
		}
	}

	return nil
}

func mustMarshal(v any) string {
	b, err := toml.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(b)
}

// unmarshalSection is a helper to parse sections without conditional logic
func unmarshalSection[T any](rawCfg map[string]any, name string, dst *T) error {
	data, ok := rawCfg[name]
	if !ok {
		return nil
	}
	// wrapped under its own key so arrays of tables decode like plain tables
	var holder map[string]T
	if err := toml.Unmarshal([]byte(mustMarshal(map[string]any{name: data})), &holder); err != nil {
		return fmt.Errorf("failed to parse [%s] section: %w", name, err)
	}
	*dst = holder[name]
	return nil
}

// unmarshalConditionalSection is a helper to parse, evaluate and merge multiple sections with conditional logic
func unmarshalConditionalSection[T any](rawCfg map[string]any, name string, dst *T, env ConfigEnv) error {
	sectionData, ok := rawCfg[name]
	if !ok {
		return nil
	}

	sectionMap, ok := sectionData.(map[string]any)
	if !ok {
		return fmt.Errorf("invalid [%s] section format: expected a table", name)
	}

	baseFields := make(map[string]any)
	conditionalFields := make(map[string]map[string]any)

	for key, val := range sectionMap {
		if subMap, ok := val.(map[string]any); ok {
			_, err := expr.Compile(key, expr.Env(env))
			if err == nil {
				conditionalFields[key] = subMap
			} else {
				baseFields[key] = val
			}
		} else {
			baseFields[key] = val
		}
	}

	if len(baseFields) > 0 {
		if err := toml.Unmarshal([]byte(mustMarshal(baseFields)), dst); err != nil {
			return fmt.Errorf("failed to parse base [%s] section: %w", name, err)
		}
	}

	// evaluate in a stable order so overrides are reproducible
	expressions := make([]string, 0, len(conditionalFields))
	for expression := range conditionalFields {
		expressions = append(expressions, expression)
	}
	slices.Sort(expressions)

	for _, expression := range expressions {
		program, err := expr.Compile(expression, expr.Env(env))
		if err != nil {
			return fmt.Errorf("failed to compile expression for [%s.%q]: %w", name, expression, err)
		}

		result, err := expr.Run(program, env)
		if err != nil {
			return fmt.Errorf("failed to run expression for [%s.%q]: %w", name, expression, err)
		}

		// merge sections if the result is true
		if matched, ok := result.(bool); !ok || !matched {
			continue
		}

		var condSection T
		if err := toml.Unmarshal([]byte(mustMarshal(conditionalFields[expression])), &condSection); err != nil {
			return fmt.Errorf("failed to parse conditional section [%s.%q]: %w", name, expression, err)
		}
		if err := mergeStructs(dst, condSection); err != nil {
			return fmt.Errorf("failed to merge conditional section [%s.%q]: %w", name, expression, err)
		}
	}

	return nil
}

var exprRegex = regexp.MustCompile(`\{\{(.+?)\}\}`)

// evaluateString finds and evaluates all {{...}} expressions in a string
func evaluateString(s string, env ConfigEnv) (string, error) {
	matches := exprRegex.FindAllStringSubmatchIndex(s, -1)
	if len(matches) == 0 {
		return s, nil
	}

	var builder strings.Builder
	lastIndex := 0

	for _, matchIndexes := range matches {
		fullMatchStart := matchIndexes[0]
		fullMatchEnd := matchIndexes[1]
		expressionStart := matchIndexes[2]
		expressionEnd := matchIndexes[3]

		builder.WriteString(s[lastIndex:fullMatchStart])

		expression := strings.TrimSpace(s[expressionStart:expressionEnd])
		program, err := expr.Compile(expression, expr.Env(env))
		if err != nil {
			return "", fmt.Errorf("failed to compile expression %q: %w", expression, err)
		}

		result, err := expr.Run(program, env)
		if err != nil {
			return "", fmt.Errorf("failed to run expression %q: %w", expression, err)
		}

		builder.WriteString(fmt.Sprintf("%v", result))
		lastIndex = fullMatchEnd
	}

	builder.WriteString(s[lastIndex:])

	return builder.String(), nil
}

// processExpressions recursively walks the parsed TOML data and evaluates expressions in strings
func processExpressions(data any, env ConfigEnv) (any, error) {
	switch v := data.(type) {
	case map[string]any:
		for key, val := range v {
			processedVal, err := processExpressions(val, env)
			if err != nil {
				return nil, err
			}
			v[key] = processedVal
		}
		return v, nil
	case []any:
		for i, item := range v {
			processedItem, err := processExpressions(item, env)
			if err != nil {
				return nil, err
			}
			v[i] = processedItem
		}
		return v, nil
	case []map[string]any:
		for _, item := range v {
			if _, err := processExpressions(item, env); err != nil {
				return nil, err
			}
		}
		return v, nil
	case string:
		return evaluateString(v, env)
	default:
		return data, nil
	}
}

func ParseConfig(rdr io.Reader, env ConfigEnv) (*Config, error) {
	var rawConfig map[string]any
	dec := toml.NewDecoder(rdr)
	if err := dec.Decode(&rawConfig); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			return nil, errors.New(derr.String())
		}
		return nil, err
	}
	if rawConfig == nil {
		rawConfig = make(map[string]any)
	}

	processedConfig, err := processExpressions(rawConfig, env)
	if err != nil {
		return nil, fmt.Errorf("error processing expressions in config: %w", err)
	}
	rawConfig = processedConfig.(map[string]any)

	cfg := new(Config)

	if err := unmarshalSection(rawConfig, "project", &cfg.Project); err != nil {
		return nil, err
	}
	if err := unmarshalSection(rawConfig, "filter", &cfg.Filters); err != nil {
		return nil, err
	}
	if err := unmarshalSection(rawConfig, "configuration", &cfg.Configuration); err != nil {
		return nil, err
	}
	if err := unmarshalConditionalSection(rawConfig, "sources", &cfg.Sources, env); err != nil {
		return nil, err
	}
	if err := unmarshalConditionalSection(rawConfig, "items", &cfg.Items, env); err != nil {
		return nil, err
	}
	if err := unmarshalConditionalSection(rawConfig, "settings", &cfg.Settings, env); err != nil {
		return nil, err
	}

	cfg.applyDefaults(env.basedir)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ParseConfigFromFile parses and validates a config file from a filepath.
// A missing file yields the default configuration.
func ParseConfigFromFile(path string, env ConfigEnv) (*Config, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return ParseConfig(strings.NewReader(""), env)
	} else if err != nil {
		return nil, err
	}
	defer f.Close()

	cfg, err := ParseConfig(bufio.NewReader(f), env)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

//
// expr-lang environment
//

type ConfigEnv struct {
	TargetOS   string            `expr:"target_os"`
	TargetArch string            `expr:"target_arch"`
	Environ    map[string]string `expr:"environ"`
	basedir    string
}

func NewConfigEnv(basedir string) ConfigEnv {
	environ := make(map[string]string)
	for _, e := range os.Environ() {
		if i := strings.Index(e, "="); i >= 0 {
			environ[e[:i]] = e[i+1:]
		}
	}

	return ConfigEnv{
		TargetOS:   runtime.GOOS,
		TargetArch: runtime.GOARCH,
		Environ:    environ,
		basedir:    basedir,
	}
}

// Exists reports whether a path relative to the project directory exists, for use in expressions
func (env ConfigEnv) Exists(path string) bool {
	_, err := os.Stat(filepath.Join(env.basedir, path))
	return err == nil
}
