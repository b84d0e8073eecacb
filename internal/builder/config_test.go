package builder

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEnv(basedir string) ConfigEnv {
	return ConfigEnv{
		TargetOS:   "windows",
		TargetArch: "386",
		Environ:    map[string]string{"USER": "jacob1"},
		basedir:    basedir,
	}
}

func parse(t *testing.T, src string) *Config {
	t.Helper()
	cfg, err := ParseConfig(strings.NewReader(src), testEnv("/work/My Mod"))
	require.NoError(t, err)
	return cfg
}

func TestParseConfigDefaults(t *testing.T) {
	cfg := parse(t, "")

	assert.Equal(t, "My Mod", cfg.Project.Name)
	assert.Equal(t, "Win32", cfg.Project.Platform)
	assert.Equal(t, "10.0", cfg.Project.WindowsSDK)
	assert.Equal(t, "Win32Proj", cfg.Project.Keyword)
	assert.Equal(t, "Application", cfg.Project.ConfigurationType)
	assert.Equal(t, []string{"src"}, cfg.Sources.Dirs)
	assert.True(t, cfg.Sources.UseGitignore())
	assert.Equal(t, []string{"Debug", "Release"}, cfg.ConfigurationNames())

	debug, err := cfg.Resolve("Debug")
	require.NoError(t, err)
	assert.True(t, debug.Debug)

	release, err := cfg.Resolve("Release")
	require.NoError(t, err)
	assert.False(t, release.Debug)
}

func TestParseConfigSections(t *testing.T) {
	cfg := parse(t, `
[project]
name = "{{ environ.USER }}'s Mod"
guid = "57F7954F-6975-4DEE-8C4F-F9B083E05985"
toolset = "v142"
configurations = ["Debug", "Release", "Static"]

[sources]
dirs = ["src", "includes"]
exclude = ["src/tests/**"]
gitignore = false

[items]
compile = ["font/*.c"]
resources = ["resources/powder-res.rc"]
none = ["README"]

[[filter]]
path = "src"
extensions = ["cpp", "c"]

[[filter]]
path = "resources"
extensions = ["rc", "ico"]

[settings]
defines = ["WIN32", "_WINDOWS"]
include-path = ["includes", "src"]
library-path = ["Libraries"]
libraries = ["SDL2.lib"]
warning-level = "Level1"
multi-processor = true

[configuration.Debug]
debug = true
defines = ["_DEBUG"]
optimization = "Disabled"

[configuration.Release]
defines = ["NDEBUG"]

[configuration.Static]
defines = ["NDEBUG", "CURL_STATICLIB"]
library-path = ["Staticlibs"]
libraries = ["winmm.lib"]
`)

	assert.Equal(t, "jacob1's Mod", cfg.Project.Name)
	assert.Equal(t, "57F7954F-6975-4DEE-8C4F-F9B083E05985", cfg.Project.GUID)
	assert.Equal(t, "v142", cfg.Project.Toolset)
	assert.Equal(t, []string{"Debug", "Release", "Static"}, cfg.ConfigurationNames())
	assert.Equal(t, []string{"src", "includes"}, cfg.Sources.Dirs)
	assert.False(t, cfg.Sources.UseGitignore())
	assert.Equal(t, []string{"font/*.c"}, cfg.Items.Compile)
	assert.Equal(t, []string{"README"}, cfg.Items.None)
	require.Len(t, cfg.Filters, 2)
	assert.Equal(t, FilterSection{Path: "resources", Extensions: []string{"rc", "ico"}}, cfg.Filters[1])

	static, err := cfg.Resolve("Static")
	require.NoError(t, err)
	assert.Equal(t, []string{"WIN32", "_WINDOWS", "NDEBUG", "CURL_STATICLIB"}, static.Defines)
	assert.Equal(t, []string{"Libraries", "Staticlibs"}, static.LibraryPath)
	assert.Equal(t, []string{"SDL2.lib", "winmm.lib"}, static.Libraries)
	assert.Equal(t, "Level1", static.WarningLevel)
	assert.True(t, static.MultiProcessor)
	assert.False(t, static.Debug)

	debug, err := cfg.Resolve("Debug")
	require.NoError(t, err)
	assert.Equal(t, []string{"WIN32", "_WINDOWS", "_DEBUG"}, debug.Defines)
	assert.Equal(t, "Disabled", debug.Optimization)
	assert.True(t, debug.Debug)

	// resolving must not leak into the shared settings
	assert.Equal(t, []string{"WIN32", "_WINDOWS"}, cfg.Settings.Defines)
}

func TestParseConfigConditionalSections(t *testing.T) {
	cfg := parse(t, `
[sources]
dirs = ["src"]

[sources.'target_os == "windows"']
dirs = ["platform/win32"]

[sources.'target_os == "linux"']
dirs = ["platform/linux"]

[settings]
defines = ["BASE"]

[settings.'target_arch == "386"']
defines = ["X86"]
`)

	assert.Equal(t, []string{"src", "platform/win32"}, cfg.Sources.Dirs)
	assert.Equal(t, []string{"BASE", "X86"}, cfg.Settings.Defines)
}

func TestParseConfigErrors(t *testing.T) {
	env := testEnv("/work/proj")

	_, err := ParseConfig(strings.NewReader("[project\nname = 1"), env)
	assert.Error(t, err)

	_, err = ParseConfig(strings.NewReader(`[project]
configurations = ["Debug", "Profile"]`), env)
	assert.ErrorContains(t, err, `unknown configuration "Profile"`)

	_, err = ParseConfig(strings.NewReader(`[configuration.Debug]
debug = true
[project]
configurations = ["Release"]`), env)
	assert.ErrorContains(t, err, `unknown configuration "Release"`)

	_, err = ParseConfig(strings.NewReader(`[[filter]]
extensions = ["c"]`), env)
	assert.ErrorContains(t, err, "has no path")

	_, err = ParseConfig(strings.NewReader(`[project]
name = "{{ nope( }}"`), env)
	assert.Error(t, err)
}

func TestParseConfigFromFileMissing(t *testing.T) {
	dir := t.TempDir()
	cfg, err := ParseConfigFromFile(filepath.Join(dir, ConfigFilename), testEnv(dir))
	require.NoError(t, err)
	assert.Equal(t, filepath.Base(dir), cfg.Project.Name)
}

func TestConfigEnvExists(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "marker"), nil, 0o644))

	cfg, err := ParseConfig(strings.NewReader(`
[settings.'Exists("marker")']
defines = ["HAS_MARKER"]

[settings.'Exists("other")']
defines = ["HAS_OTHER"]
`), testEnv(dir))
	require.NoError(t, err)
	assert.Equal(t, []string{"HAS_MARKER"}, cfg.Settings.Defines)
}

func TestMergeStructs(t *testing.T) {
	dst := SettingsSection{Defines: []string{"A"}, WarningLevel: "Level1"}
	require.NoError(t, mergeStructs(&dst, SettingsSection{Defines: []string{"B"}, Debug: true, OutDir: "out"}))

	assert.Equal(t, []string{"A", "B"}, dst.Defines)
	assert.Equal(t, "Level1", dst.WarningLevel)
	assert.Equal(t, "out", dst.OutDir)
	assert.True(t, dst.Debug)

	assert.Error(t, mergeStructs(dst, dst))
	assert.Error(t, mergeStructs(&dst, ProjectSection{}))
}

func TestParseConfigDefaultSourceDirs(t *testing.T) {
	dir := t.TempDir()
	cfg, err := ParseConfig(strings.NewReader(""), testEnv(dir))
	require.NoError(t, err)
	assert.Equal(t, []string{"src"}, cfg.Sources.Dirs)

	require.NoError(t, os.Mkdir(filepath.Join(dir, "includes"), 0o755))
	cfg, err = ParseConfig(strings.NewReader(""), testEnv(dir))
	require.NoError(t, err)
	assert.Equal(t, []string{"includes"}, cfg.Sources.Dirs)

	require.NoError(t, os.Mkdir(filepath.Join(dir, "src"), 0o755))
	cfg, err = ParseConfig(strings.NewReader(""), testEnv(dir))
	require.NoError(t, err)
	assert.Equal(t, []string{"src", "includes"}, cfg.Sources.Dirs)

	// an explicit list is never touched
	cfg, err = ParseConfig(strings.NewReader("[sources]\ndirs = [\"engine\"]\n"), testEnv(dir))
	require.NoError(t, err)
	assert.Equal(t, []string{"engine"}, cfg.Sources.Dirs)
}

func TestResolveLinkerSettings(t *testing.T) {
	cfg := parse(t, `
[project]
configurations = ["Release", "Static"]

[settings]
ignore-default-libraries = ["libcmt.lib"]

[configuration.Release]

[configuration.Static]
safe-exception-handlers = false
ignore-default-libraries = ["msvcrt.lib"]
`)

	release, err := cfg.Resolve("Release")
	require.NoError(t, err)
	assert.Nil(t, release.SafeExceptionHandlers)
	assert.Equal(t, []string{"libcmt.lib"}, release.IgnoreSpecificDefaultLibraries)

	static, err := cfg.Resolve("Static")
	require.NoError(t, err)
	require.NotNil(t, static.SafeExceptionHandlers)
	assert.False(t, *static.SafeExceptionHandlers)
	assert.Equal(t, []string{"libcmt.lib", "msvcrt.lib"}, static.IgnoreSpecificDefaultLibraries)

	// resolving one configuration leaves the shared settings alone
	assert.Equal(t, []string{"libcmt.lib"}, cfg.Settings.IgnoreSpecificDefaultLibraries)
}
