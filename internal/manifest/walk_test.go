package manifest

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func file(s string) *fstest.MapFile { return &fstest.MapFile{Data: []byte(s)} }

func testTree() fstest.MapFS {
	return fstest.MapFS{
		"src/LuaCompat.c":              file(""),
		"src/save.cpp":                 file(""),
		"src/save.h":                   file(""),
		"src/lua/LuaButton.cpp":        file(""),
		"src/lua/LuaButton.h":          file(""),
		"src/gui/dialogs/InfoPrompt.h": file(""),
		"src/gui/game/PowderToy.CPP":   file(""),
		"src/luascripts/multi.lua":     file(""),
		"includes/SDL2/SDL.h":          file(""),
		"includes/json/json.hpp":       file(""),
		"README":                       file(""),
	}
}

func TestWalkCollectsSourcesAndHeaders(t *testing.T) {
	m, err := Walk(testTree(), []string{"src", "includes"}, WalkOptions{})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"src/LuaCompat.c",
		"src/gui/game/PowderToy.CPP",
		"src/lua/LuaButton.cpp",
		"src/save.cpp",
	}, m.Compile)
	assert.Equal(t, []string{
		"src/gui/dialogs/InfoPrompt.h",
		"src/lua/LuaButton.h",
		"src/save.h",
		"includes/SDL2/SDL.h",
		"includes/json/json.hpp",
	}, m.Include)

	// src/luascripts only holds a .lua file, so it is not a source directory
	assert.Equal(t, []string{
		"includes",
		"includes/SDL2",
		"includes/json",
		"src",
		"src/gui",
		"src/gui/dialogs",
		"src/gui/game",
		"src/lua",
	}, m.Dirs())
	assert.Empty(t, m.Missing)
}

func TestWalkMissingRoot(t *testing.T) {
	m, err := Walk(testTree(), []string{"nope", "includes", "README"}, WalkOptions{})
	require.NoError(t, err)

	assert.Equal(t, []string{"nope", "README"}, m.Missing)
	assert.Len(t, m.Include, 2)
}

func TestWalkOverlappingRoots(t *testing.T) {
	m, err := Walk(testTree(), []string{"src/lua", "src"}, WalkOptions{})
	require.NoError(t, err)

	assert.Equal(t, []string{"src/lua/LuaButton.cpp", "src/LuaCompat.c", "src/gui/game/PowderToy.CPP", "src/save.cpp"}, m.Compile)
}

func TestWalkExclude(t *testing.T) {
	m, err := Walk(testTree(), []string{"src"}, WalkOptions{
		Exclude: []string{"src/gui/**", "**/*.c"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"src/lua/LuaButton.cpp", "src/save.cpp"}, m.Compile)
	assert.False(t, m.HasDir("src/gui"))
}

func TestWalkInvalidExclude(t *testing.T) {
	_, err := Walk(testTree(), []string{"src"}, WalkOptions{Exclude: []string{"src/[a"}})
	assert.Error(t, err)
}

func TestWalkGitignore(t *testing.T) {
	fsys := testTree()
	fsys[".gitignore"] = file("# build output\n/includes/json/\n")
	fsys["src/.gitignore"] = file("lua/\n*.c\n")
	fsys[".git/HEAD.c"] = file("")

	m, err := Walk(fsys, []string{"src", "includes", "."}, WalkOptions{Gitignore: true})
	require.NoError(t, err)

	assert.Equal(t, []string{"src/gui/game/PowderToy.CPP", "src/save.cpp"}, m.Compile)
	assert.Equal(t, []string{"src/gui/dialogs/InfoPrompt.h", "src/save.h", "includes/SDL2/SDL.h"}, m.Include)
	assert.False(t, m.HasDir("includes/json"))
	assert.False(t, m.HasDir(".git"))
}

func TestWalkGitignoreDisabled(t *testing.T) {
	fsys := testTree()
	fsys["src/.gitignore"] = file("*.c\n")

	m, err := Walk(fsys, []string{"src"}, WalkOptions{})
	require.NoError(t, err)
	assert.Contains(t, m.Compile, "src/LuaCompat.c")
}

func TestWalkOnFile(t *testing.T) {
	var seen []string
	_, err := Walk(testTree(), []string{"includes", "includes"}, WalkOptions{
		OnFile: func(p string) { seen = append(seen, p) },
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"includes/SDL2/SDL.h", "includes/json/json.hpp"}, seen)
}
