package gen

import (
	"path"
	"strings"
)

func write(sb *strings.Builder, s ...string) {
	for _, str := range s {
		sb.WriteString(str)
	}
}

func writeln(sb *strings.Builder, s ...string) {
	for _, str := range s {
		sb.WriteString(str)
	}
	sb.WriteByte('\n')
}

// winPath converts a slash separated path to the backslash form MSBuild files use
func winPath(p string) string {
	return strings.ReplaceAll(p, "/", `\`)
}

// winDir returns the backslash directory of p, "" for files in the project root
func winDir(p string) string {
	dir := path.Dir(p)
	if dir == "." || dir == "/" {
		return ""
	}
	return winPath(dir)
}

// joinList joins MSBuild list entries and appends the inherited value, e.g. "%(PreprocessorDefinitions)"
func joinList(items []string, inherit string) string {
	if len(items) == 0 {
		return ""
	}
	return strings.Join(append(items[:len(items):len(items)], inherit), ";")
}
