package builder

import (
	"strconv"
	"strings"

	"github.com/qobs-build/vsgen/internal/builder/gen"
)

// newestToolset maps Visual Studio installation versions such as "17.9.34607.119" to the
// toolset of the newest release it knows about
func newestToolset(versions []string) (string, bool) {
	best := 0
	for _, version := range versions {
		major, err := strconv.Atoi(strings.TrimSpace(strings.SplitN(version, ".", 2)[0]))
		if err != nil {
			continue
		}
		if _, known := gen.ToolsetForMajor(major); known && major > best {
			best = major
		}
	}
	if best == 0 {
		return "", false
	}
	return gen.ToolsetForMajor(best)
}
