//go:build !windows

package builder

// detectToolset finds the newest installed Visual Studio; there is none outside of Windows
func detectToolset() (string, bool) {
	return "", false
}
