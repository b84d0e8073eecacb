package gen

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Project is everything needed to render the solution, project and filters files.
// Item paths are slash separated and relative to the project root.
type Project struct {
	Name              string
	GUID              string
	Platform          string
	Toolset           string
	WindowsSDK        string
	Keyword           string
	ConfigurationType string
	Configurations    []Configuration

	// prefix leading from the directory the files are written to back to the project root,
	// e.g. "..\" or "" when they are written in place
	Root string

	Compile      []string
	Include      []string
	ExtraCompile []string
	ExtraInclude []string
	Resources    []string
	None         []string

	// source directory set, parents first
	Dirs []string
	// explicit filter extension lists, keyed by filter path
	FilterExtensions map[string][]string
}

type Configuration struct {
	Name                     string
	Debug                    bool
	Defines                  []string
	IncludePath              []string
	LibraryPath              []string
	Libraries                []string
	OutDir                   string
	RuntimeLibrary           string
	WarningLevel             string
	Optimization             string
	FloatingPointModel       string
	EnhancedInstructionSet   string
	TreatWarningsAsErrors    bool
	MultiProcessor           bool
	WholeProgramOptimization bool
	Subsystem                string
	TargetMachine            string

	SafeExceptionHandlers          *bool
	IgnoreSpecificDefaultLibraries []string
}

// Output is a single rendered file
type Output struct {
	Name    string
	Content []byte
}

// Generator renders a project into its output files
type Generator interface {
	Generate(p *Project) ([]Output, error)
}

// guidNamespace scopes every derived GUID, so the same input always yields the same GUID
var guidNamespace = uuid.MustParse("6f1c1e4e-2b7d-4c8e-9a51-3d0f5a7b9c21")

// DeriveGUID returns a stable uppercase GUID for the given kind and key
func DeriveGUID(kind, key string) string {
	return strings.ToUpper(uuid.NewSHA1(guidNamespace, []byte(kind+":"+key)).String())
}

// NormalizeGUID validates a user supplied GUID, with or without braces, and returns it uppercased without braces
func NormalizeGUID(s string) (string, error) {
	id, err := uuid.Parse(strings.Trim(strings.TrimSpace(s), "{}"))
	if err != nil {
		return "", fmt.Errorf("invalid GUID %q: %w", s, err)
	}
	return strings.ToUpper(id.String()), nil
}

func braced(guid string) string { return "{" + guid + "}" }

// TargetMachine returns the linker machine for a platform
func TargetMachine(platform string) string {
	switch strings.ToLower(platform) {
	case "x64":
		return "MachineX64"
	case "arm64":
		return "MachineARM64"
	case "arm":
		return "MachineARM"
	default:
		return "MachineX86"
	}
}
