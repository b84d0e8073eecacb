package gen

import (
	"strings"
)

const (
	DefaultToolset = "v143"

	// Windows (Visual C++) https://github.com/VISTALL/visual-studio-project-type-guids
	cppProjectType = "8BC9CEB8-8B4A-11D0-8D11-00A0C91BC942"

	minimumVisualStudioVersion = "10.0.40219.1"
)

// VSVersion describes the Visual Studio release a platform toolset belongs to
type VSVersion struct {
	Toolset      string
	Major        int
	Comment      string
	Version      string
	ToolsVersion string
}

var vsVersions = []VSVersion{
	{Toolset: "v120", Major: 12, Comment: "# Visual Studio 2013", Version: "12.0.40629.0", ToolsVersion: "12.0"},
	{Toolset: "v140", Major: 14, Comment: "# Visual Studio 14", Version: "14.0.25420.1", ToolsVersion: "14.0"},
	{Toolset: "v141", Major: 15, Comment: "# Visual Studio 15", Version: "15.0.28307.1000", ToolsVersion: "15.0"},
	{Toolset: "v142", Major: 16, Comment: "# Visual Studio Version 16", Version: "16.0.28729.10", ToolsVersion: "16.0"},
	{Toolset: "v143", Major: 17, Comment: "# Visual Studio Version 17", Version: "17.0.31903.59", ToolsVersion: "17.0"},
}

// LookupToolset returns the Visual Studio release for a toolset, falling back to the newest known one
func LookupToolset(toolset string) (VSVersion, bool) {
	for _, v := range vsVersions {
		if strings.EqualFold(v.Toolset, toolset) {
			return v, true
		}
	}
	return vsVersions[len(vsVersions)-1], false
}

// ToolsetForMajor maps a Visual Studio major version (e.g. 17 for VS 2022) to its toolset
func ToolsetForMajor(major int) (string, bool) {
	for _, v := range vsVersions {
		if v.Major == major {
			return v.Toolset, true
		}
	}
	return "", false
}

// Solution renders the .sln file referencing the project
func Solution(p *Project) string {
	vs, _ := LookupToolset(p.Toolset)
	projectGuid := braced(p.GUID)
	var sb strings.Builder

	writeln(&sb, "Microsoft Visual Studio Solution File, Format Version 12.00")
	writeln(&sb, vs.Comment)
	writeln(&sb, "VisualStudioVersion = ", vs.Version)
	writeln(&sb, "MinimumVisualStudioVersion = ", minimumVisualStudioVersion)
	writeln(&sb,
		`Project("{`, cppProjectType, `}") = "`, p.Name, `", "`, p.Name, `.vcxproj", "`, projectGuid, `"`,
	)
	writeln(&sb, "EndProject")
	writeln(&sb, "Global")
	writeln(&sb, "\tGlobalSection(SolutionConfigurationPlatforms) = preSolution")
	for _, cfg := range p.Configurations {
		pair := cfg.Name + "|" + p.Platform
		writeln(&sb, "\t\t", pair, " = ", pair)
	}
	writeln(&sb, "\tEndGlobalSection")
	writeln(&sb, "\tGlobalSection(ProjectConfigurationPlatforms) = postSolution")
	for _, cfg := range p.Configurations {
		pair := cfg.Name + "|" + p.Platform
		writeln(&sb, "\t\t", projectGuid, ".", pair, ".ActiveCfg = ", pair)
		writeln(&sb, "\t\t", projectGuid, ".", pair, ".Build.0 = ", pair)
	}
	writeln(&sb, "\tEndGlobalSection")
	writeln(&sb, "\tGlobalSection(SolutionProperties) = preSolution")
	writeln(&sb, "\t\tHideSolutionNode = FALSE")
	writeln(&sb, "\tEndGlobalSection")
	writeln(&sb, "\tGlobalSection(ExtensibilityGlobals) = postSolution")
	write(&sb, "\t\tSolutionGuid = ", braced(DeriveGUID("solution", p.Name)), "\n")
	writeln(&sb, "\tEndGlobalSection")
	writeln(&sb, "EndGlobal")

	return sb.String()
}
