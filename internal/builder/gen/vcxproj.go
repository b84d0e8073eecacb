package gen

import (
	"encoding/xml"
	"strings"
)

const msbuildNamespace = "http://schemas.microsoft.com/developer/msbuild/2003"

//
// structures for .vcxproj and .vcxproj.filters
//

// VSProject keeps its children in a single list: MSBuild evaluates imports and
// property groups top to bottom, so the element order matters.
type VSProject struct {
	XMLName        xml.Name `xml:"Project"`
	DefaultTargets string   `xml:"DefaultTargets,attr,omitempty"`
	ToolsVersion   string   `xml:"ToolsVersion,attr"`
	XMLNS          string   `xml:"xmlns,attr"`
	Children       []any
}

type VSItemGroup struct {
	XMLName               xml.Name                 `xml:"ItemGroup"`
	Label                 string                   `xml:"Label,attr,omitempty"`
	ProjectConfigurations []VSProjectConfiguration `xml:"ProjectConfiguration,omitempty"`
	Filters               []VSFilter               `xml:"Filter,omitempty"`
	ClCompiles            []VSItem                 `xml:"ClCompile,omitempty"`
	ClIncludes            []VSItem                 `xml:"ClInclude,omitempty"`
	ResourceCompiles      []VSItem                 `xml:"ResourceCompile,omitempty"`
	Nones                 []VSItem                 `xml:"None,omitempty"`
}

type VSProjectConfiguration struct {
	Include       string `xml:"Include,attr"`
	Configuration string `xml:"Configuration"`
	Platform      string `xml:"Platform"`
}

// VSItem is a file item; Filter is only written to the filters file
type VSItem struct {
	Include string `xml:"Include,attr"`
	Filter  string `xml:"Filter,omitempty"`
}

type VSFilter struct {
	Include          string `xml:"Include,attr"`
	UniqueIdentifier string `xml:"UniqueIdentifier"`
	Extensions       string `xml:"Extensions,omitempty"`
}

type VSPropertyGroup struct {
	XMLName                      xml.Name `xml:"PropertyGroup"`
	Condition                    string   `xml:"Condition,attr,omitempty"`
	Label                        string   `xml:"Label,attr,omitempty"`
	ProjectGuid                  string   `xml:"ProjectGuid,omitempty"`
	Keyword                      string   `xml:"Keyword,omitempty"`
	WindowsTargetPlatformVersion string   `xml:"WindowsTargetPlatformVersion,omitempty"`
	ProjectName                  string   `xml:"ProjectName,omitempty"`
	ConfigurationType            string   `xml:"ConfigurationType,omitempty"`
	UseDebugLibraries            *bool    `xml:"UseDebugLibraries,omitempty"`
	PlatformToolset              string   `xml:"PlatformToolset,omitempty"`
	WholeProgramOptimization     *bool    `xml:"WholeProgramOptimization,omitempty"`
	LinkIncremental              *bool    `xml:"LinkIncremental,omitempty"`
	OutDir                       string   `xml:"OutDir,omitempty"`
	IncludePath                  string   `xml:"IncludePath,omitempty"`
	LibraryPath                  string   `xml:"LibraryPath,omitempty"`
}

type VSImportGroup struct {
	XMLName   xml.Name   `xml:"ImportGroup"`
	Label     string     `xml:"Label,attr,omitempty"`
	Condition string     `xml:"Condition,attr,omitempty"`
	Imports   []VSImport `xml:"Import"`
}

type VSImport struct {
	XMLName   xml.Name `xml:"Import"`
	Project   string   `xml:"Project,attr"`
	Condition string   `xml:"Condition,attr,omitempty"`
	Label     string   `xml:"Label,attr,omitempty"`
}

type VSItemDefinitionGroup struct {
	XMLName   xml.Name        `xml:"ItemDefinitionGroup"`
	Condition string          `xml:"Condition,attr"`
	ClCompile VSCppCompileDef `xml:"ClCompile"`
	Link      VSLinkDef       `xml:"Link"`
}

type VSCppCompileDef struct {
	PreprocessorDefinitions      string `xml:"PreprocessorDefinitions,omitempty"`
	RuntimeLibrary               string `xml:"RuntimeLibrary,omitempty"`
	WarningLevel                 string `xml:"WarningLevel,omitempty"`
	DebugInformationFormat       string `xml:"DebugInformationFormat,omitempty"`
	MultiProcessorCompilation    *bool  `xml:"MultiProcessorCompilation,omitempty"`
	Optimization                 string `xml:"Optimization,omitempty"`
	FloatingPointModel           string `xml:"FloatingPointModel,omitempty"`
	TreatWarningAsError          *bool  `xml:"TreatWarningAsError,omitempty"`
	EnableEnhancedInstructionSet string `xml:"EnableEnhancedInstructionSet,omitempty"`
	FunctionLevelLinking         *bool  `xml:"FunctionLevelLinking,omitempty"`
	IntrinsicFunctions           *bool  `xml:"IntrinsicFunctions,omitempty"`
}

type VSLinkDef struct {
	TargetMachine            string `xml:"TargetMachine,omitempty"`
	GenerateDebugInformation *bool  `xml:"GenerateDebugInformation,omitempty"`
	SubSystem                string `xml:"SubSystem,omitempty"`
	EnableCOMDATFolding      *bool  `xml:"EnableCOMDATFolding,omitempty"`
	OptimizeReferences       *bool  `xml:"OptimizeReferences,omitempty"`
	AdditionalDependencies   string `xml:"AdditionalDependencies,omitempty"`
	LinkTimeCodeGeneration   string `xml:"LinkTimeCodeGeneration,omitempty"`

	ImageHasSafeExceptionHandlers  *bool  `xml:"ImageHasSafeExceptionHandlers,omitempty"`
	IgnoreSpecificDefaultLibraries string `xml:"IgnoreSpecificDefaultLibraries,omitempty"`
}

//
// generator
//

type VSGen struct{}

func NewVSGen() *VSGen { return &VSGen{} }

// Generate renders <Name>.sln, <Name>.vcxproj and <Name>.vcxproj.filters
func (g *VSGen) Generate(p *Project) ([]Output, error) {
	project, err := ProjectFile(p)
	if err != nil {
		return nil, err
	}
	filters, err := FiltersFile(p)
	if err != nil {
		return nil, err
	}
	return []Output{
		{Name: p.Name + ".sln", Content: []byte(Solution(p))},
		{Name: p.Name + ".vcxproj", Content: project},
		{Name: p.Name + ".vcxproj.filters", Content: filters},
	}, nil
}

func condition(cfg Configuration, platform string) string {
	return "'$(Configuration)|$(Platform)'=='" + cfg.Name + "|" + platform + "'"
}

func boolPtr(b bool) *bool { return &b }

// optBool returns nil for false so the element is left out entirely
func optBool(b bool) *bool {
	if !b {
		return nil
	}
	return &b
}

// ProjectFile renders the .vcxproj file
func ProjectFile(p *Project) ([]byte, error) {
	vs, _ := LookupToolset(p.Toolset)

	var children []any
	children = append(children, projectConfigurations(p))
	children = append(children, VSPropertyGroup{
		Label:                        "Globals",
		ProjectGuid:                  braced(p.GUID),
		Keyword:                      p.Keyword,
		WindowsTargetPlatformVersion: p.WindowsSDK,
		ProjectName:                  p.Name,
	})
	children = append(children, VSImport{Project: `$(VCTargetsPath)\Microsoft.Cpp.Default.props`})
	for _, cfg := range p.Configurations {
		children = append(children, VSPropertyGroup{
			Condition:                condition(cfg, p.Platform),
			Label:                    "Configuration",
			ConfigurationType:        p.ConfigurationType,
			UseDebugLibraries:        boolPtr(cfg.Debug),
			PlatformToolset:          p.Toolset,
			WholeProgramOptimization: optBool(cfg.WholeProgramOptimization),
		})
	}
	children = append(children, VSImport{Project: `$(VCTargetsPath)\Microsoft.Cpp.props`})
	children = append(children, VSImportGroup{Label: "ExtensionSettings"})
	for _, cfg := range p.Configurations {
		children = append(children, VSImportGroup{
			Label:     "PropertySheets",
			Condition: condition(cfg, p.Platform),
			Imports: []VSImport{{
				Project:   `$(UserRootDir)\Microsoft.Cpp.$(Platform).user.props`,
				Condition: `exists('$(UserRootDir)\Microsoft.Cpp.$(Platform).user.props')`,
				Label:     "LocalAppDataPlatform",
			}},
		})
	}
	children = append(children, VSPropertyGroup{Label: "UserMacros"})
	for _, cfg := range p.Configurations {
		children = append(children, pathPropertyGroup(p, cfg))
	}
	for _, cfg := range p.Configurations {
		children = append(children, itemDefinitionGroup(p, cfg))
	}
	for _, group := range itemGroups(p, false) {
		children = append(children, group)
	}
	children = append(children, VSImport{Project: `$(VCTargetsPath)\Microsoft.Cpp.targets`})
	children = append(children, VSImportGroup{Label: "ExtensionTargets"})

	project := VSProject{
		DefaultTargets: "Build",
		ToolsVersion:   vs.ToolsVersion,
		XMLNS:          msbuildNamespace,
		Children:       children,
	}
	return marshal(project)
}

func projectConfigurations(p *Project) VSItemGroup {
	configs := make([]VSProjectConfiguration, 0, len(p.Configurations))
	for _, cfg := range p.Configurations {
		configs = append(configs, VSProjectConfiguration{
			Include:       cfg.Name + "|" + p.Platform,
			Configuration: cfg.Name,
			Platform:      p.Platform,
		})
	}
	return VSItemGroup{Label: "ProjectConfigurations", ProjectConfigurations: configs}
}

func pathPropertyGroup(p *Project, cfg Configuration) VSPropertyGroup {
	group := VSPropertyGroup{
		Condition:       condition(cfg, p.Platform),
		LinkIncremental: boolPtr(cfg.Debug),
		IncludePath:     joinList(projectDirs(p, cfg.IncludePath), "$(IncludePath)"),
		LibraryPath:     joinList(projectDirs(p, cfg.LibraryPath), "$(LibraryPath)"),
	}
	if cfg.OutDir != "" {
		group.OutDir = strings.TrimSuffix(winPath(cfg.OutDir), `\`) + `\`
	}
	return group
}

// projectDirs prefixes relative directories with $(ProjectDir); MSBuild macros and absolute paths are kept
func projectDirs(p *Project, dirs []string) []string {
	out := make([]string, 0, len(dirs))
	for _, dir := range dirs {
		dir = winPath(dir)
		if strings.HasPrefix(dir, "$(") || strings.HasPrefix(dir, `\`) || (len(dir) > 1 && dir[1] == ':') {
			out = append(out, dir)
			continue
		}
		out = append(out, "$(ProjectDir)"+p.Root+dir)
	}
	return out
}

func itemDefinitionGroup(p *Project, cfg Configuration) VSItemDefinitionGroup {
	runtime, optimization, warning := cfg.RuntimeLibrary, cfg.Optimization, cfg.WarningLevel
	if runtime == "" {
		runtime = "MultiThreadedDLL"
		if cfg.Debug {
			runtime = "MultiThreadedDebugDLL"
		}
	}
	if optimization == "" {
		optimization = "MaxSpeed"
		if cfg.Debug {
			optimization = "Disabled"
		}
	}
	if warning == "" {
		warning = "Level3"
	}
	subsystem := cfg.Subsystem
	if subsystem == "" {
		subsystem = "Windows"
	}
	machine := cfg.TargetMachine
	if machine == "" {
		machine = TargetMachine(p.Platform)
	}

	def := VSItemDefinitionGroup{
		Condition: condition(cfg, p.Platform),
		ClCompile: VSCppCompileDef{
			PreprocessorDefinitions:      joinList(cfg.Defines, "%(PreprocessorDefinitions)"),
			RuntimeLibrary:               runtime,
			WarningLevel:                 warning,
			DebugInformationFormat:       "ProgramDatabase",
			MultiProcessorCompilation:    optBool(cfg.MultiProcessor),
			Optimization:                 optimization,
			FloatingPointModel:           cfg.FloatingPointModel,
			TreatWarningAsError:          optBool(cfg.TreatWarningsAsErrors),
			EnableEnhancedInstructionSet: cfg.EnhancedInstructionSet,
		},
		Link: VSLinkDef{
			TargetMachine:            machine,
			GenerateDebugInformation: boolPtr(true),
			SubSystem:                subsystem,
			AdditionalDependencies:   joinList(cfg.Libraries, "%(AdditionalDependencies)"),

			ImageHasSafeExceptionHandlers:  cfg.SafeExceptionHandlers,
			IgnoreSpecificDefaultLibraries: joinList(cfg.IgnoreSpecificDefaultLibraries, "%(IgnoreSpecificDefaultLibraries)"),
		},
	}
	if !cfg.Debug {
		def.ClCompile.FunctionLevelLinking = boolPtr(true)
		def.ClCompile.IntrinsicFunctions = boolPtr(true)
		def.Link.EnableCOMDATFolding = boolPtr(true)
		def.Link.OptimizeReferences = boolPtr(true)
	}
	if cfg.WholeProgramOptimization {
		def.Link.LinkTimeCodeGeneration = "UseLinkTimeCodeGeneration"
	}
	return def
}

// itemGroups returns one group per non-empty item kind. withFilters adds the <Filter> element to each item.
func itemGroups(p *Project, withFilters bool) []VSItemGroup {
	items := func(paths ...[]string) []VSItem {
		var out []VSItem
		for _, list := range paths {
			for _, path := range list {
				item := VSItem{Include: p.Root + winPath(path)}
				if withFilters {
					item.Filter = winDir(path)
				}
				out = append(out, item)
			}
		}
		return out
	}

	var groups []VSItemGroup
	if compiles := items(p.Compile, p.ExtraCompile); len(compiles) > 0 {
		groups = append(groups, VSItemGroup{ClCompiles: compiles})
	}
	if includes := items(p.Include, p.ExtraInclude); len(includes) > 0 {
		groups = append(groups, VSItemGroup{ClIncludes: includes})
	}
	if resources := items(p.Resources); len(resources) > 0 {
		groups = append(groups, VSItemGroup{ResourceCompiles: resources})
	}
	if nones := items(p.None); len(nones) > 0 {
		groups = append(groups, VSItemGroup{Nones: nones})
	}
	return groups
}

func marshal(v any) ([]byte, error) {
	output, err := xml.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return []byte(xml.Header + string(output) + "\n"), nil
}
