package gen

import (
	"encoding/xml"
	"strings"
)

type VSFiltersProject struct {
	XMLName      xml.Name      `xml:"Project"`
	ToolsVersion string        `xml:"ToolsVersion,attr"`
	XMLNS        string        `xml:"xmlns,attr"`
	ItemGroups   []VSItemGroup `xml:"ItemGroup"`
}

// FiltersFile renders the .vcxproj.filters file: one filter per source directory and every item tagged with its directory
func FiltersFile(p *Project) ([]byte, error) {
	filters := make([]VSFilter, 0, len(p.Dirs))
	for _, dir := range p.Dirs {
		include := winPath(dir)
		filters = append(filters, VSFilter{
			Include:          include,
			UniqueIdentifier: braced(DeriveGUID("filter", include)),
			Extensions:       strings.Join(p.FilterExtensions[dir], ";"),
		})
	}

	groups := []VSItemGroup{}
	if len(filters) > 0 {
		groups = append(groups, VSItemGroup{Filters: filters})
	}
	groups = append(groups, itemGroups(p, true)...)

	return marshal(VSFiltersProject{
		ToolsVersion: "4.0",
		XMLNS:        msbuildNamespace,
		ItemGroups:   groups,
	})
}
