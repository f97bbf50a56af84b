package demohost

import "github.com/mark3labs/apiscan/internal/host/reflecthost"

// ProjectInfoAction is the root action of the project-info plugin.
type ProjectInfoAction struct {
	Projects []ProjectDetail
}

func (*ProjectInfoAction) ExportedBean() reflecthost.BeanInfo {
	return reflecthost.BeanInfo{
		Exports: []reflecthost.Export{
			{Method: "GetProjects"},
			{Method: "GetDisplayName"},
			{Method: "GetIconFileName"},
			{Method: "GetUrlName"},
			{Method: "ClearProjects", Visibility: 1},
		},
	}
}

func (a *ProjectInfoAction) GetProjects() []ProjectDetail { return a.Projects }
func (*ProjectInfoAction) GetDisplayName() string         { return "Project Information" }
func (*ProjectInfoAction) GetIconFileName() string        { return "/plugin/project-info/icons/notepad.png" }
func (*ProjectInfoAction) GetUrlName() string             { return "project-info" }

// ClearProjects forgets every recorded project.
func (a *ProjectInfoAction) ClearProjects() { a.Projects = nil }

// ProjectDetail is one recorded project.
type ProjectDetail struct {
	Name        string
	Description string
}

func (ProjectDetail) ExportedBean() reflecthost.BeanInfo {
	return reflecthost.BeanInfo{
		Exports: []reflecthost.Export{
			{Method: "GetName"},
			{Method: "GetDescription"},
		},
	}
}

func (p ProjectDetail) GetName() string        { return p.Name }
func (p ProjectDetail) GetDescription() string { return p.Description }

// BuildStatsAction is the entry point of the build-stats plugin. The plugin
// registers no discoverable types, so it is only reachable as a fallback.
type BuildStatsAction struct {
	Totals map[string]int64
}

func (*BuildStatsAction) ExportedBean() reflecthost.BeanInfo {
	return reflecthost.BeanInfo{
		Exports: []reflecthost.Export{
			{Method: "GetTotals"},
			{Method: "GetSuccessRate"},
		},
	}
}

func (b *BuildStatsAction) GetTotals() map[string]int64 { return b.Totals }

func (b *BuildStatsAction) GetSuccessRate() float64 {
	var all int64
	for _, n := range b.Totals {
		all += n
	}
	if all == 0 {
		return 0
	}
	return float64(b.Totals["SUCCESS"]) / float64(all)
}
