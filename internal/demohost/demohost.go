// Package demohost is a small CI server model exposed through a reflection
// catalog. It is what the CLI scans when no source packages are configured.
package demohost

import (
	"github.com/mark3labs/apiscan/internal/host"
	"github.com/mark3labs/apiscan/internal/host/reflecthost"
)

const (
	// Product is the host name used in document titles.
	Product = "Demo CI"
	// DefaultBaseURL is used when no base URL is configured.
	DefaultBaseURL = "http://localhost:8080/"

	ProjectInfoID = "project-info"
	BuildStatsID  = "build-stats"
	LegacyID      = "legacy-reports"
)

// New builds the demo catalog with its core types and three plugins: an
// active one with discoverable types, an active one that relies on its
// fallback list, and an inactive one.
func New(opts ...reflecthost.Option) *reflecthost.Catalog {
	c := reflecthost.New(Product, append([]reflecthost.Option{reflecthost.WithBaseURL(DefaultBaseURL)}, opts...)...)

	c.Add(host.Core,
		&Instance{},
		&Job{},
		&Run{},
		&ChangeSet{},
		&View{},
		&Node{},
		&User{},
		&Queue{},
	)
	c.AddWellKnown(host.Core, &Instance{}, &User{}, &Job{}, &Run{}, &View{}, &Node{})

	c.AddPlugin(host.Plugin{
		ID:          ProjectInfoID,
		DisplayName: "Project Information",
		Version:     "1.2.0",
		Active:      true,
		Main:        "ProjectInfoAction",
	})
	c.Add(ProjectInfoID, &ProjectInfoAction{}, ProjectDetail{})

	c.AddPlugin(host.Plugin{
		ID:          BuildStatsID,
		DisplayName: "Build Statistics",
		Version:     "0.9.1",
		Active:      true,
		Main:        "BuildStatsAction",
	})
	c.AddWellKnown(BuildStatsID, &BuildStatsAction{})

	c.AddPlugin(host.Plugin{
		ID:          LegacyID,
		DisplayName: "Legacy Reports",
		Version:     "0.1.0",
	})
	return c
}
