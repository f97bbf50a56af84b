package demohost

import "github.com/mark3labs/apiscan/internal/host/reflecthost"

// BallColor is the status indicator of a job.
type BallColor string

const (
	Blue     BallColor = "BLUE"
	Red      BallColor = "RED"
	Yellow   BallColor = "YELLOW"
	Grey     BallColor = "GREY"
	Disabled BallColor = "DISABLED"
	Aborted  BallColor = "ABORTED"
	NotBuilt BallColor = "NOTBUILT"
)

func (BallColor) EnumValues() []string {
	return []string{"BLUE", "RED", "YELLOW", "GREY", "DISABLED", "ABORTED", "NOTBUILT"}
}

// Result is the outcome of a finished run.
type Result string

func (Result) EnumValues() []string {
	return []string{"SUCCESS", "UNSTABLE", "FAILURE", "NOT_BUILT", "ABORTED"}
}

// Instance is the root object of the CI server.
type Instance struct {
	Description  string
	Jobs         []*Job
	Views        []*View
	Nodes        []*Node
	Queue        *Queue
	Executors    int32
	UseSecurity  bool
	URL          string
	primaryIndex int
}

func (*Instance) ExportedBean() reflecthost.BeanInfo {
	return reflecthost.BeanInfo{
		DefaultVisibility: 1,
		Exports: []reflecthost.Export{
			{Method: "GetDescription"},
			{Method: "GetJobs", Visibility: 1},
			{Method: "GetViews", Visibility: 1},
			{Method: "GetPrimaryView", Visibility: 1},
			{Method: "GetNodes", Visibility: 2},
			{Method: "GetQueue", Visibility: 2},
			{Method: "GetNumExecutors"},
			{Method: "IsUseSecurity"},
			{Method: "GetURL", Name: "url"},
		},
	}
}

func (i *Instance) GetDescription() string { return i.Description }
func (i *Instance) GetJobs() []*Job        { return i.Jobs }
func (i *Instance) GetViews() []*View      { return i.Views }
func (i *Instance) GetNodes() []*Node      { return i.Nodes }
func (i *Instance) GetQueue() *Queue       { return i.Queue }
func (i *Instance) GetNumExecutors() int32 { return i.Executors }
func (i *Instance) IsUseSecurity() bool    { return i.UseSecurity }
func (i *Instance) GetURL() string         { return i.URL }

func (i *Instance) GetPrimaryView() *View {
	if i.primaryIndex < 0 || i.primaryIndex >= len(i.Views) {
		return nil
	}
	return i.Views[i.primaryIndex]
}

// Job is a buildable project.
type Job struct {
	Name        string
	DisplayName string
	URL         string
	Color       BallColor
	Buildable   bool
	Builds      []*Run
	NextBuild   int32
	Properties  map[string]string
}

func (*Job) ExportedBean() reflecthost.BeanInfo {
	return reflecthost.BeanInfo{
		DefaultVisibility: 1,
		Exports: []reflecthost.Export{
			{Method: "GetName"},
			{Method: "GetDisplayName"},
			{Method: "GetURL", Name: "url"},
			{Method: "GetColor"},
			{Method: "IsBuildable"},
			{Method: "GetBuilds", Visibility: 1},
			{Method: "GetLastBuild", Visibility: 1},
			{Method: "GetNextBuildNumber"},
			{Method: "GetProperties", Visibility: 2},
			{Method: "Delete", Visibility: 1},
		},
	}
}

func (j *Job) GetName() string                  { return j.Name }
func (j *Job) GetDisplayName() string           { return j.DisplayName }
func (j *Job) GetURL() string                   { return j.URL }
func (j *Job) GetColor() BallColor              { return j.Color }
func (j *Job) IsBuildable() bool                { return j.Buildable }
func (j *Job) GetBuilds() []*Run                { return j.Builds }
func (j *Job) GetNextBuildNumber() int32        { return j.NextBuild }
func (j *Job) GetProperties() map[string]string { return j.Properties }

func (j *Job) GetLastBuild() *Run {
	if len(j.Builds) == 0 {
		return nil
	}
	return j.Builds[len(j.Builds)-1]
}

// Delete removes the job's build history.
func (j *Job) Delete() error {
	j.Builds = nil
	return nil
}

// Run is one execution of a job.
type Run struct {
	Number     int64
	Result     Result
	Building   bool
	Duration   int64
	Timestamp  int64
	ChangeSet  *ChangeSet
	Parameters map[string]string
}

func (*Run) ExportedBean() reflecthost.BeanInfo {
	return reflecthost.BeanInfo{
		DefaultVisibility: 2,
		Exports: []reflecthost.Export{
			{Method: "GetNumber"},
			{Method: "GetResult"},
			{Method: "IsBuilding"},
			{Method: "GetDuration"},
			{Method: "GetTimestamp"},
			{Method: "GetChangeSet", Visibility: 1},
			{Method: "GetParameters", Visibility: 2},
		},
	}
}

func (r *Run) GetNumber() int64                 { return r.Number }
func (r *Run) GetResult() Result                { return r.Result }
func (r *Run) IsBuilding() bool                 { return r.Building }
func (r *Run) GetDuration() int64               { return r.Duration }
func (r *Run) GetTimestamp() int64              { return r.Timestamp }
func (r *Run) GetChangeSet() *ChangeSet         { return r.ChangeSet }
func (r *Run) GetParameters() map[string]string { return r.Parameters }

// ChangeSet is one commit of a run's changes. Change sets form a chain
// through their previous entry.
type ChangeSet struct {
	Commit   string
	Author   *User
	Message  string
	Paths    []string
	Previous *ChangeSet
}

func (*ChangeSet) ExportedBean() reflecthost.BeanInfo {
	return reflecthost.BeanInfo{
		DefaultVisibility: 2,
		Exports: []reflecthost.Export{
			{Method: "GetCommitID"},
			{Method: "GetAuthor"},
			{Method: "GetMsg"},
			{Method: "GetAffectedPaths"},
			{Method: "GetPrevious"},
		},
	}
}

func (c *ChangeSet) GetCommitID() string        { return c.Commit }
func (c *ChangeSet) GetAuthor() *User           { return c.Author }
func (c *ChangeSet) GetMsg() string             { return c.Message }
func (c *ChangeSet) GetAffectedPaths() []string { return c.Paths }
func (c *ChangeSet) GetPrevious() *ChangeSet    { return c.Previous }

// View groups jobs.
type View struct {
	Name string
	URL  string
	Jobs []*Job
}

func (*View) ExportedBean() reflecthost.BeanInfo {
	return reflecthost.BeanInfo{
		DefaultVisibility: 1,
		Exports: []reflecthost.Export{
			{Method: "GetName"},
			{Method: "GetURL", Name: "url"},
			{Method: "GetJobs", Visibility: 1},
		},
	}
}

func (v *View) GetName() string { return v.Name }
func (v *View) GetURL() string  { return v.URL }
func (v *View) GetJobs() []*Job { return v.Jobs }

// Node is a machine that runs builds.
type Node struct {
	Name      string
	Executors int32
	Offline   bool
	Labels    []string
	Monitors  map[string]any
}

func (*Node) ExportedBean() reflecthost.BeanInfo {
	return reflecthost.BeanInfo{
		DefaultVisibility: 1,
		Exports: []reflecthost.Export{
			{Method: "GetNodeName"},
			{Method: "GetNumExecutors"},
			{Method: "IsOffline"},
			{Method: "GetAssignedLabels"},
			{Method: "GetMonitorData", Visibility: 2},
		},
	}
}

func (n *Node) GetNodeName() string            { return n.Name }
func (n *Node) GetNumExecutors() int32         { return n.Executors }
func (n *Node) IsOffline() bool                { return n.Offline }
func (n *Node) GetAssignedLabels() []string    { return n.Labels }
func (n *Node) GetMonitorData() map[string]any { return n.Monitors }

// User is an account known to the server.
type User struct {
	ID          string
	FullName    string
	Description string
}

func (*User) ExportedBean() reflecthost.BeanInfo {
	return reflecthost.BeanInfo{
		Exports: []reflecthost.Export{
			{Method: "GetID", Name: "id"},
			{Method: "GetFullName"},
			{Method: "GetDescription"},
		},
	}
}

func (u *User) GetID() string          { return u.ID }
func (u *User) GetFullName() string    { return u.FullName }
func (u *User) GetDescription() string { return u.Description }

// Queue holds waiting builds.
type Queue struct {
	Items []*QueueItem
}

func (*Queue) ExportedBean() reflecthost.BeanInfo {
	return reflecthost.BeanInfo{
		DefaultVisibility: 1,
		Exports: []reflecthost.Export{
			{Method: "GetItems"},
			{Method: "Clear", Visibility: 1},
		},
	}
}

func (q *Queue) GetItems() []*QueueItem { return q.Items }

// Clear drops every waiting item.
func (q *Queue) Clear() { q.Items = nil }

// QueueItem is a build waiting for an executor. It is only reachable through
// the queue.
type QueueItem struct {
	ID      int64
	Blocked bool
	Why     string
	Task    *Job
}

func (*QueueItem) ExportedBean() reflecthost.BeanInfo {
	return reflecthost.BeanInfo{
		DefaultVisibility: 1,
		Exports: []reflecthost.Export{
			{Method: "GetID", Name: "id"},
			{Method: "IsBlocked"},
			{Method: "GetWhy"},
			{Method: "GetTask"},
		},
	}
}

func (q *QueueItem) GetID() int64    { return q.ID }
func (q *QueueItem) IsBlocked() bool { return q.Blocked }
func (q *QueueItem) GetWhy() string  { return q.Why }
func (q *QueueItem) GetTask() *Job   { return q.Task }
