package spec

import "testing"

func TestPropertyName(t *testing.T) {
    t.Parallel()
    cases := []struct {
        id, explicit, want string
    }{
        {"getName", "", "name"},
        {"getFullName", "", "fullName"},
        {"isBuildable", "", "buildable"},
        {"get", "", "get"},
        {"is", "", "is"},
        {"deleteWidget", "", "deleteWidget"},
        {"getName", "displayName", "displayName"},
        {"getName", "  ", "name"},
    }
    for _, tc := range cases {
        if got := PropertyName(tc.id, tc.explicit); got != tc.want {
            t.Errorf("PropertyName(%q, %q) = %q, want %q", tc.id, tc.explicit, got, tc.want)
        }
    }
}

func TestPathSegment(t *testing.T) {
    t.Parallel()
    cases := []struct {
        id, explicit, want string
    }{
        {"getName", "", "name"},
        {"isBuildable", "", "buildable"},
        {"deleteWidget", "", "delete-widget"},
        {"doReloadAllJobs", "", "do-reload-all-jobs"},
        {"name", "", "name"},
        {"getUrl", "", "url"},
        {"deleteWidget", "purge", "purge"},
    }
    for _, tc := range cases {
        if got := PathSegment(tc.id, tc.explicit); got != tc.want {
            t.Errorf("PathSegment(%q, %q) = %q, want %q", tc.id, tc.explicit, got, tc.want)
        }
    }
}

func TestTitle(t *testing.T) {
    t.Parallel()
    cases := map[string]string{
        "getFullName":  "Full Name",
        "isBuildable":  "Is Buildable",
        "deleteWidget": "delete Widget",
        "name":         "name",
    }
    for id, want := range cases {
        if got := Title(id); got != want {
            t.Errorf("Title(%q) = %q, want %q", id, got, want)
        }
    }
}

func TestClassifyVerb(t *testing.T) {
    t.Parallel()
    cases := map[string]HttpMethod{
        "getName":       GET,
        "setName":       POST,
        "createJob":     POST,
        "addUser":       POST,
        "submitForm":    POST,
        "updateStatus":  POST,
        "saveConfig":    POST,
        "modifyView":    POST,
        "deleteWidget":  DELETE,
        "removeNode":    DELETE,
        "clearQueue":    DELETE,
        "replaceConfig": PUT,
        "DeleteAll":     DELETE,
        "isBuildable":   GET,
        "doSomething":   GET,
        "":              GET,
    }
    for id, want := range cases {
        if got := ClassifyVerb(id); got != want {
            t.Errorf("ClassifyVerb(%q) = %s, want %s", id, got, want)
        }
    }
}

func TestClassifyVerb_Total(t *testing.T) {
    t.Parallel()
    valid := map[HttpMethod]bool{GET: true, POST: true, PUT: true, DELETE: true}
    for _, id := range []string{"x", "S", "settings", "address", "clearly", "replay", "Ünïcode", "123", "get_it"} {
        if got := ClassifyVerb(id); !valid[got] {
            t.Fatalf("ClassifyVerb(%q) = %q, not a known verb", id, got)
        }
    }
}

func TestPaths(t *testing.T) {
    t.Parallel()
    if got := CorePath("Widget", "name"); got != "/widget/name" {
        t.Errorf("CorePath = %q", got)
    }
    if got := CorePath("FreeStyleProject", "delete-widget"); got != "/free-style-project/delete-widget" {
        t.Errorf("CorePath = %q", got)
    }
    if got := PluginPath("project-info", "ProjectInfoAction", "projects"); got != "/project-info/project-info-action/projects" {
        t.Errorf("PluginPath = %q", got)
    }

    core := ExportedType{SimpleName: "Widget", Namespace: "core"}
    plugin := ExportedType{SimpleName: "Widget", Namespace: "foo"}
    op := ExportedOperation{Identifier: "getName"}
    if got := OperationPath(core, op); got != "/widget/name" {
        t.Errorf("core OperationPath = %q", got)
    }
    if got := OperationPath(plugin, op); got != "/foo/widget/name" {
        t.Errorf("plugin OperationPath = %q", got)
    }
}
