package spec

import (
    "encoding/json"
    "strings"
    "testing"

    "github.com/getkin/kin-openapi/openapi3"
    "github.com/mark3labs/apiscan/internal/host"
    "github.com/mark3labs/apiscan/internal/host/hosttest"
)

func testMeta() Meta {
    return Meta{
        Title:             "Test Core REST API",
        Description:       "REST API documentation for Test Core",
        Version:           "1.0.0",
        ServerURL:         "http://localhost:8080/",
        ServerDescription: "Test Instance",
    }
}

func widgetType() ExportedType {
    return ExportedType{
        QualifiedName: "a.Widget",
        SimpleName:    "Widget",
        Namespace:     host.Core,
        Operations: []ExportedOperation{
            {Identifier: "getName", Returns: hosttest.String()},
            {Identifier: "deleteWidget", Visibility: 1},
        },
    }
}

func TestAssemble_Widget(t *testing.T) {
    t.Parallel()
    doc := Assemble(testMeta(), []ExportedType{widgetType()})

    if doc.Info == nil || doc.Info.Title != "Test Core REST API" || doc.Info.Version != "1.0.0" {
        t.Fatalf("info: %+v", doc.Info)
    }
    if len(doc.Servers) != 1 || doc.Servers[0].URL != "http://localhost:8080/" {
        t.Fatalf("servers: %+v", doc.Servers)
    }

    item := doc.Paths["/widget/name"]
    if item == nil || item.Get == nil {
        t.Fatalf("expected GET /widget/name, paths: %v", pathKeys(doc))
    }
    get := item.Get
    if get.Security != nil {
        t.Fatalf("visibility 0 must not carry security: %+v", get.Security)
    }
    if len(get.Tags) != 0 {
        t.Fatalf("visibility 0 must not be tagged: %v", get.Tags)
    }
    schema := get.Responses["200"].Value.Content["application/json"].Schema.Value
    if schema.Type != "string" {
        t.Fatalf("response schema type = %q, want string", schema.Type)
    }
    if get.Summary != "Get Name" {
        t.Fatalf("summary = %q", get.Summary)
    }
    if !strings.HasPrefix(get.Description, "REST API endpoint for Name (Visibility: 0)") ||
        !strings.HasSuffix(get.Description, "Returns: string") {
        t.Fatalf("description = %q", get.Description)
    }
    for _, status := range []string{"200", "401", "404"} {
        if get.Responses[status] == nil {
            t.Fatalf("missing %s response", status)
        }
    }

    del := doc.Paths["/widget/delete-widget"]
    if del == nil || del.Delete == nil {
        t.Fatalf("expected DELETE /widget/delete-widget, paths: %v", pathKeys(doc))
    }
    if del.Delete.Security == nil || len(*del.Delete.Security) != 1 {
        t.Fatalf("secured operation needs one requirement: %+v", del.Delete.Security)
    }
    if _, ok := (*del.Delete.Security)[0][DefaultSecurityScheme]; !ok {
        t.Fatalf("requirement should reference %s: %+v", DefaultSecurityScheme, (*del.Delete.Security)[0])
    }
    if len(del.Delete.Tags) != 1 || del.Delete.Tags[0] != SecuredTag {
        t.Fatalf("tags = %v", del.Delete.Tags)
    }
    if del.Delete.Responses["200"].Value.Content != nil {
        t.Fatalf("void operation should have no response content")
    }
}

func TestAssemble_StandardParameters(t *testing.T) {
    t.Parallel()
    doc := Assemble(testMeta(), []ExportedType{widgetType()})
    for path, item := range doc.Paths {
        for verb, op := range item.Operations() {
            if len(op.Parameters) != 2 {
                t.Fatalf("%s %s: %d parameters, want 2", verb, path, len(op.Parameters))
            }
            depth, tree := op.Parameters[0].Value, op.Parameters[1].Value
            if depth.Name != "depth" || depth.In != "query" || depth.Description != "Recursion depth for nested objects" {
                t.Fatalf("depth parameter: %+v", depth)
            }
            if depth.Schema.Value.Type != "integer" {
                t.Fatalf("depth schema type = %q", depth.Schema.Value.Type)
            }
            if tree.Name != "tree" || tree.In != "query" ||
                tree.Description != "Specify which fields to include using dot notation (e.g. jobs[name,url])" {
                t.Fatalf("tree parameter: %+v", tree)
            }
        }
    }
}

func TestAssemble_WrapperParameter(t *testing.T) {
    t.Parallel()
    typ := ExportedType{SimpleName: "Widget", Namespace: host.Core, Operations: []ExportedOperation{
        {Identifier: "getName", Returns: hosttest.String()},
        {Identifier: "getCount", Returns: hosttest.Int32()},
    }}
    doc := Assemble(testMeta(), []ExportedType{typ}, WithWrapperParameter(true))
    if n := len(doc.Paths["/widget/name"].Get.Parameters); n != 3 {
        t.Fatalf("string return should get wrapper, got %d params", n)
    }
    if n := len(doc.Paths["/widget/count"].Get.Parameters); n != 2 {
        t.Fatalf("scalar return should not get wrapper, got %d params", n)
    }
}

func TestAssemble_MergeRules(t *testing.T) {
    t.Parallel()
    typ := ExportedType{SimpleName: "Widget", Namespace: host.Core, Operations: []ExportedOperation{
        {Identifier: "getName", Returns: hosttest.String()},
        {Identifier: "setName", ExplicitName: "name"},
        {Identifier: "isName", Returns: hosttest.Bool()},
    }}
    doc := Assemble(testMeta(), []ExportedType{typ})
    item := doc.Paths["/widget/name"]
    if item == nil || item.Get == nil || item.Post == nil {
        t.Fatalf("GET and POST should coexist on /widget/name: %+v", item)
    }
    // getName and isName both map to GET /widget/name; the later one wins.
    if got := item.Get.Responses["200"].Value.Content["application/json"].Schema.Value.Type; got != "boolean" {
        t.Fatalf("later GET should overwrite, response type = %q", got)
    }
}

func TestAssemble_PluginPaths(t *testing.T) {
    t.Parallel()
    typ := ExportedType{SimpleName: "ProjectInfoAction", Namespace: "project-info", Operations: []ExportedOperation{
        {Identifier: "getProjects", Returns: hosttest.Seq(hosttest.String())},
    }}
    doc := Assemble(testMeta(), []ExportedType{typ})
    if doc.Paths["/project-info/project-info-action/projects"] == nil {
        t.Fatalf("plugin path missing: %v", pathKeys(doc))
    }
}

func TestAssemble_Filters(t *testing.T) {
    t.Parallel()
    doc := Assemble(testMeta(), []ExportedType{widgetType()}, WithExcludeTags([]string{SecuredTag}))
    if doc.Paths["/widget/delete-widget"] != nil {
        t.Fatalf("secured operation should be excluded")
    }
    if doc.Paths["/widget/name"] == nil {
        t.Fatalf("public operation should remain")
    }

    doc = Assemble(testMeta(), []ExportedType{widgetType()}, WithIncludeTags([]string{SecuredTag}))
    if doc.Paths["/widget/name"] != nil || doc.Paths["/widget/delete-widget"] == nil {
        t.Fatalf("include filter mismatch: %v", pathKeys(doc))
    }

    doc = Assemble(testMeta(), []ExportedType{widgetType()}, WithMethods([]HttpMethod{"delete"}))
    if len(doc.Paths) != 1 || doc.Paths["/widget/delete-widget"] == nil {
        t.Fatalf("method filter mismatch: %v", pathKeys(doc))
    }

    doc = Assemble(testMeta(), []ExportedType{widgetType()}, WithPathPatterns([]string{`/name$`, `(`}))
    if len(doc.Paths) != 1 || doc.Paths["/widget/name"] == nil {
        t.Fatalf("path filter mismatch: %v", pathKeys(doc))
    }
}

func TestAssemble_SecuredIsTheOnlyTag(t *testing.T) {
    t.Parallel()
    doc := Assemble(testMeta(), []ExportedType{widgetType()})
    if tags := doc.Paths["/widget/name"].Get.Tags; len(tags) != 0 {
        t.Fatalf("public operation tags = %v", tags)
    }
    tags := doc.Paths["/widget/delete-widget"].Delete.Tags
    if len(tags) != 1 || tags[0] != SecuredTag {
        t.Fatalf("secured operation tags = %v", tags)
    }

    // type names are not tags, so filtering on one keeps nothing
    doc = Assemble(testMeta(), []ExportedType{widgetType()}, WithIncludeTags([]string{"Widget"}))
    if len(doc.Paths) != 0 {
        t.Fatalf("type name used as tag: %v", pathKeys(doc))
    }
    doc = Assemble(testMeta(), []ExportedType{widgetType()}, WithExcludeTags([]string{"Widget"}))
    if len(doc.Paths) != 2 {
        t.Fatalf("exclude on a type name should drop nothing: %v", pathKeys(doc))
    }
}

func TestAssemble_SecuritySchemeDeclared(t *testing.T) {
    t.Parallel()
    doc := Assemble(testMeta(), []ExportedType{widgetType()}, WithSecurityScheme("ci_auth"))
    if doc.Components == nil || doc.Components.SecuritySchemes["ci_auth"] == nil {
        t.Fatalf("security scheme not declared: %+v", doc.Components)
    }
    req := (*doc.Paths["/widget/delete-widget"].Delete.Security)[0]
    if _, ok := req["ci_auth"]; !ok {
        t.Fatalf("requirement = %+v", req)
    }
}

func TestAssemble_RoundTripsThroughLoader(t *testing.T) {
    t.Parallel()
    node := hosttest.NewType(host.Core, "a.Node")
    node.Op("getNext", node.Shape()).
        Op("getTags", hosttest.Map(hosttest.String())).
        Op("getColor", hosttest.Enum("Color", "RED"))
    et, err := Inspect(node)
    if err != nil {
        t.Fatalf("inspect: %v", err)
    }
    doc := Assemble(testMeta(), []ExportedType{et})
    raw, err := json.Marshal(doc)
    if err != nil {
        t.Fatalf("marshal: %v", err)
    }
    loaded, err := openapi3.NewLoader().LoadFromData(raw)
    if err != nil {
        t.Fatalf("reload: %v", err)
    }
    if loaded.Paths["/node/next"] == nil || loaded.Paths["/node/tags"] == nil || loaded.Paths["/node/color"] == nil {
        t.Fatalf("paths lost on reload: %s", raw)
    }
}

func pathKeys(doc *openapi3.T) []string {
    keys := make([]string, 0, len(doc.Paths))
    for k := range doc.Paths {
        keys = append(keys, k)
    }
    return keys
}
