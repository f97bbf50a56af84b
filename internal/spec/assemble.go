package spec

import (
    "fmt"
    "regexp"
    "strings"

    "github.com/getkin/kin-openapi/openapi3"
    "github.com/mark3labs/apiscan/internal/host"
)

const (
    // DefaultSecurityScheme names the scheme referenced by secured operations.
    DefaultSecurityScheme = "host_auth"
    // SecuredTag is attached to every operation with visibility above zero.
    SecuredTag = "secured"

    openAPIVersion = "3.0.1"
)

// BuildOption configures how exported types are folded into a document.
type BuildOption func(*buildConfig)

type buildConfig struct {
    includeTags    map[string]struct{}
    excludeTags    map[string]struct{}
    methods        map[HttpMethod]struct{}
    pathRes        []*regexp.Regexp
    securityScheme string
    wrapper        bool
}

// WithIncludeTags keeps only operations that have at least one of the given tags.
func WithIncludeTags(tags []string) BuildOption {
    return func(c *buildConfig) {
        if len(tags) == 0 {
            return
        }
        if c.includeTags == nil {
            c.includeTags = make(map[string]struct{}, len(tags))
        }
        for _, t := range tags {
            t = strings.TrimSpace(t)
            if t == "" {
                continue
            }
            c.includeTags[t] = struct{}{}
        }
    }
}

// WithExcludeTags drops operations that have any of the given tags.
func WithExcludeTags(tags []string) BuildOption {
    return func(c *buildConfig) {
        if len(tags) == 0 {
            return
        }
        if c.excludeTags == nil {
            c.excludeTags = make(map[string]struct{}, len(tags))
        }
        for _, t := range tags {
            t = strings.TrimSpace(t)
            if t == "" {
                continue
            }
            c.excludeTags[t] = struct{}{}
        }
    }
}

// WithMethods keeps only operations classified as one of the given methods.
func WithMethods(methods []HttpMethod) BuildOption {
    return func(c *buildConfig) {
        if len(methods) == 0 {
            return
        }
        if c.methods == nil {
            c.methods = make(map[HttpMethod]struct{}, len(methods))
        }
        for _, m := range methods {
            c.methods[HttpMethod(strings.ToUpper(string(m)))] = struct{}{}
        }
    }
}

// WithPathPatterns keeps only operations whose path matches at least one of
// the provided regular expressions. An invalid pattern matches nothing.
func WithPathPatterns(patterns []string) BuildOption {
    return func(c *buildConfig) {
        for _, p := range patterns {
            p = strings.TrimSpace(p)
            if p == "" {
                continue
            }
            re, err := regexp.Compile(p)
            if err != nil {
                re = regexp.MustCompile("a^$")
            }
            c.pathRes = append(c.pathRes, re)
        }
    }
}

// WithSecurityScheme renames the security scheme secured operations reference.
func WithSecurityScheme(name string) BuildOption {
    return func(c *buildConfig) {
        if name = strings.TrimSpace(name); name != "" {
            c.securityScheme = name
        }
    }
}

// WithWrapperParameter adds the "wrapper" query parameter to operations that
// return something other than a plain scalar.
func WithWrapperParameter(enabled bool) BuildOption {
    return func(c *buildConfig) { c.wrapper = enabled }
}

// Assembler folds exported types into one OpenAPI document. Each assembler
// owns its schema cache. It is not safe for concurrent use.
type Assembler struct {
    cfg   buildConfig
    synth *Synthesizer
    doc   *openapi3.T
    ops   int
}

// NewAssembler starts a document with the info block and the single server
// taken from meta.
func NewAssembler(meta Meta, opts ...BuildOption) *Assembler {
    cfg := buildConfig{securityScheme: DefaultSecurityScheme}
    for _, opt := range opts {
        opt(&cfg)
    }

    doc := &openapi3.T{
        OpenAPI: openAPIVersion,
        Info: &openapi3.Info{
            Title:       meta.Title,
            Description: meta.Description,
            Version:     meta.Version,
        },
        Servers: openapi3.Servers{
            &openapi3.Server{URL: meta.ServerURL, Description: meta.ServerDescription},
        },
        Paths: openapi3.Paths{},
        Components: &openapi3.Components{
            SecuritySchemes: openapi3.SecuritySchemes{
                cfg.securityScheme: &openapi3.SecuritySchemeRef{
                    Value: &openapi3.SecurityScheme{Type: "http", Scheme: "basic"},
                },
            },
        },
    }
    return &Assembler{cfg: cfg, synth: NewSynthesizer(nil), doc: doc}
}

// Add merges every operation of t into the path table. The same path and
// verb overwrite an earlier entry; different verbs on a path coexist.
func (a *Assembler) Add(t ExportedType) {
    for _, op := range t.Operations {
        path := OperationPath(t, op)
        verb := ClassifyVerb(op.Identifier)
        if !a.allowed(path, verb, op) {
            continue
        }
        a.doc.AddOperation(path, string(verb), a.operation(op))
        a.ops++
    }
}

// Document returns the document built so far.
func (a *Assembler) Document() *openapi3.T { return a.doc }

// Operations counts the operations merged so far, overwrites included.
func (a *Assembler) Operations() int { return a.ops }

// Diagnostics returns failures recovered while synthesizing schemas.
func (a *Assembler) Diagnostics() []Diagnostic { return a.synth.Diagnostics() }

// Assemble builds a complete document from types in one call.
func Assemble(meta Meta, types []ExportedType, opts ...BuildOption) *openapi3.T {
    a := NewAssembler(meta, opts...)
    for _, t := range types {
        a.Add(t)
    }
    return a.Document()
}

func (a *Assembler) operation(op ExportedOperation) *openapi3.Operation {
    title := Title(op.Identifier)
    desc := fmt.Sprintf("REST API endpoint for %s (Visibility: %d)", title, op.Visibility)
    void := op.Returns == nil || op.Returns.Kind() == host.KindVoid
    if !void {
        desc += "\n\nReturns: " + op.Returns.Name()
    }

    o := &openapi3.Operation{
        Summary:     "Get " + title,
        Description: desc,
        Parameters:  standardParameters(),
        Responses:   make(openapi3.Responses),
    }
    if a.cfg.wrapper && !void && !op.Returns.Kind().Scalar() {
        o.Parameters = append(o.Parameters, &openapi3.ParameterRef{
            Value: openapi3.NewQueryParameter("wrapper").
                WithDescription("Wrap the response in a specific element").
                WithSchema(openapi3.NewStringSchema()),
        })
    }

    ok := openapi3.NewResponse().WithDescription("Successful Response")
    if !void {
        ok = ok.WithJSONSchema(ToSchema(a.synth.Synthesize(op.Returns, 0)))
    }
    o.Responses["200"] = &openapi3.ResponseRef{Value: ok}
    o.Responses["401"] = &openapi3.ResponseRef{Value: openapi3.NewResponse().WithDescription("Authentication Error")}
    o.Responses["404"] = &openapi3.ResponseRef{Value: openapi3.NewResponse().WithDescription("Resource Not Found")}

    if op.Secured() {
        o.Security = &openapi3.SecurityRequirements{
            openapi3.NewSecurityRequirement().Authenticate(a.cfg.securityScheme),
        }
        o.Tags = append(o.Tags, SecuredTag)
    }
    return o
}

// standardParameters are the two query parameters every operation accepts:
// a recursion depth and a field selection expression.
func standardParameters() openapi3.Parameters {
    depth := openapi3.NewIntegerSchema()
    depth.Example = 0
    return openapi3.Parameters{
        &openapi3.ParameterRef{Value: openapi3.NewQueryParameter("depth").
            WithDescription("Recursion depth for nested objects").
            WithSchema(depth)},
        &openapi3.ParameterRef{Value: openapi3.NewQueryParameter("tree").
            WithDescription("Specify which fields to include using dot notation (e.g. jobs[name,url])").
            WithSchema(openapi3.NewStringSchema())},
    }
}

func (a *Assembler) allowed(path string, verb HttpMethod, op ExportedOperation) bool {
    if len(a.cfg.methods) > 0 {
        if _, ok := a.cfg.methods[verb]; !ok {
            return false
        }
    }
    if len(a.cfg.pathRes) > 0 {
        matched := false
        for _, re := range a.cfg.pathRes {
            if re.MatchString(path) {
                matched = true
                break
            }
        }
        if !matched {
            return false
        }
    }
    var tags []string
    if op.Secured() {
        tags = []string{SecuredTag}
    }
    return allowByTags(tags, &a.cfg)
}

func allowByTags(tags []string, cfg *buildConfig) bool {
    hasInclude := len(cfg.includeTags) > 0
    if hasInclude {
        ok := false
        for _, t := range tags {
            if _, yes := cfg.includeTags[t]; yes {
                ok = true
                break
            }
        }
        if !ok {
            return false
        }
    }
    if len(cfg.excludeTags) > 0 {
        for _, t := range tags {
            if _, blocked := cfg.excludeTags[t]; blocked {
                return false
            }
        }
    }
    return true
}
