package spec

import (
    "encoding/json"
    "errors"
    "strings"
    "testing"

    "github.com/mark3labs/apiscan/internal/host"
    "github.com/mark3labs/apiscan/internal/host/hosttest"
)

func TestSynthesize_Leaves(t *testing.T) {
    t.Parallel()
    s := NewSynthesizer(nil)
    cases := []struct {
        shape  host.Shape
        kind   NodeKind
        format string
    }{
        {hosttest.String(), NodeString, ""},
        {hosttest.Bool(), NodeBoolean, ""},
        {hosttest.Int32(), NodeNumber, "int32"},
        {hosttest.Int64(), NodeNumber, "int64"},
        {hosttest.Float32(), NodeNumber, "float"},
        {hosttest.Float64(), NodeNumber, "double"},
        {hosttest.Primitive("complex128"), NodePrimitive, ""},
    }
    for _, tc := range cases {
        n := s.Synthesize(tc.shape, 0)
        if n.Kind != tc.kind || n.Format != tc.format {
            t.Errorf("%s: got %s/%q, want %s/%q", tc.shape.Name(), n.Kind, n.Format, tc.kind, tc.format)
        }
    }
}

func TestSynthesize_Containers(t *testing.T) {
    t.Parallel()
    s := NewSynthesizer(nil)

    arr := s.Synthesize(hosttest.Seq(hosttest.Int64()), 0)
    if arr.Kind != NodeArray || arr.Items == nil || arr.Items.Format != "int64" {
        t.Fatalf("sequence: %+v", arr)
    }
    unknownElem := s.Synthesize(hosttest.Seq(nil), 0)
    if unknownElem.Items == nil || unknownElem.Items.Kind != NodeObject {
        t.Fatalf("sequence of unknown: %+v", unknownElem)
    }

    m := s.Synthesize(hosttest.Map(hosttest.String()), 0)
    if m.Kind != NodeMap || m.Additional == nil || m.Additional.Kind != NodeString {
        t.Fatalf("map: %+v", m)
    }
    generic := s.Synthesize(hosttest.Map(nil), 0)
    if generic.Additional == nil || generic.Additional.Kind != NodeObject {
        t.Fatalf("map of unknown: %+v", generic)
    }

    e := s.Synthesize(hosttest.Enum("BallColor", "BLUE", "RED"), 0)
    if e.Kind != NodeEnum || e.Description != "Enum: BallColor" {
        t.Fatalf("enum: %+v", e)
    }
    if len(e.Values) != 2 || e.Values[0] != "BLUE" {
        t.Fatalf("enum values: %v", e.Values)
    }
}

func TestSynthesize_DepthBound(t *testing.T) {
    t.Parallel()
    s := NewSynthesizer(nil)
    shapes := []host.Shape{
        hosttest.String(),
        hosttest.Seq(hosttest.String()),
        hosttest.Map(hosttest.Int32()),
        hosttest.NewType("core", "a.Widget").Shape(),
        nil,
    }
    for _, depth := range []int{4, 5, 100} {
        for _, shape := range shapes {
            n := s.Synthesize(shape, depth)
            if n.Kind != NodeTruncated {
                t.Fatalf("depth %d: got %s, want truncated", depth, n.Kind)
            }
        }
    }
    if n := s.Synthesize(hosttest.String(), MaxDepth); n.Kind != NodeString {
        t.Fatalf("depth %d should still expand, got %s", MaxDepth, n.Kind)
    }
}

func TestSynthesize_UnknownShape(t *testing.T) {
    t.Parallel()
    s := NewSynthesizer(nil)
    n := s.Synthesize(hosttest.Unknown("chan int"), 0)
    if n.Kind != NodeObject || len(n.Properties) != 0 {
        t.Fatalf("unknown: %+v", n)
    }
    diags := s.Diagnostics()
    if len(diags) != 1 || diags[0].Code != UnknownShape {
        t.Fatalf("expected one UnknownShape diagnostic, got %v", diags)
    }
}

func TestSynthesize_Bean(t *testing.T) {
    t.Parallel()
    widget := hosttest.NewType("core", "a.Widget")
    widget.Visibility = 2
    widget.Op("getName", hosttest.String()).
        Op("isEnabled", hosttest.Bool()).
        With(host.OperationHandle{Name: "getId", Returns: hosttest.Int64(), ExplicitName: "identifier"})

    n := NewSynthesizer(nil).Synthesize(widget.Shape(), 0)
    if n.Kind != NodeObject || n.Description != "Bean: 2" {
        t.Fatalf("bean node: %+v", n)
    }
    want := []string{"enabled", "identifier", "name"}
    got := n.PropertyNames()
    if strings.Join(got, ",") != strings.Join(want, ",") {
        t.Fatalf("properties = %v, want %v", got, want)
    }
}

func TestSynthesize_PlainStructHasNoProperties(t *testing.T) {
    t.Parallel()
    n := NewSynthesizer(nil).Synthesize(hosttest.Struct("time.Time"), 0)
    if n.Kind != NodeObject || len(n.Properties) != 0 || n.Description != "" {
        t.Fatalf("plain struct: %+v", n)
    }
}

func TestSynthesize_OperationsErrorIsRecorded(t *testing.T) {
    t.Parallel()
    broken := hosttest.NewType("core", "a.Broken")
    broken.OpsErr = errors.New("boom")
    s := NewSynthesizer(nil)
    n := s.Synthesize(broken.Shape(), 0)
    if n.Kind != NodeObject {
        t.Fatalf("broken bean: %+v", n)
    }
    diags := s.Diagnostics()
    if len(diags) != 1 || diags[0].Code != DiscoveryFailure {
        t.Fatalf("diagnostics: %v", diags)
    }
}

func TestSynthesize_SelfReferenceTerminates(t *testing.T) {
    t.Parallel()
    node := hosttest.NewType("core", "a.Node")
    node.Op("getNext", node.Shape()).Op("getValue", hosttest.String())

    root := NewSynthesizer(nil).Synthesize(node.Shape(), 0)

    cur := root
    for depth := 0; depth <= MaxDepth; depth++ {
        if cur.Kind != NodeObject {
            t.Fatalf("depth %d: got %s, want object", depth, cur.Kind)
        }
        if cur.Property("value") == nil {
            t.Fatalf("depth %d: missing value property", depth)
        }
        cur = cur.Property("next")
    }
    if cur == nil || cur.Kind != NodeTruncated {
        t.Fatalf("next below depth %d should be truncated, got %+v", MaxDepth, cur)
    }
    if cur.Description != "Recursion limit reached - object details omitted" {
        t.Fatalf("truncated description = %q", cur.Description)
    }

    // The converted schema must serialize, i.e. contain no cycles.
    if _, err := json.Marshal(ToSchema(root)); err != nil {
        t.Fatalf("marshal: %v", err)
    }
}

func TestSynthesize_MutualRecursion(t *testing.T) {
    t.Parallel()
    job := hosttest.NewType("core", "a.Job")
    run := hosttest.NewType("core", "a.Run")
    job.Op("getLastBuild", run.Shape()).Op("getBuilds", hosttest.Seq(run.Shape()))
    run.Op("getParent", job.Shape())

    root := NewSynthesizer(nil).Synthesize(job.Shape(), 0)
    if _, err := json.Marshal(ToSchema(root)); err != nil {
        t.Fatalf("marshal: %v", err)
    }
    parent := root.Property("lastBuild").Property("parent")
    if parent == nil || parent.Kind != NodeObject {
        t.Fatalf("lastBuild.parent: %+v", parent)
    }
}

func TestCache_PlaceholderRegisteredBeforeFill(t *testing.T) {
    t.Parallel()
    cache := NewCache()
    s := NewSynthesizer(cache)

    var seen *Node
    spy := &spyShape{onOps: func() {
        seen, _ = cache.lookup("a.Spy", 0)
    }}
    n := s.Synthesize(spy, 0)
    if seen == nil {
        t.Fatalf("placeholder was not indexed before operations were listed")
    }
    if seen != n {
        t.Fatalf("placeholder and final node differ")
    }
}

func TestCache_SharedWithinDepth(t *testing.T) {
    t.Parallel()
    widget := hosttest.NewType("core", "a.Widget").Op("getName", hosttest.String())
    cache := NewCache()
    s := NewSynthesizer(cache)
    a := s.Synthesize(widget.Shape(), 1)
    b := s.Synthesize(widget.Shape(), 1)
    if a != b {
        t.Fatalf("expected cache hit for the same type and depth")
    }
    if c := s.Synthesize(widget.Shape(), 2); c == a {
        t.Fatalf("different depths must not share a node")
    }
    if cache.Len() != 2 {
        t.Fatalf("cache len = %d, want 2", cache.Len())
    }
}

// spyShape is a marked composite that calls onOps when its operations are listed.
type spyShape struct{ onOps func() }

func (p *spyShape) Kind() host.Kind               { return host.KindComposite }
func (p *spyShape) Name() string                  { return "Spy" }
func (p *spyShape) ID() string                    { return "a.Spy" }
func (p *spyShape) Elem() host.Shape              { return nil }
func (p *spyShape) EnumValues() []string          { return nil }
func (p *spyShape) Bean() (host.TypeHandle, bool) { return p, true }
func (p *spyShape) QualifiedName() string         { return "a.Spy" }
func (p *spyShape) SimpleName() string            { return "Spy" }
func (p *spyShape) Namespace() string             { return "core" }
func (p *spyShape) DefaultVisibility() int        { return 0 }
func (p *spyShape) Operations() ([]host.OperationHandle, error) {
    p.onOps()
    return []host.OperationHandle{{Name: "getSelf", Returns: p}}, nil
}
