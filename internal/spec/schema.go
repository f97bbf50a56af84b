package spec

import (
    "fmt"
    "sort"

    "github.com/mark3labs/apiscan/internal/host"
)

// MaxDepth is the deepest level at which a schema node is still expanded.
// Anything synthesized below it is a truncated terminal node.
const MaxDepth = 3

const (
    truncatedDescription = "Recursion limit reached - object details omitted"
)

type NodeKind string

const (
    NodePrimitive NodeKind = "primitive"
    NodeString    NodeKind = "string"
    NodeBoolean   NodeKind = "boolean"
    NodeNumber    NodeKind = "number"
    NodeArray     NodeKind = "array"
    NodeMap       NodeKind = "map"
    NodeEnum      NodeKind = "enum"
    NodeObject    NodeKind = "object"
    NodeTruncated NodeKind = "truncated"
)

// Node is the structural description of a shape.
type Node struct {
    Kind        NodeKind
    Format      string // int32, int64, float, double for numbers
    Name        string // display name of the source type
    Description string
    Items       *Node            // arrays
    Additional  *Node            // maps
    Properties  map[string]*Node // objects
    Values      []string         // enum members
}

// PropertyNames returns the object's property names in sorted order.
func (n *Node) PropertyNames() []string {
    names := make([]string, 0, len(n.Properties))
    for name := range n.Properties {
        names = append(names, name)
    }
    sort.Strings(names)
    return names
}

// Property is a nil-safe property lookup.
func (n *Node) Property(name string) *Node {
    if n == nil {
        return nil
    }
    return n.Properties[name]
}

func genericObject() *Node { return &Node{Kind: NodeObject} }

type cacheKey struct {
    id    string
    depth int
}

// Cache holds the composite nodes of one scan session. Nodes are indexed as
// soon as they are allocated and filled in place afterwards, so the cache must
// only be used from the goroutine running the scan.
type Cache struct {
    arena []*Node
    index map[cacheKey]int
}

func NewCache() *Cache {
    return &Cache{index: make(map[cacheKey]int)}
}

func (c *Cache) lookup(id string, depth int) (*Node, bool) {
    i, ok := c.index[cacheKey{id: id, depth: depth}]
    if !ok {
        return nil, false
    }
    return c.arena[i], true
}

// reserve allocates an empty object node and indexes it before any of its
// properties exist.
func (c *Cache) reserve(id string, depth int) *Node {
    n := &Node{Kind: NodeObject, Properties: map[string]*Node{}}
    c.arena = append(c.arena, n)
    c.index[cacheKey{id: id, depth: depth}] = len(c.arena) - 1
    return n
}

// Len is the number of composite nodes allocated so far.
func (c *Cache) Len() int { return len(c.arena) }

// Synthesizer turns shapes into schema nodes for one scan session.
type Synthesizer struct {
    cache *Cache
    diags []Diagnostic
}

// NewSynthesizer uses cache, or a fresh one when cache is nil.
func NewSynthesizer(cache *Cache) *Synthesizer {
    if cache == nil {
        cache = NewCache()
    }
    return &Synthesizer{cache: cache}
}

// Diagnostics returns the recovered failures seen so far.
func (s *Synthesizer) Diagnostics() []Diagnostic {
    return append([]Diagnostic(nil), s.diags...)
}

// Synthesize describes shape as seen depth levels below the document root.
// A nil shape is treated as unknown.
func (s *Synthesizer) Synthesize(shape host.Shape, depth int) *Node {
    if depth > MaxDepth {
        return &Node{Kind: NodeTruncated, Description: truncatedDescription}
    }
    if shape == nil {
        return genericObject()
    }

    switch shape.Kind() {
    case host.KindString:
        return &Node{Kind: NodeString, Name: shape.Name()}
    case host.KindBool:
        return &Node{Kind: NodeBoolean, Name: shape.Name()}
    case host.KindInt32:
        return &Node{Kind: NodeNumber, Format: "int32", Name: shape.Name()}
    case host.KindInt64:
        return &Node{Kind: NodeNumber, Format: "int64", Name: shape.Name()}
    case host.KindFloat32:
        return &Node{Kind: NodeNumber, Format: "float", Name: shape.Name()}
    case host.KindFloat64:
        return &Node{Kind: NodeNumber, Format: "double", Name: shape.Name()}
    case host.KindPrimitive, host.KindVoid:
        return &Node{Kind: NodePrimitive, Name: shape.Name()}
    case host.KindSequence:
        n := &Node{Kind: NodeArray, Name: shape.Name()}
        if elem := shape.Elem(); elem != nil {
            n.Items = s.Synthesize(elem, depth+1)
        } else {
            n.Items = genericObject()
        }
        return n
    case host.KindMap:
        n := &Node{Kind: NodeMap, Name: shape.Name()}
        if val := shape.Elem(); val != nil {
            n.Additional = s.Synthesize(val, depth+1)
        } else {
            n.Additional = genericObject()
        }
        return n
    case host.KindEnum:
        values := shape.EnumValues()
        return &Node{
            Kind:        NodeEnum,
            Name:        shape.Name(),
            Description: "Enum: " + shape.Name(),
            Values:      values,
        }
    case host.KindComposite:
        return s.composite(shape, depth)
    }

    s.diags = append(s.diags, Diagnostic{
        Code:    UnknownShape,
        Type:    shape.Name(),
        Message: fmt.Sprintf("unrecognized shape %q treated as object", shape.Name()),
    })
    return genericObject()
}

func (s *Synthesizer) composite(shape host.Shape, depth int) *Node {
    id := shape.ID()
    if n, ok := s.cache.lookup(id, depth); ok {
        return n
    }
    n := s.cache.reserve(id, depth)
    n.Name = shape.Name()

    th, ok := shape.Bean()
    if !ok || th == nil {
        return n
    }
    n.Description = fmt.Sprintf("Bean: %d", th.DefaultVisibility())

    et, err := Inspect(th)
    if err != nil {
        s.diags = append(s.diags, Diagnostic{
            Code:      DiscoveryFailure,
            Namespace: et.Namespace,
            Type:      et.QualifiedName,
            Message:   err.Error(),
        })
        return n
    }
    for _, op := range et.Operations {
        n.Properties[PropertyName(op.Identifier, op.ExplicitName)] = s.Synthesize(op.Returns, depth+1)
    }
    return n
}
