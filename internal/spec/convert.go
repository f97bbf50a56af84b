package spec

import "github.com/getkin/kin-openapi/openapi3"

// ToSchema converts a node graph into a kin-openapi schema. A node reached
// twice is converted once and shared. A node reached again while it is still
// being converted becomes a truncated object, so the result is always finite.
func ToSchema(n *Node) *openapi3.Schema {
    c := &converter{
        memo:     make(map[*Node]*openapi3.Schema),
        visiting: make(map[*Node]bool),
    }
    return c.convert(n)
}

type converter struct {
    memo     map[*Node]*openapi3.Schema
    visiting map[*Node]bool
}

func (c *converter) convert(n *Node) *openapi3.Schema {
    if n == nil {
        return openapi3.NewObjectSchema()
    }
    if s, ok := c.memo[n]; ok {
        return s
    }
    if c.visiting[n] {
        return truncatedSchema()
    }
    c.visiting[n] = true
    defer delete(c.visiting, n)

    var s *openapi3.Schema
    switch n.Kind {
    case NodeString:
        s = openapi3.NewStringSchema()
    case NodeBoolean:
        s = openapi3.NewBoolSchema()
    case NodeNumber:
        s = &openapi3.Schema{Type: "number", Format: n.Format}
    case NodeArray:
        s = openapi3.NewArraySchema()
        s.Items = openapi3.NewSchemaRef("", c.convert(n.Items))
    case NodeMap:
        s = openapi3.NewObjectSchema().WithAdditionalProperties(c.convert(n.Additional))
    case NodeEnum:
        s = openapi3.NewStringSchema()
        s.Description = n.Description
        if len(n.Values) > 0 {
            s.Extensions = map[string]interface{}{"x-enum-values": append([]string(nil), n.Values...)}
        }
    case NodeTruncated:
        s = truncatedSchema()
    default:
        s = openapi3.NewObjectSchema()
        s.Description = n.Description
        for _, name := range n.PropertyNames() {
            s.Properties[name] = openapi3.NewSchemaRef("", c.convert(n.Properties[name]))
        }
    }
    c.memo[n] = s
    return s
}

func truncatedSchema() *openapi3.Schema {
    s := openapi3.NewObjectSchema()
    s.Description = truncatedDescription
    return s
}
