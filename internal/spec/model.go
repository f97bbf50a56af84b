package spec

import "github.com/mark3labs/apiscan/internal/host"

// Model types rebuilt on every scan and never persisted.

type HttpMethod string

const (
    GET    HttpMethod = "GET"
    POST   HttpMethod = "POST"
    PUT    HttpMethod = "PUT"
    DELETE HttpMethod = "DELETE"
)

type ExportedType struct {
    QualifiedName     string
    SimpleName        string
    Namespace         string // host.Core or a plugin id
    DefaultVisibility int
    Operations        []ExportedOperation
}

// Core reports whether the type belongs to the host rather than a plugin.
func (t ExportedType) Core() bool {
    return t.Namespace == "" || t.Namespace == host.Core
}

type ExportedOperation struct {
    Identifier   string
    Returns      host.Shape // nil for operations without a result
    Visibility   int
    ExplicitName string
}

// Secured reports whether the operation needs a security requirement.
func (o ExportedOperation) Secured() bool { return o.Visibility > 0 }

// Meta is the document-level information passed to Assemble.
type Meta struct {
    Title             string
    Description       string
    Version           string
    ServerURL         string
    ServerDescription string
}
