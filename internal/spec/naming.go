package spec

import (
    "regexp"
    "strings"
    "unicode"
    "unicode/utf8"
)

var camelBoundary = regexp.MustCompile(`([a-z])([A-Z])`)

// Decamelize inserts sep at every lower→upper letter boundary.
func Decamelize(name, sep string) string {
    return camelBoundary.ReplaceAllString(name, "${1}"+sep+"${2}")
}

type accessor int

const (
    plainAccessor accessor = iota
    getAccessor
    isAccessor
)

// splitAccessor strips a leading "get" or "is" from an operation identifier.
// The returned remainder keeps its original casing.
func splitAccessor(identifier string) (string, accessor) {
    switch {
    case strings.HasPrefix(identifier, "get") && len(identifier) > 3:
        return identifier[3:], getAccessor
    case strings.HasPrefix(identifier, "is") && len(identifier) > 2:
        return identifier[2:], isAccessor
    }
    return identifier, plainAccessor
}

func lowerFirst(s string) string {
    r, size := utf8.DecodeRuneInString(s)
    if r == utf8.RuneError {
        return s
    }
    return string(unicode.ToLower(r)) + s[size:]
}

// PropertyName is the schema property name for an operation: accessors lose
// their prefix, everything else is used as is. explicit wins when set.
func PropertyName(identifier, explicit string) string {
    if explicit = strings.TrimSpace(explicit); explicit != "" {
        return explicit
    }
    rest, kind := splitAccessor(identifier)
    if kind == plainAccessor {
        return identifier
    }
    return lowerFirst(rest)
}

// PathSegment is the last path element for an operation. Accessors lose
// their prefix; other identifiers are hyphenated and lower-cased.
func PathSegment(identifier, explicit string) string {
    if explicit = strings.TrimSpace(explicit); explicit != "" {
        return explicit
    }
    rest, kind := splitAccessor(identifier)
    if kind == plainAccessor {
        return strings.ToLower(Decamelize(identifier, "-"))
    }
    return lowerFirst(rest)
}

// Title is the human readable form of an identifier: "getFullName" is
// "Full Name", "isBuildable" is "Is Buildable".
func Title(identifier string) string {
    rest, kind := splitAccessor(identifier)
    switch kind {
    case getAccessor:
        return Decamelize(rest, " ")
    case isAccessor:
        return "Is " + Decamelize(rest, " ")
    }
    return Decamelize(identifier, " ")
}

// Verb prefixes are matched in order against the lower-cased identifier.
var verbPrefixes = []struct {
    method   HttpMethod
    prefixes []string
}{
    {POST, []string{"set", "create", "add", "submit", "update", "save", "modify"}},
    {DELETE, []string{"delete", "remove", "clear"}},
    {PUT, []string{"replace"}},
}

// ClassifyVerb maps an operation identifier to an HTTP method by prefix.
// Anything unmatched, including the empty identifier, is GET. The heuristic
// is deliberately literal: "updateStatus" is POST even when it only reads.
func ClassifyVerb(identifier string) HttpMethod {
    lowered := strings.ToLower(identifier)
    for _, group := range verbPrefixes {
        for _, p := range group.prefixes {
            if strings.HasPrefix(lowered, p) {
                return group.method
            }
        }
    }
    return GET
}

// TypeSegment is the path element for a type's simple name.
func TypeSegment(simpleName string) string {
    return strings.ToLower(Decamelize(simpleName, "-"))
}

// CorePath is the path of an operation on a host-owned type.
func CorePath(typeName, segment string) string {
    return "/" + TypeSegment(typeName) + "/" + segment
}

// PluginPath is the path of an operation on a plugin-owned type.
func PluginPath(pluginID, typeName, segment string) string {
    return "/" + pluginID + "/" + TypeSegment(typeName) + "/" + segment
}

// OperationPath picks CorePath or PluginPath for op on t.
func OperationPath(t ExportedType, op ExportedOperation) string {
    seg := PathSegment(op.Identifier, op.ExplicitName)
    if t.Core() {
        return CorePath(t.SimpleName, seg)
    }
    return PluginPath(t.Namespace, t.SimpleName, seg)
}
