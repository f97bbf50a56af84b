package spec

import (
    "errors"
    "fmt"
)

// ErrorCode categorizes scan errors for clearer handling and messaging.
type ErrorCode string

const (
    // DiscoveryFailure: a candidate type failed to load or introspect. The type is skipped.
    DiscoveryFailure ErrorCode = "DiscoveryFailure"
    // UnknownShape: a return shape matched no known kind and became a generic object.
    UnknownShape ErrorCode = "UnknownShape"
    // RegistryMiss: the requested namespace or version does not exist.
    RegistryMiss ErrorCode = "RegistryMiss"
    // TotalScanFailure: the discovery mechanism itself failed and the fallback list was used.
    TotalScanFailure ErrorCode = "TotalScanFailure"
    // InputError: the caller passed a malformed request.
    InputError ErrorCode = "InputError"
)

// ErrNotFound is matched by every RegistryMiss error.
var ErrNotFound = errors.New("not found")

// ScanError is a structured error with the namespace and type it concerns.
type ScanError struct {
    Code      ErrorCode
    Message   string
    Namespace string
    Type      string // qualified type name, when known
    Cause     error
}

func (e *ScanError) Error() string { return e.Message }
func (e *ScanError) Unwrap() error { return e.Cause }

// Is lets errors.Is(err, ErrNotFound) match registry misses.
func (e *ScanError) Is(target error) bool {
    return target == ErrNotFound && e.Code == RegistryMiss
}

// NotFound builds a RegistryMiss error.
func NotFound(namespace, format string, args ...any) *ScanError {
    return &ScanError{Code: RegistryMiss, Namespace: namespace, Message: fmt.Sprintf(format, args...)}
}

// Diagnostic records a recovered failure. Scans collect these instead of failing.
type Diagnostic struct {
    Code      ErrorCode
    Namespace string
    Type      string
    Message   string
}

func (d Diagnostic) String() string {
    if d.Type != "" {
        return fmt.Sprintf("%s: %s (%s)", d.Code, d.Message, d.Type)
    }
    return fmt.Sprintf("%s: %s", d.Code, d.Message)
}
