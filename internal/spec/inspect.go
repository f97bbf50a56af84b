package spec

import (
    "fmt"
    "sort"

    "github.com/mark3labs/apiscan/internal/host"
)

// Inspect collects the exported operations of a type, sorted by identifier.
// A failure to list operations is a DiscoveryFailure for that type only.
func Inspect(th host.TypeHandle) (ExportedType, error) {
    if th == nil {
        return ExportedType{}, &ScanError{Code: DiscoveryFailure, Message: "inspect: nil type"}
    }
    et := ExportedType{
        QualifiedName:     th.QualifiedName(),
        SimpleName:        th.SimpleName(),
        Namespace:         th.Namespace(),
        DefaultVisibility: th.DefaultVisibility(),
    }
    if et.Namespace == "" {
        et.Namespace = host.Core
    }

    handles, err := th.Operations()
    if err != nil {
        return et, &ScanError{
            Code:      DiscoveryFailure,
            Message:   fmt.Sprintf("inspect %s: %v", et.QualifiedName, err),
            Namespace: et.Namespace,
            Type:      et.QualifiedName,
            Cause:     err,
        }
    }

    et.Operations = make([]ExportedOperation, 0, len(handles))
    for _, h := range handles {
        if h.Name == "" {
            continue
        }
        vis := h.Visibility
        if vis < 0 {
            vis = 0
        }
        et.Operations = append(et.Operations, ExportedOperation{
            Identifier:   h.Name,
            Returns:      h.Returns,
            Visibility:   vis,
            ExplicitName: h.ExplicitName,
        })
    }
    sort.SliceStable(et.Operations, func(i, j int) bool {
        return et.Operations[i].Identifier < et.Operations[j].Identifier
    })
    return et, nil
}
