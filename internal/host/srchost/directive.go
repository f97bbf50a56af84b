package srchost

import (
	"fmt"
	"go/ast"
	"go/token"
	"strconv"
	"strings"
)

// Directives are line comments in the form:
//
//	//apiscan:bean [visibility=N]
//	//apiscan:export [visibility=N] [name=foo]
//
// bean goes on a type declaration, export on a method of a bean.
const directivePrefix = "//apiscan:"

type directiveKind string

const (
	kindBean   directiveKind = "bean"
	kindExport directiveKind = "export"
)

type directive struct {
	kind       directiveKind
	visibility int
	name       string
	pos        token.Position
}

// parseDirective reads one directive from a comment group. It returns nil
// when the group carries none.
func parseDirective(fset *token.FileSet, cg *ast.CommentGroup) (*directive, error) {
	if cg == nil {
		return nil, nil
	}
	var found *directive
	for _, c := range cg.List {
		if !strings.HasPrefix(c.Text, directivePrefix) {
			continue
		}
		pos := fset.Position(c.Pos())
		parts := strings.Fields(strings.TrimPrefix(c.Text, directivePrefix))
		if len(parts) == 0 {
			return nil, fmt.Errorf("%s: empty %s directive", pos, directivePrefix)
		}
		if found != nil {
			return nil, fmt.Errorf("%s: multiple apiscan directives on one declaration", pos)
		}
		d := &directive{kind: directiveKind(parts[0]), pos: pos}
		switch d.kind {
		case kindBean, kindExport:
		default:
			return nil, fmt.Errorf("%s: unknown directive %s%s", pos, directivePrefix, parts[0])
		}
		for _, arg := range parts[1:] {
			key, value, ok := strings.Cut(arg, "=")
			if !ok || value == "" {
				return nil, fmt.Errorf("%s: malformed argument %q", pos, arg)
			}
			switch key {
			case "visibility":
				n, err := strconv.Atoi(value)
				if err != nil || n < 0 {
					return nil, fmt.Errorf("%s: visibility must be a non-negative integer, got %q", pos, value)
				}
				d.visibility = n
			case "name":
				if d.kind != kindExport {
					return nil, fmt.Errorf("%s: name is only valid on %s%s", pos, directivePrefix, kindExport)
				}
				d.name = value
			default:
				return nil, fmt.Errorf("%s: unknown argument %q", pos, key)
			}
		}
		found = d
	}
	return found, nil
}
