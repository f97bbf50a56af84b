// Package srchost describes a host from Go source. Types marked with
// //apiscan:bean and their //apiscan:export methods are the exported API
// surface; shapes come from go/types.
package srchost

import (
	"context"
	"errors"
	"fmt"
	"go/ast"
	"go/token"
	"go/types"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/go-playground/validator/v10"
	"github.com/mark3labs/apiscan/internal/host"
	"golang.org/x/tools/go/packages"
)

// DefaultProduct names the host when the config does not.
const DefaultProduct = "Go"

var validate = validator.New()

// Plugin configures an extension whose types live in Packages.
type Plugin struct {
	ID          string `validate:"required"`
	DisplayName string
	Version     string
	Active      bool
	Packages    []string `validate:"dive,required"`
	// Main is the entry type used as the discovery fallback.
	Main string
}

// Config selects the packages to load and describes the host around them.
type Config struct {
	// Dir is the working directory for package patterns. Empty means the
	// current directory.
	Dir      string
	Patterns []string `validate:"min=1,dive,required"`
	Product  string
	BaseURL  string
	Plugins  []Plugin `validate:"dive"`
	// WellKnown maps a namespace to the qualified type names used when
	// discovery finds nothing.
	WellKnown map[string][]string
}

// Option configures a Host.
type Option func(*Host)

func WithLogger(l *log.Logger) Option {
	return func(h *Host) {
		if l != nil {
			h.logger = l
		}
	}
}

// Host is a host.Host built from loaded packages. Only the enum cache
// changes after Open.
type Host struct {
	cfg     Config
	plugins []host.Plugin
	logger  *log.Logger
	beans   map[*types.TypeName]*bean
	byName  map[string]*bean
	order   []*bean

	mu    sync.Mutex
	enums map[*types.TypeName][]string
}

type bean struct {
	obj        *types.TypeName
	ns         string
	visibility int
	exports    []export
}

func (b *bean) qualified() string { return b.obj.Pkg().Path() + "." + b.obj.Name() }

type export struct {
	method     string
	visibility int
	name       string
}

var errorType = types.Universe.Lookup("error").Type()

// Open loads the configured packages and collects their directives.
func Open(ctx context.Context, cfg Config, opts ...Option) (*Host, error) {
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("srchost: invalid config: %w", err)
	}
	h := &Host{
		cfg:    cfg,
		logger: log.Default(),
		beans:  make(map[*types.TypeName]*bean),
		byName: make(map[string]*bean),
		enums:  make(map[*types.TypeName][]string),
	}
	for _, opt := range opts {
		opt(h)
	}
	for _, p := range cfg.Plugins {
		h.plugins = append(h.plugins, host.Plugin{
			ID:          strings.TrimSpace(p.ID),
			DisplayName: p.DisplayName,
			Version:     p.Version,
			Active:      p.Active,
			Packages:    append([]string(nil), p.Packages...),
			Main:        p.Main,
		})
	}
	sort.Slice(h.plugins, func(i, j int) bool { return h.plugins[i].ID < h.plugins[j].ID })

	pcfg := &packages.Config{
		Context: ctx,
		Dir:     cfg.Dir,
		Mode: packages.NeedName |
			packages.NeedFiles |
			packages.NeedImports |
			packages.NeedTypes |
			packages.NeedSyntax |
			packages.NeedTypesInfo,
	}
	pkgs, err := packages.Load(pcfg, cfg.Patterns...)
	if err != nil {
		return nil, fmt.Errorf("srchost: load packages: %w", err)
	}
	if len(pkgs) == 0 {
		return nil, fmt.Errorf("srchost: no packages match %s", strings.Join(cfg.Patterns, " "))
	}
	for _, pkg := range pkgs {
		if len(pkg.Errors) > 0 {
			return nil, fmt.Errorf("srchost: package %s has errors: %v", pkg.PkgPath, pkg.Errors[0])
		}
	}

	pending := make(map[*types.TypeName][]export)
	for _, pkg := range pkgs {
		if err := h.collect(pkg, pending); err != nil {
			return nil, err
		}
	}
	for tn, exps := range pending {
		b, ok := h.beans[tn]
		if !ok {
			h.logger.Warn("exports on a type without //apiscan:bean are ignored", "type", tn.Pkg().Path()+"."+tn.Name())
			continue
		}
		b.exports = append(b.exports, exps...)
	}
	sort.Slice(h.order, func(i, j int) bool { return h.order[i].qualified() < h.order[j].qualified() })
	h.logger.Debug("source host loaded", "packages", len(pkgs), "types", len(h.order))
	return h, nil
}

// collect records the beans and exports declared in one package.
func (h *Host) collect(pkg *packages.Package, pending map[*types.TypeName][]export) error {
	for _, f := range pkg.Syntax {
		for _, decl := range f.Decls {
			switch d := decl.(type) {
			case *ast.GenDecl:
				if d.Tok != token.TYPE {
					continue
				}
				for _, spec := range d.Specs {
					ts := spec.(*ast.TypeSpec)
					doc := ts.Doc
					if doc == nil && len(d.Specs) == 1 {
						doc = d.Doc
					}
					dir, err := parseDirective(pkg.Fset, doc)
					if err != nil {
						return err
					}
					if dir == nil {
						continue
					}
					if dir.kind != kindBean {
						return fmt.Errorf("%s: %s%s applies to methods", dir.pos, directivePrefix, dir.kind)
					}
					tn, ok := pkg.TypesInfo.Defs[ts.Name].(*types.TypeName)
					if !ok {
						continue
					}
					if ts.TypeParams != nil {
						h.logger.Warn("generic types cannot be beans", "type", pkg.PkgPath+"."+tn.Name())
						continue
					}
					h.addBean(&bean{obj: tn, visibility: dir.visibility})
				}
			case *ast.FuncDecl:
				dir, err := parseDirective(pkg.Fset, d.Doc)
				if err != nil {
					return err
				}
				if dir == nil {
					continue
				}
				if dir.kind != kindExport || d.Recv == nil {
					return fmt.Errorf("%s: %s%s must be on a method", dir.pos, directivePrefix, kindExport)
				}
				fn, ok := pkg.TypesInfo.Defs[d.Name].(*types.Func)
				if !ok {
					continue
				}
				recv := receiver(fn)
				if recv == nil {
					continue
				}
				pending[recv] = append(pending[recv], export{method: fn.Name(), visibility: dir.visibility, name: dir.name})
			}
		}
	}
	return nil
}

func (h *Host) addBean(b *bean) {
	b.ns = h.owner(b.qualified())
	h.beans[b.obj] = b
	h.byName[b.qualified()] = b
	h.order = append(h.order, b)
}

// owner is the first plugin whose packages hold the type, or the core.
func (h *Host) owner(qualified string) string {
	for _, p := range h.plugins {
		if len(p.Packages) > 0 && p.Scope().Includes(qualified) {
			return p.ID
		}
	}
	return host.Core
}

func receiver(fn *types.Func) *types.TypeName {
	sig, ok := fn.Type().(*types.Signature)
	if !ok || sig.Recv() == nil {
		return nil
	}
	t := sig.Recv().Type()
	if p, ok := t.(*types.Pointer); ok {
		t = p.Elem()
	}
	if named, ok := t.(*types.Named); ok {
		return named.Origin().Obj()
	}
	return nil
}

func (h *Host) Name() string {
	if p := strings.TrimSpace(h.cfg.Product); p != "" {
		return p
	}
	return DefaultProduct
}

func (h *Host) BaseURL() string { return h.cfg.BaseURL }

func (h *Host) Plugins() []host.Plugin { return append([]host.Plugin(nil), h.plugins...) }

// ListExportedTypes returns the beans of the scope's namespace. A namespace
// that is neither core nor a configured plugin is an error.
func (h *Host) ListExportedTypes(scope host.Scope) ([]host.Candidate, error) {
	ns := scope.Namespace
	if ns == "" {
		ns = host.Core
	}
	if _, ok := h.plugin(ns); ns != host.Core && !ok {
		return nil, fmt.Errorf("srchost: unknown namespace %q", ns)
	}
	var out []host.Candidate
	for _, b := range h.order {
		if b.ns == ns && scope.Includes(b.qualified()) {
			out = append(out, candidate{name: b.qualified(), b: b, h: h})
		}
	}
	return out, nil
}

// WellKnown resolves the configured fallback names of the scope's namespace.
// A plugin without configured names falls back to its Main type.
func (h *Host) WellKnown(scope host.Scope) []host.Candidate {
	ns := scope.Namespace
	if ns == "" {
		ns = host.Core
	}
	names := h.cfg.WellKnown[ns]
	if p, ok := h.plugin(ns); ok && len(names) == 0 && p.Main != "" {
		names = []string{p.Main}
	}
	out := make([]host.Candidate, 0, len(names))
	for _, name := range names {
		out = append(out, candidate{name: name, b: h.resolve(ns, name), h: h})
	}
	return out
}

// resolve finds a bean of ns by qualified name, or by a simple name that is
// unique within ns. Beans owned by another namespace never resolve.
func (h *Host) resolve(ns, name string) *bean {
	if b, ok := h.byName[name]; ok {
		if b.ns != ns {
			h.logger.Warn("well-known type belongs to another namespace", "namespace", ns, "type", name, "owner", b.ns)
			return nil
		}
		return b
	}
	var match *bean
	for _, b := range h.order {
		if b.ns == ns && b.obj.Name() == name {
			if match != nil {
				return nil
			}
			match = b
		}
	}
	return match
}

func (h *Host) plugin(id string) (host.Plugin, bool) {
	for _, p := range h.plugins {
		if p.ID == id {
			return p, true
		}
	}
	return host.Plugin{}, false
}

// enumValues lists the package-level constants of a named basic type in
// declaration order. The result is empty for non-enums.
func (h *Host) enumValues(named *types.Named) []string {
	tn := named.Origin().Obj()
	h.mu.Lock()
	defer h.mu.Unlock()
	if vals, ok := h.enums[tn]; ok {
		return vals
	}
	var vals []string
	if _, basic := named.Underlying().(*types.Basic); basic && tn.Pkg() != nil {
		scope := tn.Pkg().Scope()
		var consts []*types.Const
		for _, name := range scope.Names() {
			if c, ok := scope.Lookup(name).(*types.Const); ok && types.Identical(c.Type(), named) {
				consts = append(consts, c)
			}
		}
		sort.Slice(consts, func(i, j int) bool { return consts[i].Pos() < consts[j].Pos() })
		for _, c := range consts {
			vals = append(vals, c.Name())
		}
	}
	h.enums[tn] = vals
	return vals
}

var errNotBean = errors.New("no //apiscan:bean type with that name")

type candidate struct {
	name string
	b    *bean
	h    *Host
}

func (c candidate) Name() string { return c.name }

func (c candidate) Load() (host.TypeHandle, error) {
	if c.b == nil {
		return nil, fmt.Errorf("load %s: %w", c.name, errNotBean)
	}
	return &typeHandle{b: c.b, h: c.h}, nil
}

type typeHandle struct {
	b *bean
	h *Host
}

func (t *typeHandle) QualifiedName() string  { return t.b.qualified() }
func (t *typeHandle) SimpleName() string     { return t.b.obj.Name() }
func (t *typeHandle) Namespace() string      { return t.b.ns }
func (t *typeHandle) DefaultVisibility() int { return t.b.visibility }

// Operations resolves each export against the method set of *T. Methods that
// take arguments are logged and skipped.
func (t *typeHandle) Operations() ([]host.OperationHandle, error) {
	named, ok := t.b.obj.Type().(*types.Named)
	if !ok {
		return nil, fmt.Errorf("srchost: %s is not a named type", t.QualifiedName())
	}
	mset := types.NewMethodSet(types.NewPointer(named))
	ops := make([]host.OperationHandle, 0, len(t.b.exports))
	for _, e := range t.b.exports {
		sel := mset.Lookup(t.b.obj.Pkg(), e.method)
		if sel == nil {
			t.h.logger.Warn("exported method not found", "type", t.QualifiedName(), "method", e.method)
			continue
		}
		sig, ok := sel.Obj().Type().(*types.Signature)
		if !ok {
			continue
		}
		if sig.Params().Len() != 0 {
			t.h.logger.Warn("exported method takes arguments", "type", t.QualifiedName(), "method", e.method)
			continue
		}
		ops = append(ops, host.OperationHandle{
			Name:         host.MethodIdentifier(e.method),
			Returns:      t.returns(sig),
			Visibility:   e.visibility,
			ExplicitName: e.name,
		})
	}
	return ops, nil
}

func (t *typeHandle) returns(sig *types.Signature) host.Shape {
	res := sig.Results()
	for i := 0; i < res.Len(); i++ {
		rt := res.At(i).Type()
		if types.Identical(rt, errorType) {
			continue
		}
		return newShape(rt, t.h)
	}
	return nil
}
