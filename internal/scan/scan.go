// Package scan discovers the exported types of a host and folds them into
// OpenAPI documents, one per namespace.
package scan

import (
	"context"
	"fmt"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/mark3labs/apiscan/internal/host"
	"github.com/mark3labs/apiscan/internal/spec"
	"golang.org/x/sync/errgroup"
)

// Result is the outcome of scanning one namespace. Document is never nil.
type Result struct {
	Namespace   string
	Document    *openapi3.T
	Diagnostics []spec.Diagnostic
	// Partial is set when the deadline elapsed before every type was added.
	Partial    bool
	Types      int
	Operations int
	// Fallback is set when the host's well-known list replaced discovery.
	Fallback bool
}

// Service scans a single host. It is safe for concurrent use; each scan
// gets its own schema cache.
type Service struct {
	host     host.Host
	settings Settings
}

func New(h host.Host, opts ...Option) *Service {
	s := defaultSettings()
	for _, opt := range opts {
		opt(&s)
	}
	return &Service{host: h, settings: s}
}

// Host returns the scanned host.
func (s *Service) Host() host.Host { return s.host }

// ScanCore builds the document for the host's own types.
func (s *Service) ScanCore(ctx context.Context) *Result {
	name := s.host.Name()
	meta := spec.Meta{
		Title:             name + " Core REST API",
		Description:       "REST API documentation for " + name + " Core",
		Version:           coreVersion,
		ServerURL:         s.host.BaseURL(),
		ServerDescription: name + " Instance",
	}
	return s.scan(ctx, host.CoreScope(), meta)
}

// ScanNamespace scans the core for host.Core and an active plugin otherwise.
// An unknown or inactive plugin is a RegistryMiss.
func (s *Service) ScanNamespace(ctx context.Context, id string) (*Result, error) {
	if id == host.Core {
		return s.ScanCore(ctx), nil
	}
	p, ok := host.FindPlugin(s.host, id)
	if !ok || !p.Active {
		return nil, spec.NotFound(id, "plugin %q not found", id)
	}
	return s.scanPlugin(ctx, p), nil
}

// ScanInstalled scans every active plugin concurrently and returns the
// results keyed by plugin id.
func (s *Service) ScanInstalled(ctx context.Context) map[string]*Result {
	plugins := host.ActivePlugins(s.host)
	out := make(map[string]*Result, len(plugins))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.settings.Concurrency)
	for _, p := range plugins {
		g.Go(func() error {
			res := s.scanPlugin(gctx, p)
			mu.Lock()
			out[p.ID] = res
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (s *Service) scanPlugin(ctx context.Context, p host.Plugin) *Result {
	display := p.DisplayName
	if display == "" {
		display = p.ID
	}
	version := p.Version
	if version == "" {
		version = coreVersion
	}
	meta := spec.Meta{
		Title:             display + " REST API",
		Description:       "REST API for " + display + " plugin",
		Version:           version,
		ServerURL:         s.host.BaseURL(),
		ServerDescription: s.host.Name() + " Instance",
	}
	return s.scan(ctx, p.Scope(), meta)
}

func (s *Service) scan(ctx context.Context, scope host.Scope, meta spec.Meta) *Result {
	if s.settings.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.settings.Timeout)
		defer cancel()
	}
	logger := s.settings.Logger.With("namespace", scope.Namespace)
	res := &Result{Namespace: scope.Namespace}
	asm := spec.NewAssembler(meta, s.settings.Build...)

	handles := s.discover(scope, res)
	for i, th := range handles {
		if ctx.Err() != nil {
			res.Partial = true
			logger.Warn("scan deadline reached", "added", res.Types, "remaining", len(handles)-i)
			break
		}
		if err := addType(asm, th); err != nil {
			logger.Warn("skipping type", "type", th.QualifiedName(), "err", err)
			res.Diagnostics = append(res.Diagnostics, diagnostic(err, scope.Namespace, th.QualifiedName()))
			continue
		}
		res.Types++
	}

	for _, d := range asm.Diagnostics() {
		if d.Namespace == "" {
			d.Namespace = scope.Namespace
		}
		res.Diagnostics = append(res.Diagnostics, d)
	}
	res.Document = asm.Document()
	res.Operations = asm.Operations()
	if res.Partial {
		if res.Document.Extensions == nil {
			res.Document.Extensions = map[string]interface{}{}
		}
		res.Document.Extensions[PartialExtension] = true
	}
	logger.Info("scan complete", "types", res.Types, "operations", res.Operations, "diagnostics", len(res.Diagnostics), "partial", res.Partial)
	return res
}

// discover lists and loads the types of scope. Listing failures and empty
// results fall back to the host's well-known list.
func (s *Service) discover(scope host.Scope, res *Result) []host.TypeHandle {
	logger := s.settings.Logger.With("namespace", scope.Namespace)

	cands, err := list(s.host, scope)
	if err != nil {
		logger.Error("type discovery failed, using well-known types", "err", err)
		res.Diagnostics = append(res.Diagnostics, spec.Diagnostic{
			Code:      spec.TotalScanFailure,
			Namespace: scope.Namespace,
			Message:   err.Error(),
		})
	}
	handles := s.load(cands, scope.Namespace, res)
	if len(handles) > 0 {
		return handles
	}

	if err == nil {
		logger.Info("no exported types discovered, using well-known types")
	}
	res.Fallback = true
	return s.load(s.host.WellKnown(scope), scope.Namespace, res)
}

func (s *Service) load(cands []host.Candidate, ns string, res *Result) []host.TypeHandle {
	handles := make([]host.TypeHandle, 0, len(cands))
	for _, c := range cands {
		th, err := loadCandidate(c)
		if err != nil {
			s.settings.Logger.Warn("failed to load type", "namespace", ns, "type", c.Name(), "err", err)
			res.Diagnostics = append(res.Diagnostics, diagnostic(err, ns, c.Name()))
			continue
		}
		handles = append(handles, th)
	}
	return handles
}

func list(h host.Host, scope host.Scope) (cands []host.Candidate, err error) {
	defer func() {
		if r := recover(); r != nil {
			cands, err = nil, fmt.Errorf("list exported types: panic: %v", r)
		}
	}()
	return h.ListExportedTypes(scope)
}

func loadCandidate(c host.Candidate) (th host.TypeHandle, err error) {
	defer func() {
		if r := recover(); r != nil {
			th, err = nil, fmt.Errorf("load %s: panic: %v", c.Name(), r)
		}
	}()
	th, err = c.Load()
	if err == nil && th == nil {
		err = fmt.Errorf("load %s: no type", c.Name())
	}
	return th, err
}

func addType(asm *spec.Assembler, th host.TypeHandle) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("scan %s: panic: %v", th.QualifiedName(), r)
		}
	}()
	et, err := spec.Inspect(th)
	if err != nil {
		return err
	}
	asm.Add(et)
	return nil
}

func diagnostic(err error, ns, typ string) spec.Diagnostic {
	return spec.Diagnostic{Code: spec.DiscoveryFailure, Namespace: ns, Type: typ, Message: err.Error()}
}
