// Package server exposes scanned documents, the api list and the version
// registry over HTTP.
package server

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/schema"
	"github.com/klauspost/compress/gzhttp"
	"github.com/mark3labs/apiscan/internal/emitter"
	"github.com/mark3labs/apiscan/internal/host"
	"github.com/mark3labs/apiscan/internal/scan"
	"github.com/mark3labs/apiscan/internal/spec"
	"github.com/mark3labs/apiscan/internal/versions"
	"github.com/zeebo/blake3"
	"golang.org/x/sync/singleflight"
)

// DefaultPrefix is the mount point of every route.
const DefaultPrefix = "/swagger-ui"

var (
	validate      = validator.New()
	schemaDecoder = schema.NewDecoder()
)

func init() {
	schemaDecoder.IgnoreUnknownKeys(true)
}

type documentQuery struct {
	Format string `schema:"format" validate:"omitempty,oneof=json yaml yml JSON YAML"`
}

type pluginQuery struct {
	Plugin string `schema:"plugin" validate:"required"`
	Format string `schema:"format" validate:"omitempty,oneof=json yaml yml JSON YAML"`
}

type versionsQuery struct {
	Namespace string `schema:"namespace" validate:"required"`
}

// Server serves the documents of one scan.Service.
type Server struct {
	scanner  *scan.Service
	registry *versions.Registry
	prefix   string
	logger   *log.Logger
	group    singleflight.Group
	handler  http.Handler
}

// Option configures a Server.
type Option func(*Server)

func WithLogger(l *log.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithPrefix mounts the routes under prefix instead of DefaultPrefix.
func WithPrefix(prefix string) Option {
	return func(s *Server) {
		if prefix = strings.Trim(strings.TrimSpace(prefix), "/"); prefix != "" {
			s.prefix = "/" + prefix
		}
	}
}

// New builds the handler and registers the current API version of the core
// and of every active plugin.
func New(svc *scan.Service, reg *versions.Registry, opts ...Option) (*Server, error) {
	s := &Server{scanner: svc, registry: reg, prefix: DefaultPrefix, logger: log.Default()}
	for _, opt := range opts {
		opt(s)
	}

	mux := http.NewServeMux()
	p := s.prefix
	mux.HandleFunc("GET "+p+"/core-api", s.handleCoreAPI)
	mux.HandleFunc("GET "+p+"/plugin-api", s.handlePluginAPI)
	mux.HandleFunc("GET "+p+"/api-list", s.handleAPIList)
	mux.HandleFunc("GET "+p+"/versions", s.handleVersions)
	mux.HandleFunc("GET "+p+"/rest/api/{version}", s.handleCoreVersion)
	mux.HandleFunc("GET "+p+"/plugin/{id}/rest/api/{version}", s.handlePluginVersion)
	mux.HandleFunc("GET /plugin/{id}/rest/api/{version}", s.handlePluginVersion)
	mux.HandleFunc("GET /plugin/{id}/api/{version}", s.handlePluginVersion)

	wrap, err := gzhttp.NewWrapper(gzhttp.MinSize(1024))
	if err != nil {
		return nil, fmt.Errorf("server: gzip wrapper: %w", err)
	}
	s.handler = wrap(mux)

	s.registerCurrent()
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("server: listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	s.logger.Info("serving api documents", "addr", ln.Addr().String(), "prefix", s.prefix)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}

func (s *Server) handleCoreAPI(w http.ResponseWriter, r *http.Request) {
	var q documentQuery
	if !s.decode(w, r, &q) {
		return
	}
	s.serveDocument(w, r, host.Core, q.Format)
}

func (s *Server) handlePluginAPI(w http.ResponseWriter, r *http.Request) {
	var q pluginQuery
	if err := decodeQuery(r, &q); err != nil {
		if strings.TrimSpace(r.URL.Query().Get("plugin")) == "" {
			http.Error(w, "Missing plugin parameter", http.StatusBadRequest)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.serveDocument(w, r, q.Plugin, q.Format)
}

func (s *Server) handleAPIList(w http.ResponseWriter, r *http.Request) {
	base := s.mountURL()
	list := map[string]string{host.Core: versions.Normalize(base + "/core-api")}
	for _, p := range host.ActivePlugins(s.scanner.Host()) {
		list[p.ID] = versions.Normalize(base + "/plugin-api?plugin=" + p.ID)
	}
	s.writeJSON(w, r, list)
}

func (s *Server) handleVersions(w http.ResponseWriter, r *http.Request) {
	var q versionsQuery
	if !s.decode(w, r, &q) {
		return
	}
	v, ok := s.registry.Versions(q.Namespace)
	if !ok {
		http.Error(w, fmt.Sprintf("No versions registered for %s", q.Namespace), http.StatusNotFound)
		return
	}
	s.writeJSON(w, r, v)
}

func (s *Server) handleCoreVersion(w http.ResponseWriter, r *http.Request) {
	var q documentQuery
	if !s.decode(w, r, &q) {
		return
	}
	version := r.PathValue("version")
	if !s.registry.IsValid(host.Core, version) {
		http.Error(w, fmt.Sprintf("Unknown core API version: %s", version), http.StatusNotFound)
		return
	}
	s.serveDocument(w, r, host.Core, q.Format)
}

func (s *Server) handlePluginVersion(w http.ResponseWriter, r *http.Request) {
	var q documentQuery
	if !s.decode(w, r, &q) {
		return
	}
	id, version := r.PathValue("id"), r.PathValue("version")
	if !s.registry.IsValid(id, version) {
		http.Error(w, fmt.Sprintf("Unknown API version %s for plugin %s", version, id), http.StatusNotFound)
		return
	}
	s.serveDocument(w, r, id, q.Format)
}

// serveDocument scans ns, sharing the scan with concurrent identical
// requests, and writes the rendered document with an ETag.
func (s *Server) serveDocument(w http.ResponseWriter, r *http.Request, ns, rawFormat string) {
	format, err := emitter.ParseFormat(rawFormat)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	res, err := s.document(r.Context(), ns)
	if err != nil {
		if errors.Is(err, spec.ErrNotFound) {
			http.Error(w, "Plugin specification not found: "+ns, http.StatusNotFound)
			return
		}
		s.logger.Error("scan failed", "namespace", ns, "err", err)
		http.Error(w, "Error generating API spec: "+err.Error(), http.StatusInternalServerError)
		return
	}
	body, err := emitter.Render(res.Document, format)
	if err != nil {
		s.logger.Error("render failed", "namespace", ns, "err", err)
		http.Error(w, "Error rendering API spec: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if res.Partial {
		w.Header().Set("X-Apiscan-Partial", "true")
	}
	s.writeBody(w, r, format.ContentType(), body)
}

func (s *Server) document(ctx context.Context, ns string) (*scan.Result, error) {
	v, err, shared := s.group.Do(ns, func() (any, error) {
		res, err := s.scanner.ScanNamespace(context.WithoutCancel(ctx), ns)
		if err != nil {
			return nil, err
		}
		s.register(ns)
		return res, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		s.logger.Debug("shared in-flight scan", "namespace", ns)
	}
	return v.(*scan.Result), nil
}

// registerCurrent records the served url of the current core version and of
// every active plugin.
func (s *Server) registerCurrent() {
	s.register(host.Core)
	for _, p := range host.ActivePlugins(s.scanner.Host()) {
		s.register(p.ID)
	}
}

func (s *Server) register(ns string) {
	base := s.mountURL()
	if ns == host.Core {
		if _, err := s.registry.UpdateCore(versions.CurrentCoreVersion, base+"/rest/api/"+versions.CurrentCoreVersion); err != nil {
			s.logger.Warn("core version not registered", "err", err)
		}
		return
	}
	url := base + "/plugin/" + ns + "/rest/api/" + versions.CurrentPluginVersion
	if _, err := s.registry.Register(ns, versions.CurrentPluginVersion, url); err != nil {
		s.logger.Warn("plugin version not registered", "namespace", ns, "err", err)
	}
}

func (s *Server) mountURL() string {
	return strings.TrimRight(s.scanner.Host().BaseURL(), "/") + s.prefix
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := decodeQuery(r, dst); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func decodeQuery(r *http.Request, dst any) error {
	if err := schemaDecoder.Decode(dst, r.URL.Query()); err != nil {
		return fmt.Errorf("invalid query: %w", err)
	}
	if err := validate.Struct(dst); err != nil {
		return fmt.Errorf("invalid query: %w", err)
	}
	return nil
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	body, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.writeBody(w, r, "application/json", append(body, '\n'))
}

// writeBody sets a content-derived ETag and answers a matching
// If-None-Match with 304.
func (s *Server) writeBody(w http.ResponseWriter, r *http.Request, contentType string, body []byte) {
	sum := blake3.Sum256(body)
	etag := `"` + hex.EncodeToString(sum[:16]) + `"`
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "no-cache")
	if matchesETag(r.Header.Get("If-None-Match"), etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", contentType)
	if _, err := w.Write(body); err != nil {
		s.logger.Debug("write response", "err", err)
	}
}

func matchesETag(header, etag string) bool {
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimPrefix(strings.TrimSpace(candidate), "W/")
		if candidate == etag || candidate == "*" {
			return true
		}
	}
	return false
}
