package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/mark3labs/apiscan/internal/emitter"
	"github.com/mark3labs/apiscan/internal/host/srchost"
	"github.com/mark3labs/apiscan/internal/scan"
	"github.com/mark3labs/apiscan/internal/server"
	"github.com/mark3labs/apiscan/internal/spec"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// Config captures all inputs after merging defaults, config file values, and
// CLI overrides. Each command reads the fields it needs.
type Config struct {
	// Host selection. Without Source the built-in demo host is used.
	Source    []string
	Dir       string
	Product   string
	BaseURL   string
	Plugins   []srchost.Plugin
	WellKnown map[string][]string

	// scan
	Plugin      string
	All         bool
	Format      string
	Out         string
	Timeout     time.Duration
	Concurrency int
	IncludeTags []string
	ExcludeTags []string
	Methods     []string
	Paths       []string
	Security    string
	Wrapper     bool
	Compress    string
	DryRun      bool
	Force       bool

	// serve
	Addr   string
	Prefix string

	ConfigPath string
	Verbose    bool
}

const defaultAddr = "127.0.0.1:8080"

func defaultConfig() Config {
	return Config{
		Format:      string(emitter.JSON),
		Timeout:     30 * time.Second,
		Concurrency: scan.DefaultConcurrency,
		Compress:    emitter.CompressNone,
		Addr:        defaultAddr,
		Prefix:      server.DefaultPrefix,
	}
}

// resolveConfig applies defaults, then the config file, then flags that were
// set explicitly, and validates the result.
func resolveConfig(cmd *cobra.Command) (*Config, error) {
	cfg := defaultConfig()

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	configPath = strings.TrimSpace(configPath)
	if configPath != "" {
		cfg.ConfigPath = configPath
		if err := applyConfigFromFile(&cfg, configPath); err != nil {
			return nil, err
		}
	}

	if err := applyFlagOverrides(cmd.Flags(), &cfg); err != nil {
		return nil, err
	}

	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyFlagOverrides(flags *pflag.FlagSet, cfg *Config) error {
	str := func(name string, dst *string) error {
		if !flags.Changed(name) {
			return nil
		}
		value, err := flags.GetString(name)
		if err != nil {
			return err
		}
		*dst = strings.TrimSpace(value)
		return nil
	}
	list := func(name string, dst *[]string) error {
		if !flags.Changed(name) {
			return nil
		}
		value, err := flags.GetStringSlice(name)
		if err != nil {
			return err
		}
		*dst = sanitizeTags(value)
		return nil
	}
	boolean := func(name string, dst *bool) error {
		if !flags.Changed(name) {
			return nil
		}
		value, err := flags.GetBool(name)
		if err != nil {
			return err
		}
		*dst = value
		return nil
	}

	for name, dst := range map[string]*string{
		"dir":      &cfg.Dir,
		"product":  &cfg.Product,
		"base-url": &cfg.BaseURL,
		"plugin":   &cfg.Plugin,
		"format":   &cfg.Format,
		"out":      &cfg.Out,
		"compress": &cfg.Compress,
		"addr":     &cfg.Addr,
		"prefix":   &cfg.Prefix,

		"security-scheme": &cfg.Security,
	} {
		if err := str(name, dst); err != nil {
			return err
		}
	}
	for name, dst := range map[string]*[]string{
		"source":       &cfg.Source,
		"include-tags": &cfg.IncludeTags,
		"exclude-tags": &cfg.ExcludeTags,
		"methods":      &cfg.Methods,
	} {
		if err := list(name, dst); err != nil {
			return err
		}
	}
	for name, dst := range map[string]*bool{
		"all":     &cfg.All,
		"wrapper": &cfg.Wrapper,
		"dry-run": &cfg.DryRun,
		"force":   &cfg.Force,
		"verbose": &cfg.Verbose,
	} {
		if err := boolean(name, dst); err != nil {
			return err
		}
	}
	// path patterns are regular expressions and may contain commas
	if flags.Changed("paths") {
		value, err := flags.GetStringArray("paths")
		if err != nil {
			return err
		}
		cfg.Paths = sanitizeTags(value)
	}
	if flags.Changed("timeout") {
		value, err := flags.GetDuration("timeout")
		if err != nil {
			return err
		}
		cfg.Timeout = value
	}
	if flags.Changed("concurrency") {
		value, err := flags.GetInt("concurrency")
		if err != nil {
			return err
		}
		cfg.Concurrency = value
	}
	return nil
}

func (c *Config) normalize() {
	c.Source = sanitizeTags(c.Source)
	c.Dir = strings.TrimSpace(c.Dir)
	c.Product = strings.TrimSpace(c.Product)
	c.BaseURL = strings.TrimSpace(c.BaseURL)
	c.Plugin = strings.TrimSpace(c.Plugin)
	c.Format = strings.ToLower(strings.TrimSpace(c.Format))
	c.Out = strings.TrimSpace(c.Out)
	c.Compress = strings.ToLower(strings.TrimSpace(c.Compress))
	c.IncludeTags = sanitizeTags(c.IncludeTags)
	c.ExcludeTags = sanitizeTags(c.ExcludeTags)
	methods := make([]string, 0, len(c.Methods))
	for _, m := range sanitizeTags(c.Methods) {
		methods = append(methods, strings.ToUpper(m))
	}
	c.Methods = sanitizeTags(methods)
	c.Paths = sanitizeTags(c.Paths)
	c.Security = strings.TrimSpace(c.Security)
	c.Addr = strings.TrimSpace(c.Addr)
	c.Prefix = strings.TrimSpace(c.Prefix)
}

func (c *Config) validate() error {
	if _, err := emitter.ParseFormat(c.Format); err != nil {
		return usageErrorf("unsupported --format %q (allowed: json, yaml)", c.Format)
	}
	switch c.Compress {
	case "", emitter.CompressNone, emitter.CompressZstd:
	default:
		return usageErrorf("unsupported --compress %q (allowed: none, zstd)", c.Compress)
	}
	for _, m := range c.Methods {
		switch spec.HttpMethod(m) {
		case spec.GET, spec.POST, spec.PUT, spec.DELETE:
		default:
			return usageErrorf("unsupported method %q (allowed: GET, POST, PUT, DELETE)", m)
		}
	}
	for _, p := range c.Paths {
		if _, err := regexp.Compile(p); err != nil {
			return usageErrorf("invalid --paths pattern %q: %v", p, err)
		}
	}
	if strings.ContainsAny(c.Security, " \t/") {
		return usageErrorf("invalid --security-scheme %q (no spaces or slashes)", c.Security)
	}
	if c.Plugin != "" && c.All {
		return newUsageError("--plugin and --all are mutually exclusive")
	}
	if c.Timeout < 0 {
		return usageErrorf("--timeout must not be negative, got %s", c.Timeout)
	}
	if c.Concurrency < 1 {
		return usageErrorf("--concurrency must be at least 1, got %d", c.Concurrency)
	}
	if overlap := intersect(c.IncludeTags, c.ExcludeTags); len(overlap) > 0 {
		return usageErrorf("include/exclude tags overlap: %s", strings.Join(overlap, ", "))
	}
	return nil
}

// buildOptions turns the filters into assembler options.
func (c *Config) buildOptions() []spec.BuildOption {
	opts := []spec.BuildOption{
		spec.WithIncludeTags(c.IncludeTags),
		spec.WithExcludeTags(c.ExcludeTags),
		spec.WithWrapperParameter(c.Wrapper),
		spec.WithPathPatterns(c.Paths),
		spec.WithSecurityScheme(c.Security),
	}
	if len(c.Methods) > 0 {
		methods := make([]spec.HttpMethod, 0, len(c.Methods))
		for _, m := range c.Methods {
			methods = append(methods, spec.HttpMethod(m))
		}
		opts = append(opts, spec.WithMethods(methods))
	}
	return opts
}

func sanitizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	result := make([]string, 0, len(tags))
	for _, tag := range tags {
		trimmed := strings.TrimSpace(tag)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		result = append(result, trimmed)
	}
	if len(result) == 0 {
		return nil
	}
	return result
}

func intersect(a, b []string) []string {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(a))
	for _, item := range a {
		set[item] = struct{}{}
	}
	var result []string
	for _, item := range b {
		if _, ok := set[item]; ok {
			result = append(result, item)
		}
	}
	return result
}

// readConfigFile parses YAML, or JSON with comments and trailing commas when
// the extension is .json or .jsonc.
func readConfigFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, usageErrorf("read config file %q: %v", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		data = jsonc.ToJSON(data)
	}
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, usageErrorf("parse config file %q: %v", path, err)
	}
	return raw, nil
}

func applyConfigFromFile(cfg *Config, path string) error {
	raw, err := readConfigFile(path)
	if err != nil {
		return err
	}

	for key, value := range raw {
		if err := applyConfigValue(cfg, normalizeKey(key), value); err != nil {
			if _, unknown := err.(unknownKeyError); unknown {
				return usageErrorf("config file %q: unknown field %q", path, key)
			}
			return usageErrorf("config field %q: %v", key, err)
		}
	}
	return nil
}

type unknownKeyError struct{}

func (unknownKeyError) Error() string { return "unknown field" }

func applyConfigValue(cfg *Config, key string, value any) error {
	var err error
	switch key {
	case "source", "sources":
		cfg.Source, err = valueAsStringSlice(value)
	case "dir":
		cfg.Dir, err = valueAsString(value)
	case "product":
		cfg.Product, err = valueAsString(value)
	case "baseurl":
		cfg.BaseURL, err = valueAsString(value)
	case "plugins":
		cfg.Plugins, err = valueAsPlugins(value)
	case "wellknown":
		cfg.WellKnown, err = valueAsWellKnown(value)
	case "plugin":
		cfg.Plugin, err = valueAsString(value)
	case "all":
		cfg.All, err = valueAsBool(value)
	case "format":
		cfg.Format, err = valueAsString(value)
	case "out":
		cfg.Out, err = valueAsString(value)
	case "timeout":
		cfg.Timeout, err = valueAsDuration(value)
	case "concurrency":
		cfg.Concurrency, err = valueAsInt(value)
	case "includetags":
		var list []string
		list, err = valueAsStringSlice(value)
		cfg.IncludeTags = sanitizeTags(list)
	case "excludetags":
		var list []string
		list, err = valueAsStringSlice(value)
		cfg.ExcludeTags = sanitizeTags(list)
	case "methods":
		cfg.Methods, err = valueAsStringSlice(value)
	case "paths", "pathpatterns":
		cfg.Paths, err = valueAsPatterns(value)
	case "securityscheme":
		cfg.Security, err = valueAsString(value)
	case "wrapper":
		cfg.Wrapper, err = valueAsBool(value)
	case "compress":
		cfg.Compress, err = valueAsString(value)
	case "dryrun":
		cfg.DryRun, err = valueAsBool(value)
	case "force":
		cfg.Force, err = valueAsBool(value)
	case "addr":
		cfg.Addr, err = valueAsString(value)
	case "prefix":
		cfg.Prefix, err = valueAsString(value)
	case "verbose":
		cfg.Verbose, err = valueAsBool(value)
	default:
		return unknownKeyError{}
	}
	return err
}

func normalizeKey(raw string) string {
	lowered := strings.ToLower(strings.TrimSpace(raw))
	lowered = strings.ReplaceAll(lowered, "-", "")
	lowered = strings.ReplaceAll(lowered, "_", "")
	return lowered
}

func valueAsString(v any) (string, error) {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val), nil
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("expected string, got %T", v)
	}
}

func valueAsStringSlice(v any) ([]string, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case string:
		if strings.TrimSpace(val) == "" {
			return nil, nil
		}
		return splitAndTrim(val), nil
	case []any:
		items := make([]string, 0, len(val))
		for idx, elem := range val {
			str, err := valueAsString(elem)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", idx, err)
			}
			if str != "" {
				items = append(items, str)
			}
		}
		return items, nil
	default:
		return nil, fmt.Errorf("expected string or list, got %T", v)
	}
}

// valueAsPatterns is valueAsStringSlice without comma splitting, since a
// single regular expression may contain commas.
func valueAsPatterns(v any) ([]string, error) {
	if s, ok := v.(string); ok {
		if s = strings.TrimSpace(s); s != "" {
			return []string{s}, nil
		}
		return nil, nil
	}
	return valueAsStringSlice(v)
}

func valueAsBool(v any) (bool, error) {
	switch val := v.(type) {
	case bool:
		return val, nil
	case string:
		trimmed := strings.ToLower(strings.TrimSpace(val))
		switch trimmed {
		case "true", "t", "1", "yes", "y":
			return true, nil
		case "false", "f", "0", "no", "n":
			return false, nil
		case "":
			return false, nil
		default:
			return false, fmt.Errorf("invalid boolean value %q", val)
		}
	case nil:
		return false, nil
	default:
		return false, fmt.Errorf("expected boolean, got %T", v)
	}
}

func valueAsInt(v any) (int, error) {
	switch val := v.(type) {
	case int:
		return val, nil
	case float64:
		if val != float64(int(val)) {
			return 0, fmt.Errorf("expected integer, got %v", val)
		}
		return int(val), nil
	case nil:
		return 0, nil
	default:
		return 0, fmt.Errorf("expected integer, got %T", v)
	}
}

// valueAsDuration accepts Go duration strings ("45s") or a number of seconds.
func valueAsDuration(v any) (time.Duration, error) {
	switch val := v.(type) {
	case string:
		d, err := time.ParseDuration(strings.TrimSpace(val))
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q", val)
		}
		return d, nil
	case int:
		return time.Duration(val) * time.Second, nil
	case float64:
		return time.Duration(val * float64(time.Second)), nil
	case nil:
		return 0, nil
	default:
		return 0, fmt.Errorf("expected duration, got %T", v)
	}
}

func valueAsPlugins(v any) ([]srchost.Plugin, error) {
	items, ok := v.([]any)
	if !ok {
		if v == nil {
			return nil, nil
		}
		return nil, fmt.Errorf("expected list of plugins, got %T", v)
	}
	plugins := make([]srchost.Plugin, 0, len(items))
	for idx, item := range items {
		fields, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("plugin %d: expected mapping, got %T", idx, item)
		}
		p := srchost.Plugin{Active: true}
		for key, value := range fields {
			var err error
			switch normalizeKey(key) {
			case "id":
				p.ID, err = valueAsString(value)
			case "name", "displayname":
				p.DisplayName, err = valueAsString(value)
			case "version":
				p.Version, err = valueAsString(value)
			case "active":
				p.Active, err = valueAsBool(value)
			case "packages":
				p.Packages, err = valueAsStringSlice(value)
			case "main":
				p.Main, err = valueAsString(value)
			default:
				err = fmt.Errorf("unknown field %q", key)
			}
			if err != nil {
				return nil, fmt.Errorf("plugin %d: %w", idx, err)
			}
		}
		plugins = append(plugins, p)
	}
	return plugins, nil
}

func valueAsWellKnown(v any) (map[string][]string, error) {
	fields, ok := v.(map[string]any)
	if !ok {
		if v == nil {
			return nil, nil
		}
		return nil, fmt.Errorf("expected mapping of namespace to type names, got %T", v)
	}
	out := make(map[string][]string, len(fields))
	for ns, value := range fields {
		names, err := valueAsStringSlice(value)
		if err != nil {
			return nil, fmt.Errorf("namespace %q: %w", ns, err)
		}
		out[strings.TrimSpace(ns)] = names
	}
	return out, nil
}

func splitAndTrim(csv string) []string {
	parts := strings.Split(csv, ",")
	cleaned := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	return cleaned
}
