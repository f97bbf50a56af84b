package scan

import (
	"time"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/apiscan/internal/spec"
)

const (
	// DefaultConcurrency bounds how many plugins ScanInstalled scans at once.
	DefaultConcurrency = 4

	coreVersion = "1.0.0"
	// PartialExtension marks a document cut short by the scan deadline.
	PartialExtension = "x-partial"
)

// Settings controls a Service.
type Settings struct {
	// Timeout is a soft per-scan deadline. Zero means no deadline.
	Timeout     time.Duration
	Concurrency int
	Build       []spec.BuildOption
	Logger      *log.Logger
}

// Option configures Settings.
type Option func(*Settings)

func WithLogger(l *log.Logger) Option {
	return func(s *Settings) {
		if l != nil {
			s.Logger = l
		}
	}
}

// WithTimeout sets the soft deadline after which a scan stops adding types
// and returns what it has, marked partial.
func WithTimeout(d time.Duration) Option {
	return func(s *Settings) { s.Timeout = d }
}

func WithConcurrency(n int) Option {
	return func(s *Settings) {
		if n > 0 {
			s.Concurrency = n
		}
	}
}

// WithBuildOptions passes filters and naming options to every assembler.
func WithBuildOptions(opts ...spec.BuildOption) Option {
	return func(s *Settings) { s.Build = append(s.Build, opts...) }
}

func defaultSettings() Settings {
	return Settings{Concurrency: DefaultConcurrency, Logger: log.Default()}
}
