package fetcher

import (
	"io"
	"net/http"
	"time"

	"github.com/spf13/afero"

	"github.com/datallboy/comexdown/internal/infra/config"
	"github.com/datallboy/comexdown/internal/infra/logger"
)

// Options control a single Fetcher. The zero value is not usable; start from DefaultOptions.
type Options struct {
	MaxAttempts int
	ChunkSize   int
	// VerifyTLS is scoped to this Fetcher's client. The government hosts have
	// served broken certificate chains, so verification is off unless asked for.
	VerifyTLS    bool
	Backoff      time.Duration
	ProbeTimeout time.Duration
	// IdleTimeout aborts a transfer that receives no bytes for this long
	IdleTimeout       time.Duration
	UserAgent         string
	RequestsPerSecond float64
}

func DefaultOptions() Options {
	return Options{
		MaxAttempts:  3,
		ChunkSize:    8192,
		VerifyTLS:    false,
		Backoff:      2 * time.Second,
		ProbeTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
		UserAgent:    config.DefaultUserAgent,
	}
}

// OptionsFromConfig maps the download section of the configuration.
func OptionsFromConfig(cfg config.DownloadConfig) Options {
	return Options{
		MaxAttempts:       cfg.MaxAttempts,
		ChunkSize:         cfg.ChunkSize,
		VerifyTLS:         cfg.VerifyTLS,
		Backoff:           cfg.Backoff,
		ProbeTimeout:      cfg.ProbeTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		UserAgent:         cfg.UserAgent,
		RequestsPerSecond: cfg.RequestsPerSecond,
	}
}

func (o Options) normalized() Options {
	d := DefaultOptions()
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 1
	}
	if o.ChunkSize <= 0 {
		o.ChunkSize = d.ChunkSize
	}
	if o.Backoff < 0 {
		o.Backoff = 0
	}
	if o.ProbeTimeout <= 0 {
		o.ProbeTimeout = d.ProbeTimeout
	}
	if o.IdleTimeout <= 0 {
		o.IdleTimeout = d.IdleTimeout
	}
	if o.UserAgent == "" {
		o.UserAgent = d.UserAgent
	}
	return o
}

// Option customises a Fetcher's collaborators.
type Option func(*Fetcher)

// WithFs replaces the filesystem (tests use afero.NewMemMapFs).
func WithFs(fs afero.Fs) Option {
	return func(f *Fetcher) { f.fs = fs }
}

func WithLogger(l *logger.Logger) Option {
	return func(f *Fetcher) { f.log = l }
}

// WithProgress sets where the progress line is drawn. nil disables it.
func WithProgress(w io.Writer) Option {
	return func(f *Fetcher) { f.progress = w }
}

// WithHTTPClient overrides the client built from Options.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) { f.client = c }
}
