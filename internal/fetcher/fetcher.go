package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
	"golang.org/x/time/rate"

	"github.com/datallboy/comexdown/internal/domain"
	"github.com/datallboy/comexdown/internal/infra/logger"
)

// PartSuffix marks an in-flight transfer. The final name only ever holds a
// complete copy.
const PartSuffix = ".part"

// Fetcher downloads one URL to one local path, skipping up-to-date copies.
// It is safe for concurrent use.
type Fetcher struct {
	opts     Options
	client   *http.Client
	fs       afero.Fs
	log      *logger.Logger
	progress io.Writer
	limiter  *rate.Limiter
	locks    *pathLocks
}

func New(opts Options, fns ...Option) *Fetcher {
	opts = opts.normalized()

	f := &Fetcher{
		opts:  opts,
		fs:    afero.NewOsFs(),
		log:   logger.Discard(),
		locks: newPathLocks(),
	}

	for _, fn := range fns {
		fn(f)
	}

	if f.client == nil {
		f.client = newHTTPClient(opts)
	}

	if opts.RequestsPerSecond > 0 {
		f.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}

	return f
}

// Options returns the normalised options in use.
func (f *Fetcher) Options() Options {
	return f.opts
}

// Fetch brings dest up to date with url. Errors are reported in the outcome.
func (f *Fetcher) Fetch(ctx context.Context, url, dest string) domain.TransferOutcome {
	unlock := f.locks.lock(dest)
	defer unlock()

	var out domain.TransferOutcome

	dir := filepath.Dir(dest)
	if err := f.fs.MkdirAll(dir, 0755); err != nil {
		out.Err = fmt.Errorf("%w: create %s: %w", domain.ErrFilesystem, dir, err)
		return out
	}

	var lastErr error
	for attempt := 1; attempt <= f.opts.MaxAttempts; attempt++ {
		out.Attempts = attempt

		if attempt > 1 {
			if err := sleep(ctx, f.opts.Backoff); err != nil {
				out.Err = err
				return out
			}
		}

		skipped, n, err := f.attempt(ctx, url, dest)
		if err == nil {
			out.Skipped = skipped
			out.BytesWritten = n
			return out
		}

		if ctx.Err() != nil {
			out.Err = ctx.Err()
			return out
		}

		// Local disk problems do not get better by asking the server again
		if errors.Is(err, domain.ErrFilesystem) || errors.Is(err, domain.ErrInvalidRequest) {
			out.Err = err
			return out
		}

		lastErr = err
		f.log.Warn("Attempt %d/%d for %s failed: %v", attempt, f.opts.MaxAttempts, url, err)
	}

	out.Err = fmt.Errorf("%w: %s after %d attempts: %w", domain.ErrTerminalTransfer, url, f.opts.MaxAttempts, lastErr)
	return out
}

// attempt runs one probe + transfer cycle.
func (f *Fetcher) attempt(ctx context.Context, url, dest string) (skipped bool, written int64, err error) {
	lastModified, err := f.probe(ctx, url)
	if err != nil {
		return false, 0, err
	}

	if info, statErr := f.fs.Stat(dest); statErr == nil && !isStale(info.ModTime(), lastModified) {
		f.log.Info("%s is up to date.", filepath.Base(dest))
		return true, 0, nil
	}

	f.log.Info("Downloading: %s --> %s", url, dest)

	written, err = f.transfer(ctx, url, dest)
	return false, written, err
}

// probe issues the HEAD request and returns the raw Last-Modified header.
func (f *Fetcher) probe(ctx context.Context, url string) (string, error) {
	if err := f.wait(ctx); err != nil {
		return "", err
	}

	probeCtx, cancel := context.WithTimeout(ctx, f.opts.ProbeTimeout)
	defer cancel()

	req, err := f.newRequest(probeCtx, http.MethodHead, url)
	if err != nil {
		return "", err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: HEAD %s: %w", domain.ErrTransientNetwork, url, err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return "", fmt.Errorf("%w: HEAD %s: %s", domain.ErrTransientNetwork, url, resp.Status)
	}

	return resp.Header.Get("Last-Modified"), nil
}

// transfer streams the body into dest+PartSuffix and renames it on success.
// The part file is removed on every failure path.
func (f *Fetcher) transfer(ctx context.Context, url, dest string) (int64, error) {
	if err := f.wait(ctx); err != nil {
		return 0, err
	}

	wctx, wd := newWatchdog(ctx, f.opts.IdleTimeout)
	defer wd.Stop()

	req, err := f.newRequest(wctx, http.MethodGet, url)
	if err != nil {
		return 0, err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return 0, f.networkErr(wctx, url, err)
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return 0, fmt.Errorf("%w: GET %s: %s", domain.ErrTransientNetwork, url, resp.Status)
	}

	part := dest + PartSuffix
	file, err := f.fs.OpenFile(part, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return 0, fmt.Errorf("%w: open %s: %w", domain.ErrFilesystem, part, err)
	}

	discard := func() {
		_ = file.Close()
		_ = f.fs.Remove(part)
	}

	bar := newProgressBar(f.progress, resp.ContentLength)
	defer bar.Finish()

	buf := make([]byte, f.opts.ChunkSize)
	var written int64

	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			wd.Kick()
			if _, werr := file.Write(buf[:n]); werr != nil {
				discard()
				return written, fmt.Errorf("%w: write %s: %w", domain.ErrFilesystem, part, werr)
			}
			written += int64(n)
			bar.Update(written)
		}

		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			discard()
			return written, f.networkErr(wctx, url, readErr)
		}
	}

	if err := file.Close(); err != nil {
		_ = f.fs.Remove(part)
		return written, fmt.Errorf("%w: close %s: %w", domain.ErrFilesystem, part, err)
	}

	if err := f.fs.Rename(part, dest); err != nil {
		_ = f.fs.Remove(part)
		return written, fmt.Errorf("%w: rename %s: %w", domain.ErrFilesystem, part, err)
	}

	return written, nil
}

func (f *Fetcher) newRequest(ctx context.Context, method, url string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %w", domain.ErrInvalidRequest, method, url, err)
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)
	return req, nil
}

// networkErr reports a stall as such instead of a bare "context canceled".
func (f *Fetcher) networkErr(wctx context.Context, url string, err error) error {
	if errors.Is(context.Cause(wctx), errIdle) {
		return fmt.Errorf("%w: GET %s: %w for %s", domain.ErrTransientNetwork, url, errIdle, f.opts.IdleTimeout)
	}
	return fmt.Errorf("%w: GET %s: %w", domain.ErrTransientNetwork, url, err)
}

func (f *Fetcher) wait(ctx context.Context) error {
	if f.limiter == nil {
		return nil
	}
	return f.limiter.Wait(ctx)
}

// isStale reports whether the server copy is strictly newer than the local one.
// A missing or unparsable Last-Modified keeps the local copy.
func isStale(localMod time.Time, lastModified string) bool {
	if lastModified == "" {
		return false
	}
	remote, err := http.ParseTime(lastModified)
	if err != nil {
		return false
	}
	return remote.After(localMod)
}

func isSuccess(code int) bool {
	return code >= 200 && code < 300
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
