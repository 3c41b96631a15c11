package fetcher

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/datallboy/comexdown/internal/domain"
)

var lastModified = time.Date(2024, time.March, 5, 10, 30, 0, 0, time.UTC)

type fakeServer struct {
	body         []byte
	lastModified string
	headStatus   int
	getStatus    int
	chunked      bool

	heads     atomic.Int32
	gets      atomic.Int32
	userAgent atomic.Value
}

func (s *fakeServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.userAgent.Store(r.Header.Get("User-Agent"))
	if s.lastModified != "" {
		w.Header().Set("Last-Modified", s.lastModified)
	}

	switch r.Method {
	case http.MethodHead:
		s.heads.Add(1)
		if s.headStatus != 0 {
			w.WriteHeader(s.headStatus)
		}
		return
	case http.MethodGet:
		s.gets.Add(1)
	}

	if s.getStatus != 0 {
		w.WriteHeader(s.getStatus)
		return
	}

	if s.chunked {
		// Flushing before the body forces chunked encoding (no Content-Length)
		w.WriteHeader(http.StatusOK)
		w.(http.Flusher).Flush()
		_, _ = w.Write(s.body)
		return
	}

	w.Header().Set("Content-Length", strconv.Itoa(len(s.body)))
	_, _ = w.Write(s.body)
}

func testOptions() Options {
	opts := DefaultOptions()
	opts.Backoff = 0
	opts.ChunkSize = 16
	opts.ProbeTimeout = 2 * time.Second
	opts.IdleTimeout = 2 * time.Second
	return opts
}

func TestFetchDownloadsNewFile(t *testing.T) {
	srv := &fakeServer{body: []byte("CO_ANO;CO_MES;VL_FOB\n2020;01;100\n"), lastModified: lastModified.Format(http.TimeFormat)}
	ts := httptest.NewServer(srv)
	defer ts.Close()

	var progress bytes.Buffer
	f := New(testOptions(), WithProgress(&progress))
	dest := filepath.Join(t.TempDir(), "exp", "EXP_2020.csv")

	out := f.Fetch(context.Background(), ts.URL+"/EXP_2020.csv", dest)
	require.NoError(t, out.Err)
	require.False(t, out.Skipped)
	require.Equal(t, 1, out.Attempts)
	require.Equal(t, int64(len(srv.body)), out.BytesWritten)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	require.Equal(t, srv.body, data)

	_, err = os.Stat(dest + PartSuffix)
	require.True(t, os.IsNotExist(err))

	require.Contains(t, progress.String(), "100.0%")
	require.Equal(t, testOptions().UserAgent, srv.userAgent.Load())
}

func TestFetchStaleness(t *testing.T) {
	cases := []struct {
		name     string
		remote   time.Time
		header   bool
		wantSkip bool
	}{
		{"remote older", lastModified.Add(-time.Second), true, true},
		{"remote equal", lastModified, true, true},
		{"remote newer", lastModified.Add(time.Second), true, false},
		{"no header", time.Time{}, false, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := &fakeServer{body: []byte("fresh")}
			if tc.header {
				srv.lastModified = tc.remote.Format(http.TimeFormat)
			}
			ts := httptest.NewServer(srv)
			defer ts.Close()

			dest := filepath.Join(t.TempDir(), "EXP_2020.csv")
			require.NoError(t, os.WriteFile(dest, []byte("old"), 0644))
			require.NoError(t, os.Chtimes(dest, lastModified, lastModified))

			out := New(testOptions()).Fetch(context.Background(), ts.URL, dest)
			require.NoError(t, out.Err)
			require.Equal(t, tc.wantSkip, out.Skipped)

			data, err := os.ReadFile(dest)
			require.NoError(t, err)
			if tc.wantSkip {
				require.Equal(t, "old", string(data))
				require.Equal(t, int32(0), srv.gets.Load())
				require.Zero(t, out.BytesWritten)
			} else {
				require.Equal(t, "fresh", string(data))
				require.Equal(t, int32(1), srv.gets.Load())
			}
		})
	}
}

func TestFetchUnparsableLastModifiedKeepsLocalCopy(t *testing.T) {
	srv := &fakeServer{body: []byte("fresh"), lastModified: "yesterday-ish"}
	ts := httptest.NewServer(srv)
	defer ts.Close()

	dest := filepath.Join(t.TempDir(), "NCM.csv")
	require.NoError(t, os.WriteFile(dest, []byte("old"), 0644))

	out := New(testOptions()).Fetch(context.Background(), ts.URL, dest)
	require.NoError(t, out.Err)
	require.True(t, out.Skipped)
}

func TestFetchGivesUpAfterMaxAttempts(t *testing.T) {
	srv := &fakeServer{headStatus: http.StatusInternalServerError}
	ts := httptest.NewServer(srv)
	defer ts.Close()

	dest := filepath.Join(t.TempDir(), "imp", "IMP_2021.csv")
	out := New(testOptions()).Fetch(context.Background(), ts.URL, dest)

	require.ErrorIs(t, out.Err, domain.ErrTerminalTransfer)
	require.ErrorIs(t, out.Err, domain.ErrTransientNetwork)
	require.Equal(t, 3, out.Attempts)
	require.Equal(t, int32(3), srv.heads.Load())

	_, err := os.Stat(dest)
	require.True(t, os.IsNotExist(err))
}

func TestFetchFailedTransferKeepsPreviousCopy(t *testing.T) {
	srv := &fakeServer{
		lastModified: lastModified.Add(time.Hour).Format(http.TimeFormat),
		getStatus:    http.StatusServiceUnavailable,
	}
	ts := httptest.NewServer(srv)
	defer ts.Close()

	dest := filepath.Join(t.TempDir(), "EXP_2020.csv")
	require.NoError(t, os.WriteFile(dest, []byte("previous"), 0644))
	require.NoError(t, os.Chtimes(dest, lastModified, lastModified))

	out := New(testOptions()).Fetch(context.Background(), ts.URL, dest)
	require.ErrorIs(t, out.Err, domain.ErrTerminalTransfer)
	require.Equal(t, int32(3), srv.gets.Load())

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	require.Equal(t, "previous", string(data))

	_, err = os.Stat(dest + PartSuffix)
	require.True(t, os.IsNotExist(err))
}

func TestFetchRecoversOnRetry(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead && calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer ts.Close()

	dest := filepath.Join(t.TempDir(), "PAIS.csv")
	out := New(testOptions()).Fetch(context.Background(), ts.URL, dest)
	require.NoError(t, out.Err)
	require.Equal(t, 2, out.Attempts)
	require.Equal(t, int64(2), out.BytesWritten)
}

func TestFetchUnknownLengthDrawsNoProgress(t *testing.T) {
	srv := &fakeServer{body: []byte(strings.Repeat("x", 100)), chunked: true}
	ts := httptest.NewServer(srv)
	defer ts.Close()

	var progress bytes.Buffer
	dest := filepath.Join(t.TempDir(), "EXP_COMPLETA.zip")
	out := New(testOptions(), WithProgress(&progress)).Fetch(context.Background(), ts.URL, dest)

	require.NoError(t, out.Err)
	require.Equal(t, int64(100), out.BytesWritten)
	require.Empty(t, progress.String())
}

func TestFetchTLSPolicy(t *testing.T) {
	ts := httptest.NewTLSServer(&fakeServer{body: []byte("secure")})
	defer ts.Close()

	opts := testOptions()
	opts.MaxAttempts = 1

	out := New(opts).Fetch(context.Background(), ts.URL, filepath.Join(t.TempDir(), "a.csv"))
	require.NoError(t, out.Err)

	opts.VerifyTLS = true
	out = New(opts).Fetch(context.Background(), ts.URL, filepath.Join(t.TempDir(), "b.csv"))
	require.ErrorIs(t, out.Err, domain.ErrTerminalTransfer)
}

func TestFetchFilesystemFailureIsTerminal(t *testing.T) {
	srv := &fakeServer{body: []byte("data")}
	ts := httptest.NewServer(srv)
	defer ts.Close()

	// A regular file where a directory is expected
	blocker := filepath.Join(t.TempDir(), "exp")
	require.NoError(t, os.WriteFile(blocker, []byte{}, 0644))

	out := New(testOptions()).Fetch(context.Background(), ts.URL, filepath.Join(blocker, "EXP_2020.csv"))
	require.ErrorIs(t, out.Err, domain.ErrFilesystem)
	require.Equal(t, int32(0), srv.heads.Load())
}

func TestFetchIdleWatchdog(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			return
		}
		w.Header().Set("Content-Length", "1000")
		_, _ = w.Write([]byte("partial"))
		w.(http.Flusher).Flush()

		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer ts.Close()

	opts := testOptions()
	opts.MaxAttempts = 1
	opts.IdleTimeout = 100 * time.Millisecond

	dest := filepath.Join(t.TempDir(), "EXP_2020.csv")
	out := New(opts).Fetch(context.Background(), ts.URL, dest)

	require.ErrorIs(t, out.Err, domain.ErrTerminalTransfer)
	require.ErrorIs(t, out.Err, errIdle)

	_, err := os.Stat(dest)
	require.True(t, os.IsNotExist(err))
	_, err = os.Stat(dest + PartSuffix)
	require.True(t, os.IsNotExist(err))
}

func TestFetchCancelledContext(t *testing.T) {
	srv := &fakeServer{headStatus: http.StatusInternalServerError}
	ts := httptest.NewServer(srv)
	defer ts.Close()

	opts := testOptions()
	opts.Backoff = time.Minute

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		for srv.heads.Load() == 0 {
			time.Sleep(5 * time.Millisecond)
		}
		cancel()
	}()

	out := New(opts).Fetch(ctx, ts.URL, filepath.Join(t.TempDir(), "x.csv"))
	require.ErrorIs(t, out.Err, context.Canceled)
	require.LessOrEqual(t, out.Attempts, 2)
}

func TestIsStale(t *testing.T) {
	local := lastModified
	require.True(t, isStale(local, local.Add(time.Second).Format(http.TimeFormat)))
	require.False(t, isStale(local, local.Format(http.TimeFormat)))
	require.False(t, isStale(local, ""))
	require.False(t, isStale(local, "not a date"))
}
