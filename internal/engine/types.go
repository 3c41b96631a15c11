package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/datallboy/comexdown/internal/domain"
)

// Fetcher is the part of fetcher.Fetcher the engine needs.
type Fetcher interface {
	Fetch(ctx context.Context, url, dest string) domain.TransferOutcome
}

// DownloadJob is one resolved target handed to a worker.
type DownloadJob struct {
	Seq    int
	Target domain.ResolvedTarget
}

// DownloadResult is what a worker reports back for a job.
type DownloadResult struct {
	Job     DownloadJob
	Outcome domain.TransferOutcome
}

// Result is the final state of one request in a batch.
type Result struct {
	// Label names requests that never became a DownloadRequest (a bad year token)
	Label   string
	Request domain.DownloadRequest
	Target  domain.ResolvedTarget
	Outcome domain.TransferOutcome
	Status  domain.TransferStatus
}

func (r Result) Name() string {
	if r.Label != "" {
		return r.Label
	}
	return r.Request.String()
}

// Summary aggregates a batch.
type Summary struct {
	RunID      string
	Total      int
	Downloaded int
	Skipped    int
	Failed     int // includes rejected requests
	Bytes      int64
	Results    []Result
	StartedAt  time.Time
	FinishedAt time.Time
}

// AllFailed reports whether nothing in the batch succeeded. This is the only
// case that should turn into a non-zero exit status.
func (s Summary) AllFailed() bool {
	return s.Total > 0 && s.Failed == s.Total
}

func (s *Summary) add(r Result) {
	s.Results = append(s.Results, r)
	s.Total++

	switch r.Status {
	case domain.StatusDownloaded:
		s.Downloaded++
		s.Bytes += r.Outcome.BytesWritten
	case domain.StatusSkipped:
		s.Skipped++
	default:
		s.Failed++
	}
}

func (s Summary) String() string {
	return fmt.Sprintf("%d requests: %d downloaded (%s), %d up to date, %d failed in %s",
		s.Total, s.Downloaded, humanize.IBytes(uint64(s.Bytes)), s.Skipped, s.Failed,
		s.FinishedAt.Sub(s.StartedAt).Truncate(time.Millisecond))
}
