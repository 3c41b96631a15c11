package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/ksuid"

	"github.com/datallboy/comexdown/internal/domain"
	"github.com/datallboy/comexdown/internal/infra/logger"
	"github.com/datallboy/comexdown/internal/layout"
	"github.com/datallboy/comexdown/internal/store"
	"github.com/datallboy/comexdown/internal/urls"
)

// Manager runs batches of download requests.
type Manager struct {
	builder  *urls.Builder
	resolver *layout.Resolver
	fetcher  Fetcher
	history  store.HistoryStore
	log      *logger.Logger
	workers  int
}

// NewManager wires the engine. workers <= 0 means one, which keeps a single
// request in flight.
func NewManager(b *urls.Builder, r *layout.Resolver, f Fetcher, h store.HistoryStore, log *logger.Logger, workers int) *Manager {
	if workers <= 0 {
		workers = 1
	}
	if h == nil {
		h = store.Nop{}
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Manager{
		builder:  b,
		resolver: r,
		fetcher:  f,
		history:  h,
		log:      log,
		workers:  workers,
	}
}

// Resolve maps a request to its URL and local path.
func (m *Manager) Resolve(req domain.DownloadRequest) (domain.ResolvedTarget, error) {
	url, err := m.builder.URL(req)
	if err != nil {
		return domain.ResolvedTarget{}, err
	}
	path, err := m.resolver.Path(req)
	if err != nil {
		return domain.ResolvedTarget{}, err
	}
	return domain.ResolvedTarget{Request: req.Normalize(), URL: url, LocalPath: path}, nil
}

// Run executes a plan. Each request is isolated: a failure is logged and
// recorded, and the batch moves on. The summary is complete even when ctx is
// cancelled midway.
func (m *Manager) Run(ctx context.Context, plan Plan) Summary {
	sum := Summary{
		RunID:     ksuid.New().String(),
		StartedAt: time.Now(),
	}

	for _, n := range plan.Notices {
		m.log.Warn("%s", n)
	}

	var rejected []Result
	for _, r := range plan.Rejected {
		m.log.Error("Skipping %s", r)
		rejected = append(rejected, Result{
			Label:   r.Token,
			Outcome: domain.TransferOutcome{Err: r.Err},
			Status:  domain.StatusRejected,
		})
	}

	var jobs []DownloadJob
	seen := make(map[string]bool, len(plan.Requests))

	for _, req := range plan.Requests {
		target, err := m.Resolve(req)
		if err != nil {
			m.log.Error("Skipping %s: %v", req, err)
			rejected = append(rejected, Result{
				Request: req,
				Outcome: domain.TransferOutcome{Err: err},
				Status:  domain.StatusRejected,
			})
			continue
		}

		// One owner per destination within a batch
		if seen[target.LocalPath] {
			m.log.Debug("Dropping duplicate request %s for %s", req, target.LocalPath)
			continue
		}
		seen[target.LocalPath] = true

		jobs = append(jobs, DownloadJob{Seq: len(jobs), Target: target})
	}

	for i := range rejected {
		m.save(ctx, sum.RunID, rejected[i])
		sum.add(rejected[i])
	}

	results := m.runWorkerPool(ctx, sum.RunID, jobs)

	for _, res := range results {
		sum.add(Result{
			Request: res.Job.Target.Request,
			Target:  res.Job.Target,
			Outcome: res.Outcome,
			Status:  domain.StatusOf(res.Outcome),
		})
	}

	sum.FinishedAt = time.Now()
	m.log.Info("Run %s finished: %s", sum.RunID, sum)

	return sum
}

// record logs a finished transfer and stores it in the history.
func (m *Manager) record(ctx context.Context, runID string, res DownloadResult) {
	status := domain.StatusOf(res.Outcome)
	t := res.Job.Target

	switch {
	case res.Outcome.Err != nil && errors.Is(res.Outcome.Err, context.Canceled):
		m.log.Warn("Cancelled: %s", t.URL)
	case res.Outcome.Err != nil:
		m.log.Error("Failed: %s: %v", t.Request, res.Outcome.Err)
	default:
		m.log.Debug("%s: %s (%d bytes, %d attempts)", t.Request, status, res.Outcome.BytesWritten, res.Outcome.Attempts)
	}

	m.save(ctx, runID, Result{Request: t.Request, Target: t, Outcome: res.Outcome, Status: status})
}

func (m *Manager) save(ctx context.Context, runID string, r Result) {
	rec := &domain.TransferRecord{
		RunID:      runID,
		Request:    r.Name(),
		URL:        r.Target.URL,
		LocalPath:  r.Target.LocalPath,
		Status:     r.Status,
		Bytes:      r.Outcome.BytesWritten,
		Attempts:   r.Outcome.Attempts,
		FinishedAt: time.Now(),
	}
	if r.Outcome.Err != nil {
		rec.Error = r.Outcome.Err.Error()
	}

	// History must survive a cancelled batch
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := m.history.SaveTransfer(saveCtx, rec); err != nil {
		m.log.Warn("Could not record %s in history: %v", rec.Request, err)
	}
}

// String is used in log lines.
func (r Rejection) String() string {
	return fmt.Sprintf("%s: %v", r.Token, r.Err)
}
