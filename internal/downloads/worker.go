package downloads

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/renameio/v2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/tessro/finch/internal/log"
)

const (
	defaultProgressInterval = time.Second
	throttleBurst           = 64 * 1024
)

var errCancelled = errors.New(cancelledMessage)

// Source supplies download URLs and credentials. *client.Client satisfies it.
type Source interface {
	DownloadURL(itemID string) string
	AuthorizationHeader() string
}

// WorkerOptions configure a Worker.
type WorkerOptions struct {
	Concurrency int
	// RateLimit caps total throughput in KiB/s. Zero means unlimited.
	RateLimit        int
	ProgressInterval time.Duration
	HTTPClient       *http.Client
	Logger           *zerolog.Logger
}

// Worker drains the pending queue.
type Worker struct {
	jobs        *Manager
	source      Source
	httpClient  *http.Client
	concurrency int
	limiter     *rate.Limiter
	interval    time.Duration
	logger      zerolog.Logger
}

// NewWorker creates a worker over m.
func NewWorker(m *Manager, src Source, opts WorkerOptions) *Worker {
	w := &Worker{
		jobs:        m,
		source:      src,
		httpClient:  opts.HTTPClient,
		concurrency: opts.Concurrency,
		interval:    opts.ProgressInterval,
		logger:      log.WithComponent("downloads"),
	}
	if w.httpClient == nil {
		w.httpClient = &http.Client{}
	}
	if w.concurrency < 1 {
		w.concurrency = 1
	}
	if w.interval <= 0 {
		w.interval = defaultProgressInterval
	}
	if opts.RateLimit > 0 {
		w.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit*1024), throttleBurst)
	}
	if opts.Logger != nil {
		w.logger = *opts.Logger
	}
	return w
}

// Run downloads pending jobs until none remain or ctx is cancelled.
// Failed jobs are recorded, not returned. Jobs interrupted by cancellation
// go back to pending.
func (w *Worker) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < w.concurrency; i++ {
		g.Go(func() error {
			for {
				if err := ctx.Err(); err != nil {
					return err
				}
				job, err := w.jobs.claimNext()
				if err != nil {
					return fmt.Errorf("claim download: %w", err)
				}
				if job == nil {
					return nil
				}
				if err := w.process(ctx, job); err != nil {
					return err
				}
			}
		})
	}
	return g.Wait()
}

// process runs one job. Only context cancellation is returned.
func (w *Worker) process(ctx context.Context, job *Job) error {
	logger := w.logger.With().Int64("job", job.ID).Str("item", job.ItemID).Logger()
	logger.Info().Str("path", job.Path).Msg("download started")

	n, err := w.fetch(ctx, job)
	switch {
	case err == nil:
		logger.Info().Int64("bytes", n).Msg("download completed")
		return w.jobs.finish(job.ID, n)
	case errors.Is(err, errCancelled):
		logger.Info().Msg("download cancelled")
		return nil
	case ctx.Err() != nil:
		if rerr := w.jobs.requeue(job.ID); rerr != nil {
			logger.Warn().Err(rerr).Msg("requeue interrupted download")
		}
		return ctx.Err()
	default:
		logger.Warn().Err(err).Msg("download failed")
		return w.jobs.fail(job.ID, err)
	}
}

func (w *Worker) fetch(ctx context.Context, job *Job) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.source.DownloadURL(job.ItemID), nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Authorization", w.source.AuthorizationHeader())

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("server returned %s", resp.Status)
	}

	if err := os.MkdirAll(filepath.Dir(job.Path), 0o755); err != nil {
		return 0, err
	}
	pf, err := renameio.NewPendingFile(job.Path)
	if err != nil {
		return 0, err
	}
	defer pf.Cleanup() //nolint:errcheck // no-op after CloseAtomicallyReplace

	total := max(resp.ContentLength, 0)
	var body io.Reader = resp.Body
	if w.limiter != nil {
		body = &throttledReader{ctx: ctx, r: body, limiter: w.limiter}
	}
	pw := &progressWriter{w: pf, every: w.interval, report: func(n int64) error {
		ok, err := w.jobs.progress(job.ID, n, total)
		if err != nil {
			return err
		}
		if !ok {
			return errCancelled
		}
		return nil
	}}

	n, err := io.Copy(pw, body)
	if err != nil {
		return n, err
	}
	if total > 0 && n != total {
		return n, fmt.Errorf("short download: got %d of %d bytes", n, total)
	}
	if err := pw.report(n); err != nil {
		return n, err
	}
	if err := pf.CloseAtomicallyReplace(); err != nil {
		return n, err
	}
	return n, nil
}

// progressWriter reports the running byte count at most once per interval.
type progressWriter struct {
	w      io.Writer
	n      int64
	every  time.Duration
	last   time.Time
	report func(int64) error
}

func (p *progressWriter) Write(b []byte) (int, error) {
	n, err := p.w.Write(b)
	p.n += int64(n)
	if err != nil {
		return n, err
	}
	if now := time.Now(); now.Sub(p.last) >= p.every {
		p.last = now
		if err := p.report(p.n); err != nil {
			return n, err
		}
	}
	return n, nil
}

// throttledReader waits on a shared limiter before handing out bytes.
type throttledReader struct {
	ctx     context.Context
	r       io.Reader
	limiter *rate.Limiter
}

func (t *throttledReader) Read(p []byte) (int, error) {
	if len(p) > t.limiter.Burst() {
		p = p[:t.limiter.Burst()]
	}
	n, err := t.r.Read(p)
	if n > 0 {
		if werr := t.limiter.WaitN(t.ctx, n); werr != nil {
			return n, werr
		}
	}
	return n, err
}
