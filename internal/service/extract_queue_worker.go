package service

import (
	"context"
	"log"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"apflow/internal/port"
)

// ExtractQueueConfig holds settings for the extract queue worker.
type ExtractQueueConfig struct {
	PollInterval time.Duration
	Concurrency  int
	RatePerSec   float64
	Burst        int
}

// ExtractQueueWorker polls for PENDING documents and dispatches them for
// extraction. The state machine's start transition is the claim: when two
// workers pick up the same document, exactly one start succeeds and the other
// dispatch is a silent no-op.
type ExtractQueueWorker struct {
	docs    port.DocumentRepository
	svc     *ExtractionService
	limiter *rate.Limiter
	cfg     ExtractQueueConfig
	wg      sync.WaitGroup
}

// NewExtractQueueWorker creates a new ExtractQueueWorker. The rate limiter
// throttles dispatches so the extraction providers see a bounded request
// rate across all concurrent slots.
func NewExtractQueueWorker(docs port.DocumentRepository, svc *ExtractionService, cfg ExtractQueueConfig) *ExtractQueueWorker {
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = 1
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	return &ExtractQueueWorker{
		docs:    docs,
		svc:     svc,
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.Burst),
		cfg:     cfg,
	}
}

// Start runs the polling loop until ctx is canceled. It blocks until all
// in-flight extractions have finished.
func (w *ExtractQueueWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	sem := make(chan struct{}, w.cfg.Concurrency)

	log.Printf("extractQueueWorker: started (poll=%s, concurrency=%d, rate=%.1f/s)",
		w.cfg.PollInterval, w.cfg.Concurrency, w.cfg.RatePerSec)

	for {
		select {
		case <-ctx.Done():
			log.Printf("extractQueueWorker: shutting down, waiting for in-flight extractions...")
			w.wg.Wait()
			log.Printf("extractQueueWorker: shutdown complete")
			return
		case <-ticker.C:
			available := w.cfg.Concurrency - len(sem)
			if available <= 0 {
				continue
			}

			docs, err := w.docs.ListPending(ctx, available)
			if err != nil {
				if ctx.Err() != nil {
					continue
				}
				log.Printf("extractQueueWorker: ListPending error: %v", err)
				continue
			}

			for i := range docs {
				if err := w.limiter.Wait(ctx); err != nil {
					break
				}

				doc := docs[i] // copy for goroutine

				sem <- struct{}{} // acquire
				w.wg.Add(1)
				go func() {
					defer w.wg.Done()
					defer func() { <-sem }() // release

					// Use a fresh context independent of the poll context
					// so in-flight extractions complete even during shutdown.
					extractCtx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
					defer cancel()

					log.Printf("extractQueueWorker: dispatching document %s", doc.ID)
					if err := w.svc.Process(extractCtx, doc.ID); err != nil {
						log.Printf("extractQueueWorker: document %s: %v", doc.ID, err)
					}
				}()
			}
		}
	}
}
