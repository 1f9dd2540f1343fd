package analytics

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nulzo/unillm/internal/store"
	"github.com/nulzo/unillm/internal/store/model"
	"github.com/nulzo/unillm/pkg/pricing"
	"go.uber.org/zap"
)

// Ingestor handles the asynchronous persistence of cost records.
type Ingestor interface {
	Record(rec *model.CostRecord)
	Start(ctx context.Context)
	// Stop flushes what is buffered and waits for the worker to exit.
	Stop()
}

type IngestorOptions struct {
	BufferSize    int
	BatchSize     int
	FlushInterval time.Duration
}

type ingestor struct {
	logger    *zap.Logger
	repo      store.Repository
	records   chan *model.CostRecord
	batchSize int
	flushTime time.Duration

	// mu orders sends against the close of records.
	mu      sync.RWMutex
	started bool
	stopped bool
	done    chan struct{}
}

func NewIngestor(logger *zap.Logger, repo store.Repository, opts IngestorOptions) Ingestor {
	if opts.BufferSize <= 0 {
		opts.BufferSize = 10000
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 50
	}
	if opts.FlushInterval <= 0 {
		opts.FlushInterval = 5 * time.Second
	}
	return &ingestor{
		logger:    logger,
		repo:      repo,
		records:   make(chan *model.CostRecord, opts.BufferSize),
		batchSize: opts.BatchSize,
		flushTime: opts.FlushInterval,
		done:      make(chan struct{}),
	}
}

// NewRecord builds a ledger entry from a computed cost.
func NewRecord(modelName string, res *pricing.CostResult, clientIP string) *model.CostRecord {
	return &model.CostRecord{
		ID:               uuid.NewString(),
		Model:            modelName,
		PromptTokens:     res.UsageTokens.PromptTokens,
		CompletionTokens: res.UsageTokens.CompletionTokens,
		InputRate:        res.Breakdown.InputRate,
		OutputRate:       res.Breakdown.OutputRate,
		Cost:             res.Cost,
		Currency:         res.Currency,
		ClientIP:         clientIP,
		CreatedAt:        time.Now().UTC(),
	}
}

func (i *ingestor) Record(rec *model.CostRecord) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.stopped {
		i.logger.Warn("Analytics ingestor stopped, dropping cost record", zap.String("id", rec.ID))
		return
	}
	select {
	case i.records <- rec:
	default:
		i.logger.Warn("Analytics buffer full, dropping cost record", zap.String("id", rec.ID))
	}
}

// Start launches the worker once; calls after the first or after Stop are no-ops.
func (i *ingestor) Start(ctx context.Context) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.started || i.stopped {
		return
	}
	i.started = true
	go i.worker(ctx)
}

func (i *ingestor) Stop() {
	i.mu.Lock()
	if !i.stopped {
		i.stopped = true
		close(i.records)
	}
	started := i.started
	i.mu.Unlock()

	if started {
		<-i.done
	}
}

func (i *ingestor) worker(ctx context.Context) {
	defer close(i.done)

	batch := make([]*model.CostRecord, 0, i.batchSize)
	ticker := time.NewTicker(i.flushTime)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		// the request context may be gone by now
		err := i.repo.WithTx(context.Background(), func(tx store.Repository) error {
			for _, rec := range batch {
				if err := tx.Costs().Log(context.Background(), rec); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			i.logger.Error("Failed to persist cost batch", zap.Int("records", len(batch)), zap.Error(err))
		} else {
			i.logger.Debug("Flushed cost batch", zap.Int("records", len(batch)))
		}
		batch = batch[:0]
	}

	for {
		select {
		case rec, ok := <-i.records:
			if !ok {
				flush()
				return
			}
			batch = append(batch, rec)
			if len(batch) >= i.batchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-ctx.Done():
			flush()
			return
		}
	}
}
