package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/nulzo/unillm/internal/store/sqlite"
	"github.com/nulzo/unillm/pkg/pricing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestIngestor_FlushesOnStop(t *testing.T) {
	repo, err := sqlite.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer repo.Close()

	ing := NewIngestor(zaptest.NewLogger(t), repo, IngestorOptions{BatchSize: 2, FlushInterval: time.Hour})
	ing.Start(context.Background())

	res, err := pricing.ComputeCost(pricing.UsageTokens{PromptTokens: 1_000_000, CompletionTokens: 500_000}, pricing.Flat("m1", 2, 4))
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		ing.Record(NewRecord("m1", res, "10.0.0.1"))
	}
	ing.Stop()
	ing.Stop() // idempotent

	svc := NewService(repo)
	recent, err := svc.GetRecent(context.Background(), "m1", 0)
	require.NoError(t, err)
	require.Len(t, recent, 5)
	assert.InDelta(t, 4.0, recent[0].Cost, 1e-9)
	assert.Equal(t, 2.0, recent[0].InputRate)
	assert.Equal(t, "USD", recent[0].Currency)

	stats, err := svc.GetUsageOverview(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, 5, stats[0].TotalRequests)
	assert.InDelta(t, 20.0, stats[0].TotalCost, 1e-9)
}

func TestIngestor_FlushesOnTicker(t *testing.T) {
	repo, err := sqlite.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer repo.Close()

	ing := NewIngestor(zaptest.NewLogger(t), repo, IngestorOptions{BatchSize: 100, FlushInterval: 10 * time.Millisecond})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ing.Start(ctx)
	defer ing.Stop()

	res, err := pricing.ComputeCost(pricing.UsageTokens{PromptTokens: 10}, pricing.Flat("m2", 1, 1))
	require.NoError(t, err)
	ing.Record(NewRecord("m2", res, ""))

	assert.Eventually(t, func() bool {
		recs, err := repo.Costs().GetRecent(context.Background(), "m2", 10)
		return err == nil && len(recs) == 1
	}, time.Second, 10*time.Millisecond)
}
