package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/nulzo/unillm/internal/config"
	"github.com/nulzo/unillm/internal/modeldata"
	"github.com/nulzo/unillm/internal/store"
	"github.com/nulzo/unillm/internal/store/model"
	"github.com/nulzo/unillm/internal/store/sqlite"
	"github.com/nulzo/unillm/pkg/pricing"
)

// seeds a discounted gpt-4o-mini override and a week of synthetic cost records
func main() {
	records := flag.Int("records", 200, "number of cost records to generate")
	days := flag.Int("days", 7, "spread records over this many days")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	repo, err := sqlite.NewSQLiteStorage(cfg.Store.DSN)
	if err != nil {
		log.Fatal(err)
	}
	defer repo.Close()

	ctx := context.Background()

	override := pricing.Flat("gpt-4o-mini", 0.1, 0.4)
	rec, err := model.NewPricingRecord(override, "seed")
	if err != nil {
		log.Fatal(err)
	}
	if err := repo.Pricing().Upsert(ctx, rec); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Upserted pricing override for %s\n", override.Model())

	calc := pricing.NewCalculator()
	models := modeldata.Models()

	err = repo.WithTx(ctx, func(tx store.Repository) error {
		for i := 0; i < *records; i++ {
			m := models[rand.IntN(len(models))]
			usage := pricing.UsageTokens{
				PromptTokens:     rand.Int64N(300_000),
				CompletionTokens: rand.Int64N(8_000),
			}
			res, err := calc.ComputeCost(usage, m)
			if err != nil {
				return err
			}

			name := m.Summary().Name
			if name == override.Model() {
				if res, err = calc.ComputeCost(usage, override); err != nil {
					return err
				}
			}

			age := time.Duration(rand.Int64N(int64(*days) * int64(24*time.Hour)))
			if err := tx.Costs().Log(ctx, &model.CostRecord{
				ID:               uuid.NewString(),
				Model:            name,
				PromptTokens:     usage.PromptTokens,
				CompletionTokens: usage.CompletionTokens,
				InputRate:        res.Breakdown.InputRate,
				OutputRate:       res.Breakdown.OutputRate,
				Cost:             res.Cost,
				Currency:         res.Currency,
				ClientIP:         "127.0.0.1",
				CreatedAt:        time.Now().UTC().Add(-age),
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("\nSuccessfully seeded %s with %d cost records!\n", cfg.Store.DSN, *records)
	fmt.Printf("Try: curl localhost:%s/v1/analytics/usage?days=%d\n", cfg.Server.Port, *days)
}
