// Seeds the membership plan catalog for a fresh environment. Safe to run
// twice: when any plan already exists it prints the catalog and changes
// nothing.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/NRCPerera/Get-Fit-backend/internal/config"
	"github.com/NRCPerera/Get-Fit-backend/internal/infra/db/postgres"
	"github.com/NRCPerera/Get-Fit-backend/internal/infra/logging"
	"github.com/NRCPerera/Get-Fit-backend/internal/infra/payment/payhere"
	"github.com/NRCPerera/Get-Fit-backend/internal/usecase"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logging.New(cfg.Log, cfg.Runtime.Dev)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := postgres.NewPgxPool(ctx, cfg.Database.URL, 4)
	if err != nil {
		log.Fatal().Err(err).Msg("postgres connect failed")
	}
	defer pool.Close()

	planUC := usecase.NewPlanUseCase(postgres.NewPlanRepo(pool), log)

	plans, err := planUC.ListAll(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("list plans failed")
	}
	if len(plans) > 0 {
		fmt.Printf("%d plans already present. No changes.\n", len(plans))
		for _, p := range plans {
			fmt.Printf("  - %s (days=%d, price=%s %s, active=%v)\n",
				p.Name, p.DurationDays, payhere.FormatAmount(p.PriceCents), p.Currency, p.Active)
		}
		return
	}

	seed := []struct {
		Name  string
		Desc  string
		Days  int
		Price int64
	}{
		{"Day Pass", "Single day gym access", 1, 150_000},
		{"Monthly", "Full gym access, renewed monthly", 30, 750_000},
		{"Quarterly", "Full gym access for three months", 90, 1_950_000},
		{"Annual", "Full gym access for a year", 365, 6_900_000},
	}

	for _, s := range seed {
		p, err := planUC.Create(ctx, s.Name, s.Desc, s.Days, s.Price, cfg.Payment.Currency)
		if err != nil {
			log.Fatal().Err(err).Str("name", s.Name).Msg("create plan failed")
		}
		fmt.Printf("seeded: %s (id=%s, days=%d, price=%s %s)\n",
			p.Name, p.ID, p.DurationDays, payhere.FormatAmount(p.PriceCents), p.Currency)
	}
	fmt.Println("Seeding complete.")
}
