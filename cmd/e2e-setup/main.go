// Resets the database and cache to a clean, predictable state for manual
// end-to-end testing of the payment flow, then prints a member token to
// drive the authenticated endpoints with.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/NRCPerera/Get-Fit-backend/internal/config"
	"github.com/NRCPerera/Get-Fit-backend/internal/infra/db/postgres"
	"github.com/NRCPerera/Get-Fit-backend/internal/infra/logging"
	red "github.com/NRCPerera/Get-Fit-backend/internal/infra/redis"
	"github.com/NRCPerera/Get-Fit-backend/internal/infra/web"
	"github.com/NRCPerera/Get-Fit-backend/internal/usecase"
)

const testMemberID = "e2e-member-1"

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logging.New(cfg.Log, cfg.Runtime.Dev)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := postgres.NewPgxPool(ctx, cfg.Database.URL, 5)
	if err != nil {
		log.Fatal().Err(err).Msg("postgres connect failed")
	}
	defer pool.Close()

	fmt.Println("--- E2E environment setup ---")

	fmt.Println("[1/3] wiping redis cache...")
	if cfg.Redis.URL != "" {
		client, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("redis connect failed")
		}
		defer client.Close()
		if err := client.FlushDB(ctx); err != nil {
			log.Fatal().Err(err).Msg("redis flush failed")
		}
	} else {
		fmt.Println("      redis not configured, skipping")
	}

	fmt.Println("[2/3] wiping database tables...")
	_, err = pool.Exec(ctx, `
		TRUNCATE memberships, subscriptions, payments, membership_plans
		RESTART IDENTITY CASCADE;
	`)
	if err != nil {
		log.Fatal().Err(err).Msg("truncate failed")
	}

	fmt.Println("[3/3] seeding membership plans...")
	planUC := usecase.NewPlanUseCase(postgres.NewPlanRepo(pool), log)
	seed := []struct {
		Name  string
		Desc  string
		Days  int
		Price int64
	}{
		{"Monthly", "Full gym access, renewed monthly", 30, 750_000},
		{"Annual", "Full gym access for a year", 365, 6_900_000},
	}
	for _, s := range seed {
		p, err := planUC.Create(ctx, s.Name, s.Desc, s.Days, s.Price, cfg.Payment.Currency)
		if err != nil {
			log.Fatal().Err(err).Str("name", s.Name).Msg("seed plan failed")
		}
		fmt.Printf("      plan %q id=%s\n", p.Name, p.ID)
	}

	auth := web.NewAuthManager(cfg.Server.JWTSecret, 24*time.Hour)
	token, err := auth.Mint(testMemberID)
	if err != nil {
		log.Fatal().Err(err).Msg("mint member token failed")
	}
	fmt.Println("--- E2E environment ready ---")
	fmt.Printf("member id: %s\n", testMemberID)
	fmt.Printf("Authorization: Bearer %s\n", token)
}
