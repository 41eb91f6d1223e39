package cli

import (
	"context"
	"fmt"
	"log"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/spf13/cobra"

	"quizify-engine/internal/config"
	pgbank "quizify-engine/internal/infra/postgres"
	"quizify-engine/internal/trivia"
)

// NewSeedCmd loads the bundled fallback bank into the Postgres question
// bank so operators can extend it from there.
func NewSeedCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Seed the question bank with the bundled sample questions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd.Context(), *configPath)
		},
	}
}

func runSeed(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Postgres.URL == "" {
		return fmt.Errorf("postgres url not configured")
	}
	if err := runMigrationsWithConfig(ctx, cfg); err != nil {
		return err
	}

	pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	loader := pgbank.NewBankLoader(pool)
	bank := trivia.FallbackBank()
	if err := loader.SeedBank(ctx, bank); err != nil {
		return err
	}
	log.Printf("seeded %d bank questions", len(bank))
	return nil
}
