package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-availability-engine/internal/availability"
	"github.com/hackgods/clinic-availability-engine/internal/config"
	"github.com/hackgods/clinic-availability-engine/internal/db"
	"github.com/hackgods/clinic-availability-engine/pkg/logging"
)

const practitionerCount = 100

// Typical clinic blocks. Each practitioner gets a random subset on a random set of weekdays.
var blocks = [][2]availability.ClockTime{
	{availability.NewClock(8, 0), availability.NewClock(12, 0)},
	{availability.NewClock(9, 0), availability.NewClock(13, 0)},
	{availability.NewClock(13, 0), availability.NewClock(17, 0)},
	{availability.NewClock(14, 0), availability.NewClock(18, 30)},
	{availability.NewClock(17, 30), availability.NewClock(20, 0)},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.LogLevel, cfg.Env).With().Str("component", "seed").Logger()

	if cfg.Storage != config.StoragePostgres {
		logger.Fatal().Msg("seed needs STORAGE=postgres")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect postgres")
	}
	defer pool.Close()

	faker := gofakeit.New(0)

	if err := seedWindows(context.Background(), pool, faker, logger, practitionerCount); err != nil {
		logger.Fatal().Err(err).Msg("seed availability")
	}

	logger.Info().Msg("seed complete")
}

func seedWindows(ctx context.Context, pool *pgxpool.Pool, faker *gofakeit.Faker, logger zerolog.Logger, count int) error {
	logger.Info().Int("practitioners", count).Msg("seeding availability windows")

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	store := availability.NewStore(availability.NewPgRepository(tx))
	created := 0

	for practitionerID := int64(1); practitionerID <= int64(count); practitionerID++ {
		for day := availability.Monday; day <= availability.Saturday; day++ {
			// roughly one day off in three, Saturdays mostly off
			if faker.Number(0, 2) == 0 || (day == availability.Saturday && faker.Bool()) {
				continue
			}
			for _, b := range blocks {
				if !faker.Bool() {
					continue
				}
				if _, err := store.AddWindow(ctx, practitionerID, day, b[0], b[1]); err != nil {
					return fmt.Errorf("practitioner %d %s: %w", practitionerID, day, err)
				}
				created++
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	logger.Info().Int("windows", created).Msg("availability windows seeded")
	return nil
}
