package main

import (
	"context"
	"os"
	"time"

	"dompet/internal/cli"
	"dompet/internal/log"
	"dompet/internal/services"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, log.ComponentSeed)

	stores := cli.OpenStore(logger, cfg)
	defer stores.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	s := &seeder{
		stores: stores,
		ledger: services.NewLedger(stores, nil),
		now:    time.Now,
	}
	res, err := s.run(ctx, cfg.DefaultUserID)
	if err != nil {
		logger.Error("Seeding failed", log.FieldError, err.Error(), log.FieldUserID, cfg.DefaultUserID)
		cancel()
		os.Exit(1)
	}
	logger.Info("Demo home data is ready",
		log.FieldUserID, cfg.DefaultUserID,
		"accounts_opened", res.AccountsOpened,
		"expenses", res.Expenses,
	)
}
