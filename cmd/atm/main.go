package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/shopspring/decimal"

	"github.com/takeoffbank/atm/internal/config"
	"github.com/takeoffbank/atm/internal/engine"
	"github.com/takeoffbank/atm/internal/session"
	"github.com/takeoffbank/atm/internal/store"
	"github.com/takeoffbank/atm/internal/terminal"
	"github.com/takeoffbank/atm/internal/vault"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	cfg := config.MustLoad()

	log := setupLogger(cfg.Env)

	log.Info("Starting ATM",
		slog.String("env", cfg.Env),
		slog.Int64("vault_cash", cfg.VaultCash),
	)

	accounts, err := store.New(roster())
	if err != nil {
		log.Error("Failed to build account roster", "error", err)
		os.Exit(1)
	}

	cash := vault.New(decimal.NewFromInt(cfg.VaultCash))
	sessions := session.New(accounts, log)
	eng := engine.New(sessions, cash, log)
	term := terminal.New(cfg, log, sessions, eng, os.Stdin, os.Stdout)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	done := make(chan error, 1)
	go func() {
		done <- term.Run()
	}()

	select {
	case <-sigChan:
		log.Info("Got signal to shut down")
	case err := <-done:
		if err != nil {
			log.Error("Terminal loop error", "error", err)
		}
	}

	fmt.Println("\nThank you for using our service. Goodbye")
}

// roster is the bank account database, entered into the system manually
// rather than read from a file or an external service.
func roster() []store.Seed {
	return []store.Seed{
		{ID: "2859459814", PIN: "7386", Balance: decimal.RequireFromString("10.24")},
		{ID: "1434597300", PIN: "4557", Balance: decimal.RequireFromString("90000.55")},
		{ID: "7089382418", PIN: "0075", Balance: decimal.RequireFromString("0.00")},
		{ID: "2001377812", PIN: "5950", Balance: decimal.RequireFromString("60.00")},
	}
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger
	switch env {
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = slog.New(
			slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	}
	return log
}
