package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"discussion-lab/gateway"
	"discussion-lab/internal"
	"discussion-lab/repositories"
	"discussion-lab/runtime"
	"discussion-lab/runtime/workers"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the engine lifecycle, and
// centralizes error reporting, so every defer (database close included)
// executes before the process exits.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Document store (BadgerDB)
	store, err := gateway.OpenBadger(config.BadgerFilepath, log)
	if err != nil {
		return err
	}
	defer func() {
		log.Info("Closing store...")
		_ = store.Close()
	}()

	// 3. Engine wiring
	// The request façade consumes services.DiscussionService as a library;
	// this daemon owns the store and the live subscription pump.
	discussionRepository := repositories.NewDiscussionRepository(store)
	accountRepository := repositories.NewAccountRepository(store)
	watcher := runtime.NewWatcher(log, store, discussionRepository, accountRepository)

	// 4. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 5. Run the subscription pump under supervision until shutdown
	sup := workers.NewSupervisor(log)
	log.Info("Discussion engine started", "store", config.BadgerFilepath)
	sup.Add(watcher).Run(ctx)

	log.Info("Program stopped cleanly")
	return nil
}
