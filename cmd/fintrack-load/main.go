package main

import (
	"context"
	"flag"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/imelnik/fintrack/internal/config"
	"github.com/imelnik/fintrack/internal/infra/observability"
	"github.com/imelnik/fintrack/internal/infra/sqlite"
	"github.com/imelnik/fintrack/internal/ingest"
)

// fintrack-load seeds the database from the tab-separated source files.
// Files are loaded in dependency order: users, credits, payments, plans.
func main() {
	var (
		usersPath    = flag.String("users", "", "path to the users TSV file")
		creditsPath  = flag.String("credits", "", "path to the credits TSV file")
		paymentsPath = flag.String("payments", "", "path to the payments TSV file")
		plansPath    = flag.String("plans", "", "path to the plans TSV file")
	)
	flag.Parse()

	cfg := config.Load()
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		logger.Fatal("failed to open data store", zap.Error(err))
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if *usersPath != "" {
		n := loadFile(logger, *usersPath, func(f *os.File) (int, error) {
			users, err := ingest.ParseUsers(f)
			if err != nil {
				return 0, err
			}
			return store.InsertUsers(ctx, users)
		})
		logger.Info("users loaded", zap.Int("count", n))
	}

	if *creditsPath != "" {
		n := loadFile(logger, *creditsPath, func(f *os.File) (int, error) {
			credits, err := ingest.ParseCredits(f)
			if err != nil {
				return 0, err
			}
			return store.InsertCredits(ctx, credits)
		})
		logger.Info("credits loaded", zap.Int("count", n))
	}

	if *paymentsPath != "" {
		n := loadFile(logger, *paymentsPath, func(f *os.File) (int, error) {
			payments, err := ingest.ParsePayments(f)
			if err != nil {
				return 0, err
			}
			return store.InsertPayments(ctx, payments)
		})
		logger.Info("payments loaded", zap.Int("count", n))
	}

	if *plansPath != "" {
		n := loadFile(logger, *plansPath, func(f *os.File) (int, error) {
			plans, err := ingest.ParseInitialPlans(f)
			if err != nil {
				return 0, err
			}
			return store.InsertPlans(ctx, plans)
		})
		logger.Info("plans loaded", zap.Int("count", n))
	}

	if *usersPath == "" && *creditsPath == "" && *paymentsPath == "" && *plansPath == "" {
		flag.Usage()
		os.Exit(2)
	}
}

func loadFile(logger *zap.Logger, path string, fn func(*os.File) (int, error)) int {
	f, err := os.Open(path)
	if err != nil {
		logger.Fatal("cannot open file", zap.String("path", path), zap.Error(err))
	}
	defer f.Close()

	n, err := fn(f)
	if err != nil {
		logger.Fatal("load failed", zap.String("path", path), zap.Error(err))
	}
	return n
}
