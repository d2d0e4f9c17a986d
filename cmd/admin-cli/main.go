package main

import (
	"context"
	"errors"
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-admin-core/internal/repository"
	"github.com/noah-isme/sma-admin-core/internal/service"
	"github.com/noah-isme/sma-admin-core/pkg/config"
	"github.com/noah-isme/sma-admin-core/pkg/database"
	"github.com/noah-isme/sma-admin-core/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(context.Background(), cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	coordinator := repository.NewCoordinator(db, cfg.Database.TxIsolation, logr)
	policy := service.PasswordPolicy{MinLength: cfg.Password.MinLength, RequireLetterDigit: cfg.Password.RequireLetterDigit}
	validator := service.NewUserValidator(repository.NewExistenceRepository(db), service.NewValidator(), policy)
	hooks := service.WriteHooks{Audit: repository.NewAuditRepository(db), Logger: logr}

	cli := commandLine{
		db:    db,
		users: service.NewUserService(repository.NewUserRepository(coordinator), validator, hooks, logr),
		out:   os.Stdout,
	}
	if err := cli.run(os.Args); err != nil {
		if !errors.Is(err, errHelp) {
			logr.Error("command failed", zap.Error(err))
		}
		os.Exit(1)
	}
}
