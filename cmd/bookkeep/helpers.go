package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/viper"
	"github.com/yuchingtsai/bookkeep/internal/config"
	"github.com/yuchingtsai/bookkeep/internal/llm"
	"github.com/yuchingtsai/bookkeep/internal/service"
	"github.com/yuchingtsai/bookkeep/internal/storage"
)

// initStorage opens the database and runs migrations.
func initStorage(ctx context.Context) (service.Storage, error) {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = "$HOME/.local/share/bookkeep/bookkeep.db"
	}
	dbPath = config.ExpandPath(dbPath)

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// newClassifier builds the classification pipeline from configuration. With
// no provider configured it still works, serving every request from the
// keyword fallback.
func newClassifier() (*llm.Classifier, error) {
	cfg := config.LoadLLMConfig()
	return llm.NewClassifier(cfg, slog.Default())
}
